package domain

import "time"

// WebhookEvent stores provider webhook deliveries with deduplication
// metadata so event processing stays idempotent across retries.
type WebhookEvent struct {
	ID              int64      `json:"id,string"`
	Provider        string     `gorm:"size:32;index:idx_webhook_provider_event,unique" json:"provider"`
	ProviderEventID string     `gorm:"size:191;index:idx_webhook_provider_event,unique" json:"provider_event_id"`
	EventType       string     `gorm:"index;size:100" json:"event_type"`
	Payload         string     `json:"payload"`
	ProcessedAt     *time.Time `json:"processed_at"`
	ProcessingError string     `json:"processing_error"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
