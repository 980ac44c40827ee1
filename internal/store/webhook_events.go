package store

import (
	"context"
	"time"

	"github.com/coursekit/commerce/internal/domain"
	"github.com/coursekit/commerce/pkg/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WebhookEventRepository handles database operations for webhook deliveries
type WebhookEventRepository interface {
	// Intake records a delivery. Returns alreadyProcessed=true when this
	// provider event id was seen before AND fully processed; retried
	// failures are not treated as duplicates.
	Intake(ctx context.Context, provider, eventID, eventType, payload string) (event *domain.WebhookEvent, alreadyProcessed bool, err error)

	MarkProcessed(ctx context.Context, id int64, processingError string) error

	// DeleteProcessedBefore removes processed deliveries older than cutoff.
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// GormWebhookEventRepository is the GORM implementation of WebhookEventRepository
type GormWebhookEventRepository struct {
	db *gorm.DB
}

func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

func (r *GormWebhookEventRepository) Intake(ctx context.Context, provider, eventID, eventType, payload string) (*domain.WebhookEvent, bool, error) {
	now := time.Now()
	event := domain.WebhookEvent{
		ID:              common.UUIDint64(),
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       eventType,
		Payload:         payload,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(&event)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		var existing domain.WebhookEvent
		err := r.db.WithContext(ctx).
			Where("provider = ? AND provider_event_id = ?", provider, eventID).
			First(&existing).Error
		if err != nil {
			return nil, false, err
		}
		processed := existing.ProcessedAt != nil && existing.ProcessingError == ""
		return &existing, processed, nil
	}
	return &event, false, nil
}

func (r *GormWebhookEventRepository) MarkProcessed(ctx context.Context, id int64, processingError string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&domain.WebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed_at":     &now,
			"processing_error": processingError,
			"updated_at":       now,
		}).Error
}

func (r *GormWebhookEventRepository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("processed_at IS NOT NULL AND processed_at < ?", cutoff).
		Delete(&domain.WebhookEvent{})
	return res.RowsAffected, res.Error
}
