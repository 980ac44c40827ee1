package domain

import "time"

// Purchase statuses
const (
	PurchaseStatusValid      = "valid"
	PurchaseStatusRestricted = "restricted"
	PurchaseStatusRefunded   = "refunded"
)

// Purchase is the durable record of a completed checkout. Exactly one row
// exists per checkout session (unique constraint on CheckoutSessionID).
// Mutated only by refund or transfer operations after creation.
type Purchase struct {
	ID                    int64     `json:"id,string" form:"id"`
	UserID                int64     `gorm:"index" json:"user_id,string" form:"user_id"`
	ProductID             int64     `gorm:"index" json:"product_id,string" form:"product_id"`
	MerchantChargeID      int64     `json:"merchant_charge_id,string"`
	MerchantCouponID      int64     `json:"merchant_coupon_id,string"`
	UpgradedFromID        int64     `gorm:"index" json:"upgraded_from_id,string"`
	CheckoutSessionID     string    `gorm:"uniqueIndex;size:255" json:"checkout_session_id"`
	TotalAmount           int64     `json:"total_amount"` // cents
	Quantity              int       `json:"quantity"`
	Status                string    `gorm:"index;size:32" json:"status"`
	Country               string    `gorm:"size:8" json:"country"`
	Bulk                  bool      `json:"bulk"`
	AppliedPPPCouponIdent string    `gorm:"size:255" json:"applied_ppp_coupon_ident"`
	UsedCouponID          int64     `json:"used_coupon_id,string"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (Purchase) TableName() string {
	return "purchases"
}

// MerchantCharge joins a Purchase to the provider's charge record.
// Created alongside the Purchase, never mutated.
type MerchantCharge struct {
	ID                 int64     `json:"id,string"`
	UserID             int64     `gorm:"index" json:"user_id,string"`
	MerchantAccountID  int64     `json:"merchant_account_id,string"`
	MerchantProductID  int64     `json:"merchant_product_id,string"`
	MerchantCustomerID int64     `json:"merchant_customer_id,string"`
	Identifier         string    `gorm:"uniqueIndex;size:255" json:"identifier"`
	Amount             int64     `json:"amount"`
	CreatedAt          time.Time `json:"created_at"`
}

func (MerchantCharge) TableName() string {
	return "merchant_charges"
}

// MerchantCustomer joins a User to the provider's customer record.
// Created alongside the first Purchase, never mutated.
type MerchantCustomer struct {
	ID                int64     `json:"id,string"`
	UserID            int64     `gorm:"index" json:"user_id,string"`
	MerchantAccountID int64     `json:"merchant_account_id,string"`
	Identifier        string    `gorm:"uniqueIndex;size:255" json:"identifier"`
	CreatedAt         time.Time `json:"created_at"`
}

func (MerchantCustomer) TableName() string {
	return "merchant_customers"
}
