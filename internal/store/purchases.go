package store

import (
	"context"
	"errors"
	"time"

	"github.com/coursekit/commerce/internal/domain"
	"github.com/coursekit/commerce/pkg/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewPurchaseParams carries everything needed to persist a purchase and its
// provider charge in one transaction.
type NewPurchaseParams struct {
	UserID                int64
	ProductID             int64
	MerchantAccountID     int64
	MerchantProductID     int64
	MerchantCustomerID    int64
	MerchantCouponID      int64
	ChargeIdentifier      string
	ChargeAmount          int64
	Quantity              int
	CheckoutSessionID     string
	Country               string
	Bulk                  bool
	AppliedPPPCouponIdent string
	UpgradedFromID        int64
	UsedCouponID          int64
}

// PurchaseRepository handles database operations for purchases
type PurchaseRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Purchase, error)

	// GetByCheckoutSessionID returns (nil, nil) when no purchase exists yet.
	GetByCheckoutSessionID(ctx context.Context, sessionID string) (*domain.Purchase, error)

	// ListValidForUser returns valid and restricted purchases for upgrade
	// and access checks. Refunded purchases are excluded.
	ListValidForUser(ctx context.Context, userID int64) ([]domain.Purchase, error)

	// CreateChargeAndPurchase persists the MerchantCharge and Purchase rows
	// atomically. Replays with the same checkout session id return the
	// existing purchase instead of duplicating it.
	CreateChargeAndPurchase(ctx context.Context, params NewPurchaseParams) (*domain.Purchase, error)

	// MarkRefunded flips the purchase owning the given charge identifier to
	// refunded status.
	MarkRefunded(ctx context.Context, chargeIdentifier string) error
}

// GormPurchaseRepository is the GORM implementation of PurchaseRepository
type GormPurchaseRepository struct {
	db *gorm.DB
}

func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

func (r *GormPurchaseRepository) GetByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	var p domain.Purchase
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPurchaseRepository) GetByCheckoutSessionID(ctx context.Context, sessionID string) (*domain.Purchase, error) {
	var p domain.Purchase
	err := r.db.WithContext(ctx).Where("checkout_session_id = ?", sessionID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPurchaseRepository) ListValidForUser(ctx context.Context, userID int64) ([]domain.Purchase, error) {
	var purchases []domain.Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, []string{domain.PurchaseStatusValid, domain.PurchaseStatusRestricted}).
		Order("created_at ASC").
		Find(&purchases).Error
	return purchases, err
}

func (r *GormPurchaseRepository) CreateChargeAndPurchase(ctx context.Context, params NewPurchaseParams) (*domain.Purchase, error) {
	if existing, err := r.GetByCheckoutSessionID(ctx, params.CheckoutSessionID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	now := time.Now()
	charge := domain.MerchantCharge{
		ID:                 common.UUIDint64(),
		UserID:             params.UserID,
		MerchantAccountID:  params.MerchantAccountID,
		MerchantProductID:  params.MerchantProductID,
		MerchantCustomerID: params.MerchantCustomerID,
		Identifier:         params.ChargeIdentifier,
		Amount:             params.ChargeAmount,
		CreatedAt:          now,
	}

	status := domain.PurchaseStatusValid
	if params.AppliedPPPCouponIdent != "" {
		// parity-priced purchases are region locked
		status = domain.PurchaseStatusRestricted
	}

	purchase := domain.Purchase{
		ID:                    common.UUIDint64(),
		UserID:                params.UserID,
		ProductID:             params.ProductID,
		MerchantChargeID:      charge.ID,
		MerchantCouponID:      params.MerchantCouponID,
		UpgradedFromID:        params.UpgradedFromID,
		CheckoutSessionID:     params.CheckoutSessionID,
		TotalAmount:           params.ChargeAmount,
		Quantity:              params.Quantity,
		Status:                status,
		Country:               params.Country,
		Bulk:                  params.Bulk,
		AppliedPPPCouponIdent: params.AppliedPPPCouponIdent,
		UsedCouponID:          params.UsedCouponID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "identifier"}}, DoNothing: true}).
			Create(&charge).Error; err != nil {
			return err
		}
		res := tx.
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "checkout_session_id"}}, DoNothing: true}).
			Create(&purchase)
		return res.Error
	})
	if err != nil {
		return nil, err
	}

	// The conflict clause may have swallowed a concurrent insert; read back
	// the row that actually won.
	return r.GetByCheckoutSessionID(ctx, params.CheckoutSessionID)
}

func (r *GormPurchaseRepository) MarkRefunded(ctx context.Context, chargeIdentifier string) error {
	var charge domain.MerchantCharge
	err := r.db.WithContext(ctx).Where("identifier = ?", chargeIdentifier).First(&charge).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&domain.Purchase{}).
		Where("merchant_charge_id = ?", charge.ID).
		Updates(map[string]interface{}{
			"status":     domain.PurchaseStatusRefunded,
			"updated_at": time.Now(),
		}).Error
}
