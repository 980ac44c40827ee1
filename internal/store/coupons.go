package store

import (
	"context"
	"errors"

	"github.com/coursekit/commerce/internal/domain"
	"gorm.io/gorm"
)

// CouponRepository handles database operations for coupons
type CouponRepository interface {
	GetMerchantCouponByID(ctx context.Context, id int64) (*domain.MerchantCoupon, error)
	GetMerchantCouponByIdentifier(ctx context.Context, identifier string) (*domain.MerchantCoupon, error)

	// GetCouponByCode resolves a redeemable site coupon by code.
	// Returns (nil, nil) when the code is unknown.
	GetCouponByCode(ctx context.Context, code string) (*domain.Coupon, error)
	GetCouponByID(ctx context.Context, id int64) (*domain.Coupon, error)

	// GetDefaultCoupon returns the enabled site-wide default coupon, or
	// (nil, nil) when no sale is running.
	GetDefaultCoupon(ctx context.Context) (*domain.Coupon, error)

	// FindPPPCoupon returns the enabled region-parity merchant coupon with
	// the given percentage discount, or (nil, nil).
	FindPPPCoupon(ctx context.Context, percentageDiscount float64) (*domain.MerchantCoupon, error)

	IncrementUsage(ctx context.Context, couponID int64) error
	DisableExpired(ctx context.Context) (int64, error)
}

// GormCouponRepository is the GORM implementation of CouponRepository
type GormCouponRepository struct {
	db *gorm.DB
}

func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

func (r *GormCouponRepository) GetMerchantCouponByID(ctx context.Context, id int64) (*domain.MerchantCoupon, error) {
	var mc domain.MerchantCoupon
	err := r.db.WithContext(ctx).First(&mc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mc, nil
}

func (r *GormCouponRepository) GetMerchantCouponByIdentifier(ctx context.Context, identifier string) (*domain.MerchantCoupon, error) {
	var mc domain.MerchantCoupon
	err := r.db.WithContext(ctx).Where("identifier = ?", identifier).First(&mc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mc, nil
}

func (r *GormCouponRepository) GetCouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormCouponRepository) GetCouponByID(ctx context.Context, id int64) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormCouponRepository) GetDefaultCoupon(ctx context.Context) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.db.WithContext(ctx).
		Where("\"default\" = ? AND status = ?", true, "enabled").
		Order("created_at DESC").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormCouponRepository) FindPPPCoupon(ctx context.Context, percentageDiscount float64) (*domain.MerchantCoupon, error) {
	var mc domain.MerchantCoupon
	err := r.db.WithContext(ctx).
		Where("type = ? AND percentage_discount = ? AND status = ?",
			domain.CouponTypePPP, percentageDiscount, "enabled").
		First(&mc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mc, nil
}

func (r *GormCouponRepository) IncrementUsage(ctx context.Context, couponID int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.Coupon{}).
		Where("id = ?", couponID).
		Update("used_count", gorm.Expr("used_count + 1")).Error
}

func (r *GormCouponRepository) DisableExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Coupon{}).
		Where("status = ? AND expires IS NOT NULL AND expires < NOW()", "enabled").
		Update("status", "expired")
	return res.RowsAffected, res.Error
}
