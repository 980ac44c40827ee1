package pricing

import (
	"context"
	"time"

	"github.com/coursekit/commerce/internal/domain"
	"github.com/coursekit/commerce/internal/store"
	"go.uber.org/zap"
)

// ResolveInput describes a coupon-resolution request.
type ResolveInput struct {
	// ExplicitCoupon, when set, is honored unconditionally.
	ExplicitCoupon *domain.MerchantCoupon

	// SiteCouponID selects a specific site coupon instead of the default.
	SiteCouponID int64

	// Code is a buyer-supplied coupon code.
	Code string

	ProductID int64
	Country   string
}

// ResolvedCoupons is the resolver result. ActiveMerchantCoupon is nil when
// nothing applies; that is not an error.
type ResolvedCoupons struct {
	ActiveMerchantCoupon *domain.MerchantCoupon
	DefaultCoupon        *domain.Coupon
}

// CouponResolver picks the single best applicable discount for a product,
// by source precedence: explicit > code > region-parity > site default.
type CouponResolver struct {
	coupons store.CouponRepository
}

func NewCouponResolver(coupons store.CouponRepository) *CouponResolver {
	return &CouponResolver{coupons: coupons}
}

func (r *CouponResolver) Resolve(ctx context.Context, in ResolveInput) (ResolvedCoupons, error) {
	if in.ExplicitCoupon != nil {
		return ResolvedCoupons{ActiveMerchantCoupon: in.ExplicitCoupon}, nil
	}

	now := time.Now()

	if in.Code != "" {
		coupon, err := r.coupons.GetCouponByCode(ctx, in.Code)
		if err != nil {
			return ResolvedCoupons{}, err
		}
		if coupon != nil && coupon.Redeemable(now) {
			mc, err := r.coupons.GetMerchantCouponByID(ctx, coupon.MerchantCouponID)
			if err != nil {
				return ResolvedCoupons{}, err
			}
			if mc != nil && couponAppliesToProduct(mc, in.ProductID) {
				return ResolvedCoupons{ActiveMerchantCoupon: mc}, nil
			}
			zap.L().Debug("code coupon not applicable to product",
				zap.String("code", in.Code), zap.Int64("product_id", in.ProductID))
		}
	}

	if percent, ok := PPPDiscountPercent(in.Country); ok {
		mc, err := r.coupons.FindPPPCoupon(ctx, percent)
		if err != nil {
			return ResolvedCoupons{}, err
		}
		if mc != nil {
			// a running site sale is still surfaced so the UI can offer it
			defaultCoupon, err := r.lookupSiteCoupon(ctx, in.SiteCouponID, now)
			if err != nil {
				return ResolvedCoupons{}, err
			}
			return ResolvedCoupons{ActiveMerchantCoupon: mc, DefaultCoupon: defaultCoupon}, nil
		}
	}

	defaultCoupon, err := r.lookupSiteCoupon(ctx, in.SiteCouponID, now)
	if err != nil {
		return ResolvedCoupons{}, err
	}
	if defaultCoupon != nil {
		mc, err := r.coupons.GetMerchantCouponByID(ctx, defaultCoupon.MerchantCouponID)
		if err != nil {
			return ResolvedCoupons{}, err
		}
		if mc != nil && couponAppliesToProduct(mc, in.ProductID) {
			return ResolvedCoupons{ActiveMerchantCoupon: mc, DefaultCoupon: defaultCoupon}, nil
		}
	}

	return ResolvedCoupons{}, nil
}

func (r *CouponResolver) lookupSiteCoupon(ctx context.Context, siteCouponID int64, now time.Time) (*domain.Coupon, error) {
	var coupon *domain.Coupon
	var err error
	if siteCouponID != 0 {
		coupon, err = r.coupons.GetCouponByID(ctx, siteCouponID)
	} else {
		coupon, err = r.coupons.GetDefaultCoupon(ctx)
	}
	if err != nil {
		return nil, err
	}
	if coupon == nil || !coupon.Redeemable(now) {
		return nil, nil
	}
	return coupon, nil
}

func couponAppliesToProduct(mc *domain.MerchantCoupon, productID int64) bool {
	return mc.RestrictedProductID == 0 || mc.RestrictedProductID == productID
}
