package domain

import "time"

// Merchant coupon types
const (
	CouponTypePPP      = "ppp"
	CouponTypeSiteWide = "site-wide"
	CouponTypeBulk     = "bulk"
	CouponTypeSpecial  = "special"
)

// MerchantCoupon mirrors a discount configured at the payment provider.
// PercentageDiscount is a fraction in [0,1]. Created by an operator and
// read-only at request time.
type MerchantCoupon struct {
	ID                  int64     `json:"id,string" form:"id"`
	Identifier          string    `gorm:"uniqueIndex;size:255" json:"identifier" form:"identifier"`
	Type                string    `gorm:"index;size:32" json:"type" form:"type"`
	PercentageDiscount  float64   `json:"percentage_discount" form:"percentage_discount"`
	RestrictedProductID int64     `gorm:"index" json:"restricted_product_id,string" form:"restricted_product_id"`
	Status              string    `gorm:"size:32" json:"status" form:"status"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (MerchantCoupon) TableName() string {
	return "merchant_coupons"
}

// Coupon is a site coupon: a redeemable code (or the site-wide default)
// pointing at a MerchantCoupon.
type Coupon struct {
	ID               int64      `json:"id,string" form:"id"`
	Code             string     `gorm:"uniqueIndex;size:191" json:"code" form:"code"`
	MerchantCouponID int64      `gorm:"index" json:"merchant_coupon_id,string" form:"merchant_coupon_id"`
	Default          bool       `gorm:"index" json:"default" form:"default"`
	Expires          *time.Time `json:"expires" form:"expires"`
	MaxUses          int        `json:"max_uses" form:"max_uses"`
	UsedCount        int        `json:"used_count" form:"used_count"`
	Status           string     `gorm:"size:32" json:"status" form:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}

// Redeemable reports whether the coupon can still be applied at t.
func (c *Coupon) Redeemable(t time.Time) bool {
	if c.Status != "" && c.Status != "enabled" {
		return false
	}
	if c.Expires != nil && c.Expires.Before(t) {
		return false
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return false
	}
	return true
}
