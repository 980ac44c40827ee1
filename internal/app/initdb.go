package app

import (
	"context"
	"fmt"
	"time"

	"github.com/coursekit/commerce/internal/domain"
	"github.com/coursekit/commerce/internal/pricing"
	"github.com/coursekit/commerce/internal/store"
	"github.com/coursekit/commerce/pkg/common"
	"go.uber.org/zap"
)

type settingDefault struct {
	Category    string
	Name        string
	Value       string
	Description string
}

var settingDefaults = []settingDefault{
	{"webhook", "EventRetentionDays", "30", "Days to keep processed webhook deliveries"},
	{"coupon", "ExpirySweepSpec", "@hourly", "Cron spec for the coupon expiry sweep"},
	{"pricing", "DefaultCountry", "US", "Country assumed when no geo header is present"},
	{"purchase", "BulkQuantityThreshold", "2", "Quantity at or above which a checkout is treated as bulk"},
}

// checkSettings seeds missing sys_config rows with their defaults. Existing
// rows are never overwritten so operator edits survive restarts.
func (a *Application) checkSettings() {
	for sortid, s := range settingDefaults {
		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", s.Category, s.Name).
			Count(&count)

		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				ID:     common.UUIDint64(),
				Sort:   sortid,
				Type:   s.Category,
				Name:   s.Name,
				Value:  s.Value,
				Remark: s.Description,
			})
			zap.L().Info("initialized config",
				zap.String("key", s.Category+"."+s.Name),
				zap.String("default", s.Value))
		}
	}
}

// checkParityCoupons makes sure every parity discount band has a matching
// region-parity merchant coupon, so price lookups from any banded country
// always find one.
func (a *Application) checkParityCoupons() {
	now := time.Now()
	for _, d := range pricing.PPPDiscountLadder() {
		identifier := fmt.Sprintf("ppp-%d", int(d*100+0.5))

		var count int64
		a.gormDB.Model(&domain.MerchantCoupon{}).
			Where("identifier = ?", identifier).
			Count(&count)
		if count > 0 {
			continue
		}

		if err := a.gormDB.Create(&domain.MerchantCoupon{
			ID:                 common.UUIDint64(),
			Identifier:         identifier,
			Type:               domain.CouponTypePPP,
			PercentageDiscount: d,
			Status:             common.ENABLED,
			CreatedAt:          now,
			UpdatedAt:          now,
		}).Error; err != nil {
			zap.L().Error("failed to seed parity coupon",
				zap.String("identifier", identifier), zap.Error(err))
			continue
		}
		zap.L().Info("initialized parity coupon",
			zap.String("identifier", identifier),
			zap.Float64("discount", d))
	}
}

// checkSiteSale mirrors the CMS sale document into a default site coupon
// so a sale authored by the content team surfaces in price lookups without
// a deploy. No-op when no content API is configured or no sale is running;
// existing coupons are refreshed, never duplicated.
func (a *Application) checkSiteSale() {
	if a.content == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sale, err := a.content.GetActiveSale(ctx)
	if err != nil {
		zap.L().Warn("failed to load active sale", zap.Error(err))
		return
	}
	if sale == nil {
		return
	}

	coupons := store.NewGormCouponRepository(a.gormDB)
	now := time.Now()

	mc, err := coupons.GetMerchantCouponByIdentifier(ctx, sale.CouponIdentifier)
	if err != nil {
		zap.L().Error("failed to query sale merchant coupon", zap.Error(err))
		return
	}
	if mc == nil {
		mc = &domain.MerchantCoupon{
			ID:                 common.UUIDint64(),
			Identifier:         sale.CouponIdentifier,
			Type:               domain.CouponTypeSiteWide,
			PercentageDiscount: sale.PercentageDiscount,
			Status:             common.ENABLED,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := a.gormDB.Create(mc).Error; err != nil {
			zap.L().Error("failed to seed sale merchant coupon",
				zap.String("identifier", sale.CouponIdentifier), zap.Error(err))
			return
		}
	}

	existing, err := coupons.GetCouponByCode(ctx, sale.CouponIdentifier)
	if err != nil {
		zap.L().Error("failed to query sale coupon", zap.Error(err))
		return
	}
	if existing == nil {
		if err := a.gormDB.Create(&domain.Coupon{
			ID:               common.UUIDint64(),
			Code:             sale.CouponIdentifier,
			MerchantCouponID: mc.ID,
			Default:          true,
			Expires:          sale.Expires,
			Status:           common.ENABLED,
			CreatedAt:        now,
			UpdatedAt:        now,
		}).Error; err != nil {
			zap.L().Error("failed to seed sale coupon",
				zap.String("code", sale.CouponIdentifier), zap.Error(err))
			return
		}
		zap.L().Info("initialized site sale coupon",
			zap.String("code", sale.CouponIdentifier),
			zap.Float64("discount", sale.PercentageDiscount))
		return
	}

	a.gormDB.Model(&domain.Coupon{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"expires":    sale.Expires,
			"status":     common.ENABLED,
			"updated_at": now,
		})
}
