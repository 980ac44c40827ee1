package app

import (
	"context"
	"time"

	"github.com/coursekit/commerce/internal/store"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	sweepSpec := a.ConfigMgr().GetString("coupon", "ExpirySweepSpec")
	if sweepSpec == "" {
		sweepSpec = "@hourly"
	}

	var err error
	_, err = a.sched.AddFunc(sweepSpec, func() {
		a.SchedExpireCoupons()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		a.SchedClearWebhookEvents()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	if a.content != nil {
		_, err = a.sched.AddFunc("@hourly", func() {
			a.SchedSyncSiteSale()
		})
		if err != nil {
			zap.S().Errorf("init job error %s", err.Error())
		}
	}

	a.sched.Start()
}

// SchedExpireCoupons disables site coupons past their expiry so price
// lookups stop surfacing them.
func (a *Application) SchedExpireCoupons() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	repo := store.NewGormCouponRepository(a.gormDB)
	n, err := repo.DisableExpired(context.Background())
	if err != nil {
		zap.L().Error("coupon expiry sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("expired coupons disabled", zap.Int64("count", n))
	}
}

// SchedSyncSiteSale refreshes the default site coupon from the CMS sale
// document, so sales start and end without operator action.
func (a *Application) SchedSyncSiteSale() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	a.checkSiteSale()
}

// SchedClearWebhookEvents removes processed webhook deliveries older than
// the configured retention window.
func (a *Application) SchedClearWebhookEvents() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	idays := a.ConfigMgr().GetInt("webhook", "EventRetentionDays")
	if idays == 0 {
		idays = 30
	}
	cutoff := time.Now().Add(-time.Hour * 24 * time.Duration(idays))

	repo := store.NewGormWebhookEventRepository(a.gormDB)
	n, err := repo.DeleteProcessedBefore(context.Background(), cutoff)
	if err != nil {
		zap.L().Error("webhook event cleanup failed", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("processed webhook deliveries removed", zap.Int64("count", n))
	}
}
