package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coursekit/commerce/config"
	"github.com/coursekit/commerce/internal/adminapi"
	"github.com/coursekit/commerce/internal/app"
	"github.com/coursekit/commerce/internal/contentapi"
	"github.com/coursekit/commerce/internal/payments/stripe"
	"github.com/coursekit/commerce/internal/pricing"
	"github.com/coursekit/commerce/internal/purchase"
	"github.com/coursekit/commerce/internal/store"
	"github.com/coursekit/commerce/internal/webserver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	cfgFile = flag.String("c", "commerce.yml", "config file path")
	initDB  = flag.Bool("i", false, "drop and recreate the database schema, then exit")
	showVer = flag.Bool("v", false, "print version and exit")
)

var version = "dev"

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg := config.LoadConfig(*cfgFile)

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initDB {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	db := application.DB()

	users := store.NewGormUserRepository(db)
	products := store.NewGormProductRepository(db)
	coupons := store.NewGormCouponRepository(db)
	purchases := store.NewGormPurchaseRepository(db)
	customers := store.NewGormMerchantCustomerRepository(db)
	events := store.NewGormWebhookEventRepository(db)
	progress := store.NewGormProgressRepository(db)

	resolver := pricing.NewCouponResolver(coupons)
	formatter := pricing.NewPriceFormatter(products, purchases, coupons, resolver)

	provider := stripe.NewProvider(cfg.Stripe.APIKey)
	recorder := purchase.NewRecorder(provider, users, products, customers, purchases, coupons)
	if n := application.GetSettingsInt64Value("purchase", "BulkQuantityThreshold"); n > 0 {
		recorder.SetBulkQuantityThreshold(int(n))
	}
	webhook := stripe.NewWebhookHandler(cfg.Stripe.WebhookSecret, recorder, events)
	refunds := stripe.NewRefundService(purchases)

	content := contentapi.NewClient(cfg.ContentAPI.BaseURL, cfg.ContentAPI.Dataset, cfg.ContentAPI.Token)

	webserver.Init(cfg)
	adminapi.Initialize(adminapi.Deps{
		Config:    cfg,
		DB:        db,
		Formatter: formatter,
		Recorder:  recorder,
		Refunds:   refunds,
		Webhook:   webhook,
		Content:   content,
		Settings:  application,
		Users:     users,
		Purchases: purchases,
		Progress:  progress,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return webserver.Listen()
	})
	g.Go(func() error {
		<-ctx.Done()
		return webserver.Shutdown()
	})

	if err := g.Wait(); err != nil {
		zap.S().Errorf("server exited: %v", err)
	}
}
