package adminapi

import (
	"github.com/coursekit/commerce/config"
	"github.com/coursekit/commerce/internal/app"
	"github.com/coursekit/commerce/internal/contentapi"
	"github.com/coursekit/commerce/internal/payments/stripe"
	"github.com/coursekit/commerce/internal/pricing"
	"github.com/coursekit/commerce/internal/purchase"
	"github.com/coursekit/commerce/internal/store"
	"github.com/coursekit/commerce/internal/webserver"
	"gorm.io/gorm"
)

// Deps wires the handler set to the rest of the application.
type Deps struct {
	Config    *config.AppConfig
	DB        *gorm.DB
	Formatter *pricing.PriceFormatter
	Recorder  *purchase.Recorder
	Refunds   *stripe.RefundService
	Webhook   *stripe.WebhookHandler
	Content   *contentapi.Client
	Settings  app.SettingsProvider
	Users     store.UserRepository
	Purchases store.PurchaseRepository
	Progress  store.ProgressRepository
}

var deps Deps

// Initialize stores the dependency set and registers all routes.
func Initialize(d Deps) {
	deps = d

	secret := webserver.SkillSecretRequired(d.Config.Web.SkillSecret)

	// internal RPC surface consumed by the UI layer
	webserver.ApiPOST("/rpc/pricing.formatted", pricingFormatted)
	webserver.ApiGET("/rpc/purchases.getPurchaseById", getPurchaseByID)
	webserver.ApiGET("/rpc/moduleProgress.bySlug", moduleProgressBySlug)
	webserver.ApiPOST("/rpc/moduleProgress.complete", moduleProgressComplete)

	// payment provider webhook
	webserver.ApiPOST("/webhook/stripe", d.Webhook.Handle)

	// administrative endpoints, shared-secret gated
	webserver.ApiPOST("/admin/magic-link", createMagicLink, secret)
	webserver.ApiPOST("/admin/refund", processRefund, secret)

	registerProductRoutes(secret)
	registerCouponRoutes(secret)
}
