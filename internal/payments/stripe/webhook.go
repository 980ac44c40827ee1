package stripe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/coursekit/commerce/internal/domain"
	"github.com/coursekit/commerce/internal/purchase"
	"github.com/coursekit/commerce/internal/store"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

const webhookBodyLimit = 1024 * 1024 // 1 MiB

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CheckoutRecorder records a completed checkout session.
type CheckoutRecorder interface {
	RecordNewPurchase(ctx context.Context, checkoutSessionID string) (*purchase.Result, error)
}

// WebhookHandler verifies and dispatches incoming Stripe webhook events.
type WebhookHandler struct {
	secret   string
	recorder CheckoutRecorder
	events   store.WebhookEventRepository
}

func NewWebhookHandler(secret string, recorder CheckoutRecorder, events store.WebhookEventRepository) *WebhookHandler {
	return &WebhookHandler{
		secret:   secret,
		recorder: recorder,
		events:   events,
	}
}

// checkoutSessionEvent is the minimal slice of a checkout.session object
// needed for dispatch; the recorder re-fetches the full session.
type checkoutSessionEvent struct {
	ID string `json:"id"`
}

// Handle implements the webhook endpoint. Signature failures are 400s;
// fatal domain errors are recorded and acknowledged so the provider stops
// retrying; transient failures return 500 to trigger redelivery.
func (h *WebhookHandler) Handle(c echo.Context) error {
	if strings.TrimSpace(h.secret) == "" {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "webhook secret not configured"})
	}

	r := c.Request()
	r.Body = http.MaxBytesReader(c.Response(), r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read request body"})
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing Stripe signature"})
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, h.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid Stripe signature"})
	}

	record, alreadyProcessed, err := h.events.Intake(r.Context(), "stripe", event.ID, string(event.Type), string(payload))
	if err != nil {
		zap.L().Error("webhook event intake failed", zap.String("event_id", event.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "processing failed"})
	}
	if alreadyProcessed {
		zap.L().Info("webhook event replayed, skipping",
			zap.String("event_id", event.ID), zap.String("type", string(event.Type)))
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	if err := h.handleEvent(r.Context(), &event); err != nil {
		var perr *domain.PurchaseError
		if errors.As(err, &perr) {
			// data-integrity problem, retrying cannot fix it
			zap.L().Error("fatal purchase error from webhook",
				zap.String("event_id", event.ID),
				zap.String("code", perr.Code),
				zap.String("checkout_session_id", perr.CheckoutSessionID),
				zap.String("email", perr.Email),
				zap.String("product", perr.ProductIdentifier))
			_ = h.events.MarkProcessed(r.Context(), record.ID, perr.Error())
			return c.JSON(http.StatusOK, echo.Map{"received": true})
		}

		zap.L().Error("webhook processing failed",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "processing failed"})
	}

	if err := h.events.MarkProcessed(r.Context(), record.ID, ""); err != nil {
		zap.L().Warn("failed to mark webhook event processed",
			zap.String("event_id", event.ID), zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

func (h *WebhookHandler) handleEvent(ctx context.Context, event *stripelib.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var cs checkoutSessionEvent
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return err
		}
		result, err := h.recorder.RecordNewPurchase(ctx, cs.ID)
		if err != nil {
			return err
		}
		zap.L().Info("purchase recorded",
			zap.String("checkout_session_id", cs.ID),
			zap.Int64("purchase_id", result.Purchase.ID),
			zap.String("purchase_type", result.PurchaseType))
		return nil

	default:
		zap.L().Debug("webhook event ignored",
			zap.String("type", string(event.Type)), zap.String("event_id", event.ID))
		return nil
	}
}
