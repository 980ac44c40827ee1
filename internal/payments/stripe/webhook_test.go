package stripe

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coursekit/commerce/internal/domain"
	"github.com/coursekit/commerce/internal/purchase"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testSecret = "whsec_test_123"

type fakeRecorder struct {
	sessions []string
	result   *purchase.Result
	err      error
}

func (f *fakeRecorder) RecordNewPurchase(ctx context.Context, checkoutSessionID string) (*purchase.Result, error) {
	f.sessions = append(f.sessions, checkoutSessionID)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeEvents struct {
	processed map[string]string // provider event id -> processing error
	nextID    int64
	ids       map[int64]string
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{
		processed: make(map[string]string),
		ids:       make(map[int64]string),
	}
}

func (f *fakeEvents) Intake(ctx context.Context, provider, eventID, eventType, payload string) (*domain.WebhookEvent, bool, error) {
	if _, seen := f.processed[eventID]; seen {
		// processed with no error counts as a duplicate
		return &domain.WebhookEvent{ProviderEventID: eventID}, f.processed[eventID] == "", nil
	}
	f.nextID++
	f.ids[f.nextID] = eventID
	return &domain.WebhookEvent{ID: f.nextID, ProviderEventID: eventID}, false, nil
}

func (f *fakeEvents) MarkProcessed(ctx context.Context, id int64, processingError string) error {
	f.processed[f.ids[id]] = processingError
	return nil
}

func (f *fakeEvents) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

const checkoutCompletedPayload = `{
	"id": "evt_1",
	"type": "checkout.session.completed",
	"api_version": "2025-03-31",
	"data": {"object": {"id": "cs_test_1", "object": "checkout.session"}}
}`

func webhookContext(t *testing.T, secret, payload string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/stripe", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestWebhookBadSignature(t *testing.T) {
	recorder := &fakeRecorder{}
	h := NewWebhookHandler(testSecret, recorder, newFakeEvents())

	// signed with the wrong secret
	c, rec := webhookContext(t, "whsec_wrong", checkoutCompletedPayload)
	require.NoError(t, h.Handle(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, recorder.sessions)
}

func TestWebhookMissingSignature(t *testing.T) {
	h := NewWebhookHandler(testSecret, &fakeRecorder{}, newFakeEvents())

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/stripe", bytes.NewReader([]byte(checkoutCompletedPayload)))
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.Handle(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookCheckoutCompleted(t *testing.T) {
	recorder := &fakeRecorder{result: &purchase.Result{
		Purchase:     &domain.Purchase{ID: 1001},
		PurchaseType: purchase.NewIndividualPurchase,
	}}
	events := newFakeEvents()
	h := NewWebhookHandler(testSecret, recorder, events)

	c, rec := webhookContext(t, testSecret, checkoutCompletedPayload)
	require.NoError(t, h.Handle(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, recorder.sessions, 1)
	assert.Equal(t, "cs_test_1", recorder.sessions[0])
	assert.Equal(t, "", events.processed["evt_1"])
}

func TestWebhookDuplicateDeliverySkipped(t *testing.T) {
	recorder := &fakeRecorder{result: &purchase.Result{
		Purchase:     &domain.Purchase{ID: 1001},
		PurchaseType: purchase.NewIndividualPurchase,
	}}
	events := newFakeEvents()
	h := NewWebhookHandler(testSecret, recorder, events)

	c1, rec1 := webhookContext(t, testSecret, checkoutCompletedPayload)
	require.NoError(t, h.Handle(c1))
	require.Equal(t, http.StatusOK, rec1.Code)

	c2, rec2 := webhookContext(t, testSecret, checkoutCompletedPayload)
	require.NoError(t, h.Handle(c2))
	assert.Equal(t, http.StatusOK, rec2.Code)

	// the recorder ran only for the first delivery
	assert.Len(t, recorder.sessions, 1)
}

func TestWebhookFatalErrorAcknowledged(t *testing.T) {
	recorder := &fakeRecorder{
		err: domain.NewPurchaseError(domain.ErrCodeNoEmail, "cs_test_1", "", "prod_abc"),
	}
	events := newFakeEvents()
	h := NewWebhookHandler(testSecret, recorder, events)

	c, rec := webhookContext(t, testSecret, checkoutCompletedPayload)
	require.NoError(t, h.Handle(c))

	// fatal domain errors are acknowledged so the provider stops retrying
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, events.processed["evt_1"])
}

func TestWebhookTransientErrorRetried(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("database unavailable")}
	events := newFakeEvents()
	h := NewWebhookHandler(testSecret, recorder, events)

	c, rec := webhookContext(t, testSecret, checkoutCompletedPayload)
	require.NoError(t, h.Handle(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// not marked processed, so redelivery will run the recorder again
	_, seen := events.processed["evt_1"]
	assert.False(t, seen)

	c2, rec2 := webhookContext(t, testSecret, checkoutCompletedPayload)
	require.NoError(t, h.Handle(c2))
	assert.Equal(t, http.StatusInternalServerError, rec2.Code)
	assert.Len(t, recorder.sessions, 2)
}

func TestWebhookIgnoresUnknownEventType(t *testing.T) {
	recorder := &fakeRecorder{}
	events := newFakeEvents()
	h := NewWebhookHandler(testSecret, recorder, events)

	payload := `{"id": "evt_2", "type": "invoice.paid", "api_version": "2025-03-31", "data": {"object": {}}}`
	c, rec := webhookContext(t, testSecret, payload)
	require.NoError(t, h.Handle(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, recorder.sessions)
}

func TestWebhookUnconfiguredSecret(t *testing.T) {
	h := NewWebhookHandler("", &fakeRecorder{}, newFakeEvents())

	c, rec := webhookContext(t, testSecret, checkoutCompletedPayload)
	require.NoError(t, h.Handle(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
