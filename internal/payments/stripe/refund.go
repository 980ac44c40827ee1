package stripe

import (
	"context"
	"fmt"

	"github.com/coursekit/commerce/internal/store"
	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/refund"
	"go.uber.org/zap"
)

// RefundService issues refunds at the provider and flips the owning
// purchase to refunded status.
type RefundService struct {
	purchases store.PurchaseRepository
}

func NewRefundService(purchases store.PurchaseRepository) *RefundService {
	return &RefundService{purchases: purchases}
}

func (s *RefundService) RefundCharge(ctx context.Context, chargeIdentifier string) (*stripelib.Refund, error) {
	params := &stripelib.RefundParams{
		Charge: stripelib.String(chargeIdentifier),
	}
	params.Context = ctx

	re, err := refund.New(params)
	if err != nil {
		return nil, fmt.Errorf("create refund for charge %s: %w", chargeIdentifier, err)
	}

	// The provider refund succeeded; a failure to flip local status is
	// recoverable on the next reconciliation, not a reason to fail the call.
	if err := s.purchases.MarkRefunded(ctx, chargeIdentifier); err != nil {
		zap.L().Warn("refund issued but purchase status update failed",
			zap.String("charge", chargeIdentifier), zap.Error(err))
	}

	zap.L().Info("refund issued", zap.String("charge", chargeIdentifier), zap.String("refund_id", re.ID))
	return re, nil
}
