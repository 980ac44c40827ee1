// Package stripe adapts the Stripe API to the commerce layer: checkout
// session retrieval, webhook intake and refund issuance.
package stripe

import (
	"context"
	"fmt"

	"github.com/coursekit/commerce/internal/purchase"
	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// Provider implements purchase.PaymentProvider against Stripe.
type Provider struct{}

// NewProvider configures the package-level Stripe client key.
func NewProvider(apiKey string) *Provider {
	stripelib.Key = apiKey
	return &Provider{}
}

// GetPurchaseInfo retrieves a checkout session with its nested customer,
// line item, product, payment intent and discount objects, and flattens
// them into the provider-agnostic purchase info.
func (p *Provider) GetPurchaseInfo(ctx context.Context, checkoutSessionID string) (*purchase.Info, error) {
	params := &stripelib.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("customer")
	params.AddExpand("line_items")
	params.AddExpand("line_items.data.price.product")
	params.AddExpand("line_items.data.discounts")
	params.AddExpand("payment_intent.latest_charge")

	cs, err := session.Get(checkoutSessionID, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session %s: %w", checkoutSessionID, err)
	}

	return extractPurchaseInfo(cs)
}

func extractPurchaseInfo(cs *stripelib.CheckoutSession) (*purchase.Info, error) {
	info := &purchase.Info{
		Quantity: 1,
		Metadata: cs.Metadata,
	}

	if cs.Customer != nil {
		info.CustomerIdentifier = cs.Customer.ID
		info.Email = cs.Customer.Email
		info.Name = cs.Customer.Name
	}
	// the customer object carries no email for guest checkouts
	if info.Email == "" && cs.CustomerDetails != nil {
		info.Email = cs.CustomerDetails.Email
		if info.Name == "" {
			info.Name = cs.CustomerDetails.Name
		}
	}

	if cs.LineItems == nil || len(cs.LineItems.Data) == 0 {
		return nil, fmt.Errorf("checkout session %s has no line items", cs.ID)
	}
	lineItem := cs.LineItems.Data[0]
	if lineItem.Quantity > 0 {
		info.Quantity = int(lineItem.Quantity)
	}
	if lineItem.Price != nil && lineItem.Price.Product != nil {
		info.ProductIdentifier = lineItem.Price.Product.ID
	}
	for _, d := range lineItem.Discounts {
		if d.Discount != nil && d.Discount.Coupon != nil {
			info.CouponIdentifier = d.Discount.Coupon.ID
			break
		}
	}

	if cs.PaymentIntent != nil && cs.PaymentIntent.LatestCharge != nil {
		info.ChargeIdentifier = cs.PaymentIntent.LatestCharge.ID
		info.ChargeAmount = cs.PaymentIntent.LatestCharge.Amount
	}
	if info.ChargeAmount == 0 {
		info.ChargeAmount = cs.AmountTotal
	}

	return info, nil
}
