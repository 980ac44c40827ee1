package purchase

import "context"

// Purchase types, classified after recording. Classification is
// best-effort; the safe default is NewIndividualPurchase.
const (
	NewIndividualPurchase   = "NEW_INDIVIDUAL_PURCHASE"
	NewBulkCoupon           = "NEW_BULK_COUPON"
	ExistingBulkCoupon      = "EXISTING_BULK_COUPON"
	IndividualToBulkUpgrade = "INDIVIDUAL_TO_BULK_UPGRADE"
)

// Info is the provider-agnostic view of a completed checkout session.
type Info struct {
	CustomerIdentifier string
	Email              string
	Name               string
	ProductIdentifier  string
	ChargeIdentifier   string
	CouponIdentifier   string
	Quantity           int
	ChargeAmount       int64
	Metadata           map[string]string
}

// PaymentProvider retrieves purchase information from the external payment
// system for a checkout session.
type PaymentProvider interface {
	GetPurchaseInfo(ctx context.Context, checkoutSessionID string) (*Info, error)
}
