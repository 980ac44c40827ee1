package purchase

import (
	"context"

	"github.com/coursekit/commerce/internal/domain"
	"github.com/coursekit/commerce/internal/store"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Result is everything a caller needs after a checkout session is recorded.
type Result struct {
	User         *domain.User
	Purchase     *domain.Purchase
	PurchaseInfo *Info
	PurchaseType string
}

// Recorder reconciles completed checkout sessions into durable purchase,
// charge and customer records. Safe to re-drive: replays of the same
// checkout session return the existing purchase.
// defaultBulkQuantityThreshold is the quantity at which a checkout is
// treated as a team (bulk) purchase unless configured otherwise.
const defaultBulkQuantityThreshold = 2

type Recorder struct {
	provider      PaymentProvider
	users         store.UserRepository
	products      store.ProductRepository
	customers     store.MerchantCustomerRepository
	purchases     store.PurchaseRepository
	coupons       store.CouponRepository
	bulkThreshold int
}

func NewRecorder(
	provider PaymentProvider,
	users store.UserRepository,
	products store.ProductRepository,
	customers store.MerchantCustomerRepository,
	purchases store.PurchaseRepository,
	coupons store.CouponRepository,
) *Recorder {
	return &Recorder{
		provider:      provider,
		users:         users,
		products:      products,
		customers:     customers,
		purchases:     purchases,
		coupons:       coupons,
		bulkThreshold: defaultBulkQuantityThreshold,
	}
}

// SetBulkQuantityThreshold overrides the quantity at which a checkout is
// classified as bulk. Values below 2 are ignored: a single seat is never
// a team purchase.
func (r *Recorder) SetBulkQuantityThreshold(n int) {
	if n >= 2 {
		r.bulkThreshold = n
	}
}

// RecordNewPurchase drives the full pipeline: purchase-info extraction,
// user resolution, merchant product and customer resolution, then the
// purchase/charge write. User resolution must complete before customer
// resolution, and both before the write.
func (r *Recorder) RecordNewPurchase(ctx context.Context, checkoutSessionID string) (*Result, error) {
	info, err := r.provider.GetPurchaseInfo(ctx, checkoutSessionID)
	if err != nil {
		return nil, err
	}

	if info.Email == "" {
		return nil, domain.NewPurchaseError(domain.ErrCodeNoEmail, checkoutSessionID, "", info.ProductIdentifier)
	}

	user, isNewUser, err := r.users.FindOrCreate(ctx, info.Email, info.Name)
	if err != nil {
		return nil, err
	}
	if isNewUser {
		zap.L().Info("created user for purchase",
			zap.String("email", info.Email),
			zap.String("checkout_session_id", checkoutSessionID))
	}

	merchantProduct, err := r.products.GetMerchantProductByIdentifier(ctx, info.ProductIdentifier)
	if err != nil {
		return nil, err
	}
	if merchantProduct == nil {
		return nil, domain.NewPurchaseError(domain.ErrCodeNoAssociatedProduct,
			checkoutSessionID, info.Email, info.ProductIdentifier)
	}

	merchantCustomer, err := r.customers.FindOrCreate(ctx, user.ID, info.CustomerIdentifier, merchantProduct.MerchantAccountID)
	if err != nil {
		return nil, err
	}

	var merchantCouponID int64
	if info.CouponIdentifier != "" {
		mc, err := r.coupons.GetMerchantCouponByIdentifier(ctx, info.CouponIdentifier)
		if err != nil {
			return nil, err
		}
		if mc != nil {
			merchantCouponID = mc.ID
		}
	}

	existing, err := r.purchases.GetByCheckoutSessionID(ctx, checkoutSessionID)
	if err != nil {
		return nil, err
	}
	isReplay := existing != nil

	usedCouponID := cast.ToInt64(info.Metadata["usedCouponId"])

	purchase := existing
	if purchase == nil {
		purchase, err = r.purchases.CreateChargeAndPurchase(ctx, store.NewPurchaseParams{
			UserID:                user.ID,
			ProductID:             merchantProduct.ProductID,
			MerchantAccountID:     merchantProduct.MerchantAccountID,
			MerchantProductID:     merchantProduct.ID,
			MerchantCustomerID:    merchantCustomer.ID,
			MerchantCouponID:      merchantCouponID,
			ChargeIdentifier:      info.ChargeIdentifier,
			ChargeAmount:          info.ChargeAmount,
			Quantity:              info.Quantity,
			CheckoutSessionID:     checkoutSessionID,
			Country:               info.Metadata["country"],
			Bulk:                  info.Metadata["bulk"] == "true",
			AppliedPPPCouponIdent: info.Metadata["appliedPPPStripeCouponId"],
			UpgradedFromID:        cast.ToInt64(info.Metadata["upgradedFromPurchaseId"]),
			UsedCouponID:          usedCouponID,
		})
		if err != nil {
			return nil, err
		}
	}

	if usedCouponID != 0 && !isReplay {
		if err := r.coupons.IncrementUsage(ctx, usedCouponID); err != nil {
			zap.L().Warn("failed to increment coupon usage",
				zap.Int64("coupon_id", usedCouponID), zap.Error(err))
		}
	}

	purchaseType, err := r.classify(ctx, info, user, purchase)
	if err != nil || purchaseType == "" {
		// Degrade to the safe default instead of failing the recording,
		// but leave an explicit signal in the logs.
		zap.L().Warn("purchase type classification degraded",
			zap.String("checkout_session_id", checkoutSessionID),
			zap.Error(err))
		purchaseType = NewIndividualPurchase
	}

	return &Result{
		User:         user,
		Purchase:     purchase,
		PurchaseInfo: info,
		PurchaseType: purchaseType,
	}, nil
}

// classify determines how this purchase relates to the buyer's history.
func (r *Recorder) classify(ctx context.Context, info *Info, user *domain.User, p *domain.Purchase) (string, error) {
	bulk := p.Bulk || info.Quantity >= r.bulkThreshold

	history, err := r.purchases.ListValidForUser(ctx, user.ID)
	if err != nil {
		return "", err
	}

	var priorIndividual, priorBulk bool
	for _, prior := range history {
		if prior.ID == p.ID {
			continue
		}
		if prior.ProductID != p.ProductID {
			continue
		}
		if prior.Bulk {
			priorBulk = true
		} else {
			priorIndividual = true
		}
	}

	switch {
	case bulk && priorBulk:
		return ExistingBulkCoupon, nil
	case bulk && priorIndividual:
		return IndividualToBulkUpgrade, nil
	case bulk:
		return NewBulkCoupon, nil
	default:
		return NewIndividualPurchase, nil
	}
}
