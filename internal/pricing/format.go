package pricing

import (
	"context"
	"math"

	"github.com/coursekit/commerce/internal/domain"
	"github.com/coursekit/commerce/internal/store"
	"golang.org/x/sync/errgroup"
)

// FormatInput describes a price-formatting request.
type FormatInput struct {
	ProductID             int64
	Country               string
	Quantity              int
	Code                  string
	CouponID              int64 // site coupon id
	MerchantCouponID      int64
	UpgradeFromPurchaseID int64
	UserID                int64
}

// FormattedPrice is the displayable price object consumed by the UI.
type FormattedPrice struct {
	ProductID             int64                   `json:"product_id,string"`
	UnitPrice             int64                   `json:"unit_price"`
	FullPrice             int64                   `json:"full_price"`
	CalculatedPrice       int64                   `json:"calculated_price"`
	Quantity              int                     `json:"quantity"`
	AppliedDiscount       float64                 `json:"applied_discount"`
	AppliedMerchantCoupon *domain.MerchantCoupon  `json:"applied_merchant_coupon,omitempty"`
	AvailableCoupons      []domain.MerchantCoupon `json:"available_coupons,omitempty"`
	DefaultCoupon         *domain.Coupon          `json:"default_coupon,omitempty"`
	UpgradeFromPurchaseID int64                   `json:"upgrade_from_purchase_id,string,omitempty"`
	UpgradeCredit         int64                   `json:"upgrade_credit,omitempty"`
}

// PriceFormatter computes displayable prices for a product given quantity,
// country, applicable coupons and optional upgrade context.
type PriceFormatter struct {
	products  store.ProductRepository
	purchases store.PurchaseRepository
	coupons   store.CouponRepository
	resolver  *CouponResolver
}

func NewPriceFormatter(
	products store.ProductRepository,
	purchases store.PurchaseRepository,
	coupons store.CouponRepository,
	resolver *CouponResolver,
) *PriceFormatter {
	return &PriceFormatter{
		products:  products,
		purchases: purchases,
		coupons:   coupons,
		resolver:  resolver,
	}
}

func (f *PriceFormatter) FormatPricesForProduct(ctx context.Context, in FormatInput) (*FormattedPrice, error) {
	if in.Quantity <= 0 {
		in.Quantity = 1
	}

	var product *domain.Product
	var purchases []domain.Purchase

	// product and purchase history are independent reads
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := f.products.GetByID(gctx, in.ProductID)
		if err != nil {
			return err
		}
		product = p
		return nil
	})
	if in.UserID != 0 {
		g.Go(func() error {
			rows, err := f.purchases.ListValidForUser(gctx, in.UserID)
			if err != nil {
				return err
			}
			purchases = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	upgradeFromID, err := f.detectUpgrade(ctx, in.UpgradeFromPurchaseID, in.ProductID, purchases)
	if err != nil {
		return nil, err
	}

	var explicit *domain.MerchantCoupon
	if in.MerchantCouponID != 0 {
		explicit, err = f.coupons.GetMerchantCouponByID(ctx, in.MerchantCouponID)
		if err != nil {
			return nil, err
		}
	}

	resolved, err := f.resolver.Resolve(ctx, ResolveInput{
		ExplicitCoupon: explicit,
		SiteCouponID:   in.CouponID,
		Code:           in.Code,
		ProductID:      in.ProductID,
		Country:        in.Country,
	})
	if err != nil {
		return nil, err
	}

	fp := &FormattedPrice{
		ProductID:             product.ID,
		UnitPrice:             product.UnitAmount,
		Quantity:              in.Quantity,
		AppliedMerchantCoupon: resolved.ActiveMerchantCoupon,
		DefaultCoupon:         resolved.DefaultCoupon,
		UpgradeFromPurchaseID: upgradeFromID,
	}

	fp.FullPrice = product.UnitAmount * int64(in.Quantity)

	if upgradeFromID != 0 {
		prior, err := f.purchases.GetByID(ctx, upgradeFromID)
		if err != nil {
			return nil, err
		}
		fp.UpgradeCredit = prior.TotalAmount
	}

	discount := 0.0
	if resolved.ActiveMerchantCoupon != nil {
		discount = resolved.ActiveMerchantCoupon.PercentageDiscount
	}
	fp.AppliedDiscount = discount

	base := fp.FullPrice - fp.UpgradeCredit
	if base < 0 {
		base = 0
	}
	fp.CalculatedPrice = int64(math.Round(float64(base) * (1 - discount)))

	fp.AvailableCoupons, err = f.availableCoupons(ctx, resolved.ActiveMerchantCoupon, in.Country)
	if err != nil {
		return nil, err
	}

	return fp, nil
}

// detectUpgrade picks the upgrade source: an explicit purchase id wins,
// otherwise the first valid purchase with a declared path to the target.
func (f *PriceFormatter) detectUpgrade(ctx context.Context, explicitID, productID int64, purchases []domain.Purchase) (int64, error) {
	if explicitID != 0 {
		return explicitID, nil
	}
	if len(purchases) == 0 {
		return 0, nil
	}

	paths, err := f.products.UpgradePathsTo(ctx, productID)
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return 0, nil
	}

	upgradable := make(map[int64]bool, len(paths))
	for _, p := range paths {
		upgradable[p.UpgradableFromID] = true
	}
	for _, purchase := range purchases {
		if upgradable[purchase.ProductID] {
			return purchase.ID, nil
		}
	}
	return 0, nil
}

// availableCoupons surfaces discounts the buyer is eligible for but is not
// currently using, so the UI can render e.g. a parity-pricing banner.
func (f *PriceFormatter) availableCoupons(ctx context.Context, active *domain.MerchantCoupon, country string) ([]domain.MerchantCoupon, error) {
	if active != nil && active.Type == domain.CouponTypePPP {
		return nil, nil
	}
	percent, ok := PPPDiscountPercent(country)
	if !ok {
		return nil, nil
	}
	mc, err := f.coupons.FindPPPCoupon(ctx, percent)
	if err != nil {
		return nil, err
	}
	if mc == nil {
		return nil, nil
	}
	return []domain.MerchantCoupon{*mc}, nil
}
