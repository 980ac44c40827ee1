package purchase

import (
	"context"
	"errors"
	"testing"

	"github.com/coursekit/commerce/internal/domain"
	"github.com/coursekit/commerce/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeProvider struct {
	info *Info
	err  error
}

func (f *fakeProvider) GetPurchaseInfo(ctx context.Context, checkoutSessionID string) (*Info, error) {
	return f.info, f.err
}

type fakeUsers struct {
	byEmail map[string]*domain.User
	created int
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUsers) FindOrCreate(ctx context.Context, email, name string) (*domain.User, bool, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, false, nil
	}
	u := &domain.User{ID: int64(len(f.byEmail) + 1), Email: email, Name: name}
	f.byEmail[email] = u
	f.created++
	return u, true, nil
}

type fakeProducts struct {
	byIdentifier map[string]*domain.MerchantProduct
}

func (f *fakeProducts) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProducts) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProducts) GetMerchantProductByIdentifier(ctx context.Context, identifier string) (*domain.MerchantProduct, error) {
	return f.byIdentifier[identifier], nil
}

func (f *fakeProducts) UpgradePathsTo(ctx context.Context, productID int64) ([]domain.UpgradePath, error) {
	return nil, nil
}

type fakeCustomers struct {
	byIdentifier map[string]*domain.MerchantCustomer
}

func (f *fakeCustomers) FindOrCreate(ctx context.Context, userID int64, identifier string, merchantAccountID int64) (*domain.MerchantCustomer, error) {
	if c, ok := f.byIdentifier[identifier]; ok {
		return c, nil
	}
	c := &domain.MerchantCustomer{ID: int64(len(f.byIdentifier) + 1), UserID: userID, Identifier: identifier}
	f.byIdentifier[identifier] = c
	return c, nil
}

type fakePurchases struct {
	bySession map[string]*domain.Purchase
	history   map[int64][]domain.Purchase
	creates   int
	listErr   error
}

func (f *fakePurchases) GetByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	for _, p := range f.bySession {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePurchases) GetByCheckoutSessionID(ctx context.Context, sessionID string) (*domain.Purchase, error) {
	return f.bySession[sessionID], nil
}

func (f *fakePurchases) ListValidForUser(ctx context.Context, userID int64) ([]domain.Purchase, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.history[userID], nil
}

func (f *fakePurchases) CreateChargeAndPurchase(ctx context.Context, params store.NewPurchaseParams) (*domain.Purchase, error) {
	f.creates++
	p := &domain.Purchase{
		ID:                int64(1000 + f.creates),
		UserID:            params.UserID,
		ProductID:         params.ProductID,
		CheckoutSessionID: params.CheckoutSessionID,
		TotalAmount:       params.ChargeAmount,
		Quantity:          params.Quantity,
		Bulk:              params.Bulk,
		Status:            domain.PurchaseStatusValid,
		UsedCouponID:      params.UsedCouponID,
	}
	f.bySession[params.CheckoutSessionID] = p
	return p, nil
}

func (f *fakePurchases) MarkRefunded(ctx context.Context, chargeIdentifier string) error {
	return nil
}

func newRecorderFixture(info *Info) (*Recorder, *fakeUsers, *fakePurchases, *fakeCouponRepo) {
	users := &fakeUsers{byEmail: make(map[string]*domain.User)}
	products := &fakeProducts{byIdentifier: map[string]*domain.MerchantProduct{
		"prod_abc": {ID: 1, MerchantAccountID: 1, ProductID: 10, Identifier: "prod_abc"},
	}}
	customers := &fakeCustomers{byIdentifier: make(map[string]*domain.MerchantCustomer)}
	purchases := &fakePurchases{
		bySession: make(map[string]*domain.Purchase),
		history:   make(map[int64][]domain.Purchase),
	}
	coupons := &fakeCouponRepo{
		byIdentifier:    make(map[string]*domain.MerchantCoupon),
		usageIncrements: make(map[int64]int),
	}
	r := NewRecorder(&fakeProvider{info: info}, users, products, customers, purchases, coupons)
	return r, users, purchases, coupons
}

type fakeCouponRepo struct {
	byIdentifier    map[string]*domain.MerchantCoupon
	usageIncrements map[int64]int
}

func (f *fakeCouponRepo) GetMerchantCouponByID(ctx context.Context, id int64) (*domain.MerchantCoupon, error) {
	return nil, nil
}

func (f *fakeCouponRepo) GetMerchantCouponByIdentifier(ctx context.Context, identifier string) (*domain.MerchantCoupon, error) {
	return f.byIdentifier[identifier], nil
}

func (f *fakeCouponRepo) GetCouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	return nil, nil
}

func (f *fakeCouponRepo) GetCouponByID(ctx context.Context, id int64) (*domain.Coupon, error) {
	return nil, nil
}

func (f *fakeCouponRepo) GetDefaultCoupon(ctx context.Context) (*domain.Coupon, error) {
	return nil, nil
}

func (f *fakeCouponRepo) FindPPPCoupon(ctx context.Context, percentageDiscount float64) (*domain.MerchantCoupon, error) {
	return nil, nil
}

func (f *fakeCouponRepo) IncrementUsage(ctx context.Context, couponID int64) error {
	f.usageIncrements[couponID]++
	return nil
}

func (f *fakeCouponRepo) DisableExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func TestRecordNoEmail(t *testing.T) {
	r, users, purchases, _ := newRecorderFixture(&Info{
		ProductIdentifier: "prod_abc",
		Quantity:          1,
	})

	_, err := r.RecordNewPurchase(context.Background(), "cs_1")
	require.Error(t, err)

	var perr *domain.PurchaseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, domain.ErrCodeNoEmail, perr.Code)
	assert.Equal(t, "cs_1", perr.CheckoutSessionID)
	assert.Zero(t, users.created)
	assert.Zero(t, purchases.creates)
}

func TestRecordUnknownProduct(t *testing.T) {
	r, _, purchases, _ := newRecorderFixture(&Info{
		Email:             "buyer@example.com",
		ProductIdentifier: "prod_missing",
		Quantity:          1,
	})

	_, err := r.RecordNewPurchase(context.Background(), "cs_1")
	require.Error(t, err)

	var perr *domain.PurchaseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, domain.ErrCodeNoAssociatedProduct, perr.Code)
	assert.Equal(t, "buyer@example.com", perr.Email)
	assert.Equal(t, "prod_missing", perr.ProductIdentifier)
	assert.Zero(t, purchases.creates)
}

func TestRecordHappyPath(t *testing.T) {
	r, users, purchases, coupons := newRecorderFixture(&Info{
		CustomerIdentifier: "cus_1",
		Email:              "buyer@example.com",
		Name:               "Buyer",
		ProductIdentifier:  "prod_abc",
		ChargeIdentifier:   "ch_1",
		Quantity:           1,
		ChargeAmount:       9900,
		Metadata:           map[string]string{"usedCouponId": "42", "country": "US"},
	})

	result, err := r.RecordNewPurchase(context.Background(), "cs_1")
	require.NoError(t, err)

	assert.Equal(t, 1, users.created)
	assert.Equal(t, 1, purchases.creates)
	assert.Equal(t, NewIndividualPurchase, result.PurchaseType)
	assert.Equal(t, int64(9900), result.Purchase.TotalAmount)
	assert.Equal(t, int64(42), result.Purchase.UsedCouponID)
	assert.Equal(t, 1, coupons.usageIncrements[42])
}

func TestRecordReplayIdempotent(t *testing.T) {
	r, users, purchases, coupons := newRecorderFixture(&Info{
		CustomerIdentifier: "cus_1",
		Email:              "buyer@example.com",
		ProductIdentifier:  "prod_abc",
		ChargeIdentifier:   "ch_1",
		Quantity:           1,
		ChargeAmount:       9900,
		Metadata:           map[string]string{"usedCouponId": "42"},
	})

	first, err := r.RecordNewPurchase(context.Background(), "cs_1")
	require.NoError(t, err)
	second, err := r.RecordNewPurchase(context.Background(), "cs_1")
	require.NoError(t, err)

	assert.Equal(t, first.Purchase.ID, second.Purchase.ID)
	assert.Equal(t, 1, purchases.creates)
	assert.Equal(t, 1, users.created)
	// replay must not double-count coupon usage
	assert.Equal(t, 1, coupons.usageIncrements[42])
}

func TestRecordBulkClassification(t *testing.T) {
	r, _, _, _ := newRecorderFixture(&Info{
		CustomerIdentifier: "cus_1",
		Email:              "team@example.com",
		ProductIdentifier:  "prod_abc",
		ChargeIdentifier:   "ch_1",
		Quantity:           5,
		ChargeAmount:       49500,
	})

	result, err := r.RecordNewPurchase(context.Background(), "cs_bulk")
	require.NoError(t, err)
	assert.Equal(t, NewBulkCoupon, result.PurchaseType)
}

func TestRecordBulkQuantityThreshold(t *testing.T) {
	info := &Info{
		CustomerIdentifier: "cus_1",
		Email:              "team@example.com",
		ProductIdentifier:  "prod_abc",
		ChargeIdentifier:   "ch_1",
		Quantity:           2,
		ChargeAmount:       19800,
	}

	// two seats is bulk at the default threshold
	r, _, _, _ := newRecorderFixture(info)
	result, err := r.RecordNewPurchase(context.Background(), "cs_q2")
	require.NoError(t, err)
	assert.Equal(t, NewBulkCoupon, result.PurchaseType)

	// raising the threshold reclassifies the same checkout as individual
	r, _, _, _ = newRecorderFixture(info)
	r.SetBulkQuantityThreshold(3)
	result, err = r.RecordNewPurchase(context.Background(), "cs_q2")
	require.NoError(t, err)
	assert.Equal(t, NewIndividualPurchase, result.PurchaseType)

	// a single seat can never be made bulk
	r, _, _, _ = newRecorderFixture(info)
	r.SetBulkQuantityThreshold(1)
	assert.Equal(t, defaultBulkQuantityThreshold, r.bulkThreshold)
}

func TestRecordIndividualToBulkUpgrade(t *testing.T) {
	r, users, purchases, _ := newRecorderFixture(&Info{
		CustomerIdentifier: "cus_1",
		Email:              "team@example.com",
		ProductIdentifier:  "prod_abc",
		ChargeIdentifier:   "ch_2",
		Quantity:           5,
		ChargeAmount:       49500,
	})
	users.byEmail["team@example.com"] = &domain.User{ID: 7, Email: "team@example.com"}
	purchases.history[7] = []domain.Purchase{
		{ID: 500, UserID: 7, ProductID: 10, Quantity: 1, Status: domain.PurchaseStatusValid},
	}

	result, err := r.RecordNewPurchase(context.Background(), "cs_bulk2")
	require.NoError(t, err)
	assert.Equal(t, IndividualToBulkUpgrade, result.PurchaseType)
}

func TestRecordExistingBulkCoupon(t *testing.T) {
	r, users, purchases, _ := newRecorderFixture(&Info{
		CustomerIdentifier: "cus_1",
		Email:              "team@example.com",
		ProductIdentifier:  "prod_abc",
		ChargeIdentifier:   "ch_3",
		Quantity:           3,
		ChargeAmount:       29700,
	})
	users.byEmail["team@example.com"] = &domain.User{ID: 7, Email: "team@example.com"}
	purchases.history[7] = []domain.Purchase{
		{ID: 500, UserID: 7, ProductID: 10, Quantity: 10, Bulk: true, Status: domain.PurchaseStatusValid},
	}

	result, err := r.RecordNewPurchase(context.Background(), "cs_bulk3")
	require.NoError(t, err)
	assert.Equal(t, ExistingBulkCoupon, result.PurchaseType)
}

func TestRecordClassificationDegrades(t *testing.T) {
	r, _, purchases, _ := newRecorderFixture(&Info{
		CustomerIdentifier: "cus_1",
		Email:              "buyer@example.com",
		ProductIdentifier:  "prod_abc",
		ChargeIdentifier:   "ch_1",
		Quantity:           1,
		ChargeAmount:       9900,
	})
	purchases.listErr = errors.New("history unavailable")

	result, err := r.RecordNewPurchase(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, NewIndividualPurchase, result.PurchaseType)
	assert.Equal(t, 1, purchases.creates)
}
