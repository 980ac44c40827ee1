package ability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanViewFreeContent(t *testing.T) {
	d := Can(Actor{}, ActionView, Resource{ModuleSlug: "basics", Free: true})
	assert.True(t, d.Allowed)
	assert.Equal(t, "free content", d.Reason)
}

func TestCanViewPreviewContent(t *testing.T) {
	d := Can(Actor{}, ActionView, Resource{ModuleSlug: "advanced", Preview: true})
	assert.True(t, d.Allowed)
}

func TestAnonymousDeniedPaidContent(t *testing.T) {
	d := Can(Actor{}, ActionView, Resource{ModuleSlug: "advanced"})
	assert.False(t, d.Allowed)
	assert.Equal(t, "no purchase", d.Reason)
}

func TestPurchasedModuleAllowed(t *testing.T) {
	actor := Actor{
		UserID:  1,
		Country: "US",
		Purchases: []PurchasedProduct{
			{ProductID: 10, ModuleSlugs: []string{"basics", "advanced"}, Status: "valid"},
		},
	}
	d := Can(actor, ActionView, Resource{ModuleSlug: "advanced"})
	assert.True(t, d.Allowed)
	assert.Equal(t, "purchased", d.Reason)
}

func TestParentProductOwnershipAllowed(t *testing.T) {
	actor := Actor{
		UserID:  1,
		Country: "US",
		Purchases: []PurchasedProduct{
			{ProductID: 10, Status: "valid"},
		},
	}
	d := Can(actor, ActionView, Resource{ProductID: 10, ModuleSlug: "advanced"})
	assert.True(t, d.Allowed)
}

func TestUnrelatedPurchaseDenied(t *testing.T) {
	actor := Actor{
		UserID:  1,
		Country: "US",
		Purchases: []PurchasedProduct{
			{ProductID: 10, ModuleSlugs: []string{"basics"}, Status: "valid"},
		},
	}
	d := Can(actor, ActionView, Resource{ProductID: 99, ModuleSlug: "other"})
	assert.False(t, d.Allowed)
}

func TestRegionRestrictedPurchase(t *testing.T) {
	purchases := []PurchasedProduct{
		{ProductID: 10, ModuleSlugs: []string{"advanced"}, Status: "restricted", Country: "IN"},
	}

	// viewing from the purchase country is allowed
	home := Can(Actor{UserID: 1, Country: "IN", Purchases: purchases},
		ActionView, Resource{ModuleSlug: "advanced"})
	assert.True(t, home.Allowed)
	assert.Equal(t, "purchased", home.Reason)

	// viewing from elsewhere is denied with an explicit reason
	abroad := Can(Actor{UserID: 1, Country: "US", Purchases: purchases},
		ActionView, Resource{ModuleSlug: "advanced"})
	assert.False(t, abroad.Allowed)
	assert.Equal(t, "region restricted", abroad.Reason)
}

func TestSubscriberAllowedWithoutPurchase(t *testing.T) {
	d := Can(Actor{UserID: 1, Subscriber: true}, ActionView, Resource{ModuleSlug: "advanced"})
	assert.True(t, d.Allowed)
	assert.Equal(t, "subscriber", d.Reason)
}

func TestFirstMatchWins(t *testing.T) {
	// a free resource is allowed even when a region-restricted purchase
	// would otherwise deny it
	actor := Actor{
		UserID:  1,
		Country: "US",
		Purchases: []PurchasedProduct{
			{ProductID: 10, ModuleSlugs: []string{"basics"}, Status: "restricted", Country: "IN"},
		},
	}
	d := Can(actor, ActionView, Resource{ModuleSlug: "basics", Free: true})
	assert.True(t, d.Allowed)
	assert.Equal(t, "free content", d.Reason)
}

func TestDefineReturnsMatchesInOrder(t *testing.T) {
	actor := Actor{
		UserID:     1,
		Subscriber: true,
		Country:    "US",
		Purchases: []PurchasedProduct{
			{ProductID: 10, ModuleSlugs: []string{"basics"}, Status: "valid"},
		},
	}
	rules := Define(actor, Resource{ModuleSlug: "basics"})
	// purchased, subscriber, then the catch-all deny
	require.Len(t, rules, 3)
	assert.Equal(t, "purchased", rules[0].Reason)
	assert.Equal(t, EffectAllow, rules[0].Effect)
	assert.Equal(t, EffectDeny, rules[len(rules)-1].Effect)
}

func TestUnknownActionDenied(t *testing.T) {
	d := Can(Actor{Subscriber: true}, "edit", Resource{ModuleSlug: "basics"})
	assert.False(t, d.Allowed)
	assert.Equal(t, "no matching rule", d.Reason)
}
