// Package ability derives content-access permissions from purchase state.
// Evaluation is a pure function of its inputs; no I/O happens here.
package ability

// Actions and effects
const (
	ActionView = "view"

	EffectAllow = "allow"
	EffectDeny  = "deny"
)

// PurchasedProduct summarizes one purchase for permission checks.
type PurchasedProduct struct {
	ProductID   int64
	ModuleSlugs []string
	Status      string // domain.PurchaseStatusValid or Restricted
	Country     string // purchase country, relevant for restricted rows
}

// Actor describes who is asking: an anonymous visitor has zero UserID and
// no purchases.
type Actor struct {
	UserID     int64
	Subscriber bool
	Country    string
	Purchases  []PurchasedProduct
}

// Resource is the content node being accessed.
type Resource struct {
	ModuleSlug string
	ProductID  int64
	Free       bool
	Preview    bool
}

// Rule is one (condition, effect) pair. Condition is plain data-driven;
// rules are evaluated in order and the first match wins.
type Rule struct {
	Action    string
	Effect    string
	Reason    string
	Condition func(Actor, Resource) bool
}

// Rules is the ordered permission rule set.
var Rules = []Rule{
	{
		Action: ActionView,
		Effect: EffectAllow,
		Reason: "free content",
		Condition: func(a Actor, r Resource) bool {
			return r.Free || r.Preview
		},
	},
	{
		Action: ActionView,
		Effect: EffectAllow,
		Reason: "purchased",
		Condition: func(a Actor, r Resource) bool {
			for _, p := range a.Purchases {
				if !covers(p, r) {
					continue
				}
				if p.Status == "restricted" && p.Country != a.Country {
					continue
				}
				return true
			}
			return false
		},
	},
	{
		Action: ActionView,
		Effect: EffectDeny,
		Reason: "region restricted",
		Condition: func(a Actor, r Resource) bool {
			for _, p := range a.Purchases {
				if covers(p, r) && p.Status == "restricted" && p.Country != a.Country {
					return true
				}
			}
			return false
		},
	},
	{
		Action: ActionView,
		Effect: EffectAllow,
		Reason: "subscriber",
		Condition: func(a Actor, r Resource) bool {
			return a.Subscriber
		},
	},
	{
		Action: ActionView,
		Effect: EffectDeny,
		Reason: "no purchase",
		Condition: func(a Actor, r Resource) bool {
			return true
		},
	},
}

// Decision is the outcome of evaluating the rule set.
type Decision struct {
	Allowed bool
	Reason  string
}

// Define returns the rules matching an actor and resource, in evaluation
// order. The first entry decides; the rest explain what else would apply.
func Define(actor Actor, resource Resource) []Rule {
	var matched []Rule
	for _, rule := range Rules {
		if rule.Condition(actor, resource) {
			matched = append(matched, rule)
		}
	}
	return matched
}

// Can evaluates the ordered rule set for an action, first match wins.
func Can(actor Actor, action string, resource Resource) Decision {
	for _, rule := range Rules {
		if rule.Action != action {
			continue
		}
		if rule.Condition(actor, resource) {
			return Decision{Allowed: rule.Effect == EffectAllow, Reason: rule.Reason}
		}
	}
	return Decision{Allowed: false, Reason: "no matching rule"}
}

// covers reports whether a purchase grants the resource: an exact module
// match or ownership of the parent product.
func covers(p PurchasedProduct, r Resource) bool {
	if r.ProductID != 0 && p.ProductID == r.ProductID {
		return true
	}
	if r.ModuleSlug != "" {
		for _, slug := range p.ModuleSlugs {
			if slug == r.ModuleSlug {
				return true
			}
		}
	}
	return false
}
