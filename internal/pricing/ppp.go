package pricing

import "sort"

// Purchasing-power-parity discount bands by ISO country code. Fractions in
// [0,1]; a country missing from the table gets no parity discount.
var pppDiscounts = map[string]float64{
	"AR": 0.7,
	"BD": 0.7,
	"BO": 0.6,
	"BR": 0.6,
	"CO": 0.6,
	"EG": 0.7,
	"ID": 0.7,
	"IN": 0.75,
	"KE": 0.65,
	"LK": 0.7,
	"MA": 0.6,
	"MX": 0.55,
	"NG": 0.7,
	"PE": 0.6,
	"PH": 0.65,
	"PK": 0.75,
	"TH": 0.5,
	"TR": 0.65,
	"UA": 0.65,
	"VN": 0.7,
	"ZA": 0.55,
}

// PPPDiscountPercent returns the parity discount fraction for a country,
// with ok=false when the country has no parity band.
func PPPDiscountPercent(country string) (float64, bool) {
	d, ok := pppDiscounts[country]
	return d, ok
}

// PPPDiscountLadder returns the distinct parity fractions in ascending
// order. Seed data for the parity merchant coupons is derived from it.
func PPPDiscountLadder() []float64 {
	seen := make(map[float64]bool, len(pppDiscounts))
	var ladder []float64
	for _, d := range pppDiscounts {
		if !seen[d] {
			seen[d] = true
			ladder = append(ladder, d)
		}
	}
	sort.Float64s(ladder)
	return ladder
}
