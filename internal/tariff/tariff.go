// Package tariff maps voltage tiers to their price per kWh.
package tariff

import "github.com/bissquit/powerbill/internal/domain"

// DefaultRate is charged for any tier not listed in the table.
const DefaultRate int64 = 1444

var rates = map[domain.Tier]int64{
	domain.Tier450:  415,
	domain.Tier900:  1352,
	domain.Tier1300: 1444,
	domain.Tier2200: 1444,
	domain.Tier3500: 1699,
}

// RateFor returns the price per kWh for tier. Unknown tiers get DefaultRate.
func RateFor(tier domain.Tier) int64 {
	if rate, ok := rates[tier]; ok {
		return rate
	}
	return DefaultRate
}

// Tiers returns the known tiers in ascending capacity order.
func Tiers() []domain.Tier {
	return []domain.Tier{
		domain.Tier450,
		domain.Tier900,
		domain.Tier1300,
		domain.Tier2200,
		domain.Tier3500,
	}
}

// ParseTier normalises customer input to a known tier, falling back to
// domain.DefaultTier.
func ParseTier(s string) domain.Tier {
	t := domain.Tier(s)
	if t.IsValid() {
		return t
	}
	return domain.DefaultTier
}
