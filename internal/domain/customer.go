package domain

import "time"

// Tier is the service-voltage capacity class of a customer, in VA.
type Tier string

// Known tiers.
const (
	Tier450  Tier = "450"
	Tier900  Tier = "900"
	Tier1300 Tier = "1300"
	Tier2200 Tier = "2200"
	Tier3500 Tier = "3500"
)

// DefaultTier is assigned when a customer supplies an unknown tier.
const DefaultTier = Tier1300

// IsValid checks if the tier is one of the known tiers.
func (t Tier) IsValid() bool {
	switch t {
	case Tier450, Tier900, Tier1300, Tier2200, Tier3500:
		return true
	}
	return false
}

// Customer is a postpaid electricity customer.
type Customer struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	MeterNumber string    `json:"meterNumber"`
	Address     string    `json:"address"`
	VoltageTier Tier      `json:"voltageTier"`
	Phone       string    `json:"phone"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
