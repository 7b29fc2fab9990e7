package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Driver represents a driver profile
type Driver struct {
	ID   string `json:"id" gorm:"primaryKey"`
	Name string `json:"name"`

	Phone     string `json:"phone"`
	TruckUnit string `json:"truck_unit"` // e.g. "Unit 12"

	// Type decides how pay and revenue are computed per load
	Type string `json:"type"` // "company_driver", "owner_operator", "owner_as_driver"

	// PayRate is the fraction of a load's rate paid to the driver.
	// Unused for owner-operators, who keep the rate minus commission.
	PayRate decimal.Decimal `json:"pay_rate" gorm:"type:decimal(6,4)"`

	Active bool `json:"active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Driver type constants
const (
	DriverTypeCompany       = "company_driver"
	DriverTypeOwnerOperator = "owner_operator"
	DriverTypeOwnerAsDriver = "owner_as_driver"
)

// RequiresPayRate reports whether pay for this driver type is computed
// from a percentage rate. Owner-operators are paid the load rate minus
// commission instead.
func RequiresPayRate(driverType string) bool {
	return driverType == DriverTypeCompany || driverType == DriverTypeOwnerAsDriver
}
