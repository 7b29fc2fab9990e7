package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Load represents a shipment moved for a customer
type Load struct {
	ID           string `json:"id" gorm:"primaryKey"`
	CustomerName string `json:"customer_name"`

	// Route details
	FromCity string `json:"from_city"`
	ToCity   string `json:"to_city"`

	// Pricing
	Rate decimal.Decimal `json:"rate" gorm:"type:decimal(18,2)"` // customer-facing gross charge

	// Driver assignment
	DriverID   string `json:"driver_id" gorm:"index"`
	DriverType string `json:"driver_type"` // snapshot of the driver's type at assignment

	// Status
	Status string `json:"status"` // "created", "dispatched", "delivered"

	// Timing
	PickupDate   *time.Time `json:"pickup_date"`
	DeliveryDate *time.Time `json:"delivery_date"`

	// StoredDriverPay is snapshotted once when the load is delivered.
	// Once set it is never overwritten, so a delivered load's pay can
	// not drift if the driver's profile changes later.
	StoredDriverPay *decimal.Decimal `json:"stored_driver_pay" gorm:"type:decimal(18,2)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoadStatus constants
const (
	LoadStatusCreated    = "created"
	LoadStatusDispatched = "dispatched"
	LoadStatusDelivered  = "delivered"
)
