package models

import (
	"time"

	"gorm.io/datatypes"
)

// Collection point types accepted at registration.
const (
	PointTypePharmacy = "pharmacy"
	PointTypeHospital = "hospital"
	PointTypeNGO      = "ngo"
	PointTypeClinic   = "clinic"
)

// ValidPointType reports whether t is a known collection point type.
func ValidPointType(t string) bool {
	switch t {
	case PointTypePharmacy, PointTypeHospital, PointTypeNGO, PointTypeClinic:
		return true
	}
	return false
}

// DaySchedule is one weekday entry in a collection point's operating hours.
type DaySchedule struct {
	Open   string `json:"open"`   // Opening time, "HH:MM".
	Close  string `json:"close"`  // Closing time, "HH:MM".
	Closed bool   `json:"closed"` // Whether the point is closed that day.
}

// OperatingHours maps lowercase weekday names to schedules.
type OperatingHours map[string]DaySchedule

// CollectionPoint is a disposal site owned by exactly one operator account.
type CollectionPoint struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex"` // Owning operator user ID, one point per operator.
	User   *User  `gorm:"foreignKey:UserID"`    // Owning operator account.

	Name string `gorm:"type:text;not null"`       // Display name.
	Type string `gorm:"type:text;not null;index"` // pharmacy, hospital, ngo or clinic.

	AddressStreet  string  `gorm:"type:text;not null"` // Street line.
	AddressCity    string  `gorm:"type:text;not null"` // City.
	AddressPincode string  `gorm:"type:text;not null"` // Postal code.
	AddressLat     float64 `gorm:"not null"`           // Latitude.
	AddressLng     float64 `gorm:"not null"`           // Longitude.

	Phone          string         `gorm:"type:text;not null"` // Contact phone.
	OperatingHours datatypes.JSON `gorm:"type:jsonb"`         // Per-weekday open/close/closed JSON.
	Description    string         `gorm:"type:text"`          // Optional description.

	IsVerified bool `gorm:"not null;default:false"` // Admin approval flag; pickups require it.
	IsActive   bool `gorm:"not null;default:true"`  // Operator-controlled availability flag.

	TotalCollected   float64 `gorm:"not null;default:0"` // Cumulative collected kilograms.
	CompletedPickups int64   `gorm:"not null;default:0"` // Count of completed pickups.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
