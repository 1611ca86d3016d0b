package models

import "time"

// Pickup lifecycle statuses. Pending moves to accepted, rejected or cancelled;
// accepted moves to completed or cancelled; the rest are terminal.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// TimeSlots are the four pickup windows the scheduling API accepts, verbatim.
var TimeSlots = []string{
	"09:00 AM - 12:00 PM",
	"12:00 PM - 03:00 PM",
	"03:00 PM - 06:00 PM",
	"06:00 PM - 09:00 PM",
}

// ValidTimeSlot reports whether slot is one of the fixed pickup windows.
func ValidTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// TerminalStatus reports whether status permits no further transition.
func TerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Pickup is one scheduling request, the unit the state machine operates on.
// The address is snapshotted from the citizen profile at creation time and the
// request details are kept as structured columns rather than a free-text blob.
type Pickup struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Requesting citizen user ID.
	User   *User  `gorm:"foreignKey:UserID"` // Requesting citizen account.

	CollectionPointID uint64           `gorm:"not null;index"`               // Target collection point ID.
	CollectionPoint   *CollectionPoint `gorm:"foreignKey:CollectionPointID"` // Target collection point.

	AddressStreet  string   `gorm:"type:text;not null"` // Snapshot: street.
	AddressCity    string   `gorm:"type:text;not null"` // Snapshot: city.
	AddressState   string   `gorm:"type:text"`          // Snapshot: state.
	AddressPincode string   `gorm:"type:text;not null"` // Snapshot: pincode.
	AddressLat     *float64 `gorm:"type:real"`          // Snapshot: latitude.
	AddressLng     *float64 `gorm:"type:real"`          // Snapshot: longitude.

	PreferredDate time.Time `gorm:"not null"`           // Requested pickup date, midnight-truncated.
	TimeSlot      string    `gorm:"type:text;not null"` // One of the four fixed windows.

	MedicineDetails     string  `gorm:"type:text;not null"` // What is being returned.
	EstimatedQuantity   float64 `gorm:"not null"`           // Citizen's estimate in kilograms.
	ContactPhone        string  `gorm:"type:text;not null"` // Primary contact phone.
	AlternatePhone      string  `gorm:"type:text"`          // Optional secondary phone.
	SpecialInstructions string  `gorm:"type:text"`          // Optional handover instructions.

	Status string `gorm:"type:text;not null;default:pending;index"` // Lifecycle status.

	QuantityCollected float64    `gorm:"not null;default:0"` // Actual kilograms, set on completion.
	RejectionReason   string     `gorm:"type:text"`          // Set on rejection.
	CompletedAt       *time.Time // Completion timestamp.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`       // Last update timestamp.
}
