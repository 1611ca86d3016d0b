package models

import "time"

// Transaction types recorded in the reward ledger.
const (
	TxCollection    = "collection"
	TxReferralBonus = "referral_bonus"
	TxMonthlyStreak = "monthly_streak"
	TxBadgeEarned   = "badge_earned"
)

// Reference kinds a transaction may point at.
const (
	RefPickup = "pickup"
	RefUser   = "user"
)

// Transaction is an immutable reward ledger entry. Rows are only ever
// inserted; the sum of a user's deltas reconciles with users.points.
type Transaction struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Beneficiary user ID.
	User   *User  `gorm:"foreignKey:UserID"` // Beneficiary account.

	Type        string `gorm:"type:text;not null;index"` // collection, referral_bonus, monthly_streak or badge_earned.
	Points      int64  `gorm:"not null"`                 // Signed point delta.
	Description string `gorm:"type:text;not null"`       // Human-readable summary.

	ReferenceID   *uint64 `gorm:"index"`     // Optional related entity ID.
	ReferenceKind string  `gorm:"type:text"` // pickup or user, when ReferenceID is set.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
}
