package models

import "time"

// User roles accepted by the platform.
const (
	// RoleCitizen is a resident scheduling pickups.
	RoleCitizen = "citizen"
	// RoleCollectionPoint is an operator account owning one collection point.
	RoleCollectionPoint = "collection_point"
	// RoleAdmin is a platform administrator.
	RoleAdmin = "admin"
)

// User represents a platform account with its reward balance.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text;not null"`             // Display name.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	Password string `gorm:"type:text;not null"`             // Hashed credential.
	Role     string `gorm:"type:text;not null;index"`       // citizen, collection_point or admin.
	Phone    string `gorm:"type:text"`                      // Contact phone.

	AddressStreet  string   `gorm:"type:text"` // Street line.
	AddressCity    string   `gorm:"type:text"` // City, also the leaderboard scope.
	AddressState   string   `gorm:"type:text"` // State, optional.
	AddressPincode string   `gorm:"type:text"` // Postal code.
	AddressLat     *float64 `gorm:"type:real"` // Latitude, optional.
	AddressLng     *float64 `gorm:"type:real"` // Longitude, optional.

	Points         int64   `gorm:"not null;default:0"` // Reward point balance, never negative.
	TotalCollected float64 `gorm:"not null;default:0"` // Cumulative collected kilograms, non-decreasing.

	ReferralCode string `gorm:"type:text;uniqueIndex:idx_users_referral_code,where:referral_code <> ''"` // Sparse unique referral code, citizens only.
	ReferredBy   string `gorm:"type:text"`                                                               // Referral code captured at signup, immutable.

	ReferralBonusSettledAt *time.Time // Set once the referrer bonus for this user was paid.

	Active bool `gorm:"not null;default:true"` // Whether the account may act.

	Badges []UserBadge `gorm:"foreignKey:UserID"` // Earned badges.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// HasCompleteAddress reports whether the stored address can be snapshotted
// onto a pickup. Street, city and pincode are the required fields.
func (u *User) HasCompleteAddress() bool {
	return u.AddressStreet != "" && u.AddressCity != "" && u.AddressPincode != ""
}

// UserBadge records a badge earned by a user. The composite unique index makes
// re-awarding the same badge a constraint violation rather than a duplicate.
type UserBadge struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex:idx_user_badges_user_name"`           // Owning user ID.
	Name   string `gorm:"type:text;not null;uniqueIndex:idx_user_badges_user_name"` // Badge name, unique per user.

	EarnedAt time.Time `gorm:"not null"` // When the badge was earned.
}
