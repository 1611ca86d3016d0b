package rewards

// Point amounts backing the gamification layer. These values are part of the
// public API contract and must not drift.
const (
	// PointsPerKg is awarded per kilogram collected on completion.
	PointsPerKg = 10
	// ReferralBonus is credited to a referrer on the referred user's first
	// completed collection.
	ReferralBonus = 50
	// FirstCollectionBonus mirrors the platform constant; no completion path
	// applies it today.
	FirstCollectionBonus = 50
	// MonthlyStreakBonus mirrors the platform constant; no scheduler awards
	// it today.
	MonthlyStreakBonus = 25
)

// BadgeLevel couples a badge display name with the cumulative collected
// kilograms required to earn it.
type BadgeLevel struct {
	Name  string  // Display name.
	MinKg float64 // Threshold in cumulative collected kilograms.
}

// BadgeLevels lists every earnable badge in ascending threshold order.
// Thresholds are measured uniformly against users.total_collected.
var BadgeLevels = []BadgeLevel{
	{Name: "Beginner", MinKg: 1},
	{Name: "Enthusiast", MinKg: 5},
	{Name: "Champion", MinKg: 10},
	{Name: "Legend", MinKg: 25},
	{Name: "Eco-Warrior", MinKg: 100},
}
