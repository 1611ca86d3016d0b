package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/bni-7/medireturn/internal/cache"
	"github.com/bni-7/medireturn/internal/models"
)

// leaderboardTTL bounds how stale the cached leaderboard may get between
// completions; completion invalidates the affected keys directly.
const leaderboardTTL = time.Minute

// leaderboardCacheSize is how many rows each cached leaderboard holds; reads
// slice it down to the requested limit.
const leaderboardCacheSize = 100

// leaderboardKey builds the cache key for one city's leaderboard. The empty
// city is the global board.
func leaderboardKey(city string) string {
	return "leaderboard:" + strings.ToLower(strings.TrimSpace(city))
}

// UserHandler handles profile, dashboard and leaderboard endpoints.
type UserHandler struct {
	db    *gorm.DB
	store cache.Cache
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB, store cache.Cache) *UserHandler {
	return &UserHandler{db: db, store: store}
}

// GetProfile returns the caller's account with badges.
func (h *UserHandler) GetProfile(c *gin.Context) {
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Preload("Badges").First(&user, getUserID(c)).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": userJSON(&user)})
}

// updateProfileRequest defines the mutable profile fields. Email, role, points
// and referral fields are not updatable through this endpoint.
type updateProfileRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address struct {
		Street  string   `json:"street"`
		City    string   `json:"city"`
		State   string   `json:"state"`
		Pincode string   `json:"pincode"`
		Lat     *float64 `json:"lat"`
		Lng     *float64 `json:"lng"`
	} `json:"address"`
}

// UpdateProfile updates the caller's name, phone and address.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var body updateProfileRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "name is required", "field": "name"})
		return
	}

	ctx := c.Request.Context()
	updates := map[string]any{
		"name":            name,
		"phone":           strings.TrimSpace(body.Phone),
		"address_street":  strings.TrimSpace(body.Address.Street),
		"address_city":    strings.TrimSpace(body.Address.City),
		"address_state":   strings.TrimSpace(body.Address.State),
		"address_pincode": strings.TrimSpace(body.Address.Pincode),
		"address_lat":     body.Address.Lat,
		"address_lng":     body.Address.Lng,
	}
	if errUpdate := h.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", getUserID(c)).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "update profile failed"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(ctx).Preload("Badges").First(&user, getUserID(c)).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": userJSON(&user)})
}

// Dashboard returns the caller's reward summary, pickup counts, recent
// transactions and their rank on the city leaderboard.
func (h *UserHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	var user models.User
	if errFind := h.db.WithContext(ctx).Preload("Badges").First(&user, getUserID(c)).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "user not found"})
		return
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if errCount := h.db.WithContext(ctx).Model(&models.Pickup{}).
		Select("status, COUNT(*) as count").
		Where("user_id = ?", user.ID).
		Group("status").
		Scan(&counts).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	pickupCounts := gin.H{"pending": int64(0), "accepted": int64(0), "rejected": int64(0), "completed": int64(0), "cancelled": int64(0)}
	for _, sc := range counts {
		pickupCounts[sc.Status] = sc.Count
	}

	var recent []models.Transaction
	if errFind := h.db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(5).
		Find(&recent).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	transactions := make([]gin.H, 0, len(recent))
	for i := range recent {
		transactions = append(transactions, transactionJSON(&recent[i]))
	}

	// Rank among citizens in the same city, higher points first.
	var rank int64 = 1
	if user.AddressCity != "" {
		var ahead int64
		if errCount := h.db.WithContext(ctx).Model(&models.User{}).
			Where("role = ? AND address_city = ? AND points > ?", models.RoleCitizen, user.AddressCity, user.Points).
			Count(&ahead).Error; errCount != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
			return
		}
		rank = ahead + 1
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"points":             user.Points,
		"totalCollected":     user.TotalCollected,
		"badges":             badgeNames(user.Badges),
		"pickupCounts":       pickupCounts,
		"recentTransactions": transactions,
		"cityRank":           rank,
	})
}

// transactionsQuery defines query parameters for the transaction history.
type transactionsQuery struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=20"`
}

// Transactions returns the caller's reward ledger entries, newest first.
func (h *UserHandler) Transactions(c *gin.Context) {
	var q transactionsQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid query"})
		return
	}
	q.Page, q.Limit = clampPage(q.Page, q.Limit)

	ctx := c.Request.Context()
	query := h.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", getUserID(c))

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	var entries []models.Transaction
	if errFind := query.
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Limit).Limit(q.Limit).
		Find(&entries).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	out := make([]gin.H, 0, len(entries))
	for i := range entries {
		out = append(out, transactionJSON(&entries[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"transactions": out,
		"total":        total,
		"page":         q.Page,
		"limit":        q.Limit,
	})
}

// leaderboardEntry is one cached leaderboard row.
type leaderboardEntry struct {
	Rank           int     `json:"rank"`
	Name           string  `json:"name"`
	City           string  `json:"city"`
	Points         int64   `json:"points"`
	TotalCollected float64 `json:"totalCollected"`
}

// Leaderboard returns the public citizen leaderboard, optionally scoped to a
// city. Results are cached briefly since the ranking changes slowly.
func (h *UserHandler) Leaderboard(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	limit := 10
	if v := c.Query("limit"); v != "" {
		if n, errParse := strconv.Atoi(v); errParse == nil && n >= 1 && n <= 100 {
			limit = n
		}
	}

	ctx := c.Request.Context()
	key := leaderboardKey(city)
	if h.store != nil {
		if data, errGet := h.store.Get(ctx, key); errGet == nil {
			var cached []leaderboardEntry
			if errDecode := json.Unmarshal(data, &cached); errDecode == nil {
				if len(cached) > limit {
					cached = cached[:limit]
				}
				c.JSON(http.StatusOK, gin.H{"success": true, "leaderboard": cached, "cached": true})
				return
			}
		}
	}

	query := h.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND active = ?", models.RoleCitizen, true)
	if city != "" {
		query = query.Where("address_city = ?", city)
	}

	var users []models.User
	if errFind := query.
		Order("points DESC, total_collected DESC").
		Limit(leaderboardCacheSize).
		Find(&users).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	entries := make([]leaderboardEntry, 0, len(users))
	for i := range users {
		entries = append(entries, leaderboardEntry{
			Rank:           i + 1,
			Name:           users[i].Name,
			City:           users[i].AddressCity,
			Points:         users[i].Points,
			TotalCollected: users[i].TotalCollected,
		})
	}

	if h.store != nil {
		if data, errEncode := json.Marshal(entries); errEncode == nil {
			if errSet := h.store.Set(ctx, key, data, leaderboardTTL); errSet != nil {
				log.Warnf("leaderboard cache set failed: %v", errSet)
			}
		}
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "leaderboard": entries, "cached": false})
}

// badgeNames flattens earned badges to their display names.
func badgeNames(badges []models.UserBadge) []string {
	names := make([]string, 0, len(badges))
	for _, b := range badges {
		names = append(names, b.Name)
	}
	return names
}
