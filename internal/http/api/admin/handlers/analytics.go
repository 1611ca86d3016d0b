package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bni-7/medireturn/internal/db"
	"github.com/bni-7/medireturn/internal/models"
)

// AnalyticsHandler serves platform-wide statistics for administrators.
type AnalyticsHandler struct {
	db *gorm.DB
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(conn *gorm.DB) *AnalyticsHandler {
	return &AnalyticsHandler{db: conn}
}

// Overview returns headline counts: accounts by role, pickups by status,
// kilograms collected and points issued.
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	ctx := c.Request.Context()

	type keyCount struct {
		Key   string
		Count int64
	}

	var roleCounts []keyCount
	if errCount := h.db.WithContext(ctx).Model(&models.User{}).
		Select("role as key, COUNT(*) as count").
		Group("role").
		Scan(&roleCounts).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	usersByRole := gin.H{}
	for _, rc := range roleCounts {
		usersByRole[rc.Key] = rc.Count
	}

	var statusCounts []keyCount
	if errCount := h.db.WithContext(ctx).Model(&models.Pickup{}).
		Select("status as key, COUNT(*) as count").
		Group("status").
		Scan(&statusCounts).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	pickupsByStatus := gin.H{}
	for _, sc := range statusCounts {
		pickupsByStatus[sc.Key] = sc.Count
	}

	var totalCollected float64
	if errSum := h.db.WithContext(ctx).Model(&models.Pickup{}).
		Where("status = ?", models.StatusCompleted).
		Select("COALESCE(SUM(quantity_collected), 0)").
		Scan(&totalCollected).Error; errSum != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	var pointsIssued int64
	if errSum := h.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("points > 0").
		Select("COALESCE(SUM(points), 0)").
		Scan(&pointsIssued).Error; errSum != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	var recent []models.Pickup
	if errFind := h.db.WithContext(ctx).
		Preload("User").
		Preload("CollectionPoint").
		Order("created_at DESC").
		Limit(10).
		Find(&recent).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	recentOut := make([]gin.H, 0, len(recent))
	for i := range recent {
		p := &recent[i]
		entry := gin.H{
			"id":                p.ID,
			"status":            p.Status,
			"timeSlot":          p.TimeSlot,
			"pickupDate":        p.PreferredDate.Format("2006-01-02"),
			"quantityCollected": p.QuantityCollected,
			"createdAt":         p.CreatedAt,
		}
		if p.User != nil {
			entry["userName"] = p.User.Name
		}
		if p.CollectionPoint != nil {
			entry["collectionPointName"] = p.CollectionPoint.Name
		}
		recentOut = append(recentOut, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"usersByRole":     usersByRole,
		"pickupsByStatus": pickupsByStatus,
		"totalCollected":  totalCollected,
		"pointsIssued":    pointsIssued,
		"recentPickups":   recentOut,
	})
}

// CityStats returns per-city citizen counts and collected totals.
func (h *AnalyticsHandler) CityStats(c *gin.Context) {
	type cityRow struct {
		City           string  `json:"city"`
		Citizens       int64   `json:"citizens"`
		Points         int64   `json:"points"`
		TotalCollected float64 `json:"totalCollected"`
	}
	var rows []cityRow
	if errScan := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Select("address_city as city, COUNT(*) as citizens, COALESCE(SUM(points), 0) as points, COALESCE(SUM(total_collected), 0) as total_collected").
		Where("role = ? AND address_city <> ''", models.RoleCitizen).
		Group("address_city").
		Order("total_collected DESC").
		Scan(&rows).Error; errScan != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cities": rows})
}

// Monthly returns the completed pickup series bucketed by month.
func (h *AnalyticsHandler) Monthly(c *gin.Context) {
	bucket := db.MonthBucketExpr(h.db, "completed_at")

	type monthRow struct {
		Month          string  `json:"month"`
		Completed      int64   `json:"completed"`
		TotalCollected float64 `json:"totalCollected"`
	}
	var rows []monthRow
	if errScan := h.db.WithContext(c.Request.Context()).Model(&models.Pickup{}).
		Select(fmt.Sprintf("%s as month, COUNT(*) as completed, COALESCE(SUM(quantity_collected), 0) as total_collected", bucket)).
		Where("status = ?", models.StatusCompleted).
		Group(bucket).
		Order("month ASC").
		Scan(&rows).Error; errScan != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "monthly": rows})
}
