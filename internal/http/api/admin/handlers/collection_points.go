package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/bni-7/medireturn/internal/db"
	"github.com/bni-7/medireturn/internal/models"
)

// AdminCollectionPointHandler manages collection point verification.
type AdminCollectionPointHandler struct {
	db *gorm.DB
}

// NewAdminCollectionPointHandler constructs an AdminCollectionPointHandler.
func NewAdminCollectionPointHandler(conn *gorm.DB) *AdminCollectionPointHandler {
	return &AdminCollectionPointHandler{db: conn}
}

// adminPointListQuery defines query parameters for listing points.
type adminPointListQuery struct {
	Verified *bool  `form:"verified"`
	Search   string `form:"search"`
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
}

// List returns collection points with optional verification filter and search.
func (h *AdminCollectionPointHandler) List(c *gin.Context) {
	var q adminPointListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid query"})
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	ctx := c.Request.Context()
	query := h.db.WithContext(ctx).Model(&models.CollectionPoint{})
	if q.Verified != nil {
		query = query.Where("is_verified = ?", *q.Verified)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := db.NormalizeLikePattern(h.db, "%"+search+"%")
		query = query.Where(
			db.CaseInsensitiveLikeExpr(h.db, "name")+" OR "+db.CaseInsensitiveLikeExpr(h.db, "address_city"),
			pattern, pattern,
		)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	var points []models.CollectionPoint
	if errFind := query.
		Preload("User").
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Limit).Limit(q.Limit).
		Find(&points).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"collectionPoints": adminPointRows(points),
		"total":            total,
		"page":             q.Page,
		"limit":            q.Limit,
	})
}

// Pending returns unverified collection points awaiting approval, oldest first.
func (h *AdminCollectionPointHandler) Pending(c *gin.Context) {
	var points []models.CollectionPoint
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("is_verified = ?", false).
		Preload("User").
		Order("created_at ASC").
		Find(&points).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "collectionPoints": adminPointRows(points)})
}

// Approve marks a collection point verified so it can receive pickups.
func (h *AdminCollectionPointHandler) Approve(c *gin.Context) {
	id, ok := parsePointID(c)
	if !ok {
		return
	}
	res := h.db.WithContext(c.Request.Context()).
		Model(&models.CollectionPoint{}).
		Where("id = ?", id).
		UpdateColumn("is_verified", true)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "update collection point failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "collection point not found"})
		return
	}
	log.Infof("collection point %d approved", id)
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id, "isVerified": true})
}

// Reject removes a collection point. Historical pickups keep their snapshot
// data, so existing rows are left untouched.
func (h *AdminCollectionPointHandler) Reject(c *gin.Context) {
	id, ok := parsePointID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var point models.CollectionPoint
	if errFind := h.db.WithContext(ctx).First(&point, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "collection point not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	if errDelete := h.db.WithContext(ctx).Delete(&point).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "delete collection point failed"})
		return
	}
	log.Infof("collection point %d rejected and removed", id)
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

// adminPointRows renders points with their owner summaries.
func adminPointRows(points []models.CollectionPoint) []gin.H {
	out := make([]gin.H, 0, len(points))
	for i := range points {
		p := &points[i]
		entry := gin.H{
			"id":   p.ID,
			"name": p.Name,
			"type": p.Type,
			"address": gin.H{
				"street":  p.AddressStreet,
				"city":    p.AddressCity,
				"pincode": p.AddressPincode,
			},
			"phone":            p.Phone,
			"isVerified":       p.IsVerified,
			"isActive":         p.IsActive,
			"totalCollected":   p.TotalCollected,
			"completedPickups": p.CompletedPickups,
			"createdAt":        p.CreatedAt,
		}
		if p.User != nil {
			entry["owner"] = gin.H{"id": p.User.ID, "name": p.User.Name, "email": p.User.Email}
		}
		out = append(out, entry)
	}
	return out
}

// parsePointID reads the :id path parameter, responding on failure.
func parsePointID(c *gin.Context) (uint64, bool) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid collection point id"})
		return 0, false
	}
	return id, true
}
