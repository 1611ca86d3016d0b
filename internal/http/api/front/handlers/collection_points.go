package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bni-7/medireturn/internal/models"
)

// pointPhonePattern matches the 10-digit contact numbers accepted at registration.
var pointPhonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// CollectionPointHandler handles collection point registration and browsing.
type CollectionPointHandler struct {
	db *gorm.DB
}

// NewCollectionPointHandler constructs a CollectionPointHandler.
func NewCollectionPointHandler(db *gorm.DB) *CollectionPointHandler {
	return &CollectionPointHandler{db: db}
}

// registerPointRequest defines the request body for registering a point.
type registerPointRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Address struct {
		Street  string  `json:"street"`
		City    string  `json:"city"`
		Pincode string  `json:"pincode"`
		Lat     float64 `json:"lat"`
		Lng     float64 `json:"lng"`
	} `json:"address"`
	Phone          string                `json:"phone"`
	OperatingHours models.OperatingHours `json:"operatingHours"`
	Description    string                `json:"description"`
}

// Register creates the operator's collection point. Every new point starts
// unverified and cannot receive pickups until an admin approves it.
func (h *CollectionPointHandler) Register(c *gin.Context) {
	var body registerPointRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "name is required", "field": "name"})
		return
	}
	if !models.ValidPointType(body.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "type must be pharmacy, hospital, ngo or clinic", "field": "type"})
		return
	}
	street := strings.TrimSpace(body.Address.Street)
	city := strings.TrimSpace(body.Address.City)
	pincode := strings.TrimSpace(body.Address.Pincode)
	if street == "" || city == "" || pincode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "address street, city and pincode are required", "field": "address"})
		return
	}
	if !pointPhonePattern.MatchString(strings.TrimSpace(body.Phone)) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "phone must be a 10-digit number", "field": "phone"})
		return
	}

	ctx := c.Request.Context()
	userID := getUserID(c)

	var existing models.CollectionPoint
	if errCheck := h.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; errCheck == nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "a collection point is already registered for this account"})
		return
	} else if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	var hours datatypes.JSON
	if len(body.OperatingHours) > 0 {
		data, errEncode := json.Marshal(body.OperatingHours)
		if errEncode != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid operating hours", "field": "operatingHours"})
			return
		}
		hours = data
	}

	point := models.CollectionPoint{
		UserID:         userID,
		Name:           name,
		Type:           body.Type,
		AddressStreet:  street,
		AddressCity:    city,
		AddressPincode: pincode,
		AddressLat:     body.Address.Lat,
		AddressLng:     body.Address.Lng,
		Phone:          strings.TrimSpace(body.Phone),
		OperatingHours: hours,
		Description:    strings.TrimSpace(body.Description),
		IsVerified:     false,
		IsActive:       true,
	}
	if errCreate := h.db.WithContext(ctx).Create(&point).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "create collection point failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "collectionPoint": pointJSON(&point)})
}

// pointListQuery defines query parameters for the public point listing.
type pointListQuery struct {
	Type  string `form:"type"`
	City  string `form:"city"`
	Page  int    `form:"page,default=1"`
	Limit int    `form:"limit,default=20"`
}

// List returns verified, active collection points for citizens to browse.
func (h *CollectionPointHandler) List(c *gin.Context) {
	var q pointListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid query"})
		return
	}
	q.Page, q.Limit = clampPage(q.Page, q.Limit)

	ctx := c.Request.Context()
	query := h.db.WithContext(ctx).Model(&models.CollectionPoint{}).
		Where("is_verified = ? AND is_active = ?", true, true)
	if q.Type != "" {
		query = query.Where("type = ?", q.Type)
	}
	if city := strings.TrimSpace(q.City); city != "" {
		query = query.Where("address_city = ?", city)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	var points []models.CollectionPoint
	if errFind := query.
		Order("total_collected DESC").
		Offset((q.Page - 1) * q.Limit).Limit(q.Limit).
		Find(&points).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	out := make([]gin.H, 0, len(points))
	for i := range points {
		out = append(out, pointJSON(&points[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"collectionPoints": out,
		"total":            total,
		"page":             q.Page,
		"limit":            q.Limit,
	})
}

// Get returns one collection point by id.
func (h *CollectionPointHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid collection point id"})
		return
	}
	var point models.CollectionPoint
	if errFind := h.db.WithContext(c.Request.Context()).First(&point, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "collection point not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "collectionPoint": pointJSON(&point)})
}

// My returns the operator's own collection point.
func (h *CollectionPointHandler) My(c *gin.Context) {
	point, ok := h.loadOwn(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "collectionPoint": pointJSON(point)})
}

// updatePointRequest defines the mutable point fields. Verification status and
// lifetime totals are not updatable by the operator.
type updatePointRequest struct {
	Name           string                `json:"name"`
	Phone          string                `json:"phone"`
	Description    string                `json:"description"`
	OperatingHours models.OperatingHours `json:"operatingHours"`
	IsActive       *bool                 `json:"isActive"`
}

// UpdateMy updates the operator's own collection point.
func (h *CollectionPointHandler) UpdateMy(c *gin.Context) {
	point, ok := h.loadOwn(c)
	if !ok {
		return
	}
	var body updatePointRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid json"})
		return
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(body.Name); name != "" {
		updates["name"] = name
	}
	if phone := strings.TrimSpace(body.Phone); phone != "" {
		if !pointPhonePattern.MatchString(phone) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "phone must be a 10-digit number", "field": "phone"})
			return
		}
		updates["phone"] = phone
	}
	if body.Description != "" {
		updates["description"] = strings.TrimSpace(body.Description)
	}
	if len(body.OperatingHours) > 0 {
		data, errEncode := json.Marshal(body.OperatingHours)
		if errEncode != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid operating hours", "field": "operatingHours"})
			return
		}
		updates["operating_hours"] = datatypes.JSON(data)
	}
	if body.IsActive != nil {
		updates["is_active"] = *body.IsActive
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "nothing to update"})
		return
	}

	ctx := c.Request.Context()
	if errUpdate := h.db.WithContext(ctx).Model(&models.CollectionPoint{}).Where("id = ?", point.ID).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "update collection point failed"})
		return
	}
	var updated models.CollectionPoint
	if errFind := h.db.WithContext(ctx).First(&updated, point.ID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "collectionPoint": pointJSON(&updated)})
}

// MyDashboard returns queue counts and lifetime stats for the operator.
func (h *CollectionPointHandler) MyDashboard(c *gin.Context) {
	point, ok := h.loadOwn(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if errCount := h.db.WithContext(ctx).Model(&models.Pickup{}).
		Select("status, COUNT(*) as count").
		Where("collection_point_id = ?", point.ID).
		Group("status").
		Scan(&counts).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	pickupCounts := gin.H{"pending": int64(0), "accepted": int64(0), "rejected": int64(0), "completed": int64(0), "cancelled": int64(0)}
	for _, sc := range counts {
		pickupCounts[sc.Status] = sc.Count
	}

	var pendingQueue []models.Pickup
	if errFind := h.db.WithContext(ctx).
		Where("collection_point_id = ? AND status = ?", point.ID, models.StatusPending).
		Preload("User").
		Order("preferred_date ASC, created_at ASC").
		Limit(10).
		Find(&pendingQueue).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	queue := make([]gin.H, 0, len(pendingQueue))
	for i := range pendingQueue {
		queue = append(queue, pickupJSON(&pendingQueue[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"collectionPoint":  pointJSON(point),
		"pickupCounts":     pickupCounts,
		"pendingQueue":     queue,
		"totalCollected":   point.TotalCollected,
		"completedPickups": point.CompletedPickups,
	})
}

// loadOwn resolves the caller's collection point, responding on failure.
func (h *CollectionPointHandler) loadOwn(c *gin.Context) (*models.CollectionPoint, bool) {
	var point models.CollectionPoint
	if errFind := h.db.WithContext(c.Request.Context()).Where("user_id = ?", getUserID(c)).First(&point).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "no collection point registered for this account"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return nil, false
	}
	return &point, true
}
