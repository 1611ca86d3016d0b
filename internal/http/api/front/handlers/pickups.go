package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/bni-7/medireturn/internal/cache"
	"github.com/bni-7/medireturn/internal/models"
	"github.com/bni-7/medireturn/internal/pickup"
)

// PickupHandler exposes the pickup lifecycle over HTTP.
type PickupHandler struct {
	db    *gorm.DB
	svc   *pickup.Service
	store cache.Cache
}

// NewPickupHandler constructs a PickupHandler.
func NewPickupHandler(db *gorm.DB, store cache.Cache) *PickupHandler {
	return &PickupHandler{db: db, svc: pickup.NewService(db), store: store}
}

// scheduleRequest defines the request body for scheduling a pickup.
type scheduleRequest struct {
	CollectionPointID   uint64  `json:"collectionPointId"`
	PickupDate          string  `json:"pickupDate"`
	TimeSlot            string  `json:"timeSlot"`
	MedicineDetails     string  `json:"medicineDetails"`
	EstimatedQuantity   float64 `json:"estimatedQuantity"`
	ContactPhone        string  `json:"contactPhone"`
	AlternatePhone      string  `json:"alternatePhone"`
	SpecialInstructions string  `json:"specialInstructions"`
}

// Schedule creates a pending pickup for the authenticated citizen.
func (h *PickupHandler) Schedule(c *gin.Context) {
	var body scheduleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid json"})
		return
	}

	created, errSchedule := h.svc.Schedule(c.Request.Context(), getUserID(c), pickup.ScheduleInput{
		CollectionPointID:   body.CollectionPointID,
		PickupDate:          body.PickupDate,
		TimeSlot:            body.TimeSlot,
		MedicineDetails:     body.MedicineDetails,
		EstimatedQuantity:   body.EstimatedQuantity,
		ContactPhone:        body.ContactPhone,
		AlternatePhone:      body.AlternatePhone,
		SpecialInstructions: body.SpecialInstructions,
	})
	if errSchedule != nil {
		respondPickupError(c, errSchedule)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "pickup": pickupJSON(created)})
}

// pickupListQuery defines query parameters for pickup listings.
type pickupListQuery struct {
	Status string `form:"status"`
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
}

// ListMine returns the caller's own pickups, newest first.
func (h *PickupHandler) ListMine(c *gin.Context) {
	var q pickupListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid query"})
		return
	}
	q.Page, q.Limit = clampPage(q.Page, q.Limit)

	ctx := c.Request.Context()
	query := h.db.WithContext(ctx).Model(&models.Pickup{}).Where("user_id = ?", getUserID(c))
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	var pickups []models.Pickup
	if errFind := query.
		Preload("CollectionPoint").
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Limit).Limit(q.Limit).
		Find(&pickups).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	out := make([]gin.H, 0, len(pickups))
	for i := range pickups {
		out = append(out, pickupJSON(&pickups[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pickups": out,
		"total":   total,
		"page":    q.Page,
		"limit":   q.Limit,
	})
}

// ListForPoint returns pickups targeting the operator's collection point.
func (h *PickupHandler) ListForPoint(c *gin.Context) {
	var q pickupListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid query"})
		return
	}
	q.Page, q.Limit = clampPage(q.Page, q.Limit)

	ctx := c.Request.Context()
	var point models.CollectionPoint
	if errFind := h.db.WithContext(ctx).Where("user_id = ?", getUserID(c)).First(&point).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "no collection point registered for this account"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	query := h.db.WithContext(ctx).Model(&models.Pickup{}).Where("collection_point_id = ?", point.ID)
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	var pickups []models.Pickup
	if errFind := query.
		Preload("User").
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Limit).Limit(q.Limit).
		Find(&pickups).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	out := make([]gin.H, 0, len(pickups))
	for i := range pickups {
		out = append(out, pickupJSON(&pickups[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pickups": out,
		"total":   total,
		"page":    q.Page,
		"limit":   q.Limit,
	})
}

// Get returns one pickup for its requester, the owning operator, or an admin.
func (h *PickupHandler) Get(c *gin.Context) {
	pickupID, ok := parsePickupID(c)
	if !ok {
		return
	}
	caller := currentUser(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}
	found, errGet := h.svc.Get(c.Request.Context(), caller, pickupID)
	if errGet != nil {
		respondPickupError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "pickup": pickupJSON(found)})
}

// Accept moves a pending pickup to accepted.
func (h *PickupHandler) Accept(c *gin.Context) {
	pickupID, ok := parsePickupID(c)
	if !ok {
		return
	}
	updated, errAccept := h.svc.Accept(c.Request.Context(), getUserID(c), pickupID)
	if errAccept != nil {
		respondPickupError(c, errAccept)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "pickup": pickupJSON(updated)})
}

// rejectRequest defines the request body for rejecting a pickup.
type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject moves a pending pickup to rejected with a reason.
func (h *PickupHandler) Reject(c *gin.Context) {
	pickupID, ok := parsePickupID(c)
	if !ok {
		return
	}
	var body rejectRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Reason) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "rejection reason is required", "field": "reason"})
		return
	}
	updated, errReject := h.svc.Reject(c.Request.Context(), getUserID(c), pickupID, body.Reason)
	if errReject != nil {
		respondPickupError(c, errReject)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "pickup": pickupJSON(updated)})
}

// completeRequest defines the request body for completing a pickup.
type completeRequest struct {
	QuantityCollected float64 `json:"quantityCollected"`
}

// Complete finishes an accepted pickup and reports the rewards applied.
func (h *PickupHandler) Complete(c *gin.Context) {
	pickupID, ok := parsePickupID(c)
	if !ok {
		return
	}
	var body completeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid json"})
		return
	}
	result, errComplete := h.svc.Complete(c.Request.Context(), getUserID(c), pickupID, body.QuantityCollected)
	if errComplete != nil {
		respondPickupError(c, errComplete)
		return
	}
	h.invalidateLeaderboards(c, result.Pickup.AddressCity)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"pickup":       pickupJSON(result.Pickup),
		"pointsEarned": result.PointsEarned,
		"newBadges":    result.NewBadges,
	})
}

// Cancel withdraws the caller's own pickup.
func (h *PickupHandler) Cancel(c *gin.Context) {
	pickupID, ok := parsePickupID(c)
	if !ok {
		return
	}
	updated, errCancel := h.svc.Cancel(c.Request.Context(), getUserID(c), pickupID)
	if errCancel != nil {
		respondPickupError(c, errCancel)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "pickup": pickupJSON(updated)})
}

// invalidateLeaderboards drops the cached leaderboards a completion affects:
// the requester's city board and the global board.
func (h *PickupHandler) invalidateLeaderboards(c *gin.Context, city string) {
	if h.store == nil {
		return
	}
	ctx := c.Request.Context()
	for _, key := range []string{leaderboardKey(city), leaderboardKey("")} {
		if errDelete := h.store.Delete(ctx, key); errDelete != nil {
			log.Warnf("leaderboard cache invalidation failed for %s: %v", key, errDelete)
		}
	}
}

// parsePickupID reads the :id path parameter, responding on failure.
func parsePickupID(c *gin.Context) (uint64, bool) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid pickup id"})
		return 0, false
	}
	return id, true
}
