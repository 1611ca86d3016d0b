package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bni-7/medireturn/internal/models"
	"github.com/bni-7/medireturn/internal/pickup"
)

// getUserID extracts the authenticated user ID from gin context.
func getUserID(c *gin.Context) uint64 {
	val, exists := c.Get("userID")
	if !exists {
		return 0
	}
	id, ok := val.(uint64)
	if !ok {
		return 0
	}
	return id
}

// currentUser extracts the authenticated account loaded by the middleware.
func currentUser(c *gin.Context) *models.User {
	val, exists := c.Get("user")
	if !exists {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// respondPickupError maps a classified pickup failure to an HTTP response.
func respondPickupError(c *gin.Context, err error) {
	body := gin.H{"success": false, "message": err.Error()}
	var status int
	switch pickup.KindOf(err) {
	case pickup.KindValidation:
		status = http.StatusBadRequest
		var classified *pickup.Error
		if ok := asPickupError(err, &classified); ok && classified.Field != "" {
			body["field"] = classified.Field
		}
	case pickup.KindNotFound:
		status = http.StatusNotFound
	case pickup.KindForbidden:
		status = http.StatusForbidden
	case pickup.KindInvalidState:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
		body["message"] = "internal error"
	}
	c.JSON(status, body)
}

// asPickupError is a small wrapper so respondPickupError reads flat.
func asPickupError(err error, target **pickup.Error) bool {
	e, ok := err.(*pickup.Error)
	if !ok {
		return false
	}
	*target = e
	return true
}

// clampPage normalizes page/limit query values.
func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// userJSON renders a full account view.
func userJSON(u *models.User) gin.H {
	badges := make([]gin.H, 0, len(u.Badges))
	for _, b := range u.Badges {
		badges = append(badges, gin.H{"name": b.Name, "earnedAt": b.EarnedAt})
	}
	return gin.H{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
		"phone": u.Phone,
		"address": gin.H{
			"street":  u.AddressStreet,
			"city":    u.AddressCity,
			"state":   u.AddressState,
			"pincode": u.AddressPincode,
			"lat":     u.AddressLat,
			"lng":     u.AddressLng,
		},
		"points":         u.Points,
		"totalCollected": u.TotalCollected,
		"referralCode":   u.ReferralCode,
		"referredBy":     u.ReferredBy,
		"badges":         badges,
		"active":         u.Active,
		"createdAt":      u.CreatedAt,
	}
}

// userSummaryJSON renders the requester summary embedded in a pickup.
func userSummaryJSON(u *models.User) gin.H {
	if u == nil {
		return nil
	}
	return gin.H{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"phone": u.Phone,
	}
}

// pointJSON renders a full collection point view.
func pointJSON(p *models.CollectionPoint) gin.H {
	var hours any
	if len(p.OperatingHours) > 0 {
		_ = json.Unmarshal(p.OperatingHours, &hours)
	}
	return gin.H{
		"id":     p.ID,
		"userId": p.UserID,
		"name":   p.Name,
		"type":   p.Type,
		"address": gin.H{
			"street":  p.AddressStreet,
			"city":    p.AddressCity,
			"pincode": p.AddressPincode,
			"lat":     p.AddressLat,
			"lng":     p.AddressLng,
		},
		"phone":            p.Phone,
		"operatingHours":   hours,
		"description":      p.Description,
		"isVerified":       p.IsVerified,
		"isActive":         p.IsActive,
		"totalCollected":   p.TotalCollected,
		"completedPickups": p.CompletedPickups,
		"createdAt":        p.CreatedAt,
	}
}

// pointSummaryJSON renders the collection point summary embedded in a pickup.
func pointSummaryJSON(p *models.CollectionPoint) gin.H {
	if p == nil {
		return nil
	}
	return gin.H{
		"id":   p.ID,
		"name": p.Name,
		"type": p.Type,
		"address": gin.H{
			"street":  p.AddressStreet,
			"city":    p.AddressCity,
			"pincode": p.AddressPincode,
		},
		"phone": p.Phone,
	}
}

// pickupJSON renders a pickup with its attached summaries.
func pickupJSON(p *models.Pickup) gin.H {
	return gin.H{
		"id":                p.ID,
		"userId":            p.UserID,
		"collectionPointId": p.CollectionPointID,
		"user":              userSummaryJSON(p.User),
		"collectionPoint":   pointSummaryJSON(p.CollectionPoint),
		"address": gin.H{
			"street":  p.AddressStreet,
			"city":    p.AddressCity,
			"state":   p.AddressState,
			"pincode": p.AddressPincode,
			"lat":     p.AddressLat,
			"lng":     p.AddressLng,
		},
		"pickupDate":          p.PreferredDate.Format("2006-01-02"),
		"timeSlot":            p.TimeSlot,
		"medicineDetails":     p.MedicineDetails,
		"estimatedQuantity":   p.EstimatedQuantity,
		"contactPhone":        p.ContactPhone,
		"alternatePhone":      p.AlternatePhone,
		"specialInstructions": p.SpecialInstructions,
		"status":              p.Status,
		"quantityCollected":   p.QuantityCollected,
		"rejectionReason":     p.RejectionReason,
		"completedAt":         p.CompletedAt,
		"createdAt":           p.CreatedAt,
		"updatedAt":           p.UpdatedAt,
	}
}

// transactionJSON renders a reward ledger entry.
func transactionJSON(t *models.Transaction) gin.H {
	return gin.H{
		"id":            t.ID,
		"type":          t.Type,
		"points":        t.Points,
		"description":   t.Description,
		"referenceId":   t.ReferenceID,
		"referenceKind": t.ReferenceKind,
		"createdAt":     t.CreatedAt,
	}
}
