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

// AdminUserHandler manages platform accounts.
type AdminUserHandler struct {
	db *gorm.DB
}

// NewAdminUserHandler constructs an AdminUserHandler.
func NewAdminUserHandler(conn *gorm.DB) *AdminUserHandler {
	return &AdminUserHandler{db: conn}
}

// adminUserListQuery defines query parameters for listing accounts.
type adminUserListQuery struct {
	Role   string `form:"role"`
	Search string `form:"search"`
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
}

// List returns accounts with optional role filter and name/email search.
func (h *AdminUserHandler) List(c *gin.Context) {
	var q adminUserListQuery
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
	query := h.db.WithContext(ctx).Model(&models.User{})
	if q.Role != "" {
		query = query.Where("role = ?", q.Role)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := db.NormalizeLikePattern(h.db, "%"+search+"%")
		query = query.Where(
			db.CaseInsensitiveLikeExpr(h.db, "name")+" OR "+db.CaseInsensitiveLikeExpr(h.db, "email"),
			pattern, pattern,
		)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	var users []models.User
	if errFind := query.
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Limit).Limit(q.Limit).
		Find(&users).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	out := make([]gin.H, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, gin.H{
			"id":             u.ID,
			"name":           u.Name,
			"email":          u.Email,
			"role":           u.Role,
			"phone":          u.Phone,
			"city":           u.AddressCity,
			"points":         u.Points,
			"totalCollected": u.TotalCollected,
			"active":         u.Active,
			"createdAt":      u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   out,
		"total":   total,
		"page":    q.Page,
		"limit":   q.Limit,
	})
}

// ToggleActive flips an account's active flag. Admin accounts are immune.
func (h *AdminUserHandler) ToggleActive(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid user id"})
		return
	}

	ctx := c.Request.Context()
	var user models.User
	if errFind := h.db.WithContext(ctx).First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	if user.Role == models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "admin accounts cannot be deactivated"})
		return
	}

	if errUpdate := h.db.WithContext(ctx).Model(&user).UpdateColumn("active", !user.Active).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "update user failed"})
		return
	}
	log.Infof("admin toggled user %d active: %t -> %t", user.ID, user.Active, !user.Active)
	c.JSON(http.StatusOK, gin.H{"success": true, "id": user.ID, "active": !user.Active})
}
