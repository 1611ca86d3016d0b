package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bni-7/medireturn/internal/config"
	"github.com/bni-7/medireturn/internal/http/api/admin/handlers"
	"github.com/bni-7/medireturn/internal/models"
	"github.com/bni-7/medireturn/internal/security"
)

// RegisterAdminRoutes registers the admin management routes.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig) {
	if r == nil || db == nil {
		return
	}

	group := r.Group("/api/admin")
	group.Use(adminAuthMiddleware(db, jwtCfg))

	analyticsHandler := handlers.NewAnalyticsHandler(db)
	group.GET("/analytics", analyticsHandler.Overview)
	group.GET("/analytics/cities", analyticsHandler.CityStats)
	group.GET("/analytics/monthly", analyticsHandler.Monthly)

	userHandler := handlers.NewAdminUserHandler(db)
	group.GET("/users", userHandler.List)
	group.PUT("/users/:id/toggle-active", userHandler.ToggleActive)

	pointHandler := handlers.NewAdminCollectionPointHandler(db)
	group.GET("/collection-points", pointHandler.List)
	group.GET("/collection-points/pending", pointHandler.Pending)
	group.PUT("/collection-points/:id/approve", pointHandler.Approve)
	group.DELETE("/collection-points/:id", pointHandler.Reject)
}

// adminAuthMiddleware validates bearer JWTs and requires the admin role.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)
		if authHeader == "" || token == authHeader || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing or malformed authorization header"})
			return
		}

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "user not found"})
			return
		}
		if user.Role != models.RoleAdmin || !user.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "admin access required"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", &user)
		c.Next()
	}
}
