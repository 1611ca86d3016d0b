package front

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bni-7/medireturn/internal/cache"
	"github.com/bni-7/medireturn/internal/config"
	"github.com/bni-7/medireturn/internal/http/api/front/handlers"
	"github.com/bni-7/medireturn/internal/models"
	"github.com/bni-7/medireturn/internal/security"
)

// RegisterFrontRoutes registers public and authenticated citizen/operator routes.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, store cache.Cache) {
	if r == nil || db == nil {
		return
	}

	api := r.Group("/api")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", userAuthMiddleware(db, jwtCfg), authHandler.Me)

	userHandler := handlers.NewUserHandler(db, store)
	users := api.Group("/users")
	users.GET("/leaderboard", userHandler.Leaderboard)
	authedUsers := users.Group("", userAuthMiddleware(db, jwtCfg))
	authedUsers.GET("/profile", userHandler.GetProfile)
	authedUsers.PUT("/profile", userHandler.UpdateProfile)
	authedUsers.GET("/dashboard", userHandler.Dashboard)
	authedUsers.GET("/transactions", userHandler.Transactions)

	pointHandler := handlers.NewCollectionPointHandler(db)
	points := api.Group("/collection-points")
	points.GET("", pointHandler.List)
	authedPoints := points.Group("", userAuthMiddleware(db, jwtCfg))
	authedPoints.POST("", requireRole(models.RoleCollectionPoint), pointHandler.Register)
	authedPoints.GET("/my", requireRole(models.RoleCollectionPoint), pointHandler.My)
	authedPoints.PUT("/my", requireRole(models.RoleCollectionPoint), pointHandler.UpdateMy)
	authedPoints.GET("/my/dashboard", requireRole(models.RoleCollectionPoint), pointHandler.MyDashboard)
	points.GET("/:id", pointHandler.Get)

	pickupHandler := handlers.NewPickupHandler(db, store)
	pickups := api.Group("/pickups", userAuthMiddleware(db, jwtCfg))
	pickups.POST("", requireRole(models.RoleCitizen), pickupHandler.Schedule)
	pickups.GET("", pickupHandler.ListMine)
	pickups.GET("/collection-point", requireRole(models.RoleCollectionPoint), pickupHandler.ListForPoint)
	pickups.GET("/:id", pickupHandler.Get)
	pickups.PUT("/:id/accept", requireRole(models.RoleCollectionPoint), pickupHandler.Accept)
	pickups.PUT("/:id/reject", requireRole(models.RoleCollectionPoint), pickupHandler.Reject)
	pickups.PUT("/:id/complete", requireRole(models.RoleCollectionPoint), pickupHandler.Complete)
	pickups.PUT("/:id/cancel", requireRole(models.RoleCitizen), pickupHandler.Cancel)
}

// userAuthMiddleware validates bearer JWTs and loads the account into context.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "empty token"})
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
		if !user.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "account is deactivated"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", &user)
		c.Next()
	}
}

// requireRole rejects callers whose account role does not match.
func requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		val, exists := c.Get("user")
		user, ok := val.(*models.User)
		if !exists || !ok || user.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "insufficient permissions"})
			return
		}
		c.Next()
	}
}
