package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bni-7/medireturn/internal/config"
	"github.com/bni-7/medireturn/internal/models"
	"github.com/bni-7/medireturn/internal/security"
)

// AuthHandler handles registration, login and the authenticated identity.
type AuthHandler struct {
	db     *gorm.DB
	jwtCfg config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{db: db, jwtCfg: jwtCfg}
}

// newReferralCode generates citizen referral codes. Package variable so tests
// can force collisions.
var newReferralCode = security.GenerateReferralCode

// registerRequest defines the request body for account registration.
type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
	ReferralCode string `json:"referralCode"` // Code of the referring user, optional.
	Address      struct {
		Street  string   `json:"street"`
		City    string   `json:"city"`
		State   string   `json:"state"`
		Pincode string   `json:"pincode"`
		Lat     *float64 `json:"lat"`
		Lng     *float64 `json:"lng"`
	} `json:"address"` // Optional; lets a citizen schedule without a separate profile update.
}

// Register creates a citizen or collection point operator account. Citizens
// get a generated referral code; a referring code supplied at signup is
// captured once and never changed afterwards.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	email := strings.ToLower(strings.TrimSpace(body.Email))
	password := strings.TrimSpace(body.Password)
	if name == "" || email == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "name, email and password are required"})
		return
	}
	if len(password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "password must be at least 6 characters"})
		return
	}
	role := strings.TrimSpace(body.Role)
	if role == "" {
		role = models.RoleCitizen
	}
	if role != models.RoleCitizen && role != models.RoleCollectionPoint {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid role"})
		return
	}

	var exists models.User
	if errCheck := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&exists).Error; errCheck == nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "email already registered"})
		return
	} else if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}

	referredBy := strings.ToUpper(strings.TrimSpace(body.ReferralCode))
	if referredBy != "" {
		var referrer models.User
		if errFind := h.db.WithContext(c.Request.Context()).Where("referral_code = ?", referredBy).First(&referrer).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid referral code", "field": "referralCode"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
			return
		}
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "hash password failed"})
		return
	}

	user := models.User{
		Name:           name,
		Email:          email,
		Password:       hash,
		Role:           role,
		Phone:          strings.TrimSpace(body.Phone),
		AddressStreet:  strings.TrimSpace(body.Address.Street),
		AddressCity:    strings.TrimSpace(body.Address.City),
		AddressState:   strings.TrimSpace(body.Address.State),
		AddressPincode: strings.TrimSpace(body.Address.Pincode),
		AddressLat:     body.Address.Lat,
		AddressLng:     body.Address.Lng,
		ReferredBy:     referredBy,
		Active:         true,
	}
	if role == models.RoleCitizen {
		code, errCode := h.uniqueReferralCode(c)
		if errCode != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "generate referral code failed"})
			return
		}
		user.ReferralCode = code
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&user).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "create user failed"})
		return
	}

	token, errToken := security.GenerateToken(h.jwtCfg.Secret, user.ID, user.Email, user.Role, h.jwtCfg.TokenExpiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "generate token failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"token":   token,
		"user":    userJSON(&user),
	})
}

// uniqueReferralCode generates a referral code not already held by any user,
// retrying on collision.
func (h *AuthHandler) uniqueReferralCode(c *gin.Context) (string, error) {
	for attempts := 0; attempts < 5; attempts++ {
		code, errCode := newReferralCode(0)
		if errCode != nil {
			return "", errCode
		}
		var taken int64
		if errCount := h.db.WithContext(c.Request.Context()).
			Model(&models.User{}).
			Where("referral_code = ?", code).
			Count(&taken).Error; errCount != nil {
			return "", errCount
		}
		if taken == 0 {
			return code, nil
		}
	}
	return "", errors.New("referral code generation kept colliding")
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an account and issues a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	password := strings.TrimSpace(body.Password)
	if email == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "email and password are required"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	if !user.Active {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "account is deactivated"})
		return
	}
	if !security.CheckPassword(user.Password, password) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid credentials"})
		return
	}

	token, errToken := security.GenerateToken(h.jwtCfg.Secret, user.ID, user.Email, user.Role, h.jwtCfg.TokenExpiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "generate token failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    userJSON(&user),
	})
}

// Me returns the authenticated account with its badges.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := getUserID(c)
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Preload("Badges").First(&user, userID).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": userJSON(&user)})
}
