package handlers

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/bni-7/medireturn/internal/db"
	"github.com/bni-7/medireturn/internal/models"
	"github.com/bni-7/medireturn/internal/security"
)

// setupHandlerDB opens a fresh in-memory database for one test.
func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:front_handlers_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := dbpkg.Open(dsn)
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

// seedUser creates an active account with a hashed password.
func seedUser(t *testing.T, conn *gorm.DB, name, email, role string) *models.User {
	t.Helper()
	hash, errHash := security.HashPassword("secret123")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	user := models.User{
		Name:           name,
		Email:          email,
		Password:       hash,
		Role:           role,
		Phone:          "9876543210",
		AddressStreet:  "12 Relief Road",
		AddressCity:    "Pune",
		AddressPincode: "411001",
		Active:         true,
	}
	if role == models.RoleCitizen {
		code, errCode := security.GenerateReferralCode(0)
		if errCode != nil {
			t.Fatalf("generate referral code: %v", errCode)
		}
		user.ReferralCode = code
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return &user
}

// seedPoint creates a verified active collection point owned by operator.
func seedPoint(t *testing.T, conn *gorm.DB, operator *models.User) *models.CollectionPoint {
	t.Helper()
	point := models.CollectionPoint{
		UserID:         operator.ID,
		Name:           "City Care Pharmacy",
		Type:           models.PointTypePharmacy,
		AddressStreet:  "45 MG Road",
		AddressCity:    "Pune",
		AddressPincode: "411002",
		AddressLat:     18.52,
		AddressLng:     73.85,
		Phone:          "9123456780",
		IsVerified:     true,
		IsActive:       true,
	}
	if errCreate := conn.Create(&point).Error; errCreate != nil {
		t.Fatalf("create collection point: %v", errCreate)
	}
	return &point
}
