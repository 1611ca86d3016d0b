package handlers

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/bni-7/medireturn/internal/db"
	"github.com/bni-7/medireturn/internal/models"
)

// setupAdminDB opens a fresh in-memory database for one test.
func setupAdminDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:admin_handlers_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := dbpkg.Open(dsn)
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

// seedAccount creates an active account with the given role.
func seedAccount(t *testing.T, conn *gorm.DB, name, email, role, city string) *models.User {
	t.Helper()
	user := models.User{
		Name:        name,
		Email:       email,
		Password:    "hashed",
		Role:        role,
		AddressCity: city,
		Active:      true,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return &user
}
