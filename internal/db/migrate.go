package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bni-7/medireturn/internal/models"
	"github.com/bni-7/medireturn/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for all persisted models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.User{},
		&models.UserBadge{},
		&models.CollectionPoint{},
		&models.Pickup{},
		&models.Transaction{},
	)
}

// EnsureAdmin creates the platform administrator account when it does not
// exist yet. Called after Migrate with the configured seed credentials.
func EnsureAdmin(ctx context.Context, conn *gorm.DB, name, email, password string) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var existing models.User
	errFind := conn.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if errFind == nil {
		return nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return errFind
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return fmt.Errorf("db: hash admin password: %w", errHash)
	}
	if name == "" {
		name = "Administrator"
	}
	now := time.Now().UTC()
	admin := models.User{
		Name:      name,
		Email:     email,
		Password:  hash,
		Role:      models.RoleAdmin,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := conn.WithContext(ctx).Create(&admin).Error; errCreate != nil {
		return fmt.Errorf("db: seed admin: %w", errCreate)
	}
	log.Infof("seeded admin account %s", email)
	return nil
}
