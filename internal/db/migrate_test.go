package db

import (
	"context"
	"testing"

	"github.com/bni-7/medireturn/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestMigrateSQLiteCreatesTables(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, table := range []string{"users", "user_badges", "collection_points", "pickups", "transactions"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	for _, column := range []string{"points", "total_collected", "referral_code", "referred_by", "referral_bonus_settled_at"} {
		if !conn.Migrator().HasColumn("users", column) {
			t.Fatalf("users missing column %s", column)
		}
	}
	for _, column := range []string{"status", "quantity_collected", "rejection_reason", "completed_at", "time_slot"} {
		if !conn.Migrator().HasColumn("pickups", column) {
			t.Fatalf("pickups missing column %s", column)
		}
	}
}

func TestEnsureAdminCreatesOnce(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	ctx := context.Background()
	if errSeed := EnsureAdmin(ctx, conn, "Admin", "admin@medireturn.local", "changeme"); errSeed != nil {
		t.Fatalf("seed admin: %v", errSeed)
	}
	if errSeed := EnsureAdmin(ctx, conn, "Admin", "admin@medireturn.local", "changeme"); errSeed != nil {
		t.Fatalf("seed admin twice: %v", errSeed)
	}

	var count int64
	if errCount := conn.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; errCount != nil {
		t.Fatalf("count admins: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected exactly one admin, got %d", count)
	}
}
