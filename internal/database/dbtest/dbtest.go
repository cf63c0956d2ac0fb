// Package dbtest opens throwaway SQLite databases for package tests.
package dbtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/auth"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/config"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/database"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"
)

// New returns a migrated database in a temp file removed when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("duckinv_%s_%d.db", name, time.Now().UnixNano()))
	t.Cleanup(func() {
		os.Remove(tmpFile)
		os.Remove(tmpFile + "-wal")
		os.Remove(tmpFile + "-shm")
	})

	db, err := gorm.Open(sqlite.Open(tmpFile), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { sqlDB.Close() })
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Company inserts a tenant with default branding.
func Company(t testing.TB, db *gorm.DB, name string) models.Company {
	t.Helper()
	c := models.Company{Name: name}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	return c
}

// User inserts a user with an already hashed password.
func User(t testing.TB, db *gorm.DB, companyID, email string, role models.UserRole) models.User {
	t.Helper()
	u := models.User{CompanyID: companyID, Name: "Test " + string(role), Email: email, PasswordHash: "x", Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// Config returns a configuration good enough for handler tests.
func Config() *config.Config {
	return &config.Config{
		JWTSecret:        strings.Repeat("k", 32),
		CORSOrigins:      "http://localhost:5173",
		BrandingCacheTTL: time.Minute,
		InviteTTL:        time.Hour,
	}
}

// Bearer returns an Authorization header value for u.
func Bearer(t testing.TB, cfg *config.Config, u models.User) string {
	t.Helper()
	tok, err := auth.GenerateToken(cfg.JWTSecret, &u)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + tok
}
