package testutil

import (
	"context"
	"fmt"
	"testing"

	"guardian/internal/model"
	"guardian/internal/store"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB opens a private in-memory sqlite database with the schema migrated.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := store.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// User seeds a user with a profile and returns its scope.
func User(tb testing.TB, db *gorm.DB, email, fullName string) store.Scope {
	tb.Helper()

	u := &model.User{Email: email, PasswordHash: "x"}
	if err := db.WithContext(context.Background()).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	if err := db.Create(&model.Profile{ID: u.ID, FullName: fullName}).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return store.Scope{UserID: u.ID}
}
