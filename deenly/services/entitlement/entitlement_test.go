package entitlement

import (
	"context"
	"testing"
	"time"

	"deenly/deenly/sources/psql"
	"deenly/deenly/sources/psql/dao"
	"deenly/deenly/sources/psql/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestSource(t *testing.T) (*Source, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	// every pooled connection would get its own in-memory database
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := psql.Migrate(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	return NewSource(dao.NewUserDAO(db), dao.NewUsageDAO(db), time.UTC), db
}

func TestDailyCountPerDay(t *testing.T) {
	src, db := setupTestSource(t)
	ctx := context.Background()
	if err := db.Create(&models.User{ID: "u1", Username: "aisha", Email: "a@example.com"}).Error; err != nil {
		t.Fatal(err)
	}

	morning := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := src.IncrementDailyCount(ctx, "u1", morning); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := src.DailyQuestionCount(ctx, "u1", morning.Add(10*time.Hour)); n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
	if n, _ := src.DailyQuestionCount(ctx, "u1", morning.Add(24*time.Hour)); n != 0 {
		t.Errorf("next day count = %d, want 0", n)
	}
}

func TestIsPremium(t *testing.T) {
	src, db := setupTestSource(t)
	ctx := context.Background()
	db.Create(&models.User{ID: "u1", Username: "aisha", Email: "a@example.com", IsPremium: true})

	tests := []struct {
		user string
		want bool
	}{
		{"u1", true},
		{"missing", false},
		{"guest", false},
	}
	for _, tt := range tests {
		got, err := src.IsPremium(ctx, tt.user)
		if err != nil || got != tt.want {
			t.Errorf("IsPremium(%s) = %v, %v", tt.user, got, err)
		}
	}
}

func TestGuestIsNeverCounted(t *testing.T) {
	src, _ := setupTestSource(t)
	ctx := context.Background()
	now := time.Now()
	if err := src.IncrementDailyCount(ctx, "guest:x", now); err != nil {
		t.Fatal(err)
	}
	if n, _ := src.DailyQuestionCount(ctx, "guest:x", now); n != 0 {
		t.Errorf("guest count = %d", n)
	}
}

func TestDayUsesLocation(t *testing.T) {
	madrid := time.FixedZone("CET", 3600)
	src := NewSource(nil, nil, madrid)
	// 23:30 UTC is already the next day one hour east
	if got := src.Day(time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)); got != "2025-03-02" {
		t.Errorf("Day = %s", got)
	}
}
