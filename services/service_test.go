package services

import (
	"testing"
	"time"

	"hospital-backend/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the full schema. A single
// connection keeps every goroutine on the same memory database and serializes
// writers, which is what ":memory:" needs.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Ward{},
		&models.BedTypeSetting{},
		&models.Bed{},
		&models.BedStay{},
		&models.ReconcileLog{},
	))
	return db
}

func mustCreateBed(t *testing.T, db *gorm.DB, code, category string) *models.Bed {
	t.Helper()
	bed := models.Bed{Code: code, Category: category, Active: true}
	require.NoError(t, db.Create(&bed).Error)
	return &bed
}

func ts(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC)
}

func newStayService(db *gorm.DB) *BedStayService {
	return NewBedStayService(db, zap.NewNop())
}

func newBedService(db *gorm.DB) *BedService {
	return NewBedService(db, zap.NewNop())
}

func newReconcileService(db *gorm.DB) *ReconcileService {
	return NewReconcileService(db, NewBedTypeService(db), zap.NewNop())
}
