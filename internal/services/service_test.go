package services

import (
	"testing"
	"time"

	"license-api/internal/database"
	"license-api/internal/models"
	"license-api/pkg/thaitime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// setupTestDB points the global handle at a fresh in-memory sqlite database,
// the same driver the dev fallback uses. Redis stays nil, which turns the
// broadcaster and guards into no-ops.
func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	require.NoError(t, err)

	// A pooled second connection would see its own empty :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.SeedDefaultPlans(db))

	database.DB = db
	database.RedisClient = nil
}

func createTestAccount(t *testing.T, username string, balance int64) {
	t.Helper()
	require.NoError(t, database.CreateAccount(&models.Account{
		Username:      username,
		Email:         username + "@example.com",
		CreditBalance: balance,
	}))
}

func createTestLicense(t *testing.T, table, username string, planDays int, expiresIn time.Duration, status string) *models.License {
	t.Helper()
	license := &models.License{
		Code:                 uuid.NewString(),
		Username:             username,
		Platform:             "mt5",
		TradingAccountNumber: "100200",
		PlanDays:             planDays,
		Status:               status,
		SubStatus:            models.LicenseSubStatusValid,
		CumulativePlanDays:   planDays,
		CreatedBy:            models.LicenseCreatedByUser,
	}
	if planDays == models.LifetimeDays {
		license.CumulativePlanDays = 0
	} else {
		license.ExpiresAt = thaitime.Format(time.Now().Add(expiresIn))
	}
	require.NoError(t, database.CreateLicense(database.DB, table, license))
	return license
}
