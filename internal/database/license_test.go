package database

import (
	"testing"

	"license-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func setupLicenseTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, AutoMigrate(db))
	DB = db
}

func TestResolveLicenseChecksBothCollections(t *testing.T) {
	setupLicenseTestDB(t)

	userLicense := &models.License{Code: "user-1", Username: "alice", PlanDays: 30, Status: models.LicenseStatusActivated}
	require.NoError(t, CreateLicense(DB, models.LicenseTableUser, userLicense))
	adminLicense := &models.License{Code: "admin-1", Username: "alice", PlanDays: 90, Status: models.LicenseStatusActivated}
	require.NoError(t, CreateLicense(DB, models.LicenseTableAdmin, adminLicense))

	_, table, err := ResolveLicense(DB, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.LicenseTableUser, table)

	_, table, err = ResolveLicense(DB, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.LicenseTableAdmin, table)

	_, _, err = ResolveLicense(DB, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestResolveLicenseForUpdateRequestsRowLock(t *testing.T) {
	setupLicenseTestDB(t)

	license := &models.License{Code: "lock-1", Username: "alice", PlanDays: 30, Status: models.LicenseStatusActivated}
	require.NoError(t, CreateLicense(DB, models.LicenseTableUser, license))

	// Observe the statement the resolve actually executes with: the locking
	// clause must be attached even on sqlite, which drops it at render time.
	var locked bool
	require.NoError(t, DB.Callback().Query().Before("gorm:query").Register("capture_locking", func(db *gorm.DB) {
		if c, ok := db.Statement.Clauses["FOR"]; ok {
			if _, ok := c.Expression.(clause.Locking); ok {
				locked = true
			}
		}
	}))
	defer DB.Callback().Query().Remove("capture_locking")

	resolved, table, err := ResolveLicenseForUpdate(DB, "lock-1")
	require.NoError(t, err)
	assert.Equal(t, models.LicenseTableUser, table)
	assert.Equal(t, "lock-1", resolved.Code)
	assert.True(t, locked, "resolve-for-update must take a row lock")
}
