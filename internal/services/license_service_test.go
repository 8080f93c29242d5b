package services

import (
	"testing"
	"time"

	"license-api/internal/database"
	"license-api/internal/errs"
	"license-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEffectiveStatusDerivesExpiry(t *testing.T) {
	now := time.Now()

	live := &models.License{Code: "a", PlanDays: 30, Status: models.LicenseStatusActivated}
	live.ExpiresAt = "01/01/2599 00:00" // far future
	status, err := EffectiveStatus(live, now)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseStatusActivated, status)

	lapsed := &models.License{Code: "b", PlanDays: 30, Status: models.LicenseStatusActivated}
	lapsed.ExpiresAt = "01/01/2560 00:00" // 2017
	status, err = EffectiveStatus(lapsed, now)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseStatusExpired, status)

	lifetime := &models.License{Code: "c", PlanDays: models.LifetimeDays, Status: models.LicenseStatusActivated}
	status, err = EffectiveStatus(lifetime, now)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseStatusActivated, status)

	pending := &models.License{Code: "d", PlanDays: 30, Status: models.LicenseStatusPendingPayment}
	status, err = EffectiveStatus(pending, now)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseStatusPendingPayment, status)

	broken := &models.License{Code: "e", PlanDays: 30, Status: models.LicenseStatusActivated, ExpiresAt: "garbage"}
	_, err = EffectiveStatus(broken, now)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestPurchaseCreatesPendingPaymentLicense(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 0)

	service := NewLicenseService()
	license, err := service.Purchase("alice", "mt5", "100200", 30)
	require.NoError(t, err)
	assert.NotEmpty(t, license.Code)
	assert.Equal(t, models.LicenseStatusPendingPayment, license.Status)
	assert.Equal(t, 30, license.CumulativePlanDays)

	resolved, table, err := database.ResolveLicense(database.DB, license.Code)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseTableUser, table)
	assert.Equal(t, "alice", resolved.Username)
}

func TestPurchaseRejectsUnknownPlan(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 0)

	service := NewLicenseService()
	_, err := service.Purchase("alice", "mt5", "100200", 42)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestAdminGrantLandsInAdminCollection(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 0)

	service := NewLicenseService()
	license, err := service.AdminGrant("alice", "mt4", "300400", 90)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseStatusActivated, license.Status)
	assert.NotEmpty(t, license.ExpiresAt)

	_, table, err := database.ResolveLicense(database.DB, license.Code)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseTableAdmin, table)
}

func TestMarkPaidAndActivateLifecycle(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 0)

	service := NewLicenseService()
	license, err := service.Purchase("alice", "mt5", "100200", 30)
	require.NoError(t, err)

	// Activation before payment is forbidden.
	_, err = service.Activate(license.Code)
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	require.NoError(t, service.MarkPaid(license.Code))
	assert.ErrorIs(t, service.MarkPaid(license.Code), errs.ErrInvalidState)

	activated, err := service.Activate(license.Code)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseStatusActivated, activated.Status)
	assert.NotEmpty(t, activated.ExpiresAt)
}

func TestSuspendAndReactivate(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 0)
	license := createTestLicense(t, models.LicenseTableUser, "alice", 30, time.Hour, models.LicenseStatusActivated)

	service := NewLicenseService()
	require.NoError(t, service.Suspend(license.Code))

	// Suspending twice is invalid.
	assert.ErrorIs(t, service.Suspend(license.Code), errs.ErrInvalidState)

	require.NoError(t, service.Reactivate(license.Code))
	assert.ErrorIs(t, service.Reactivate(license.Code), errs.ErrInvalidState)
}

func TestReactivateForbiddenOnceExpired(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 0)
	license := createTestLicense(t, models.LicenseTableUser, "alice", 30, time.Hour, models.LicenseStatusActivated)

	service := NewLicenseService()
	require.NoError(t, service.Suspend(license.Code))

	// The countdown keeps running during suspension; once it lapses the
	// suspended/valid toggle is closed.
	require.NoError(t, database.UpdateLicenseFields(database.DB, models.LicenseTableUser, license.Code,
		map[string]interface{}{"expires_at": "01/01/2560 00:00"}))

	assert.ErrorIs(t, service.Reactivate(license.Code), errs.ErrInvalidState)

	updated, _, err := database.ResolveLicense(database.DB, license.Code)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseSubStatusSuspended, updated.SubStatus)
}

func TestSuspendForbiddenOnceExpired(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 0)
	license := createTestLicense(t, models.LicenseTableUser, "alice", 30, -time.Hour, models.LicenseStatusActivated)

	service := NewLicenseService()
	assert.ErrorIs(t, service.Suspend(license.Code), errs.ErrInvalidState)
}

func TestDeleteRequiresConfirmationAndTerminalState(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 0)

	service := NewLicenseService()

	// A live license cannot be deleted even with a matching token.
	live := createTestLicense(t, models.LicenseTableUser, "alice", 30, time.Hour, models.LicenseStatusActivated)
	assert.ErrorIs(t, service.Delete(live.Code, live.Code), errs.ErrInvalidState)

	// Wrong confirmation token.
	expired := createTestLicense(t, models.LicenseTableUser, "alice", 30, -time.Hour, models.LicenseStatusActivated)
	assert.ErrorIs(t, service.Delete(expired.Code, "wrong"), errs.ErrValidation)

	// Expired plus echoed code deletes.
	require.NoError(t, service.Delete(expired.Code, expired.Code))
	_, _, err := database.ResolveLicense(database.DB, expired.Code)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteWorksForSuspendedLicense(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 0)
	license := createTestLicense(t, models.LicenseTableUser, "alice", 30, time.Hour, models.LicenseStatusActivated)

	service := NewLicenseService()
	require.NoError(t, service.Suspend(license.Code))
	require.NoError(t, service.Delete(license.Code, license.Code))
}

func TestChangeAccountNumberDebitsFee(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 50)
	license := createTestLicense(t, models.LicenseTableUser, "alice", 30, time.Hour, models.LicenseStatusActivated)

	service := NewLicenseService()
	deducted, remaining, err := service.ChangeAccountNumber("alice", license.Code, "999888")
	require.NoError(t, err)
	assert.Equal(t, int64(10), deducted)
	assert.Equal(t, int64(40), remaining)

	updated, _, err := database.ResolveLicense(database.DB, license.Code)
	require.NoError(t, err)
	assert.Equal(t, "999888", updated.TradingAccountNumber)
}

func TestChangeAccountNumberRejectsWhenBroke(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 3)
	license := createTestLicense(t, models.LicenseTableUser, "alice", 30, time.Hour, models.LicenseStatusActivated)

	service := NewLicenseService()
	_, _, err := service.ChangeAccountNumber("alice", license.Code, "999888")
	_, ok := errs.AsInsufficientCredits(err)
	require.True(t, ok)

	// Number unchanged.
	updated, _, err := database.ResolveLicense(database.DB, license.Code)
	require.NoError(t, err)
	assert.Equal(t, "100200", updated.TradingAccountNumber)
}

func TestListForUserMergesBothCollections(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 0)
	createTestLicense(t, models.LicenseTableUser, "alice", 30, time.Hour, models.LicenseStatusActivated)
	createTestLicense(t, models.LicenseTableAdmin, "alice", 90, -time.Hour, models.LicenseStatusActivated)

	service := NewLicenseService()
	licenses, err := service.ListForUser("alice")
	require.NoError(t, err)
	require.Len(t, licenses, 2)

	statuses := map[string]bool{}
	for _, license := range licenses {
		statuses[license.Status] = true
	}
	// The lapsed admin grant reads as expired without being persisted.
	assert.True(t, statuses[models.LicenseStatusActivated])
	assert.True(t, statuses[models.LicenseStatusExpired])
}
