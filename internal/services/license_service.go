package services

import (
	"errors"
	"fmt"
	"time"

	"license-api/internal/config"
	"license-api/internal/database"
	"license-api/internal/errs"
	"license-api/internal/models"
	"license-api/pkg/thaitime"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LicenseService owns the license lifecycle: purchase, activation,
// suspend/reactivate, confirmed deletion, and account number changes.
type LicenseService struct {
	db          *gorm.DB
	ledger      *LedgerService
	broadcaster *BroadcastService
}

// NewLicenseService creates a new license service
func NewLicenseService() *LicenseService {
	return &LicenseService{
		db:          database.GetDB(),
		ledger:      NewLedgerService(),
		broadcaster: NewBroadcastService(),
	}
}

// EffectiveStatus derives a license's real status from its expiry string at
// "now". The persisted status is not authoritative for expiry: a stored
// "activated" whose expiry has lapsed is effectively expired. Lifetime
// licenses never expire. A broken expiry string is surfaced, never treated
// as a valid date.
func EffectiveStatus(license *models.License, now time.Time) (string, error) {
	if license.Status != models.LicenseStatusActivated && license.Status != models.LicenseStatusExpired {
		return license.Status, nil
	}
	if license.IsLifetime() {
		return models.LicenseStatusActivated, nil
	}
	expiresAt, err := thaitime.Parse(license.ExpiresAt)
	if err != nil {
		return "", fmt.Errorf("%w: expiry of license %s: %v", errs.ErrValidation, license.Code, err)
	}
	if expiresAt.Before(now) {
		return models.LicenseStatusExpired, nil
	}
	return models.LicenseStatusActivated, nil
}

// Purchase creates a user-purchased license against a catalog plan. The
// license starts in pending_payment; payment confirmation and activation
// arrive from the payment collaborator.
func (s *LicenseService) Purchase(username, platform, tradingAccountNumber string, planDays int) (*models.License, error) {
	if platform == "" || tradingAccountNumber == "" {
		return nil, fmt.Errorf("%w: platform and trading account number are required", errs.ErrValidation)
	}
	if _, err := database.GetActivePlanByDays(s.db, planDays); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active plan for %d days", errs.ErrValidation, planDays)
		}
		return nil, err
	}

	license := &models.License{
		Code:                 uuid.NewString(),
		Username:             username,
		Platform:             platform,
		TradingAccountNumber: tradingAccountNumber,
		PlanDays:             planDays,
		Status:               models.LicenseStatusPendingPayment,
		SubStatus:            models.LicenseSubStatusValid,
		CumulativePlanDays:   planDays,
		CreatedBy:            models.LicenseCreatedByUser,
	}
	if license.PlanDays == models.LifetimeDays {
		license.CumulativePlanDays = 0
	}
	if err := database.CreateLicense(s.db, models.LicenseTableUser, license); err != nil {
		return nil, err
	}

	s.broadcaster.Publish(EventLicenseUpdated, username, map[string]interface{}{
		"code":   license.Code,
		"status": license.Status,
	})
	return license, nil
}

// AdminGrant creates an admin-issued license in the admin collection. It is
// activated immediately with its expiry counted from now.
func (s *LicenseService) AdminGrant(username, platform, tradingAccountNumber string, planDays int) (*models.License, error) {
	if _, err := database.GetAccountByUsername(s.db, username); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %s", errs.ErrNotFound, username)
		}
		return nil, err
	}
	if planDays != models.LifetimeDays && (planDays < 1 || planDays > 9999) {
		return nil, fmt.Errorf("%w: plan days must be within [1,9999]", errs.ErrValidation)
	}

	license := &models.License{
		Code:                 uuid.NewString(),
		Username:             username,
		Platform:             platform,
		TradingAccountNumber: tradingAccountNumber,
		PlanDays:             planDays,
		Status:               models.LicenseStatusActivated,
		SubStatus:            models.LicenseSubStatusValid,
		CumulativePlanDays:   planDays,
		CreatedBy:            models.LicenseCreatedByAdmin,
	}
	if planDays == models.LifetimeDays {
		license.CumulativePlanDays = 0
	} else {
		license.ExpiresAt = thaitime.Format(time.Now().AddDate(0, 0, planDays))
	}
	if err := database.CreateLicense(s.db, models.LicenseTableAdmin, license); err != nil {
		return nil, err
	}

	s.broadcaster.Publish(EventLicenseUpdated, username, map[string]interface{}{
		"code":   license.Code,
		"status": license.Status,
	})
	return license, nil
}

// MarkPaid records payment confirmation: pending_payment to paid.
func (s *LicenseService) MarkPaid(code string) error {
	license, table, err := s.resolve(code)
	if err != nil {
		return err
	}
	if license.Status != models.LicenseStatusPendingPayment {
		return fmt.Errorf("%w: cannot mark %s license as paid", errs.ErrInvalidState, license.Status)
	}
	if err := database.UpdateLicenseFields(s.db, table, code, map[string]interface{}{
		"status": models.LicenseStatusPaid,
	}); err != nil {
		return err
	}
	s.broadcaster.Publish(EventLicenseUpdated, license.Username, map[string]interface{}{
		"code":   code,
		"status": models.LicenseStatusPaid,
	})
	return nil
}

// Activate turns a paid license on and stamps its expiry counted from now.
func (s *LicenseService) Activate(code string) (*models.License, error) {
	license, table, err := s.resolve(code)
	if err != nil {
		return nil, err
	}
	if license.Status != models.LicenseStatusPaid {
		return nil, fmt.Errorf("%w: cannot activate %s license", errs.ErrInvalidState, license.Status)
	}

	fields := map[string]interface{}{
		"status":     models.LicenseStatusActivated,
		"sub_status": models.LicenseSubStatusValid,
	}
	if !license.IsLifetime() {
		license.ExpiresAt = thaitime.Format(time.Now().AddDate(0, 0, license.PlanDays))
		fields["expires_at"] = license.ExpiresAt
	}
	if err := database.UpdateLicenseFields(s.db, table, code, fields); err != nil {
		return nil, err
	}
	license.Status = models.LicenseStatusActivated
	license.SubStatus = models.LicenseSubStatusValid

	s.broadcaster.Publish(EventLicenseUpdated, license.Username, map[string]interface{}{
		"code":       code,
		"status":     license.Status,
		"expires_at": license.ExpiresAt,
	})
	return license, nil
}

// Suspend pauses an activated license. Forbidden once the license has
// effectively expired.
func (s *LicenseService) Suspend(code string) error {
	license, table, err := s.resolve(code)
	if err != nil {
		return err
	}
	effective, err := EffectiveStatus(license, time.Now())
	if err != nil {
		return err
	}
	if effective != models.LicenseStatusActivated || license.SubStatus != models.LicenseSubStatusValid {
		return fmt.Errorf("%w: cannot suspend license in state %s/%s", errs.ErrInvalidState, effective, license.SubStatus)
	}
	if err := database.UpdateLicenseFields(s.db, table, code, map[string]interface{}{
		"sub_status": models.LicenseSubStatusSuspended,
	}); err != nil {
		return err
	}
	s.broadcaster.Publish(EventLicenseUpdated, license.Username, map[string]interface{}{
		"code":       code,
		"sub_status": models.LicenseSubStatusSuspended,
	})
	return nil
}

// Reactivate lifts a suspension. The expiry is not adjusted: the countdown
// kept running while the license was suspended, and a license whose countdown
// lapsed in the meantime cannot be toggled back to valid.
func (s *LicenseService) Reactivate(code string) error {
	license, table, err := s.resolve(code)
	if err != nil {
		return err
	}
	if license.SubStatus != models.LicenseSubStatusSuspended {
		return fmt.Errorf("%w: license is not suspended", errs.ErrInvalidState)
	}
	effective, err := EffectiveStatus(license, time.Now())
	if err != nil {
		return err
	}
	if effective == models.LicenseStatusExpired {
		return fmt.Errorf("%w: license expired while suspended", errs.ErrInvalidState)
	}
	if err := database.UpdateLicenseFields(s.db, table, code, map[string]interface{}{
		"sub_status": models.LicenseSubStatusValid,
	}); err != nil {
		return err
	}
	s.broadcaster.Publish(EventLicenseUpdated, license.Username, map[string]interface{}{
		"code":       code,
		"sub_status": models.LicenseSubStatusValid,
	})
	return nil
}

// Delete removes a license. Only suspended or expired licenses can be
// deleted, and the caller must echo the license code back as the
// confirmation token.
func (s *LicenseService) Delete(code, confirm string) error {
	license, table, err := s.resolve(code)
	if err != nil {
		return err
	}
	if confirm != code {
		return fmt.Errorf("%w: confirmation token does not match license code", errs.ErrValidation)
	}
	effective, err := EffectiveStatus(license, time.Now())
	if err != nil {
		return err
	}
	deletable := license.SubStatus == models.LicenseSubStatusSuspended || effective == models.LicenseStatusExpired
	if !deletable {
		return fmt.Errorf("%w: only suspended or expired licenses can be deleted", errs.ErrInvalidState)
	}
	if err := database.DeleteLicense(s.db, table, code); err != nil {
		return err
	}
	s.broadcaster.Publish(EventLicenseUpdated, license.Username, map[string]interface{}{
		"code":    code,
		"deleted": true,
	})
	return nil
}

// ChangeAccountNumber swaps the trading account number bound to a license for
// a flat credit fee. Debit and field update commit together.
func (s *LicenseService) ChangeAccountNumber(username, code, newNumber string) (int64, int64, error) {
	if newNumber == "" {
		return 0, 0, fmt.Errorf("%w: new account number is required", errs.ErrValidation)
	}

	fee := int64(10)
	if config.AppConfig != nil {
		fee = config.AppConfig.AccountChangeFee
	}

	var remaining int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		license, table, err := database.ResolveLicenseForUpdate(tx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: license %s", errs.ErrNotFound, code)
			}
			return err
		}
		if license.Username != username {
			return fmt.Errorf("%w: license %s", errs.ErrNotFound, code)
		}

		remaining, err = s.ledger.Debit(tx, username, fee,
			fmt.Sprintf("account number change for license %s", code), username)
		if err != nil {
			return err
		}
		return database.UpdateLicenseFields(tx, table, code, map[string]interface{}{
			"trading_account_number": newNumber,
		})
	})
	if err != nil {
		return 0, 0, err
	}

	s.broadcaster.Publish(EventCreditsUpdated, username, map[string]interface{}{
		"balance": remaining,
	})
	s.broadcaster.Publish(EventLicenseUpdated, username, map[string]interface{}{
		"code":                   code,
		"trading_account_number": newNumber,
	})
	return fee, remaining, nil
}

// ListForUser returns a user's licenses from both collections with the
// status replaced by the derived effective value. Nothing is persisted on
// this read path.
func (s *LicenseService) ListForUser(username string) ([]models.License, error) {
	licenses, err := database.ListLicensesByUsername(s.db, username)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range licenses {
		effective, err := EffectiveStatus(&licenses[i], now)
		if err != nil {
			// A broken expiry row must not hide the rest of the list.
			continue
		}
		licenses[i].Status = effective
	}
	return licenses, nil
}

func (s *LicenseService) resolve(code string) (*models.License, string, error) {
	license, table, err := database.ResolveLicense(s.db, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: license %s", errs.ErrNotFound, code)
		}
		return nil, "", err
	}
	return license, table, nil
}
