package services

import (
	"errors"
	"fmt"
	"time"

	"license-api/internal/database"
	"license-api/internal/errs"
	"license-api/internal/models"
	"license-api/pkg/thaitime"

	"gorm.io/gorm"
)

// Funding modes of an extension.
const (
	FundingModeCredits      = "credits"
	FundingModeAdminRequest = "admin-request"
)

// Day-count bounds for any extension or custom plan.
const (
	MinExtensionDays = 1
	MaxExtensionDays = 9999
)

// ExtensionResult is the typed outcome of an extension call. Completed means
// the expiry moved; otherwise a pending request was enqueued.
type ExtensionResult struct {
	Completed        bool   `json:"completed"`
	RequestID        uint   `json:"request_id,omitempty"`
	NewExpiry        string `json:"new_expiry,omitempty"`
	CreditsUsed      int64  `json:"credits_used,omitempty"`
	RemainingCredits int64  `json:"remaining_credits,omitempty"`
}

// ExtensionService computes new expiries and either commits them instantly
// against the credit ledger or enqueues an admin approval request.
type ExtensionService struct {
	db          *gorm.DB
	ledger      *LedgerService
	broadcaster *BroadcastService
}

// NewExtensionService creates a new extension service
func NewExtensionService() *ExtensionService {
	return &ExtensionService{
		db:          database.GetDB(),
		ledger:      NewLedgerService(),
		broadcaster: NewBroadcastService(),
	}
}

// Extend prolongs a license by the requested day count on behalf of its
// owner. Credit mode debits the catalog cost and moves the expiry in one
// commit; admin-request mode enqueues a pending request without touching the
// ledger or the expiry.
func (s *ExtensionService) Extend(username, code string, days int, fundingMode string) (*ExtensionResult, error) {
	if days < MinExtensionDays || days > MaxExtensionDays {
		return nil, fmt.Errorf("%w: day count must be within [%d,%d]", errs.ErrValidation, MinExtensionDays, MaxExtensionDays)
	}

	switch fundingMode {
	case FundingModeCredits:
		return s.extendWithCredits(username, code, days)
	case FundingModeAdminRequest:
		return s.enqueueRequest(username, code, days)
	default:
		return nil, fmt.Errorf("%w: unknown funding mode %q", errs.ErrValidation, fundingMode)
	}
}

// AdminExtend commits an extension instantly with no credit cost and no
// ownership check.
func (s *ExtensionService) AdminExtend(code string, days int, actor string) (*ExtensionResult, error) {
	if days < MinExtensionDays || days > MaxExtensionDays {
		return nil, fmt.Errorf("%w: day count must be within [%d,%d]", errs.ErrValidation, MinExtensionDays, MaxExtensionDays)
	}

	var newExpiry string
	var owner string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		license, table, err := resolveForExtension(tx, code, "")
		if err != nil {
			return err
		}
		owner = license.Username
		newExpiry, err = CommitExtension(tx, license, table, days, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.broadcaster.Publish(EventLicenseUpdated, owner, map[string]interface{}{
		"code":        code,
		"expires_at":  newExpiry,
		"extended_by": actor,
	})
	return &ExtensionResult{Completed: true, NewExpiry: newExpiry}, nil
}

// CostInCredits maps a day count to its credit cost: the active catalog
// entry's points when one matches, otherwise the raw day count at the 1:1
// rate (admin-supplied custom day counts).
func CostInCredits(db *gorm.DB, days int) (int64, error) {
	plan, err := database.GetActivePlanByDays(db, days)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return int64(days), nil
		}
		return 0, err
	}
	return plan.Points, nil
}

// CommitExtension runs the shared commit step: base is the later of the
// current expiry and now, so an already-lapsed license resumes counting from
// the moment of extension. Persists the new expiry, bumps the cumulative day
// total, and flips a persisted expired status back to activated. Must run
// inside the caller's transaction.
func CommitExtension(tx *gorm.DB, license *models.License, table string, days int, now time.Time) (string, error) {
	base := now
	if license.ExpiresAt != "" {
		current, err := thaitime.Parse(license.ExpiresAt)
		if err != nil {
			return "", fmt.Errorf("%w: expiry of license %s: %v", errs.ErrValidation, license.Code, err)
		}
		if current.After(now) {
			base = current
		}
	}
	newExpiry := thaitime.Format(base.AddDate(0, 0, days))

	err := database.UpdateLicenseFields(tx, table, license.Code, map[string]interface{}{
		"expires_at":           newExpiry,
		"cumulative_plan_days": license.CumulativePlanDays + days,
		"status":               models.LicenseStatusActivated,
	})
	if err != nil {
		return "", err
	}
	return newExpiry, nil
}

func (s *ExtensionService) extendWithCredits(username, code string, days int) (*ExtensionResult, error) {
	var result ExtensionResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		license, table, err := resolveForExtension(tx, code, username)
		if err != nil {
			return err
		}
		if license.SubStatus != models.LicenseSubStatusValid {
			return fmt.Errorf("%w: license is suspended", errs.ErrInvalidState)
		}

		cost, err := CostInCredits(tx, days)
		if err != nil {
			return err
		}

		// Debit first: if it fails nothing else is committed.
		remaining, err := s.ledger.Debit(tx, username, cost,
			fmt.Sprintf("extend license %s by %d days", code, days), username)
		if err != nil {
			return err
		}

		newExpiry, err := CommitExtension(tx, license, table, days, time.Now())
		if err != nil {
			return err
		}

		result = ExtensionResult{
			Completed:        true,
			NewExpiry:        newExpiry,
			CreditsUsed:      cost,
			RemainingCredits: remaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcaster.Publish(EventLicenseUpdated, username, map[string]interface{}{
		"code":       code,
		"expires_at": result.NewExpiry,
	})
	s.broadcaster.Publish(EventCreditsUpdated, username, map[string]interface{}{
		"balance": result.RemainingCredits,
	})
	return &result, nil
}

func (s *ExtensionService) enqueueRequest(username, code string, days int) (*ExtensionResult, error) {
	var request models.ExtensionRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		license, _, err := resolveForExtension(tx, code, username)
		if err != nil {
			return err
		}

		// Existence check and insert share the transaction, so a second
		// submit cannot slip in between them.
		pending, err := database.HasPendingExtensionRequest(tx, code)
		if err != nil {
			return err
		}
		if pending {
			return fmt.Errorf("%w: extension request for license %s", errs.ErrDuplicatePendingRequest, code)
		}

		request = models.ExtensionRequest{
			LicenseCode:           code,
			Username:              username,
			RequestedDays:         days,
			CurrentExpirySnapshot: license.ExpiresAt,
			Status:                models.RequestStatusPending,
		}
		return database.CreateExtensionRequest(tx, &request)
	})
	if err != nil {
		return nil, err
	}

	s.broadcaster.Publish(EventExtensionRequestUpdated, username, map[string]interface{}{
		"request_id": request.ID,
		"status":     request.Status,
	})
	return &ExtensionResult{Completed: false, RequestID: request.ID}, nil
}

// resolveForExtension loads a license with a row lock and applies the guards
// shared by every extension path: existence, ownership (skipped when owner is
// empty, i.e. admin paths), never lifetime, and a stored status that an
// extension may act on. An effectively expired license passes; the commit
// step resumes its countdown from now.
func resolveForExtension(tx *gorm.DB, code, owner string) (*models.License, string, error) {
	license, table, err := database.ResolveLicenseForUpdate(tx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: license %s", errs.ErrNotFound, code)
		}
		return nil, "", err
	}
	if owner != "" && license.Username != owner {
		return nil, "", fmt.Errorf("%w: license %s", errs.ErrNotFound, code)
	}
	if license.IsLifetime() {
		return nil, "", fmt.Errorf("%w: lifetime licenses cannot be extended", errs.ErrInvalidState)
	}
	if license.Status != models.LicenseStatusActivated && license.Status != models.LicenseStatusExpired {
		return nil, "", fmt.Errorf("%w: cannot extend %s license", errs.ErrInvalidState, license.Status)
	}
	return license, table, nil
}
