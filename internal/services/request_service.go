package services

import (
	"errors"
	"fmt"
	"time"

	"license-api/internal/database"
	"license-api/internal/errs"
	"license-api/internal/models"

	"gorm.io/gorm"
)

// RequestService processes the admin approval queue. A request moves from
// pending to approved or rejected exactly once; both are terminal.
type RequestService struct {
	db          *gorm.DB
	ledger      *LedgerService
	broadcaster *BroadcastService
	notifier    *NotifyService
}

// NewRequestService creates a new request service
func NewRequestService() *RequestService {
	return &RequestService{
		db:          database.GetDB(),
		ledger:      NewLedgerService(),
		broadcaster: NewBroadcastService(),
		notifier:    NewNotifyService(),
	}
}

// BulkResult tallies per-id outcomes of a bulk operation. One id's failure
// never aborts the others.
type BulkResult struct {
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Errors    map[uint]string `json:"errors,omitempty"`
}

func (r *BulkResult) record(id uint, err error) {
	r.Total++
	if err != nil {
		r.Failed++
		if r.Errors == nil {
			r.Errors = make(map[uint]string)
		}
		r.Errors[id] = err.Error()
		return
	}
	r.Succeeded++
}

// ApproveTopUp credits the requested points to the owner's balance and stamps
// the processing metadata, in one commit.
func (s *RequestService) ApproveTopUp(id uint, admin string) error {
	var req *models.TopUpRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = s.loadTopUp(tx, id)
		if err != nil {
			return err
		}

		now := time.Now()
		changed, err := database.MarkRequestProcessedIfPending(tx, &models.TopUpRequest{}, id, map[string]interface{}{
			"status":       models.RequestStatusApproved,
			"processed_by": admin,
			"processed_at": now,
		})
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: request %d already processed", errs.ErrInvalidState, id)
		}

		_, err = s.ledger.Credit(tx, req.Username, req.Points,
			fmt.Sprintf("top-up request %d approved", id), admin)
		return err
	})
	if err != nil {
		return err
	}

	s.broadcaster.Publish(EventTopUpStatusUpdated, req.Username, map[string]interface{}{
		"request_id": id,
		"status":     models.RequestStatusApproved,
	})
	s.broadcaster.Publish(EventCreditsUpdated, req.Username, map[string]interface{}{
		"credited": req.Points,
	})
	s.notifier.NotifyAccount(req.Username, "Top-up approved",
		fmt.Sprintf("Your top-up of %d credits has been approved.", req.Points))
	return nil
}

// RejectTopUp closes a top-up request with a mandatory reason.
func (s *RequestService) RejectTopUp(id uint, reason, admin string) error {
	if reason == "" {
		return fmt.Errorf("%w: rejection reason is required", errs.ErrValidation)
	}

	var req *models.TopUpRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = s.loadTopUp(tx, id)
		if err != nil {
			return err
		}

		now := time.Now()
		changed, err := database.MarkRequestProcessedIfPending(tx, &models.TopUpRequest{}, id, map[string]interface{}{
			"status":           models.RequestStatusRejected,
			"processed_by":     admin,
			"processed_at":     now,
			"rejection_reason": reason,
		})
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: request %d already processed", errs.ErrInvalidState, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcaster.Publish(EventTopUpStatusUpdated, req.Username, map[string]interface{}{
		"request_id": id,
		"status":     models.RequestStatusRejected,
		"reason":     reason,
	})
	s.notifier.NotifyAccount(req.Username, "Top-up rejected",
		fmt.Sprintf("Your top-up request was rejected: %s", reason))
	return nil
}

// ApproveExtension re-resolves the license's expiry as of approval time and
// commits the extension. The ownership check does not apply: an admin
// processes the request on the owner's behalf. No credits are charged on
// this path.
func (s *RequestService) ApproveExtension(id uint, admin string) error {
	var req *models.ExtensionRequest
	var newExpiry string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = s.loadExtension(tx, id)
		if err != nil {
			return err
		}

		now := time.Now()
		changed, err := database.MarkRequestProcessedIfPending(tx, &models.ExtensionRequest{}, id, map[string]interface{}{
			"status":       models.RequestStatusApproved,
			"processed_by": admin,
			"processed_at": now,
		})
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: request %d already processed", errs.ErrInvalidState, id)
		}

		license, table, err := resolveForExtension(tx, req.LicenseCode, "")
		if err != nil {
			return err
		}
		newExpiry, err = CommitExtension(tx, license, table, req.RequestedDays, now)
		return err
	})
	if err != nil {
		return err
	}

	s.broadcaster.Publish(EventExtensionRequestUpdated, req.Username, map[string]interface{}{
		"request_id": id,
		"status":     models.RequestStatusApproved,
	})
	s.broadcaster.Publish(EventLicenseUpdated, req.Username, map[string]interface{}{
		"code":       req.LicenseCode,
		"expires_at": newExpiry,
	})
	s.notifier.NotifyAccount(req.Username, "Extension approved",
		fmt.Sprintf("Your license %s was extended by %d days.", req.LicenseCode, req.RequestedDays))
	return nil
}

// RejectExtension closes an extension request with a mandatory reason. The
// license itself is untouched.
func (s *RequestService) RejectExtension(id uint, reason, admin string) error {
	if reason == "" {
		return fmt.Errorf("%w: rejection reason is required", errs.ErrValidation)
	}

	var req *models.ExtensionRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = s.loadExtension(tx, id)
		if err != nil {
			return err
		}

		now := time.Now()
		changed, err := database.MarkRequestProcessedIfPending(tx, &models.ExtensionRequest{}, id, map[string]interface{}{
			"status":           models.RequestStatusRejected,
			"processed_by":     admin,
			"processed_at":     now,
			"rejection_reason": reason,
		})
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: request %d already processed", errs.ErrInvalidState, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcaster.Publish(EventExtensionRequestUpdated, req.Username, map[string]interface{}{
		"request_id": id,
		"status":     models.RequestStatusRejected,
		"reason":     reason,
	})
	s.notifier.NotifyAccount(req.Username, "Extension rejected",
		fmt.Sprintf("Your extension request for license %s was rejected: %s", req.LicenseCode, reason))
	return nil
}

// BulkApproveExtensions approves each id independently.
func (s *RequestService) BulkApproveExtensions(ids []uint, admin string) BulkResult {
	var result BulkResult
	for _, id := range ids {
		result.record(id, s.ApproveExtension(id, admin))
	}
	return result
}

// BulkRejectExtensions rejects each id independently with the shared reason.
func (s *RequestService) BulkRejectExtensions(ids []uint, reason, admin string) BulkResult {
	var result BulkResult
	for _, id := range ids {
		result.record(id, s.RejectExtension(id, reason, admin))
	}
	return result
}

// BulkApproveTopUps approves each id independently.
func (s *RequestService) BulkApproveTopUps(ids []uint, admin string) BulkResult {
	var result BulkResult
	for _, id := range ids {
		result.record(id, s.ApproveTopUp(id, admin))
	}
	return result
}

// BulkRejectTopUps rejects each id independently with the shared reason.
func (s *RequestService) BulkRejectTopUps(ids []uint, reason, admin string) BulkResult {
	var result BulkResult
	for _, id := range ids {
		result.record(id, s.RejectTopUp(id, reason, admin))
	}
	return result
}

// SubmitTopUp enqueues a credit purchase request. Points are granted 1:1
// with the paid amount once an admin approves.
func (s *RequestService) SubmitTopUp(username string, amount int64) (*models.TopUpRequest, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", errs.ErrValidation)
	}

	var request models.TopUpRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := database.GetAccountByUsername(tx, username); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: account %s", errs.ErrNotFound, username)
			}
			return err
		}

		pending, err := database.HasPendingTopUpRequest(tx, username)
		if err != nil {
			return err
		}
		if pending {
			return fmt.Errorf("%w: top-up request for %s", errs.ErrDuplicatePendingRequest, username)
		}

		request = models.TopUpRequest{
			Username: username,
			Amount:   amount,
			Points:   amount,
			Status:   models.RequestStatusPending,
		}
		return database.CreateTopUpRequest(tx, &request)
	})
	if err != nil {
		return nil, err
	}

	s.broadcaster.Publish(EventTopUpStatusUpdated, username, map[string]interface{}{
		"request_id": request.ID,
		"status":     request.Status,
	})
	return &request, nil
}

// ListExtensions returns extension requests filtered by status.
func (s *RequestService) ListExtensions(status string) ([]models.ExtensionRequest, error) {
	return database.ListExtensionRequests(s.db, status)
}

// ListTopUps returns top-up requests filtered by status.
func (s *RequestService) ListTopUps(status string) ([]models.TopUpRequest, error) {
	return database.ListTopUpRequests(s.db, status)
}

func (s *RequestService) loadTopUp(tx *gorm.DB, id uint) (*models.TopUpRequest, error) {
	req, err := database.GetTopUpRequestByID(tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: top-up request %d", errs.ErrNotFound, id)
		}
		return nil, err
	}
	return req, nil
}

func (s *RequestService) loadExtension(tx *gorm.DB, id uint) (*models.ExtensionRequest, error) {
	req, err := database.GetExtensionRequestByID(tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: extension request %d", errs.ErrNotFound, id)
		}
		return nil, err
	}
	return req, nil
}
