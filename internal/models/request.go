package models

import "time"

// Request statuses. pending is the only non-terminal state; approved and
// rejected are final and a processed request is immutable.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// ExtensionRequest is an admin-approval-path ask to prolong a license. The
// expiry snapshot records what the requester saw; the approval path always
// re-resolves the live expiry instead of trusting it.
type ExtensionRequest struct {
	BaseModel
	LicenseCode           string     `json:"license_code" gorm:"not null;index"`
	Username              string     `json:"username" gorm:"not null;index"`
	RequestedDays         int        `json:"requested_days" gorm:"not null"`
	CurrentExpirySnapshot string     `json:"current_expiry_snapshot" gorm:"size:20"`
	Status                string     `json:"status" gorm:"not null;size:20;index"`
	ProcessedBy           string     `json:"processed_by" gorm:"size:100"`
	ProcessedAt           *time.Time `json:"processed_at"`
	RejectionReason       string     `json:"rejection_reason" gorm:"size:500"`
}

// TopUpRequest is an ask to convert a real-money payment into credits.
// Points always equals Amount (1:1 rate).
type TopUpRequest struct {
	BaseModel
	Username        string     `json:"username" gorm:"not null;index"`
	Amount          int64      `json:"amount" gorm:"not null"`
	Points          int64      `json:"points" gorm:"not null"`
	Status          string     `json:"status" gorm:"not null;size:20;index"`
	ProcessedBy     string     `json:"processed_by" gorm:"size:100"`
	ProcessedAt     *time.Time `json:"processed_at"`
	RejectionReason string     `json:"rejection_reason" gorm:"size:500"`
}
