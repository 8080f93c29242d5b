package models

// License statuses. The persisted status advances monotonically; "expired" is
// additionally derived lazily from the expiry string at every read/write
// boundary, so callers must go through EffectiveStatus rather than trusting
// the stored value.
const (
	LicenseStatusPendingPayment = "pending_payment"
	LicenseStatusPaid           = "paid"
	LicenseStatusActivated      = "activated"
	LicenseStatusExpired        = "expired"
	LicenseStatusCancelled      = "cancelled"
)

// Sub-statuses of an activated license.
const (
	LicenseSubStatusValid     = "valid"
	LicenseSubStatusSuspended = "suspended"
)

// Who created the license. User purchases live in the license table, admin
// grants in the admin_license table.
const (
	LicenseCreatedByUser  = "user"
	LicenseCreatedByAdmin = "admin"
)

// Backing tables for the two license collections.
const (
	LicenseTableUser  = "license"
	LicenseTableAdmin = "admin_license"
)

// LifetimeDays is the plan_days sentinel for a lifetime license. A lifetime
// license has no expiry string and is never accepted by the extension engine.
const LifetimeDays = -1

// License is the sellable unit: a time-bounded trading access grant.
// ExpiresAt is persisted as a Buddhist-Era locale string and must only be
// read or written through pkg/thaitime.
type License struct {
	BaseModel
	Code                 string `json:"code" gorm:"uniqueIndex;not null;size:64"`
	Username             string `json:"username" gorm:"not null;index"`
	Platform             string `json:"platform" gorm:"size:20;index"`
	TradingAccountNumber string `json:"trading_account_number" gorm:"size:50"`
	PlanDays             int    `json:"plan_days" gorm:"not null"`
	Status               string `json:"status" gorm:"not null;size:20;index"`
	SubStatus            string `json:"sub_status" gorm:"size:20;default:'valid'"`
	ExpiresAt            string `json:"expires_at" gorm:"size:20"`
	CumulativePlanDays   int    `json:"cumulative_plan_days" gorm:"not null"`
	CreatedBy            string `json:"created_by" gorm:"size:10"`
}

// IsLifetime reports whether the license never expires.
func (l *License) IsLifetime() bool {
	return l.PlanDays == LifetimeDays
}
