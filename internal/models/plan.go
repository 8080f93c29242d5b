package models

// PlanSetting is an admin-configured catalog entry defining the menu of
// days-to-credits conversions. Read-only to the ledger and extension engine.
type PlanSetting struct {
	BaseModel
	Days     int   `json:"days" gorm:"not null;index"` // LifetimeDays for lifetime
	Price    int64 `json:"price" gorm:"not null"`      // money units
	Points   int64 `json:"points" gorm:"not null"`     // credit cost
	IsActive bool  `json:"is_active" gorm:"default:true"`
}
