package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel provides common fields for all database models
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// Account identifies a customer and owns the credit balance. The balance is
// mutated only through the credit ledger and never goes below zero.
type Account struct {
	BaseModel
	Username      string `json:"username" gorm:"uniqueIndex;not null"`
	Email         string `json:"email"`
	CreditBalance int64  `json:"credit_balance" gorm:"not null;default:0"`
	IsAdmin       bool   `json:"is_admin" gorm:"default:false"`
}

// CreditEntry is one row of the credit audit trail, appended whenever the
// ledger mutates a balance. Balance is the running balance after the delta.
type CreditEntry struct {
	BaseModel
	Username string `json:"username" gorm:"not null;index"`
	Delta    int64  `json:"delta" gorm:"not null"`
	Balance  int64  `json:"balance" gorm:"not null"`
	Reason   string `json:"reason" gorm:"size:200"`
	Actor    string `json:"actor" gorm:"size:100"`
}
