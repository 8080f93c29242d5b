package database

import (
	"license-api/internal/models"

	"gorm.io/gorm"
)

// CreateAccount creates an account
func CreateAccount(account *models.Account) error {
	return DB.Create(account).Error
}

// GetAccountByUsername gets an account by username
func GetAccountByUsername(db *gorm.DB, username string) (*models.Account, error) {
	var account models.Account
	err := db.Where("username = ?", username).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// DebitBalanceIfSufficient decrements an account's balance in a single
// conditional statement: the row only changes when the current balance covers
// the amount. Returns whether a row changed. Every spending path must go
// through this primitive rather than a read-then-write pair, so two
// concurrent debits can never both succeed against a balance that affords
// only one.
func DebitBalanceIfSufficient(db *gorm.DB, username string, amount int64) (bool, error) {
	result := db.Model(&models.Account{}).
		Where("username = ? AND credit_balance >= ?", username, amount).
		UpdateColumn("credit_balance", gorm.Expr("credit_balance - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CreditBalance increments an account's balance. Returns whether the account
// row exists.
func CreditBalance(db *gorm.DB, username string, amount int64) (bool, error) {
	result := db.Model(&models.Account{}).
		Where("username = ?", username).
		UpdateColumn("credit_balance", gorm.Expr("credit_balance + ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AppendCreditEntry appends an audit trail row
func AppendCreditEntry(db *gorm.DB, entry *models.CreditEntry) error {
	return db.Create(entry).Error
}

// GetCreditEntries returns the most recent audit rows for an account
func GetCreditEntries(username string, limit int) ([]models.CreditEntry, error) {
	var entries []models.CreditEntry
	err := DB.Where("username = ?", username).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
