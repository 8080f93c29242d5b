package services

import (
	"errors"
	"fmt"

	"license-api/internal/database"
	"license-api/internal/errs"
	"license-api/internal/models"

	"gorm.io/gorm"
)

// LedgerService owns every credit balance mutation. All methods take an
// explicit *gorm.DB so a caller can pass a transaction handle and make the
// balance change one atomic step of a larger commit; nothing here ever does a
// read-then-write on the balance.
type LedgerService struct{}

// NewLedgerService creates a new ledger service
func NewLedgerService() *LedgerService {
	return &LedgerService{}
}

// Debit atomically decrements an account's balance when it covers the amount
// and appends an audit entry. Returns the new balance, or an
// InsufficientCreditsError carrying the exact shortfall.
func (s *LedgerService) Debit(tx *gorm.DB, username string, amount int64, reason, actor string) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: debit amount must be non-negative", errs.ErrValidation)
	}

	ok, err := database.DebitBalanceIfSufficient(tx, username, amount)
	if err != nil {
		return 0, err
	}
	if !ok {
		account, err := database.GetAccountByUsername(tx, username)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, fmt.Errorf("%w: account %s", errs.ErrNotFound, username)
			}
			return 0, err
		}
		return 0, &errs.InsufficientCreditsError{Required: amount, Available: account.CreditBalance}
	}

	account, err := database.GetAccountByUsername(tx, username)
	if err != nil {
		return 0, err
	}

	entry := &models.CreditEntry{
		Username: username,
		Delta:    -amount,
		Balance:  account.CreditBalance,
		Reason:   reason,
		Actor:    actor,
	}
	if err := database.AppendCreditEntry(tx, entry); err != nil {
		return 0, err
	}
	return account.CreditBalance, nil
}

// Credit atomically increments an account's balance and appends an audit
// entry. Always succeeds for a non-negative amount on an existing account.
func (s *LedgerService) Credit(tx *gorm.DB, username string, amount int64, reason, actor string) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: credit amount must be non-negative", errs.ErrValidation)
	}

	ok, err := database.CreditBalance(tx, username, amount)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: account %s", errs.ErrNotFound, username)
	}

	account, err := database.GetAccountByUsername(tx, username)
	if err != nil {
		return 0, err
	}

	entry := &models.CreditEntry{
		Username: username,
		Delta:    amount,
		Balance:  account.CreditBalance,
		Reason:   reason,
		Actor:    actor,
	}
	if err := database.AppendCreditEntry(tx, entry); err != nil {
		return 0, err
	}
	return account.CreditBalance, nil
}

// Adjust applies a signed manual adjustment. A negative delta that would
// drive the balance below zero is rejected the same way a debit is.
func (s *LedgerService) Adjust(tx *gorm.DB, username string, delta int64, reason, actor string) (int64, error) {
	if delta < 0 {
		return s.Debit(tx, username, -delta, reason, actor)
	}
	return s.Credit(tx, username, delta, reason, actor)
}
