package services

import (
	"testing"

	"license-api/internal/database"
	"license-api/internal/errs"
	"license-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebitDecrementsBalanceAndAppendsAudit(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 100)
	ledger := NewLedgerService()

	balance, err := ledger.Debit(database.DB, "alice", 30, "test debit", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(70), balance)

	entries, err := database.GetCreditEntries("alice", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(-30), entries[0].Delta)
	assert.Equal(t, int64(70), entries[0].Balance)
	assert.Equal(t, "test debit", entries[0].Reason)
}

func TestDebitRejectsInsufficientBalance(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 20)
	ledger := NewLedgerService()

	_, err := ledger.Debit(database.DB, "alice", 50, "too much", "alice")
	require.Error(t, err)

	ice, ok := errs.AsInsufficientCredits(err)
	require.True(t, ok)
	assert.Equal(t, int64(50), ice.Required)
	assert.Equal(t, int64(20), ice.Available)

	// Balance untouched, no audit row.
	account, err := database.GetAccountByUsername(database.DB, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(20), account.CreditBalance)

	entries, err := database.GetCreditEntries("alice", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDebitUnknownAccountIsNotFound(t *testing.T) {
	setupTestDB(t)
	ledger := NewLedgerService()

	_, err := ledger.Debit(database.DB, "ghost", 1, "x", "ghost")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreditIncrementsBalance(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 5)
	ledger := NewLedgerService()

	balance, err := ledger.Credit(database.DB, "alice", 45, "top-up", "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)
}

func TestAdjustRejectsDeductionBelowZero(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 10)
	ledger := NewLedgerService()

	_, err := ledger.Adjust(database.DB, "alice", -25, "manual deduction", "admin")
	_, ok := errs.AsInsufficientCredits(err)
	assert.True(t, ok)

	account, err := database.GetAccountByUsername(database.DB, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(10), account.CreditBalance)
}

func TestBalanceEqualsSumOfCommittedDeltas(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 0)
	ledger := NewLedgerService()

	deltas := []int64{50, -20, 100, -500, -30, 75, -200}
	var committed int64
	for _, delta := range deltas {
		balance, err := ledger.Adjust(database.DB, "alice", delta, "sequence", "test")
		if delta < 0 && committed+delta < 0 {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		committed += delta
		assert.Equal(t, committed, balance)
		assert.GreaterOrEqual(t, balance, int64(0))
	}

	account, err := database.GetAccountByUsername(database.DB, "alice")
	require.NoError(t, err)
	assert.Equal(t, committed, account.CreditBalance)

	entries, err := database.GetCreditEntries("alice", 50)
	require.NoError(t, err)
	var sum int64
	for _, entry := range entries {
		sum += entry.Delta
	}
	assert.Equal(t, committed, sum)
}

func TestCreditEntryModelHasExpectedColumns(t *testing.T) {
	setupTestDB(t)
	createTestAccount(t, "alice", 0)
	ledger := NewLedgerService()

	_, err := ledger.Credit(database.DB, "alice", 10, "seed", "admin")
	require.NoError(t, err)

	var entry models.CreditEntry
	require.NoError(t, database.DB.First(&entry).Error)
	assert.Equal(t, "alice", entry.Username)
	assert.Equal(t, "admin", entry.Actor)
}
