package database

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"testing"
	"time"

	"stars-ledger-go/internal/models"
	"stars-ledger-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}
	return service, cleanup
}

func registerTestUser(t *testing.T, service *Service, userId int64, referrerId *int64) {
	t.Helper()
	err := service.RegisterUser(context.Background(), store.RegisterUserParams{
		UserId:     userId,
		Username:   "Test User",
		ReferrerId: referrerId,
	})
	if err != nil {
		t.Fatalf("Failed to register user %d: %v", userId, err)
	}
}

func TestProcessEntry_Credit(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	registerTestUser(t, service, 1, nil)

	amount := decimal.RequireFromString("0.2")
	entry, err := service.ProcessEntry(ctx, store.EntryParams{
		UserId: 1,
		Kind:   models.KindReward,
		Amount: amount,
		Note:   "click",
		Now:    time.Now(),
	})
	if err != nil {
		t.Fatalf("ProcessEntry failed: %v", err)
	}

	if entry.UserId != 1 {
		t.Errorf("Expected userId 1, got %d", entry.UserId)
	}
	if !entry.Amount.Equal(amount) {
		t.Errorf("Expected amount %s, got %s", amount, entry.Amount)
	}
	if !entry.BalanceAfter.Equal(amount) {
		t.Errorf("Expected balance %s, got %s", amount, entry.BalanceAfter)
	}

	balance, err := service.GetBalance(ctx, 1)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !balance.Equal(amount) {
		t.Errorf("Expected cached balance %s, got %s", amount, balance)
	}
}

func TestProcessEntry_NegativeBalanceRejected(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	registerTestUser(t, service, 1, nil)

	_, err := service.ProcessEntry(ctx, store.EntryParams{
		UserId: 1,
		Kind:   models.KindWithdrawal,
		Amount: decimal.RequireFromString("-1"),
		Now:    time.Now(),
	})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got: %v", err)
	}

	// Nothing may have been appended
	entries, err := service.GetTransactionHistory(ctx, 1, 10, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no ledger entries, got %d", len(entries))
	}
}

func TestApplyReward_ClaimsWindow(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	registerTestUser(t, service, 1, nil)

	now := time.Unix(1700000000, 0)
	amount := decimal.RequireFromString("0.2")

	entry, err := service.ApplyReward(ctx, store.ApplyRewardParams{
		UserId:       1,
		PrevRewardAt: nil,
		Amount:       amount,
		Note:         "click",
		Now:          now,
	})
	if err != nil {
		t.Fatalf("ApplyReward failed: %v", err)
	}
	if !entry.BalanceAfter.Equal(amount) {
		t.Errorf("Expected balance %s, got %s", amount, entry.BalanceAfter)
	}

	user, err := service.GetUserById(ctx, 1)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if user.LastRewardAt == nil || *user.LastRewardAt != now.Unix() {
		t.Errorf("Expected last_reward_at %d, got %v", now.Unix(), user.LastRewardAt)
	}
}

func TestApplyReward_ConcurrentClaimLoses(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	registerTestUser(t, service, 1, nil)

	now := time.Unix(1700000000, 0)
	amount := decimal.RequireFromString("0.2")

	// First claim with the observed state (no prior reward) succeeds.
	if _, err := service.ApplyReward(ctx, store.ApplyRewardParams{
		UserId: 1, PrevRewardAt: nil, Amount: amount, Now: now,
	}); err != nil {
		t.Fatalf("First ApplyReward failed: %v", err)
	}

	// Second claim carrying the same stale observation must lose.
	_, err := service.ApplyReward(ctx, store.ApplyRewardParams{
		UserId: 1, PrevRewardAt: nil, Amount: amount, Now: now.Add(time.Second),
	})
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected ErrConcurrentModification, got: %v", err)
	}

	// Exactly one reward may be on the ledger.
	entries, err := service.GetTransactionHistory(ctx, 1, 10, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected exactly 1 ledger entry, got %d", len(entries))
	}
}

func TestCreateWithdrawal_AllEffectsCommitTogether(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	registerTestUser(t, service, 1, nil)

	now := time.Unix(1700000000, 0)
	if _, err := service.ProcessEntry(ctx, store.EntryParams{
		UserId: 1, Kind: models.KindReward, Amount: decimal.RequireFromString("30"), Now: now,
	}); err != nil {
		t.Fatalf("Failed to fund user: %v", err)
	}

	withdrawal, err := service.CreateWithdrawal(ctx, store.CreateWithdrawalParams{
		UserId: 1,
		Amount: decimal.RequireFromString("25"),
		Now:    now,
	})
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}
	if withdrawal.Status != models.WithdrawalStatusPending {
		t.Errorf("Expected status pending, got %s", withdrawal.Status)
	}

	balance, err := service.GetBalance(ctx, 1)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	expected := decimal.RequireFromString("5")
	if !balance.Equal(expected) {
		t.Errorf("Expected balance %s, got %s", expected, balance)
	}

	entries, err := service.GetTransactionHistory(ctx, 1, 10, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 ledger entries, got %d", len(entries))
	}
	if entries[0].Kind != models.KindWithdrawal {
		t.Errorf("Expected latest entry kind withdrawal, got %s", entries[0].Kind)
	}
	if !entries[0].Amount.Equal(decimal.RequireFromString("-25")) {
		t.Errorf("Expected withdrawal amount -25, got %s", entries[0].Amount)
	}

	stats, err := service.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.PendingWithdrawals != 1 {
		t.Errorf("Expected 1 pending withdrawal, got %d", stats.PendingWithdrawals)
	}
}

func TestCreateWithdrawal_InsufficientBalanceLeavesNothing(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	registerTestUser(t, service, 1, nil)

	now := time.Unix(1700000000, 0)
	if _, err := service.ProcessEntry(ctx, store.EntryParams{
		UserId: 1, Kind: models.KindReward, Amount: decimal.RequireFromString("10"), Now: now,
	}); err != nil {
		t.Fatalf("Failed to fund user: %v", err)
	}

	_, err := service.CreateWithdrawal(ctx, store.CreateWithdrawalParams{
		UserId: 1,
		Amount: decimal.RequireFromString("15"),
		Now:    now,
	})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got: %v", err)
	}

	// No withdrawal row, no ledger entry, balance untouched.
	stats, err := service.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.PendingWithdrawals != 0 {
		t.Errorf("Expected 0 pending withdrawals, got %d", stats.PendingWithdrawals)
	}

	entries, err := service.GetTransactionHistory(ctx, 1, 10, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the funding entry, got %d entries", len(entries))
	}

	balance, err := service.GetBalance(ctx, 1)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("10")) {
		t.Errorf("Expected balance 10, got %s", balance)
	}
}

// TestLedgerConservation applies a random sequence of credits and debits and
// verifies after every step that the cached balance equals the sum of all
// ledger entries.
func TestLedgerConservation(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	registerTestUser(t, service, 1, nil)

	rng := rand.New(rand.NewSource(42))
	now := time.Unix(1700000000, 0)
	expected := decimal.Zero

	for i := 0; i < 50; i++ {
		var amount decimal.Decimal
		var kind string
		if rng.Intn(3) == 0 {
			amount = decimal.New(int64(rng.Intn(500)+1), -2).Neg() // debit up to 5.00
			kind = models.KindWithdrawal
		} else {
			amount = decimal.New(int64(rng.Intn(500)+1), -2) // credit up to 5.00
			kind = models.KindReward
		}

		_, err := service.ProcessEntry(ctx, store.EntryParams{
			UserId: 1, Kind: kind, Amount: amount, Now: now.Add(time.Duration(i) * time.Second),
		})
		switch {
		case err == nil:
			expected = expected.Add(amount)
		case errors.Is(err, store.ErrInsufficientBalance):
			// Rejected debits must leave no trace; conservation is
			// re-checked below.
		default:
			t.Fatalf("Step %d: ProcessEntry failed: %v", i, err)
		}

		if err := service.ReconcileUserBalance(ctx, 1); err != nil {
			t.Fatalf("Step %d: reconciliation failed: %v", i, err)
		}
	}

	balance, err := service.GetBalance(ctx, 1)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !balance.Equal(expected) {
		t.Errorf("Expected final balance %s, got %s", expected, balance)
	}
	if balance.IsNegative() {
		t.Errorf("Balance went negative: %s", balance)
	}
}

func TestReconcileUserBalance_DetectsDivergence(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	registerTestUser(t, service, 1, nil)

	now := time.Unix(1700000000, 0)
	if _, err := service.ProcessEntry(ctx, store.EntryParams{
		UserId: 1, Kind: models.KindReward, Amount: decimal.RequireFromString("1"), Now: now,
	}); err != nil {
		t.Fatalf("ProcessEntry failed: %v", err)
	}

	// Corrupt the cached projection behind the ledger's back.
	if _, err := service.db.Exec(`UPDATE account_balances SET balance = '2' WHERE user_id = 1`); err != nil {
		t.Fatalf("Failed to corrupt balance: %v", err)
	}

	err := service.ReconcileUserBalance(ctx, 1)
	if !errors.Is(err, store.ErrInvariantViolation) {
		t.Fatalf("Expected ErrInvariantViolation, got: %v", err)
	}
}
