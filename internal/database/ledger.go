package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stars-ledger-go/internal/models"
	"stars-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetBalance returns the cached balance for a user (O(1) lookup)
func (s *Service) GetBalance(ctx context.Context, userId int64) (decimal.Decimal, error) {
	var balanceStr string
	err := s.db.QueryRowContext(ctx, queryGetBalance, userId).Scan(&balanceStr)
	if errors.Is(err, sql.ErrNoRows) {
		// No balance record means zero balance
		return decimal.Zero, nil
	}
	if err != nil {
		zap.L().Error("Failed to get balance", zap.Int64("user_id", userId), zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse balance %q: %w", balanceStr, err)
	}
	return balance, nil
}

// ProcessEntry atomically updates the cached balance and appends a ledger
// entry. A result that would drive the balance negative aborts with
// store.ErrInsufficientBalance.
func (s *Service) ProcessEntry(ctx context.Context, params store.EntryParams) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	entry, err := s.processEntryTx(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return entry, nil
}

// ApplyReward claims the user's reward window and credits the reward in a
// single database transaction. The claim is conditional on the previously
// observed last_reward_at, so of two concurrent calls for the same window
// exactly one commits; the other gets store.ErrConcurrentModification.
func (s *Service) ApplyReward(ctx context.Context, params store.ApplyRewardParams) (*models.Transaction, error) {
	zap.L().Info("Applying timed reward",
		zap.Int64("user_id", params.UserId),
		zap.String("amount", params.Amount.String()))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var prev interface{}
	if params.PrevRewardAt != nil {
		prev = *params.PrevRewardAt
	}

	result, err := tx.ExecContext(ctx, queryClaimRewardWindow, params.Now.Unix(), params.UserId, prev)
	if err != nil {
		return nil, fmt.Errorf("failed to claim reward window: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		zap.L().Warn("Reward window already claimed", zap.Int64("user_id", params.UserId))
		return nil, fmt.Errorf("reward window claim failed - %w", store.ErrConcurrentModification)
	}

	entry, err := s.processEntryTx(ctx, tx, store.EntryParams{
		UserId: params.UserId,
		Kind:   models.KindReward,
		Amount: params.Amount,
		Note:   params.Note,
		Now:    params.Now,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Timed reward applied",
		zap.Int64("user_id", params.UserId),
		zap.Int64("transaction_id", entry.Id),
		zap.String("new_balance", entry.BalanceAfter.String()))
	return entry, nil
}

// CreateWithdrawal applies the three withdrawal effects as one unit: the
// pending withdrawal row, the balance debit and the ledger entry commit
// together or not at all.
func (s *Service) CreateWithdrawal(ctx context.Context, params store.CreateWithdrawalParams) (*models.Withdrawal, error) {
	zap.L().Info("Creating withdrawal",
		zap.Int64("user_id", params.UserId),
		zap.String("amount", params.Amount.String()))

	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("withdrawal amount must be positive, got %s", params.Amount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var withdrawalId int64
	err = tx.QueryRowContext(ctx, queryInsertWithdrawal,
		params.UserId, params.Amount.String(), models.WithdrawalStatusPending, params.Now).Scan(&withdrawalId)
	if err != nil {
		return nil, fmt.Errorf("failed to insert withdrawal: %w", err)
	}

	_, err = s.processEntryTx(ctx, tx, store.EntryParams{
		UserId: params.UserId,
		Kind:   models.KindWithdrawal,
		Amount: params.Amount.Neg(),
		Note:   fmt.Sprintf("Withdrawal #%d", withdrawalId),
		Now:    params.Now,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Withdrawal created",
		zap.Int64("withdrawal_id", withdrawalId),
		zap.Int64("user_id", params.UserId),
		zap.String("amount", params.Amount.String()))

	return &models.Withdrawal{
		Id:        withdrawalId,
		UserId:    params.UserId,
		Amount:    params.Amount,
		Status:    models.WithdrawalStatusPending,
		CreatedAt: params.Now,
	}, nil
}

// processEntryTx performs the balance read, ledger append and
// version-checked balance write inside the caller's transaction.
func (s *Service) processEntryTx(ctx context.Context, tx *sql.Tx, params store.EntryParams) (*models.Transaction, error) {
	var currentBalanceStr, accountId string
	var version int64

	err := tx.QueryRowContext(ctx, queryGetAccountBalance, params.UserId).Scan(&accountId, &currentBalanceStr, &version)

	var currentBalance decimal.Decimal
	if errors.Is(err, sql.ErrNoRows) {
		// Create new account balance record
		accountId = uuid.New().String()
		currentBalance = decimal.Zero
		version = 1

		if _, err := tx.ExecContext(ctx, queryInsertAccountBalance, accountId, params.UserId, "0", 1); err != nil {
			return nil, fmt.Errorf("failed to create account balance: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get current balance: %w", err)
	} else {
		currentBalance, err = decimal.NewFromString(currentBalanceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse current balance %q: %w", currentBalanceStr, err)
		}
	}

	newBalance := currentBalance.Add(params.Amount)
	if newBalance.IsNegative() {
		return nil, fmt.Errorf("%w: balance %s, requested %s",
			store.ErrInsufficientBalance, currentBalance.String(), params.Amount.Neg().String())
	}

	var transactionId int64
	err = tx.QueryRowContext(ctx, queryInsertTransaction,
		params.UserId, params.Kind, params.Amount.String(),
		currentBalance.String(), newBalance.String(), params.Note, params.Now).Scan(&transactionId)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	// Update cached balance (with optimistic locking)
	result, err := tx.ExecContext(ctx, queryUpdateAccountBalance, newBalance.String(), transactionId, params.UserId, version)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}

	return &models.Transaction{
		Id:            transactionId,
		UserId:        params.UserId,
		Kind:          params.Kind,
		Amount:        params.Amount,
		BalanceBefore: currentBalance,
		BalanceAfter:  newBalance,
		Note:          params.Note,
		CreatedAt:     params.Now,
	}, nil
}

// GetTransactionHistory returns paginated ledger entries for a user, newest first
func (s *Service) GetTransactionHistory(ctx context.Context, userId int64, limit, offset int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var entries []models.Transaction
	for rows.Next() {
		var entry models.Transaction
		var amountStr, balanceBeforeStr, balanceAfterStr string
		var note sql.NullString
		err := rows.Scan(&entry.Id, &entry.UserId, &entry.Kind,
			&amountStr, &balanceBeforeStr, &balanceAfterStr, &note, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		entry.Note = note.String
		entry.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
		}
		entry.BalanceBefore, err = decimal.NewFromString(balanceBeforeStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance before %q: %w", balanceBeforeStr, err)
		}
		entry.BalanceAfter, err = decimal.NewFromString(balanceAfterStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance after %q: %w", balanceAfterStr, err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return entries, nil
}

// ReconcileUserBalance verifies that the cached balance matches the sum of
// all ledger entries. Divergence is the one failure that must never be
// silently swallowed.
func (s *Service) ReconcileUserBalance(ctx context.Context, userId int64) error {
	currentBalance, err := s.GetBalance(ctx, userId)
	if err != nil {
		return fmt.Errorf("failed to get current balance: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryGetTransactionAmounts, userId)
	if err != nil {
		return fmt.Errorf("failed to load transaction amounts: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	calculated := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return fmt.Errorf("failed to scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
		}
		calculated = calculated.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating amount rows: %w", err)
	}

	// Exact decimal comparison
	if !currentBalance.Equal(calculated) {
		zap.L().Error("Balance reconciliation failed",
			zap.Int64("user_id", userId),
			zap.String("cached_balance", currentBalance.String()),
			zap.String("calculated_balance", calculated.String()),
			zap.String("difference", currentBalance.Sub(calculated).String()))
		return fmt.Errorf("%w: cached=%s, calculated=%s",
			store.ErrInvariantViolation, currentBalance.String(), calculated.String())
	}

	return nil
}
