package database

import (
	"context"
	"database/sql"
	"fmt"

	"stars-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetStats returns the operator-facing aggregates. Read-only; no invariants
// of its own.
func (s *Service) GetStats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{TotalBalance: decimal.Zero}

	if err := s.db.QueryRowContext(ctx, queryCountUsers).Scan(&stats.TotalUsers); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, queryCountPendingWithdrawals).Scan(&stats.PendingWithdrawals); err != nil {
		return nil, fmt.Errorf("failed to count pending withdrawals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryGetAllBalances)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	for rows.Next() {
		var balanceStr string
		if err := rows.Scan(&balanceStr); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balance, err := decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance %q: %w", balanceStr, err)
		}
		stats.TotalBalance = stats.TotalBalance.Add(balance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balance rows: %w", err)
	}

	return stats, nil
}

func (s *Service) GetTopBalances(ctx context.Context, limit int) ([]models.UserBalance, error) {
	rows, err := s.db.QueryContext(ctx, queryGetTopBalances, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top balances: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var balances []models.UserBalance
	for rows.Next() {
		var ub models.UserBalance
		var balanceStr string
		if err := rows.Scan(&ub.UserId, &ub.Username, &balanceStr); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		ub.Balance, err = decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance %q: %w", balanceStr, err)
		}
		balances = append(balances, ub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balance rows: %w", err)
	}
	return balances, nil
}
