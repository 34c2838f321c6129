package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CountReferrals returns how many users name this user as referrer, and how
// many of those have completed subscription gating at least once.
func (s *Service) CountReferrals(ctx context.Context, userId int64) (int, int, error) {
	zap.L().Debug("Counting referrals", zap.Int64("user_id", userId))

	var total, active int
	err := s.db.QueryRowContext(ctx, queryCountReferrals, userId).Scan(&total, &active)
	if err != nil {
		zap.L().Error("Failed to count referrals", zap.Int64("user_id", userId), zap.Error(err))
		return 0, 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return total, active, nil
}
