package database

import (
	"context"
	"database/sql"
	"fmt"

	"stars-ledger-go/internal/models"
	"stars-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) GetSponsors(ctx context.Context) ([]models.Sponsor, error) {
	rows, err := s.db.QueryContext(ctx, queryGetSponsors)
	if err != nil {
		return nil, fmt.Errorf("failed to query sponsors: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var sponsors []models.Sponsor
	for rows.Next() {
		var sponsor models.Sponsor
		if err := rows.Scan(&sponsor.Id, &sponsor.ChannelUsername, &sponsor.ChannelUrl); err != nil {
			return nil, fmt.Errorf("failed to scan sponsor: %w", err)
		}
		sponsors = append(sponsors, sponsor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sponsor rows: %w", err)
	}
	return sponsors, nil
}

// ReplaceSponsors swaps the configured sponsor set in one transaction.
func (s *Service) ReplaceSponsors(ctx context.Context, sponsors []models.Sponsor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, queryDeleteSponsors); err != nil {
		return fmt.Errorf("failed to clear sponsors: %w", err)
	}

	for _, sponsor := range sponsors {
		if _, err := tx.ExecContext(ctx, queryInsertSponsor,
			sponsor.Id, sponsor.ChannelUsername, sponsor.ChannelUrl); err != nil {
			return fmt.Errorf("failed to insert sponsor %d: %w", sponsor.Id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Sponsor set replaced", zap.Int("count", len(sponsors)))
	return nil
}

func (s *Service) GetSponsorStatuses(ctx context.Context, userId int64) ([]models.SponsorStatus, error) {
	rows, err := s.db.QueryContext(ctx, queryGetSponsorStatuses, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to query sponsor statuses: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var statuses []models.SponsorStatus
	for rows.Next() {
		var status models.SponsorStatus
		var lastCheck sql.NullInt64
		if err := rows.Scan(&status.UserId, &status.SponsorId, &status.IsSubscribed, &lastCheck); err != nil {
			return nil, fmt.Errorf("failed to scan sponsor status: %w", err)
		}
		status.LastCheck = lastCheck.Int64
		statuses = append(statuses, status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sponsor status rows: %w", err)
	}
	return statuses, nil
}

func (s *Service) UpsertSponsorStatus(ctx context.Context, params store.SponsorStatusParams) error {
	_, err := s.db.ExecContext(ctx, queryUpsertSponsorStatus,
		params.UserId, params.SponsorId, params.IsSubscribed, params.Now.Unix())
	if err != nil {
		zap.L().Error("Failed to upsert sponsor status",
			zap.Int64("user_id", params.UserId),
			zap.Int64("sponsor_id", params.SponsorId),
			zap.Error(err))
		return fmt.Errorf("failed to upsert sponsor status: %w", err)
	}
	return nil
}
