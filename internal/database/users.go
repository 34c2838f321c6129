/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stars-ledger-go/internal/models"
	"stars-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) GetUserById(ctx context.Context, userId int64) (*models.User, error) {
	zap.L().Debug("Querying user by ID", zap.Int64("user_id", userId))

	var user models.User
	var referrerId, lastRewardAt, activatedAt sql.NullInt64
	err := s.db.QueryRowContext(ctx, queryGetUserById, userId).Scan(
		&user.Id, &user.Username, &referrerId, &lastRewardAt, &activatedAt, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", store.ErrUserNotFound, userId)
		}
		zap.L().Error("Failed to query user by ID", zap.Int64("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by ID: %w", err)
	}

	user.ReferrerId = nullableInt64(referrerId)
	user.LastRewardAt = nullableInt64(lastRewardAt)
	user.ActivatedAt = nullableInt64(activatedAt)
	return &user, nil
}

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	zap.L().Debug("Querying all users")

	rows, err := s.db.QueryContext(ctx, queryGetUsers)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("unable to query users: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var users []models.User
	for rows.Next() {
		var user models.User
		var referrerId, lastRewardAt, activatedAt sql.NullInt64
		err := rows.Scan(&user.Id, &user.Username, &referrerId, &lastRewardAt, &activatedAt, &user.CreatedAt)
		if err != nil {
			zap.L().Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}
		user.ReferrerId = nullableInt64(referrerId)
		user.LastRewardAt = nullableInt64(lastRewardAt)
		user.ActivatedAt = nullableInt64(activatedAt)
		users = append(users, user)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during user row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// RegisterUser inserts a user if the id is new; an existing row is left
// untouched, so balance, last_reward_at and referrer_id survive repeat
// registrations.
func (s *Service) RegisterUser(ctx context.Context, params store.RegisterUserParams) error {
	zap.L().Info("Registering user",
		zap.Int64("user_id", params.UserId),
		zap.String("username", params.Username),
		zap.Int64p("referrer_id", params.ReferrerId))

	var referrer interface{}
	if params.ReferrerId != nil {
		referrer = *params.ReferrerId
	}

	result, err := s.db.ExecContext(ctx, queryInsertUser, params.UserId, params.Username, referrer)
	if err != nil {
		zap.L().Error("Failed to insert user", zap.Int64("user_id", params.UserId), zap.Error(err))
		return fmt.Errorf("unable to insert user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		zap.L().Debug("User already registered", zap.Int64("user_id", params.UserId))
	}
	return nil
}

// MarkActivated stamps activated_at if it was never set. The conditional
// update guarantees exactly one caller observes true even under concurrent
// subscription refreshes.
func (s *Service) MarkActivated(ctx context.Context, userId int64, now time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, queryMarkActivated, now.Unix(), userId)
	if err != nil {
		return false, fmt.Errorf("unable to mark user activated: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unable to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func nullableInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	value := v.Int64
	return &value
}
