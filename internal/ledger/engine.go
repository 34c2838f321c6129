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

package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stars-ledger-go/internal/models"
	"stars-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OperatorNotifier delivers fire-and-forget events to the operator channel.
type OperatorNotifier interface {
	NotifyOperator(ctx context.Context, text string) error
}

// LogNotifier writes operator events to the log instead of a chat channel.
type LogNotifier struct{}

func (LogNotifier) NotifyOperator(_ context.Context, text string) error {
	zap.L().Info("Operator notification", zap.String("text", text))
	return nil
}

// Engine orchestrates balance mutation, ledger logging, referral commission
// propagation and withdrawal creation. All dependencies are injected; the
// engine holds no ambient state.
type Engine struct {
	store     store.AccountStore
	evaluator *Evaluator
	notifier  OperatorNotifier
	cfg       models.EngineConfig
}

func NewEngine(accountStore store.AccountStore, checker SubscriptionChecker, notifier OperatorNotifier, cfg models.EngineConfig) *Engine {
	return &Engine{
		store:     accountStore,
		evaluator: NewEvaluator(accountStore, checker, cfg),
		notifier:  notifier,
		cfg:       cfg,
	}
}

// RegisterUser is an idempotent upsert. A repeat registration never resets
// balance, the reward timestamp, or an existing referrer. Self-referral and
// referrers that do not exist are normalized to "no referrer".
func (e *Engine) RegisterUser(ctx context.Context, userId int64, displayName string, referrerId *int64) error {
	if displayName == "" {
		displayName = fmt.Sprintf("user_%d", userId)
	}

	if referrerId != nil && *referrerId == userId {
		zap.L().Info("Ignoring self-referral", zap.Int64("user_id", userId))
		referrerId = nil
	}

	if referrerId != nil {
		if _, err := e.store.GetUserById(ctx, *referrerId); err != nil {
			if !errors.Is(err, store.ErrUserNotFound) {
				return err
			}
			zap.L().Warn("Ignoring unknown referrer",
				zap.Int64("user_id", userId),
				zap.Int64("referrer_id", *referrerId))
			referrerId = nil
		}
	}

	return e.store.RegisterUser(ctx, store.RegisterUserParams{
		UserId:     userId,
		Username:   displayName,
		ReferrerId: referrerId,
	})
}

// RecordTimedReward applies the fixed click reward if the user's cooldown
// window is open, then propagates the referral commission as a best-effort
// secondary effect.
func (e *Engine) RecordTimedReward(ctx context.Context, userId int64, now time.Time) (models.RewardResult, error) {
	user, err := e.store.GetUserById(ctx, userId)
	if err != nil {
		return models.RewardResult{}, err
	}

	complete, err := e.evaluator.IsSubscriptionComplete(ctx, userId)
	if err != nil {
		return models.RewardResult{}, err
	}
	if !complete {
		return models.RewardResult{Outcome: models.RewardOutcomeSubscriptionIncomplete}, nil
	}

	allowed, remaining := CanReward(user.LastRewardAt, now, e.cfg.RewardCooldown)
	if !allowed {
		return models.RewardResult{
			Outcome:   models.RewardOutcomeCooldownActive,
			Remaining: remaining,
		}, nil
	}

	entry, err := e.store.ApplyReward(ctx, store.ApplyRewardParams{
		UserId:       userId,
		PrevRewardAt: user.LastRewardAt,
		Amount:       e.cfg.RewardAmount,
		Note:         "Timed click reward",
		Now:          now,
	})
	if err != nil {
		if errors.Is(err, store.ErrConcurrentModification) {
			// A concurrent call claimed this window first; it holds the
			// full cooldown from now.
			return models.RewardResult{
				Outcome:   models.RewardOutcomeCooldownActive,
				Remaining: e.cfg.RewardCooldown,
			}, nil
		}
		return models.RewardResult{}, err
	}

	// Referral commission is a best-effort secondary effect: its failure is
	// logged and surfaced to the operator, never rolled into the reward.
	if user.ReferrerId != nil {
		e.creditCommission(ctx, user, now)
	}

	return models.RewardResult{
		Outcome:      models.RewardOutcomeRewarded,
		RewardAmount: e.cfg.RewardAmount,
		NewBalance:   entry.BalanceAfter,
	}, nil
}

func (e *Engine) creditCommission(ctx context.Context, user *models.User, now time.Time) {
	commission := e.cfg.RewardAmount.
		Mul(decimal.NewFromInt(e.cfg.CommissionPercent)).
		Div(decimal.NewFromInt(100))
	if !commission.IsPositive() {
		return
	}

	_, err := e.store.ProcessEntry(ctx, store.EntryParams{
		UserId: *user.ReferrerId,
		Kind:   models.KindReferralIncome,
		Amount: commission,
		Note:   fmt.Sprintf("%d%% commission from click by %s", e.cfg.CommissionPercent, user.Username),
		Now:    now,
	})
	if err != nil {
		zap.L().Error("Failed to credit referral commission",
			zap.Int64("referrer_id", *user.ReferrerId),
			zap.Int64("user_id", user.Id),
			zap.String("amount", commission.String()),
			zap.Error(err))
		if nerr := e.notifier.NotifyOperator(ctx, fmt.Sprintf(
			"Referral commission of %s STAR for user %d (click by %d) was not credited: %v",
			commission.String(), *user.ReferrerId, user.Id, err)); nerr != nil {
			zap.L().Warn("Failed to notify operator", zap.Error(nerr))
		}
	}
}

// RequestWithdrawal gates the request on the allowed amount set,
// subscription completeness, balance and active-referral count, then
// applies the withdrawal atomically.
func (e *Engine) RequestWithdrawal(ctx context.Context, userId int64, amount decimal.Decimal, now time.Time) (models.WithdrawalResult, error) {
	if _, err := e.store.GetUserById(ctx, userId); err != nil {
		return models.WithdrawalResult{}, err
	}

	if !e.amountAllowed(amount) {
		return models.WithdrawalResult{
			Outcome:        models.WithdrawalOutcomeAmountNotAllowed,
			Amount:         amount,
			AllowedAmounts: e.cfg.WithdrawalAmounts,
		}, nil
	}

	complete, err := e.evaluator.IsSubscriptionComplete(ctx, userId)
	if err != nil {
		return models.WithdrawalResult{}, err
	}
	if !complete {
		return models.WithdrawalResult{Outcome: models.WithdrawalOutcomeSubscriptionIncomplete, Amount: amount}, nil
	}

	balance, err := e.store.GetBalance(ctx, userId)
	if err != nil {
		return models.WithdrawalResult{}, err
	}
	if amount.GreaterThan(balance) {
		return models.WithdrawalResult{
			Outcome:        models.WithdrawalOutcomeInsufficientBalance,
			Amount:         amount,
			CurrentBalance: balance,
		}, nil
	}

	_, active, err := e.evaluator.ReferralCounts(ctx, userId)
	if err != nil {
		return models.WithdrawalResult{}, err
	}
	if active < e.cfg.MinActiveReferrals {
		return models.WithdrawalResult{
			Outcome:           models.WithdrawalOutcomeInsufficientReferrals,
			Amount:            amount,
			ActiveReferrals:   active,
			RequiredReferrals: e.cfg.MinActiveReferrals,
		}, nil
	}

	withdrawal, err := e.store.CreateWithdrawal(ctx, store.CreateWithdrawalParams{
		UserId: userId,
		Amount: amount,
		Now:    now,
	})
	if err != nil {
		if errors.Is(err, store.ErrInsufficientBalance) {
			// A concurrent request drained the balance between the gate
			// check and the atomic debit.
			current, berr := e.store.GetBalance(ctx, userId)
			if berr != nil {
				return models.WithdrawalResult{}, fmt.Errorf("balance re-read after rejected withdrawal: %w", berr)
			}
			return models.WithdrawalResult{
				Outcome:        models.WithdrawalOutcomeInsufficientBalance,
				Amount:         amount,
				CurrentBalance: current,
			}, nil
		}
		return models.WithdrawalResult{}, err
	}

	// Fire-and-forget: notification failure must not roll back the withdrawal.
	if err := e.notifier.NotifyOperator(ctx, fmt.Sprintf(
		"New withdrawal request #%d: user %d, %s STAR",
		withdrawal.Id, userId, amount.String())); err != nil {
		zap.L().Warn("Failed to notify operator about withdrawal",
			zap.Int64("withdrawal_id", withdrawal.Id),
			zap.Error(err))
	}

	return models.WithdrawalResult{
		Outcome:      models.WithdrawalOutcomeCreated,
		WithdrawalId: withdrawal.Id,
		Amount:       amount,
	}, nil
}

func (e *Engine) amountAllowed(amount decimal.Decimal) bool {
	for _, allowed := range e.cfg.WithdrawalAmounts {
		if amount.Equal(allowed) {
			return true
		}
	}
	return false
}

// GetProfile is a read-only composition of balance, referral counts and the
// cooldown indicator.
func (e *Engine) GetProfile(ctx context.Context, userId int64, now time.Time) (models.ProfileView, error) {
	user, err := e.store.GetUserById(ctx, userId)
	if err != nil {
		return models.ProfileView{}, err
	}

	balance, err := e.store.GetBalance(ctx, userId)
	if err != nil {
		return models.ProfileView{}, err
	}

	total, active, err := e.evaluator.ReferralCounts(ctx, userId)
	if err != nil {
		return models.ProfileView{}, err
	}

	complete, err := e.evaluator.IsSubscriptionComplete(ctx, userId)
	if err != nil {
		return models.ProfileView{}, err
	}

	_, remaining := CanReward(user.LastRewardAt, now, e.cfg.RewardCooldown)

	return models.ProfileView{
		UserId:               user.Id,
		Username:             user.Username,
		Balance:              balance,
		TotalReferrals:       total,
		ActiveReferrals:      active,
		NextRewardIn:         remaining,
		SubscriptionComplete: complete,
	}, nil
}

// RefreshSubscriptions re-checks the user against every configured sponsor
// through the external checker and returns completeness.
func (e *Engine) RefreshSubscriptions(ctx context.Context, userId int64, now time.Time) (bool, error) {
	if _, err := e.store.GetUserById(ctx, userId); err != nil {
		return false, err
	}
	return e.evaluator.RefreshSubscriptions(ctx, userId, now)
}
