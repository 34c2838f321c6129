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
	"fmt"
	"time"

	"stars-ledger-go/internal/models"
	"stars-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SubscriptionChecker answers whether a user is currently subscribed to a
// sponsor channel. Implemented by the external chat API client.
type SubscriptionChecker interface {
	IsSubscribed(ctx context.Context, userId int64, sponsor models.Sponsor) (bool, error)
}

// Evaluator derives subscription-completeness and referral-activity facts
// about a user.
type Evaluator struct {
	store         store.AccountStore
	checker       SubscriptionChecker
	bonusReferrer decimal.Decimal
	bonusReferee  decimal.Decimal
}

func NewEvaluator(accountStore store.AccountStore, checker SubscriptionChecker, cfg models.EngineConfig) *Evaluator {
	return &Evaluator{
		store:         accountStore,
		checker:       checker,
		bonusReferrer: cfg.BonusReferrer,
		bonusReferee:  cfg.BonusReferee,
	}
}

// IsSubscriptionComplete reports whether every configured sponsor has a
// recorded subscription for the user. A user with no status rows and a
// nonzero sponsor set counts as not subscribed; zero configured sponsors
// means trivially complete.
func (ev *Evaluator) IsSubscriptionComplete(ctx context.Context, userId int64) (bool, error) {
	sponsors, err := ev.store.GetSponsors(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load sponsors: %w", err)
	}
	if len(sponsors) == 0 {
		return true, nil
	}

	statuses, err := ev.store.GetSponsorStatuses(ctx, userId)
	if err != nil {
		return false, fmt.Errorf("failed to load sponsor statuses: %w", err)
	}

	subscribed := make(map[int64]bool, len(statuses))
	for _, status := range statuses {
		subscribed[status.SponsorId] = status.IsSubscribed
	}

	for _, sponsor := range sponsors {
		if !subscribed[sponsor.Id] {
			return false, nil
		}
	}
	return true, nil
}

// ReferralCounts returns (total, active) referral counts for a user. The
// active predicate is "completed subscription gating at least once"; the
// count comes from the store, never recomputed here.
func (ev *Evaluator) ReferralCounts(ctx context.Context, userId int64) (int, int, error) {
	return ev.store.CountReferrals(ctx, userId)
}

// RefreshSubscriptions queries the external checker for every configured
// sponsor, records the results, and returns whether the set is complete.
// The first time a user's set becomes complete their activation is stamped
// and the one-time referral bonuses are credited.
func (ev *Evaluator) RefreshSubscriptions(ctx context.Context, userId int64, now time.Time) (bool, error) {
	sponsors, err := ev.store.GetSponsors(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load sponsors: %w", err)
	}

	complete := true
	for _, sponsor := range sponsors {
		subscribed, err := ev.checker.IsSubscribed(ctx, userId, sponsor)
		if err != nil {
			// An unreachable checker counts as not subscribed
			zap.L().Warn("Subscription check failed",
				zap.Int64("user_id", userId),
				zap.Int64("sponsor_id", sponsor.Id),
				zap.Error(err))
			subscribed = false
		}

		if err := ev.store.UpsertSponsorStatus(ctx, store.SponsorStatusParams{
			UserId:       userId,
			SponsorId:    sponsor.Id,
			IsSubscribed: subscribed,
			Now:          now,
		}); err != nil {
			return false, err
		}

		if !subscribed {
			complete = false
		}
	}

	if complete {
		ev.activate(ctx, userId, now)
	}
	return complete, nil
}

// activate stamps the user's first completed gating and pays the one-time
// referral bonuses. Bonus credit failures are logged, never propagated: the
// activation stamp itself is the source of truth for referral activity.
func (ev *Evaluator) activate(ctx context.Context, userId int64, now time.Time) {
	first, err := ev.store.MarkActivated(ctx, userId, now)
	if err != nil {
		zap.L().Error("Failed to mark user activated", zap.Int64("user_id", userId), zap.Error(err))
		return
	}
	if !first {
		return
	}

	zap.L().Info("User completed subscription gating", zap.Int64("user_id", userId))

	user, err := ev.store.GetUserById(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to load activated user", zap.Int64("user_id", userId), zap.Error(err))
		return
	}
	if user.ReferrerId == nil {
		return
	}

	if ev.bonusReferee.IsPositive() {
		if _, err := ev.store.ProcessEntry(ctx, store.EntryParams{
			UserId: userId,
			Kind:   models.KindReferralBonus,
			Amount: ev.bonusReferee,
			Note:   fmt.Sprintf("Welcome bonus, invited by %d", *user.ReferrerId),
			Now:    now,
		}); err != nil {
			zap.L().Error("Failed to credit referee bonus", zap.Int64("user_id", userId), zap.Error(err))
		}
	}

	if ev.bonusReferrer.IsPositive() {
		if _, err := ev.store.ProcessEntry(ctx, store.EntryParams{
			UserId: *user.ReferrerId,
			Kind:   models.KindReferralBonus,
			Amount: ev.bonusReferrer,
			Note:   fmt.Sprintf("Referral %s joined", user.Username),
			Now:    now,
		}); err != nil {
			zap.L().Error("Failed to credit referrer bonus",
				zap.Int64("referrer_id", *user.ReferrerId),
				zap.Int64("user_id", userId),
				zap.Error(err))
		}
	}
}

// AssumeSubscribed treats every user as subscribed to every sponsor. Used
// when no chat API credentials are configured.
type AssumeSubscribed struct{}

func (AssumeSubscribed) IsSubscribed(_ context.Context, _ int64, _ models.Sponsor) (bool, error) {
	return true, nil
}
