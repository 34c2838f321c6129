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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardOutcome enumerates the possible results of a timed reward attempt.
type RewardOutcome string

const (
	RewardOutcomeRewarded               RewardOutcome = "rewarded"
	RewardOutcomeCooldownActive         RewardOutcome = "cooldown_active"
	RewardOutcomeSubscriptionIncomplete RewardOutcome = "subscription_incomplete"
)

// RewardResult carries everything a presentation layer needs to render the
// outcome of a timed reward attempt without re-querying the engine.
type RewardResult struct {
	Outcome      RewardOutcome
	RewardAmount decimal.Decimal
	NewBalance   decimal.Decimal
	// Remaining is set when Outcome is RewardOutcomeCooldownActive.
	Remaining time.Duration
}

// WithdrawalOutcome enumerates the possible results of a withdrawal request.
type WithdrawalOutcome string

const (
	WithdrawalOutcomeCreated                WithdrawalOutcome = "created"
	WithdrawalOutcomeAmountNotAllowed       WithdrawalOutcome = "amount_not_allowed"
	WithdrawalOutcomeInsufficientBalance    WithdrawalOutcome = "insufficient_balance"
	WithdrawalOutcomeInsufficientReferrals  WithdrawalOutcome = "insufficient_referrals"
	WithdrawalOutcomeSubscriptionIncomplete WithdrawalOutcome = "subscription_incomplete"
)

// WithdrawalResult carries the outcome of a withdrawal request plus the
// structured rejection data for each gate.
type WithdrawalResult struct {
	Outcome      WithdrawalOutcome
	WithdrawalId int64
	Amount       decimal.Decimal
	// CurrentBalance is set when Outcome is WithdrawalOutcomeInsufficientBalance.
	CurrentBalance decimal.Decimal
	// ActiveReferrals/RequiredReferrals are set when Outcome is
	// WithdrawalOutcomeInsufficientReferrals.
	ActiveReferrals   int
	RequiredReferrals int
	// AllowedAmounts is set when Outcome is WithdrawalOutcomeAmountNotAllowed.
	AllowedAmounts []decimal.Decimal
}

// ProfileView is the read-only composition returned by GetProfile.
type ProfileView struct {
	UserId          int64
	Username        string
	Balance         decimal.Decimal
	TotalReferrals  int
	ActiveReferrals int
	// NextRewardIn is zero when the timed reward is available now.
	NextRewardIn         time.Duration
	SubscriptionComplete bool
}
