package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction kinds recorded in the append-only ledger.
const (
	KindReward         = "reward"
	KindReferralIncome = "referral_income"
	KindReferralBonus  = "referral_bonus"
	KindWithdrawal     = "withdrawal"
)

// WithdrawalStatusPending is the only status this service ever writes.
// Approval and rejection are applied out-of-band by the operator.
const WithdrawalStatusPending = "pending"

// User represents a participant in the reward program
type User struct {
	Id           int64     `db:"id"`
	Username     string    `db:"username"`
	ReferrerId   *int64    `db:"referrer_id"`
	LastRewardAt *int64    `db:"last_reward_at"`
	ActivatedAt  *int64    `db:"activated_at"`
	CreatedAt    time.Time `db:"created_at"`
}

// AccountBalance represents current balance state (hot data)
type AccountBalance struct {
	Id                string          `db:"id"`
	UserId            int64           `db:"user_id"`
	Balance           decimal.Decimal `db:"balance"`
	LastTransactionId int64           `db:"last_transaction_id"`
	Version           int64           `db:"version"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

// Transaction represents an immutable ledger entry (cold data)
type Transaction struct {
	Id            int64           `db:"id"`
	UserId        int64           `db:"user_id"`
	Kind          string          `db:"kind"`
	Amount        decimal.Decimal `db:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	Note          string          `db:"note"`
	CreatedAt     time.Time       `db:"created_at"`
}

// Withdrawal represents a payout request
type Withdrawal struct {
	Id        int64           `db:"id"`
	UserId    int64           `db:"user_id"`
	Amount    decimal.Decimal `db:"amount"`
	Status    string          `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
}

// Sponsor is a channel users must be subscribed to before earning
type Sponsor struct {
	Id              int64  `db:"id" yaml:"id"`
	ChannelUsername string `db:"channel_username" yaml:"channel_username"`
	ChannelUrl      string `db:"channel_url" yaml:"channel_url"`
}

// SponsorStatus records the last known subscription state of a user for one sponsor
type SponsorStatus struct {
	UserId       int64 `db:"user_id"`
	SponsorId    int64 `db:"sponsor_id"`
	IsSubscribed bool  `db:"is_subscribed"`
	LastCheck    int64 `db:"last_check"`
}

// Stats is the operator-facing aggregate report
type Stats struct {
	TotalUsers         int
	TotalBalance       decimal.Decimal
	PendingWithdrawals int
}

// UserBalance pairs a user with their cached balance for reporting
type UserBalance struct {
	UserId   int64
	Username string
	Balance  decimal.Decimal
}
