package store

import (
	"context"
	"errors"
	"time"

	"stars-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrInvariantViolation     = errors.New("ledger invariant violation")
)

// RegisterUserParams contains the parameters for registering a user.
// Registration is idempotent: a repeat call for an existing id changes
// nothing, including the referrer.
type RegisterUserParams struct {
	UserId     int64
	Username   string
	ReferrerId *int64
}

// EntryParams contains the parameters for appending a ledger entry.
type EntryParams struct {
	UserId int64
	Kind   string
	Amount decimal.Decimal
	Note   string
	Now    time.Time
}

// ApplyRewardParams contains the parameters for a timed reward credit. The
// store re-guards the cooldown with a conditional update keyed on
// PrevRewardAt, so two concurrent calls can not both commit for one window.
type ApplyRewardParams struct {
	UserId       int64
	PrevRewardAt *int64
	Amount       decimal.Decimal
	Note         string
	Now          time.Time
}

// CreateWithdrawalParams contains the parameters for a withdrawal request.
type CreateWithdrawalParams struct {
	UserId int64
	Amount decimal.Decimal
	Now    time.Time
}

// SponsorStatusParams contains the parameters for upserting a user's
// subscription state for one sponsor.
type SponsorStatusParams struct {
	UserId       int64
	SponsorId    int64
	IsSubscribed bool
	Now          time.Time
}

// AccountStore defines the contract the ledger engine requires from a
// persistence backend.
type AccountStore interface {
	// --- Users ---
	GetUserById(ctx context.Context, userId int64) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	RegisterUser(ctx context.Context, params RegisterUserParams) error
	// MarkActivated stamps the user's first completed subscription gating.
	// Returns true only for the call that performed the stamp.
	MarkActivated(ctx context.Context, userId int64, now time.Time) (bool, error)

	// --- Balances / ledger ---
	GetBalance(ctx context.Context, userId int64) (decimal.Decimal, error)
	ProcessEntry(ctx context.Context, params EntryParams) (*models.Transaction, error)
	ApplyReward(ctx context.Context, params ApplyRewardParams) (*models.Transaction, error)
	CreateWithdrawal(ctx context.Context, params CreateWithdrawalParams) (*models.Withdrawal, error)
	GetTransactionHistory(ctx context.Context, userId int64, limit, offset int) ([]models.Transaction, error)
	ReconcileUserBalance(ctx context.Context, userId int64) error

	// --- Referrals / sponsors ---
	CountReferrals(ctx context.Context, userId int64) (total, active int, err error)
	GetSponsors(ctx context.Context) ([]models.Sponsor, error)
	ReplaceSponsors(ctx context.Context, sponsors []models.Sponsor) error
	GetSponsorStatuses(ctx context.Context, userId int64) ([]models.SponsorStatus, error)
	UpsertSponsorStatus(ctx context.Context, params SponsorStatusParams) error

	// --- Reporting ---
	GetStats(ctx context.Context) (*models.Stats, error)
	GetTopBalances(ctx context.Context, limit int) ([]models.UserBalance, error)

	// --- Lifecycle ---
	Close()
}
