package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database     DatabaseConfig
	Engine       EngineConfig
	Telegram     TelegramConfig
	SponsorsFile string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// EngineConfig holds the reward-program constants. Loaded once at startup,
// validated, then immutable for the process lifetime.
type EngineConfig struct {
	RewardAmount       decimal.Decimal
	RewardCooldown     time.Duration
	CommissionPercent  int64
	BonusReferrer      decimal.Decimal
	BonusReferee       decimal.Decimal
	MinActiveReferrals int
	WithdrawalAmounts  []decimal.Decimal
}

// TelegramConfig holds chat API settings for the subscription checker and
// operator notifications. An empty token disables the chat client.
type TelegramConfig struct {
	BotToken       string
	OperatorChatId int64
}
