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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"stars-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	rewardCooldown, err := getEnvDuration("REWARD_COOLDOWN", time.Hour)
	if err != nil {
		return nil, err
	}

	rewardAmount, err := getEnvDecimal("REWARD_AMOUNT", "0.2")
	if err != nil {
		return nil, err
	}

	bonusReferrer, err := getEnvDecimal("REFERRAL_BONUS_REFERRER", "3")
	if err != nil {
		return nil, err
	}

	bonusReferee, err := getEnvDecimal("REFERRAL_BONUS_REFEREE", "2")
	if err != nil {
		return nil, err
	}

	withdrawalAmounts, err := parseAmountList(getEnvString("WITHDRAWAL_AMOUNTS", "15,25,50,100"))
	if err != nil {
		return nil, fmt.Errorf("invalid WITHDRAWAL_AMOUNTS: %w", err)
	}

	operatorChatId, err := getEnvInt64("OPERATOR_CHAT_ID", 0)
	if err != nil {
		return nil, err
	}

	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "stars.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Engine: models.EngineConfig{
			RewardAmount:       rewardAmount,
			RewardCooldown:     rewardCooldown,
			CommissionPercent:  int64(getEnvInt("REFERRAL_COMMISSION_PERCENT", 10)),
			BonusReferrer:      bonusReferrer,
			BonusReferee:       bonusReferee,
			MinActiveReferrals: getEnvInt("MIN_ACTIVE_REFERRALS", 3),
			WithdrawalAmounts:  withdrawalAmounts,
		},
		Telegram: models.TelegramConfig{
			BotToken:       getEnvString("TELEGRAM_BOT_TOKEN", ""),
			OperatorChatId: operatorChatId,
		},
		SponsorsFile: getEnvString("SPONSORS_FILE", "sponsors.yaml"),
	}

	if err := ValidateEngine(cfg.Engine); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateEngine rejects configurations the engine must never run with.
// Amounts and percentages are operator configuration, not user input, so
// this is the only place they are bounds-checked.
func ValidateEngine(cfg models.EngineConfig) error {
	if !cfg.RewardAmount.IsPositive() {
		return fmt.Errorf("reward amount must be positive, got %s", cfg.RewardAmount)
	}
	if cfg.RewardCooldown <= 0 {
		return fmt.Errorf("reward cooldown must be positive, got %v", cfg.RewardCooldown)
	}
	if cfg.CommissionPercent < 0 || cfg.CommissionPercent > 100 {
		return fmt.Errorf("commission percent must be in [0,100], got %d", cfg.CommissionPercent)
	}
	if cfg.BonusReferrer.IsNegative() || cfg.BonusReferee.IsNegative() {
		return fmt.Errorf("referral bonuses cannot be negative")
	}
	if cfg.MinActiveReferrals <= 0 {
		return fmt.Errorf("minimum active referrals must be positive, got %d", cfg.MinActiveReferrals)
	}
	if len(cfg.WithdrawalAmounts) == 0 {
		return fmt.Errorf("withdrawal amount set cannot be empty")
	}
	prev := decimal.Zero
	for _, amount := range cfg.WithdrawalAmounts {
		if !amount.GreaterThan(prev) {
			return fmt.Errorf("withdrawal amounts must be positive and strictly increasing, got %s after %s", amount, prev)
		}
		prev = amount
	}
	return nil
}

func parseAmountList(value string) ([]decimal.Decimal, error) {
	parts := strings.Split(value, ",")
	amounts := make([]decimal.Decimal, 0, len(parts))
	for _, part := range parts {
		amount, err := decimal.NewFromString(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad amount %q: %w", part, err)
		}
		amounts = append(amounts, amount)
	}
	return amounts, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key, defaultValue string) (decimal.Decimal, error) {
	value := getEnvString(key, defaultValue)
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount for %s: %q (%w)", key, value, err)
	}
	return amount, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	if value := os.Getenv(key); value != "" {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %q (%w)", key, value, err)
		}
		return intValue, nil
	}
	return defaultValue, nil
}
