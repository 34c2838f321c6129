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

package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"stars-ledger-go/internal/common"
	"stars-ledger-go/internal/config"
	"stars-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	idFlag := flag.Int64("id", 0, "User id (required)")
	amountFlag := flag.String("amount", "", "Withdrawal amount in STAR (required)")
	flag.Parse()

	if *idFlag == 0 || *amountFlag == "" {
		logger.Fatal("Missing required -id or -amount flag")
	}

	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		logger.Fatal("Invalid amount", zap.String("amount", *amountFlag), zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	result, err := services.Engine.RequestWithdrawal(ctx, *idFlag, amount, time.Now())
	if err != nil {
		logger.Fatal("Withdrawal request failed", zap.Error(err))
	}

	switch result.Outcome {
	case models.WithdrawalOutcomeCreated:
		fmt.Printf("Withdrawal #%d created: %s STAR (pending operator approval)\n",
			result.WithdrawalId, common.FormatAmount(result.Amount))
	case models.WithdrawalOutcomeAmountNotAllowed:
		fmt.Printf("Amount %s is not in the allowed set:", common.FormatAmount(result.Amount))
		for _, allowed := range result.AllowedAmounts {
			fmt.Printf(" %s", allowed.String())
		}
		fmt.Println()
	case models.WithdrawalOutcomeInsufficientBalance:
		fmt.Printf("Insufficient balance: %s STAR available, %s STAR requested\n",
			common.FormatAmount(result.CurrentBalance), common.FormatAmount(result.Amount))
	case models.WithdrawalOutcomeInsufficientReferrals:
		fmt.Printf("Not enough active referrals: %d of %d required\n",
			result.ActiveReferrals, result.RequiredReferrals)
	case models.WithdrawalOutcomeSubscriptionIncomplete:
		fmt.Println("Subscription incomplete: the user must join every sponsor channel first")
	}
}
