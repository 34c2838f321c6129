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

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	idFlag := flag.Int64("id", 0, "User id (required)")
	historyFlag := flag.Int("history", 0, "Show the most recent N ledger entries")
	flag.Parse()

	if *idFlag == 0 {
		logger.Fatal("Missing required -id flag")
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

	profile, err := services.Engine.GetProfile(ctx, *idFlag, time.Now())
	if err != nil {
		logger.Fatal("Failed to load profile", zap.Error(err))
	}

	nextReward := "now"
	if profile.NextRewardIn > 0 {
		nextReward = "in " + common.FormatDuration(profile.NextRewardIn)
	}

	common.PrintHeader(fmt.Sprintf("PROFILE: %s", profile.Username), common.DefaultWidth)
	fmt.Printf("User id:               %d\n", profile.UserId)
	fmt.Printf("Balance:               %s STAR\n", common.FormatAmount(profile.Balance))
	fmt.Printf("Referrals:             %d active / %d total\n", profile.ActiveReferrals, profile.TotalReferrals)
	fmt.Printf("Next reward:           %s\n", nextReward)
	fmt.Printf("Subscription complete: %t\n", profile.SubscriptionComplete)

	if *historyFlag > 0 {
		entries, err := services.Store.GetTransactionHistory(ctx, *idFlag, *historyFlag, 0)
		if err != nil {
			logger.Fatal("Failed to load transaction history", zap.Error(err))
		}
		common.PrintBoxSeparator(common.DefaultWidth - 2)
		for i, entry := range entries {
			fmt.Printf("%s#%d %-16s %10s -> %10s  %s\n",
				common.BoxPrefix(i == len(entries)-1),
				entry.Id, entry.Kind,
				entry.Amount.String(), common.FormatAmount(entry.BalanceAfter),
				entry.Note)
		}
	}

	common.PrintFooter("Profile query completed", common.DefaultWidth)
}
