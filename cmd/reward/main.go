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

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	idFlag := flag.Int64("id", 0, "User id (required)")
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

	result, err := services.Engine.RecordTimedReward(ctx, *idFlag, time.Now())
	if err != nil {
		logger.Fatal("Reward attempt failed", zap.Error(err))
	}

	switch result.Outcome {
	case models.RewardOutcomeRewarded:
		fmt.Printf("Rewarded %s STAR. New balance: %s STAR\n",
			common.FormatAmount(result.RewardAmount), common.FormatAmount(result.NewBalance))
	case models.RewardOutcomeCooldownActive:
		fmt.Printf("Cooldown active. Next reward in %s\n", common.FormatDuration(result.Remaining))
	case models.RewardOutcomeSubscriptionIncomplete:
		fmt.Println("Subscription incomplete: the user must join every sponsor channel first")
	}
}
