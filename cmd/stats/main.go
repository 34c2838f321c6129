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

	"stars-ledger-go/internal/common"
	"stars-ledger-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	topFlag := flag.Int("top", 10, "How many top balances to list")
	reconcileFlag := flag.Bool("reconcile", false, "Verify every user's cached balance against the ledger")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	stats, err := dbService.GetStats(ctx)
	if err != nil {
		logger.Fatal("Failed to load stats", zap.Error(err))
	}

	common.PrintHeader("PROGRAM STATISTICS", common.DefaultWidth)
	fmt.Printf("Users:               %d\n", stats.TotalUsers)
	fmt.Printf("Total balance:       %s STAR\n", common.FormatAmount(stats.TotalBalance))
	fmt.Printf("Pending withdrawals: %d\n", stats.PendingWithdrawals)

	if *topFlag > 0 {
		topBalances, err := dbService.GetTopBalances(ctx, *topFlag)
		if err != nil {
			logger.Fatal("Failed to load top balances", zap.Error(err))
		}
		common.PrintBoxSeparator(common.DefaultWidth - 2)
		for i, ub := range topBalances {
			fmt.Printf("%s%2d. %-24s %12s STAR\n",
				common.BoxPrefix(i == len(topBalances)-1),
				i+1, ub.Username, common.FormatAmount(ub.Balance))
		}
	}

	if *reconcileFlag {
		users, err := dbService.GetUsers(ctx)
		if err != nil {
			logger.Fatal("Failed to load users", zap.Error(err))
		}

		divergent := 0
		for _, user := range users {
			if err := dbService.ReconcileUserBalance(ctx, user.Id); err != nil {
				divergent++
				logger.Error("Ledger divergence detected",
					zap.Int64("user_id", user.Id),
					zap.Error(err))
			}
		}

		if divergent == 0 {
			fmt.Printf("\nReconciliation: all %d users consistent\n", len(users))
		} else {
			fmt.Printf("\nReconciliation: %d of %d users DIVERGENT (see log)\n", divergent, len(users))
		}
	}

	common.PrintFooter("Statistics report completed", common.DefaultWidth)
}
