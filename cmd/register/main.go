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
	nameFlag := flag.String("name", "", "Display name (defaults to user_<id>)")
	referrerFlag := flag.Int64("referrer", 0, "Referrer user id (optional)")
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

	now := time.Now()

	var referrerId *int64
	if *referrerFlag != 0 {
		referrerId = referrerFlag
	}

	if err := services.Engine.RegisterUser(ctx, *idFlag, *nameFlag, referrerId); err != nil {
		logger.Fatal("Failed to register user", zap.Error(err))
	}

	complete, err := services.Engine.RefreshSubscriptions(ctx, *idFlag, now)
	if err != nil {
		logger.Fatal("Failed to refresh subscriptions", zap.Error(err))
	}

	common.PrintHeader("USER REGISTERED", common.DefaultWidth)
	fmt.Printf("User id:               %d\n", *idFlag)
	if referrerId != nil {
		fmt.Printf("Referrer:              %d\n", *referrerId)
	}
	fmt.Printf("Subscription complete: %t\n", complete)
	common.PrintFooter("Registration finished", common.DefaultWidth)
}
