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

	sponsorsFlag := flag.String("sponsors", "", "Path to the sponsors YAML file (overrides SPONSORS_FILE)")
	flag.Parse()

	logger.Info("Starting setup")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if *sponsorsFlag != "" {
		cfg.SponsorsFile = *sponsorsFlag
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	sponsors, err := common.LoadSponsorConfig(cfg.SponsorsFile)
	if err != nil {
		logger.Fatal("Failed to load sponsor config", zap.Error(err))
	}

	if err := dbService.ReplaceSponsors(ctx, sponsors); err != nil {
		logger.Fatal("Failed to store sponsors", zap.Error(err))
	}

	common.PrintHeader("SETUP COMPLETE", common.DefaultWidth)
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Printf("Sponsors: %d\n", len(sponsors))
	for i, sponsor := range sponsors {
		fmt.Printf("%s%d. %s (%s)\n", common.BoxPrefix(i == len(sponsors)-1), sponsor.Id, sponsor.ChannelUsername, sponsor.ChannelUrl)
	}
	common.PrintFooter(fmt.Sprintf("Schema initialized, %d sponsors configured", len(sponsors)), common.DefaultWidth)
}
