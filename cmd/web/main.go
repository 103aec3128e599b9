// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/oncore_monitor/internal/app"
	"github.com/relabs-tech/oncore_monitor/internal/config"
	"github.com/relabs-tech/oncore_monitor/internal/logging"
)

func main() {
	configPath := flag.String("config", "./"+config.DefaultPath, "path to configuration file")
	flag.Parse()

	logging.Setup("info")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(config.Get().LogLevel)

	log.Info().Msg("starting Oncore web server (MQTT subscriber)")

	if err := app.RunWeb(); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}
