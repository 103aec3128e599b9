// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"

	"github.com/relabs-tech/oncore_monitor/internal/config"
	"github.com/relabs-tech/oncore_monitor/internal/history"
	"github.com/relabs-tech/oncore_monitor/internal/receiver"
	"github.com/relabs-tech/oncore_monitor/internal/serialport"
)

var errNoConfig = errors.New("configuration not loaded")

func sessionOptions(cfg *config.Config) receiver.Options {
	return receiver.Options{
		BinaryBaud:          cfg.GPSBinaryBaudRate,
		NMEABaud:            cfg.GPSNMEABaudRate,
		CommandDelay:        cfg.GPSCommandDelay,
		ModeSwitchDelay:     cfg.GPSModeSwitchDelay,
		RawCommandChecksum:  cfg.GPSRawCommandChecksum,
		VerifyFrameChecksum: cfg.GPSVerifyFrameSum,
		StrictNMEAChecksum:  cfg.NMEAStrictChecksum,
	}
}

// newSession opens the configured serial device for every exchange.
func newSession(cfg *config.Config) *receiver.Session {
	open := func(baud int) (serialport.Transport, error) {
		p, err := serialport.Open(cfg.GPSSerialPort, baud, cfg.GPSReadTimeout, cfg.GPSChunkTimeout)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return receiver.NewSession(open, sessionOptions(cfg))
}

func influxConfig(cfg *config.Config) history.Config {
	return history.Config{
		URL:    cfg.InfluxURL,
		Token:  cfg.InfluxToken,
		Org:    cfg.InfluxOrg,
		Bucket: cfg.InfluxBucket,
	}
}
