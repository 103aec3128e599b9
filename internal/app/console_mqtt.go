// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/oncore_monitor/internal/config"
	"github.com/relabs-tech/oncore_monitor/internal/gps"
	"github.com/relabs-tech/oncore_monitor/internal/logging"
	"github.com/relabs-tech/oncore_monitor/internal/oncore"
	"github.com/relabs-tech/oncore_monitor/internal/render"
	"github.com/relabs-tech/oncore_monitor/internal/rmc"
)

// RunConsoleMQTT prints every update the producer publishes.
func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg == nil {
		return errNoConfig
	}
	log := logging.For("console_mqtt")

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole, log)
	if err != nil {
		return err
	}

	state := &monitorState{onUpdate: func(kind string, v interface{}) {
		if err := printUpdate(os.Stdout, kind, v); err != nil {
			log.Warn().Err(err).Msg("print error")
		}
	}}
	if err := subscribeState(client, topicsFor(cfg), state, log); err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	client.Disconnect(250)
	return nil
}

func printUpdate(w io.Writer, kind string, v interface{}) error {
	switch u := v.(type) {
	case oncore.ReceiverSnapshot:
		if _, err := fmt.Fprintln(w, "[SNAPSHOT]"); err != nil {
			return err
		}
		return render.Snapshot(w, u)
	case rmc.PositionFix:
		if _, err := fmt.Fprintln(w, "[RMC]"); err != nil {
			return err
		}
		return render.Fix(w, u)
	case gps.Fix:
		_, err := fmt.Fprintf(w,
			"[GPS ]  time=%s date=%s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f° validity=%s\n",
			u.Time, u.Date, u.Latitude, u.Longitude, u.SpeedKnots, u.CourseDeg, u.Validity,
		)
		return err
	case gps.Identity:
		return render.ReceiverID(w, u.ReceiverID)
	}
	return errUnknownKind(kind)
}
