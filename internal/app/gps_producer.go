// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/oncore_monitor/internal/config"
	"github.com/relabs-tech/oncore_monitor/internal/gps"
	"github.com/relabs-tech/oncore_monitor/internal/history"
	"github.com/relabs-tech/oncore_monitor/internal/logging"
	"github.com/relabs-tech/oncore_monitor/internal/oncore"
	"github.com/relabs-tech/oncore_monitor/internal/receiver"
	"github.com/relabs-tech/oncore_monitor/internal/rmc"
)

// reportStore keeps history of what the producer saw.
type reportStore interface {
	WriteSnapshot(ctx context.Context, runID string, at time.Time, s oncore.ReceiverSnapshot) error
	WriteFix(ctx context.Context, runID string, at time.Time, f rmc.PositionFix) error
}

type producer struct {
	pub    publisher
	topics map[string]string
	store  reportStore // nil when history is disabled
	runID  string
	log    zerolog.Logger
}

// RunGPSProducer polls the receiver every GPS_POLL_INTERVAL and publishes
// each cycle's results as JSON on the configured MQTT topics.
func RunGPSProducer() error {
	cfg := config.Get()
	if cfg == nil {
		return errNoConfig
	}
	log := logging.For("gps_producer")

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	p := &producer{
		pub:    client,
		topics: topicsFor(cfg),
		runID:  uuid.NewString(),
		log:    log,
	}
	if hc := influxConfig(cfg); hc.Enabled() {
		ix := history.NewInflux(hc)
		defer ix.Close()
		p.store = ix
		log.Info().Str("url", hc.URL).Str("bucket", hc.Bucket).Msg("writing history to InfluxDB")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := newSession(cfg)
	log.Info().
		Str("run", p.runID).
		Str("port", cfg.GPSSerialPort).
		Dur("interval", cfg.GPSPollInterval).
		Msg("polling receiver")

	ticker := time.NewTicker(cfg.GPSPollInterval)
	defer ticker.Stop()

	for {
		report, err := session.Cycle(ctx)
		if ctx.Err() != nil {
			log.Info().Msg("shutting down")
			return nil
		}
		if err != nil {
			log.Error().Err(err).Msg("cycle aborted")
		}
		if err := p.publish(ctx, report); err != nil {
			log.Warn().Err(err).Msg("publish incomplete")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

// publish sends whatever parts of the report succeeded. It keeps going
// past individual failures and returns them joined.
func (p *producer) publish(ctx context.Context, r receiver.Report) error {
	var errs []error

	if r.Snapshot != nil {
		if err := publishJSON(p.pub, p.topics[kindSnapshot], r.Snapshot); err != nil {
			errs = append(errs, err)
		}
		if p.store != nil {
			if err := p.store.WriteSnapshot(ctx, p.runID, r.At, *r.Snapshot); err != nil {
				errs = append(errs, err)
			}
		}
		p.log.Info().
			Str("status", r.Snapshot.ReceiverStatus.Phrase()).
			Uint8("tracked", r.Snapshot.SatellitesTracked).
			Msg("published snapshot")
	}

	if r.Fix != nil {
		if err := publishJSON(p.pub, p.topics[kindFix], r.Fix); err != nil {
			errs = append(errs, err)
		}
		if err := publishJSON(p.pub, p.topics[kindPosition], r.Fix.Fix()); err != nil {
			errs = append(errs, err)
		}
		if p.store != nil {
			if err := p.store.WriteFix(ctx, p.runID, r.At, *r.Fix); err != nil {
				errs = append(errs, err)
			}
		}
		p.log.Info().Bool("valid", r.Fix.Valid).Msg("published fix")
	}

	if r.ReceiverID != "" {
		id := gps.Identity{Run: p.runID, ReceiverID: r.ReceiverID, At: r.At}
		if err := publishJSON(p.pub, p.topics[kindReceiverID], id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
