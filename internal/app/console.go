// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/oncore_monitor/internal/config"
	"github.com/relabs-tech/oncore_monitor/internal/logging"
	"github.com/relabs-tech/oncore_monitor/internal/receiver"
	"github.com/relabs-tech/oncore_monitor/internal/render"
)

// RunConsole runs one monitoring cycle against the receiver and prints the
// result to stdout.
func RunConsole() error {
	cfg := config.Get()
	if cfg == nil {
		return errNoConfig
	}
	log := logging.For("console")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("port", cfg.GPSSerialPort).Msg("reading receiver")
	report, err := newSession(cfg).Cycle(ctx)
	if perr := printReport(os.Stdout, report); perr != nil {
		return perr
	}
	return err
}

// printReport writes every section that was read, and the reason for each
// section that was not.
func printReport(w io.Writer, r receiver.Report) error {
	var err error
	section := func(title string, ok bool, phaseErr error, body func() error) {
		if err != nil {
			return
		}
		if _, err = fmt.Fprintf(w, "== %s ==\n", title); err != nil {
			return
		}
		if !ok {
			_, err = fmt.Fprintf(w, "unavailable: %v\n\n", phaseErr)
			return
		}
		if err = body(); err != nil {
			return
		}
		_, err = fmt.Fprintln(w)
	}

	section("Receiver status", r.Snapshot != nil, r.StatusErr, func() error {
		return render.Snapshot(w, *r.Snapshot)
	})
	section("GPRMC Recommended Minimum Specific GPS/Transit Data", r.Fix != nil, r.PositionErr, func() error {
		return render.Fix(w, *r.Fix)
	})
	section("Receiver ID", r.IDErr == nil && r.ReceiverID != "", r.IDErr, func() error {
		return render.ReceiverID(w, r.ReceiverID)
	})
	return err
}
