// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package receiver drives an Oncore receiver through one monitoring cycle:
// binary status poll, switch to NMEA, position poll, switch back, receiver ID.
package receiver

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/oncore_monitor/internal/logging"
	"github.com/relabs-tech/oncore_monitor/internal/oncore"
	"github.com/relabs-tech/oncore_monitor/internal/rmc"
	"github.com/relabs-tech/oncore_monitor/internal/serialport"
)

// Opener opens the receiver port at a baud rate. The session opens a fresh
// port for every exchange because the two protocols run at different rates.
type Opener func(baud int) (serialport.Transport, error)

// Options tune the session timing and checksum handling.
type Options struct {
	BinaryBaud      int
	NMEABaud        int
	CommandDelay    time.Duration // wait between writing a command and reading the answer
	ModeSwitchDelay time.Duration // receiver settle time after a protocol switch

	RawCommandChecksum  bool // send the XOR byte instead of two hex characters
	VerifyFrameChecksum bool
	StrictNMEAChecksum  bool
}

// DefaultOptions match the receiver's factory settings.
func DefaultOptions() Options {
	return Options{
		BinaryBaud:      9600,
		NMEABaud:        4800,
		CommandDelay:    time.Second,
		ModeSwitchDelay: 10 * time.Second,
	}
}

// Report is the outcome of one Cycle. A phase that failed leaves its value
// nil and records the error.
type Report struct {
	At          time.Time
	Snapshot    *oncore.ReceiverSnapshot
	Fix         *rmc.PositionFix
	ReceiverID  string
	StatusErr   error
	PositionErr error
	IDErr       error
}

// OK reports whether every phase succeeded.
func (r Report) OK() bool {
	return r.StatusErr == nil && r.PositionErr == nil && r.IDErr == nil
}

// Session talks to one receiver. It is not safe for concurrent use.
type Session struct {
	open   Opener
	opts   Options
	encode func(string) []byte
	sleep  func(context.Context, time.Duration) error
	now    func() time.Time
	log    zerolog.Logger
}

// NewSession builds a session over the given opener.
func NewSession(open Opener, opts Options) *Session {
	encode := oncore.Encode
	if opts.RawCommandChecksum {
		encode = oncore.EncodeBinary
	}
	return &Session{
		open:   open,
		opts:   opts,
		encode: encode,
		sleep:  sleepCtx,
		now:    time.Now,
		log:    logging.For("session"),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// exchange opens the port, writes one command, waits, and reads whatever the
// receiver sends back.
func (s *Session) exchange(ctx context.Context, baud int, payload []byte) ([]byte, error) {
	port, err := s.open(baud)
	if err != nil {
		return nil, errors.Wrap(err, "open port")
	}
	defer port.Close()

	if err := port.Send(payload); err != nil {
		return nil, err
	}
	if err := s.sleep(ctx, s.opts.CommandDelay); err != nil {
		return nil, err
	}
	resp, err := port.ReceiveAvailable(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "command %q", payload)
	}
	s.log.Debug().Int("baud", baud).Int("bytes", len(resp)).Msg("exchange")
	return resp, nil
}

// switchMode writes a protocol switch command and waits for the receiver to
// settle. The receiver does not always answer, so a read timeout is fine.
func (s *Session) switchMode(ctx context.Context, baud int, payload []byte) error {
	if _, err := s.exchange(ctx, baud, payload); err != nil && !errors.Is(err, serialport.ErrTimeout) {
		return err
	}
	return s.sleep(ctx, s.opts.ModeSwitchDelay)
}

// QueryStatus polls the @@Ha status message and decodes it.
func (s *Session) QueryStatus(ctx context.Context) (oncore.ReceiverSnapshot, error) {
	raw, err := s.exchange(ctx, s.opts.BinaryBaud, s.encode(oncore.CmdStatusSnapshot))
	if err != nil {
		return oncore.ReceiverSnapshot{}, err
	}
	if s.opts.VerifyFrameChecksum {
		if err := oncore.VerifyFrame(raw, oncore.IDStatusSnapshot); err != nil {
			return oncore.ReceiverSnapshot{}, err
		}
	}
	return oncore.DecodeStatus(raw)
}

// SwitchToNMEA puts the receiver into NMEA-0183 output.
func (s *Session) SwitchToNMEA(ctx context.Context) error {
	return errors.Wrap(s.switchMode(ctx, s.opts.BinaryBaud, s.encode(oncore.CmdNMEAMode)), "switch to NMEA")
}

// QueryPosition requests one RMC sentence. The receiver must be in NMEA mode.
func (s *Session) QueryPosition(ctx context.Context) (rmc.PositionFix, error) {
	raw, err := s.exchange(ctx, s.opts.NMEABaud, []byte(oncore.NMEARequestRMC))
	if err != nil {
		return rmc.PositionFix{}, err
	}
	line, ok := rmc.Extract(string(raw))
	if !ok {
		return rmc.PositionFix{}, errors.New("empty NMEA response")
	}
	var opts []rmc.Option
	if s.opts.StrictNMEAChecksum {
		opts = append(opts, rmc.WithStrictChecksum())
	}
	return rmc.Decode(line, opts...)
}

// SwitchToBinary returns the receiver to Motorola binary output.
func (s *Session) SwitchToBinary(ctx context.Context) error {
	return errors.Wrap(s.switchMode(ctx, s.opts.NMEABaud, []byte(oncore.NMEAReturnBinary)), "switch to binary")
}

// QueryReceiverID asks for the @@Cj identification text.
func (s *Session) QueryReceiverID(ctx context.Context) (string, error) {
	raw, err := s.exchange(ctx, s.opts.BinaryBaud, s.encode(oncore.CmdReceiverID))
	if err != nil {
		return "", err
	}
	return oncore.DecodeReceiverID(raw)
}

// Cycle runs the full sequence. Phase failures land in the report; the
// returned error is set only when the context ends or the receiver could not
// be returned to binary mode.
func (s *Session) Cycle(ctx context.Context) (Report, error) {
	r := Report{At: s.now()}

	snap, err := s.QueryStatus(ctx)
	if err != nil {
		r.StatusErr = err
		s.log.Warn().Err(err).Msg("status poll failed")
	} else {
		r.Snapshot = &snap
	}
	if ctx.Err() != nil {
		return r, ctx.Err()
	}

	if err := s.SwitchToNMEA(ctx); err != nil {
		r.PositionErr = err
		s.log.Warn().Err(err).Msg("NMEA switch failed")
		if ctx.Err() != nil {
			return r, ctx.Err()
		}
	} else {
		fix, err := s.QueryPosition(ctx)
		if err != nil {
			r.PositionErr = err
			s.log.Warn().Err(err).Msg("position poll failed")
		} else {
			r.Fix = &fix
		}
		if err := s.SwitchToBinary(ctx); err != nil {
			return r, err
		}
	}

	id, err := s.QueryReceiverID(ctx)
	if err != nil {
		r.IDErr = err
		s.log.Warn().Err(err).Msg("receiver ID query failed")
	} else {
		r.ReceiverID = id
	}
	return r, ctx.Err()
}
