// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"sync"

	"github.com/relabs-tech/oncore_monitor/internal/gps"
	"github.com/relabs-tech/oncore_monitor/internal/oncore"
	"github.com/relabs-tech/oncore_monitor/internal/rmc"
)

// Update kinds, also used as the "type" of websocket messages.
const (
	kindSnapshot   = "snapshot"
	kindFix        = "fix"
	kindPosition   = "position"
	kindReceiverID = "receiver_id"
)

// monitorState holds the latest message seen on each topic. MQTT callbacks
// write it; HTTP handlers and the display loop read it.
type monitorState struct {
	mu sync.RWMutex

	snapshot     oncore.ReceiverSnapshot
	haveSnapshot bool
	fix          rmc.PositionFix
	haveFix      bool
	position     gps.Fix
	havePosition bool
	identity     gps.Identity
	haveIdentity bool

	// called after every accepted update, outside the lock
	onUpdate func(kind string, v interface{})
}

// apply decodes one topic payload into the state.
func (s *monitorState) apply(kind string, payload []byte) error {
	var v interface{}

	s.mu.Lock()
	switch kind {
	case kindSnapshot:
		var snap oncore.ReceiverSnapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			s.mu.Unlock()
			return err
		}
		s.snapshot, s.haveSnapshot, v = snap, true, snap
	case kindFix:
		var f rmc.PositionFix
		if err := json.Unmarshal(payload, &f); err != nil {
			s.mu.Unlock()
			return err
		}
		s.fix, s.haveFix, v = f, true, f
	case kindPosition:
		var p gps.Fix
		if err := json.Unmarshal(payload, &p); err != nil {
			s.mu.Unlock()
			return err
		}
		s.position, s.havePosition, v = p, true, p
	case kindReceiverID:
		var id gps.Identity
		if err := json.Unmarshal(payload, &id); err != nil {
			s.mu.Unlock()
			return err
		}
		s.identity, s.haveIdentity, v = id, true, id
	default:
		s.mu.Unlock()
		return errUnknownKind(kind)
	}
	cb := s.onUpdate
	s.mu.Unlock()

	if cb != nil {
		cb(kind, v)
	}
	return nil
}

// latest returns the stored value for a kind and whether one has arrived.
func (s *monitorState) latest(kind string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch kind {
	case kindSnapshot:
		return s.snapshot, s.haveSnapshot
	case kindFix:
		return s.fix, s.haveFix
	case kindPosition:
		return s.position, s.havePosition
	case kindReceiverID:
		return s.identity, s.haveIdentity
	}
	return nil, false
}

type errUnknownKind string

func (e errUnknownKind) Error() string { return "unknown update kind: " + string(e) }
