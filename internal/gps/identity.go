// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import "time"

// Identity is the receiver identification published once per poll cycle.
type Identity struct {
	Run        string    `json:"run"` // producer run ID
	ReceiverID string    `json:"receiver_id"`
	At         time.Time `json:"at"`
}
