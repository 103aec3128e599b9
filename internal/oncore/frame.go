// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package oncore

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/relabs-tech/oncore_monitor/internal/gps"
)

const (
	frameSync  = "@@"
	headerLen  = len(frameSync) + 2 // "@@" + two-letter message ID
	trailerLen = 1 + len(terminator)
)

// Unframe finds the "@@<id>" message in raw and returns its body without the
// 4-byte header or the checksum+CR LF trailer. Bytes before the header are
// skipped; everything after the header up to the last three bytes of raw is
// treated as the body.
func Unframe(raw []byte, id string) ([]byte, error) {
	frame, err := findFrame(raw, id)
	if err != nil {
		return nil, err
	}
	return frame[headerLen : len(frame)-trailerLen], nil
}

// VerifyFrame checks the raw checksum byte of the "@@<id>" message in raw.
// The checksum covers every byte after "@@" up to the checksum itself.
func VerifyFrame(raw []byte, id string) error {
	frame, err := findFrame(raw, id)
	if err != nil {
		return err
	}
	ckPos := len(frame) - trailerLen
	want := frame[ckPos]
	got := Checksum(frame[len(frameSync):ckPos])
	if got != want {
		return gps.ChecksumMismatch(fmt.Sprintf("@@%s: got 0x%02x, frame says 0x%02x", id, got, want))
	}
	return nil
}

func findFrame(raw []byte, id string) ([]byte, error) {
	start := bytes.Index(raw, []byte(frameSync+id))
	if start < 0 {
		return nil, gps.BadFrame(fmt.Sprintf("no @@%s header", id))
	}
	frame := raw[start:]
	if len(frame) < headerLen+trailerLen {
		return nil, gps.Truncated(headerLen+trailerLen, len(frame))
	}
	return frame, nil
}

// DecodeStatus unframes an @@Ha response and decodes it.
func DecodeStatus(raw []byte) (ReceiverSnapshot, error) {
	body, err := Unframe(raw, IDStatusSnapshot)
	if err != nil {
		return ReceiverSnapshot{}, err
	}
	return Decode(body)
}

// DecodeReceiverID unframes an @@Cj response and returns its text.
func DecodeReceiverID(raw []byte) (string, error) {
	body, err := Unframe(raw, IDReceiverID)
	if err != nil {
		return "", err
	}
	text, err := asciiField("receiver_id", body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
