// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gps holds the records and error kinds shared by the binary and
// NMEA decoders.
package gps

import "fmt"

// Kind classifies a decode failure.
type Kind int

const (
	KindTruncated Kind = iota + 1
	KindOutOfRange
	KindInvalidText
	KindMalformedSentence
	KindChecksumMismatch
	KindBadFrame
)

func (k Kind) String() string {
	switch k {
	case KindTruncated:
		return "truncated"
	case KindOutOfRange:
		return "out of range"
	case KindInvalidText:
		return "invalid text"
	case KindMalformedSentence:
		return "malformed sentence"
	case KindChecksumMismatch:
		return "checksum mismatch"
	case KindBadFrame:
		return "bad frame"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DecodeError is returned by every decoder in this module.
// Field and Value are set for OutOfRange; Detail carries free text.
type DecodeError struct {
	Kind   Kind
	Field  string
	Value  int
	Detail string
}

func (e *DecodeError) Error() string {
	switch {
	case e.Kind == KindOutOfRange:
		return fmt.Sprintf("decode: %s: %s=%d", e.Kind, e.Field, e.Value)
	case e.Field != "" && e.Detail != "":
		return fmt.Sprintf("decode: %s: %s: %s", e.Kind, e.Field, e.Detail)
	case e.Detail != "":
		return fmt.Sprintf("decode: %s: %s", e.Kind, e.Detail)
	default:
		return fmt.Sprintf("decode: %s", e.Kind)
	}
}

// Is matches any DecodeError of the same kind, so callers can write
// errors.Is(err, gps.ErrTruncated).
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrTruncated         = &DecodeError{Kind: KindTruncated}
	ErrOutOfRange        = &DecodeError{Kind: KindOutOfRange}
	ErrInvalidText       = &DecodeError{Kind: KindInvalidText}
	ErrMalformedSentence = &DecodeError{Kind: KindMalformedSentence}
	ErrChecksum          = &DecodeError{Kind: KindChecksumMismatch}
	ErrBadFrame          = &DecodeError{Kind: KindBadFrame}
)

// Truncated reports a buffer shorter than the layout requires.
func Truncated(need, got int) *DecodeError {
	return &DecodeError{Kind: KindTruncated, Detail: fmt.Sprintf("need %d bytes, got %d", need, got)}
}

// OutOfRange reports a table index past the end of its table.
func OutOfRange(field string, value int) *DecodeError {
	return &DecodeError{Kind: KindOutOfRange, Field: field, Value: value}
}

// InvalidText reports a fixed-width text field that is not ASCII.
func InvalidText(field string) *DecodeError {
	return &DecodeError{Kind: KindInvalidText, Field: field, Detail: "not ASCII"}
}

// Malformed reports a sentence with missing or unparsable fields.
func Malformed(field, detail string) *DecodeError {
	return &DecodeError{Kind: KindMalformedSentence, Field: field, Detail: detail}
}

// ChecksumMismatch reports a checksum that does not match the payload.
func ChecksumMismatch(detail string) *DecodeError {
	return &DecodeError{Kind: KindChecksumMismatch, Detail: detail}
}

// BadFrame reports a response that does not carry the expected header.
func BadFrame(detail string) *DecodeError {
	return &DecodeError{Kind: KindBadFrame, Detail: detail}
}
