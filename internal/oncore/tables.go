// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package oncore

import (
	"math"

	"github.com/relabs-tech/oncore_monitor/internal/gps"
)

// ModeNames is the channel tracking mode table.
var ModeNames = [...]string{
	"Code Search",
	"Code Acquire",
	"AGC Set",
	"Freq Acquire",
	"Bit Sync Detect",
	"Message Sync Detect",
	"Satellite Time Available",
	"Ephemeris Acquire",
	"Available for Position",
}

// AccuracyThresholds holds the lower edges of the user range accuracy bands,
// in meters. The last entry is unbounded.
var AccuracyThresholds = [...]float64{
	0.0,
	2.4,
	3.4,
	4.85,
	6.85,
	9.65,
	13.65,
	24.0,
	48.0,
	96.0,
	192.0,
	384.0,
	768.0,
	1536.0,
	3072.0,
	6144.0,
	math.Inf(1),
}

// CodeLocationNames indexed by CodeLocation.
var CodeLocationNames = [...]string{"EXTERNAL", "INTERNAL"}

// AntennaSenseNames indexed by AntennaSense.
var AntennaSenseNames = [...]string{"OK", "OC", "UC", "NV"}

// StatusPhrases is the 3-bit receiver status table.
var StatusPhrases = [...]string{
	"Reserved",
	"Reserved",
	"Bad Geometry",
	"Acquiring Satellites",
	"Position Hold",
	"Propagate Mode",
	"2D Fix",
	"3D Fix",
}

// UTCOffsetLabels and UTCModeLabels are indexed by the flag value (false=0).
var (
	UTCOffsetLabels = [...]string{"NOT decoded", "decoded"}
	UTCModeLabels   = [...]string{"disabled", "enabled"}
)

// ModeName looks up a channel mode.
func ModeName(i int) (string, error) {
	if i < 0 || i >= len(ModeNames) {
		return "", gps.OutOfRange("mode", i)
	}
	return ModeNames[i], nil
}

// Band is a half-open accuracy interval [Low, High) in meters.
type Band struct {
	Low  float64
	High float64
}

// AccuracyBand returns the band for an accuracy index. The top index yields
// a band whose High is +Inf.
func AccuracyBand(i int) (Band, error) {
	if i < 0 || i+1 >= len(AccuracyThresholds) {
		return Band{}, gps.OutOfRange("accuracy", i)
	}
	return Band{Low: AccuracyThresholds[i], High: AccuracyThresholds[i+1]}, nil
}

// StatusPhrase looks up the receiver status phrase.
func StatusPhrase(i int) (string, error) {
	if i < 0 || i >= len(StatusPhrases) {
		return "", gps.OutOfRange("status_phrase", i)
	}
	return StatusPhrases[i], nil
}

func label(table []string, field string, i int) (string, error) {
	if i < 0 || i >= len(table) {
		return "", gps.OutOfRange(field, i)
	}
	return table[i], nil
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}

// UTCOffsetLabel renders the offset-decoded flag.
func UTCOffsetLabel(decoded bool) string {
	s, _ := label(UTCOffsetLabels[:], "utc_offset", boolIndex(decoded))
	return s
}

// UTCModeLabel renders the UTC mode flag.
func UTCModeLabel(enabled bool) string {
	s, _ := label(UTCModeLabels[:], "utc_mode", boolIndex(enabled))
	return s
}
