// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package rmc decodes the NMEA-0183 Recommended Minimum (RMC) sentence the
// receiver emits while it is in NMEA mode.
package rmc

import (
	"fmt"

	"github.com/relabs-tech/oncore_monitor/internal/gps"
)

// PositionFix is one decoded RMC sentence. The pointer fields are nil when
// the sentence is void.
type PositionFix struct {
	Valid             bool       `json:"valid"`
	Time              *ClockTime `json:"time,omitempty"`
	Latitude          Latitude   `json:"latitude"`
	Longitude         Longitude  `json:"longitude"`
	SpeedKnots        *float64   `json:"speed_knots,omitempty"`
	TrackDegrees      *float64   `json:"track_degrees,omitempty"`
	FixDate           *FixDate   `json:"fix_date,omitempty"`
	MagneticVariation *Variation `json:"magnetic_variation,omitempty"`
}

// ClockTime is the UTC time of the fix.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
	Millis int `json:"millis"`
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// Latitude as sent: two degree digits, then minutes.
type Latitude struct {
	Degrees   uint8      `json:"degrees"`
	Minutes   float64    `json:"minutes"`
	Direction Hemisphere `json:"direction"` // 'N' or 'S'
}

// Decimal returns signed decimal degrees, south negative.
func (l Latitude) Decimal() float64 {
	return signed(float64(l.Degrees)+l.Minutes/60, l.Direction == 'S')
}

// Longitude as sent: three degree digits, then minutes.
type Longitude struct {
	Degrees   uint16     `json:"degrees"`
	Minutes   float64    `json:"minutes"`
	Direction Hemisphere `json:"direction"` // 'E' or 'W'
}

// Decimal returns signed decimal degrees, west negative.
func (l Longitude) Decimal() float64 {
	return signed(float64(l.Degrees)+l.Minutes/60, l.Direction == 'W')
}

// FixDate is the UTC date of the fix; Year has two digits.
type FixDate struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// FullYear expands the two-digit year, pivoting at 80.
func (d FixDate) FullYear() int {
	if d.Year < 80 {
		return 2000 + d.Year
	}
	return 1900 + d.Year
}

// Variation is the magnetic variation and its sense ('E' or 'W').
type Variation struct {
	Degrees float64    `json:"degrees"`
	Sense   Hemisphere `json:"sense"`
}

// Hemisphere is a one-letter compass direction as sent ('N', 'S', 'E' or
// 'W'). The zero value means the field was empty and encodes as "".
type Hemisphere byte

func (h Hemisphere) String() string {
	if h == 0 {
		return ""
	}
	return string(rune(h))
}

func (h Hemisphere) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hemisphere) UnmarshalText(b []byte) error {
	switch len(b) {
	case 0:
		*h = 0
	case 1:
		*h = Hemisphere(b[0])
	default:
		return fmt.Errorf("hemisphere %q: want one letter", b)
	}
	return nil
}

func signed(v float64, negative bool) float64 {
	if negative {
		return -v
	}
	return v
}

// Fix flattens the fix into the record published on MQTT.
func (f PositionFix) Fix() gps.Fix {
	out := gps.Fix{
		Latitude:  f.Latitude.Decimal(),
		Longitude: f.Longitude.Decimal(),
		Validity:  "V",
	}
	if f.Valid {
		out.Validity = "A"
	}
	if f.Time != nil {
		out.Time = f.Time.String()
	}
	if f.FixDate != nil {
		out.Date = fmt.Sprintf("%04d-%02d-%02d", f.FixDate.FullYear(), f.FixDate.Month, f.FixDate.Day)
	}
	if f.SpeedKnots != nil {
		out.SpeedKnots = *f.SpeedKnots
	}
	if f.TrackDegrees != nil {
		out.CourseDeg = *f.TrackDegrees
	}
	return out
}
