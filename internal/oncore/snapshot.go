// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package oncore

import (
	"fmt"
	"time"
)

// ChannelCount is the number of hardware tracking channels in a snapshot.
const ChannelCount = 12

const masPerDegree = 3_600_000

// ReceiverSnapshot is one decoded @@Ha status message.
type ReceiverSnapshot struct {
	Date               Date                        `json:"date"`
	Time               Time                        `json:"time"`
	FilteredPosition   Position                    `json:"filtered_position"`
	UnfilteredPosition Position                    `json:"unfiltered_position"`
	Velocity           Velocity                    `json:"velocity"`
	DOPTenths          uint16                      `json:"dop_tenths"`
	SatellitesVisible  uint8                       `json:"satellites_visible"`
	SatellitesTracked  uint8                       `json:"satellites_tracked"`
	Channels           [ChannelCount]ChannelRecord `json:"channels"`
	ReceiverStatus     ReceiverStatus              `json:"receiver_status"`
	Oscillator         Oscillator                  `json:"oscillator"`
	UTC                UTCParameters               `json:"utc"`
	GMTOffset          GMTOffset                   `json:"gmt_offset"`
	IDTag              string                      `json:"id_tag"`
}

// Date as reported by the receiver.
type Date struct {
	Month uint8  `json:"month"`
	Day   uint8  `json:"day"`
	Year  uint16 `json:"year"`
}

// Time of day as reported by the receiver.
type Time struct {
	Hour       uint8  `json:"hour"`
	Minute     uint8  `json:"minute"`
	Second     uint8  `json:"second"`
	Nanosecond uint32 `json:"nanosecond"`
}

// Timestamp combines Date and Time. The receiver clock is treated as UTC.
func (s ReceiverSnapshot) Timestamp() time.Time {
	return time.Date(int(s.Date.Year), time.Month(s.Date.Month), int(s.Date.Day),
		int(s.Time.Hour), int(s.Time.Minute), int(s.Time.Second), int(s.Time.Nanosecond), time.UTC)
}

// DOP returns the dilution of precision.
func (s ReceiverSnapshot) DOP() float64 { return float64(s.DOPTenths) / 10 }

// Position in milliarcseconds and centimeters.
type Position struct {
	LatitudeMas  int32 `json:"latitude_mas"`
	LongitudeMas int32 `json:"longitude_mas"`
	GPSHeightCm  int32 `json:"gps_height_cm"`
	MSLHeightCm  int32 `json:"msl_height_cm"`
}

func (p Position) LatitudeDegrees() float64  { return float64(p.LatitudeMas) / masPerDegree }
func (p Position) LongitudeDegrees() float64 { return float64(p.LongitudeMas) / masPerDegree }
func (p Position) GPSHeightMeters() float64  { return float64(p.GPSHeightCm) / 100 }
func (p Position) MSLHeightMeters() float64  { return float64(p.MSLHeightCm) / 100 }

// Velocity in cm/s and tenths of a degree.
type Velocity struct {
	Speed3DCms         uint16 `json:"speed_3d_cms"`
	Speed2DCms         uint16 `json:"speed_2d_cms"`
	HeadingDecidegrees uint16 `json:"heading_decidegrees"`
}

// Speed3D returns the 3D speed in m/s.
func (v Velocity) Speed3D() float64 { return float64(v.Speed3DCms) / 100 }

// Speed2D returns the horizontal speed in m/s.
func (v Velocity) Speed2D() float64 { return float64(v.Speed2DCms) / 100 }

// Heading returns the 2D heading in degrees.
func (v Velocity) Heading() float64 { return float64(v.HeadingDecidegrees) / 10 }

// ChannelRecord is one tracking channel's report.
type ChannelRecord struct {
	SVID              uint8         `json:"svid"`
	ModeIndex         uint8         `json:"mode_index"`
	SignalStrengthRaw uint8         `json:"signal_strength_raw"`
	IODE              uint8         `json:"iode"`
	Status            ChannelStatus `json:"status"`
}

// ModeName returns the tracking mode. Decode has already range-checked it.
func (c ChannelRecord) ModeName() string {
	s, err := ModeName(int(c.ModeIndex))
	if err != nil {
		return fmt.Sprintf("mode(%d)", c.ModeIndex)
	}
	return s
}

// SignalLevel returns the signal strength as raw/255.
func (c ChannelRecord) SignalLevel() float64 { return float64(c.SignalStrengthRaw) / 255 }

// ChannelStatus is the unpacked 16-bit channel status word.
type ChannelStatus struct {
	AccuracyIndex           uint8 `json:"accuracy_index"`
	Unhealthy               bool  `json:"unhealthy"`
	AntiSpoof               bool  `json:"anti_spoof"`
	MomentumAlert           bool  `json:"momentum_alert"`
	UsedForFix              bool  `json:"used_for_fix"`
	ParityError             bool  `json:"parity_error"`
	InvalidData             bool  `json:"invalid_data"`
	DifferentialCorrections bool  `json:"differential_corrections"`
	UsedForTime             bool  `json:"used_for_time"`
	NarrowBand              bool  `json:"narrow_band"`
}

// Band returns the accuracy band for the channel.
func (s ChannelStatus) Band() Band {
	b, _ := AccuracyBand(int(s.AccuracyIndex))
	return b
}

// CodeLocation tells where the receiver runs its firmware from.
type CodeLocation uint8

const (
	CodeExternal CodeLocation = iota
	CodeInternal
)

func (c CodeLocation) String() string { return enumName(CodeLocationNames[:], int(c)) }

func (c CodeLocation) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *CodeLocation) UnmarshalText(b []byte) error {
	i, err := enumIndex(CodeLocationNames[:], "code_location", string(b))
	*c = CodeLocation(i)
	return err
}

// AntennaSense is the antenna feed state.
type AntennaSense uint8

const (
	AntennaOK AntennaSense = iota
	AntennaOpenCircuit
	AntennaUnderCurrent
	AntennaNoVoltage
)

func (a AntennaSense) String() string { return enumName(AntennaSenseNames[:], int(a)) }

func (a AntennaSense) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AntennaSense) UnmarshalText(b []byte) error {
	i, err := enumIndex(AntennaSenseNames[:], "antenna_sense", string(b))
	*a = AntennaSense(i)
	return err
}

// ReceiverStatus is the unpacked 16-bit receiver status word.
type ReceiverStatus struct {
	CodeLocation        CodeLocation `json:"code_location"`
	AntennaSense        AntennaSense `json:"antenna_sense"`
	InsufficientVisible bool         `json:"insufficient_visible"`
	Autosurvey          bool         `json:"autosurvey"`
	PositionLock        bool         `json:"position_lock"`
	DifferentialFix     bool         `json:"differential_fix"`
	ColdStart           bool         `json:"cold_start"`
	FilterReset         bool         `json:"filter_reset"`
	FastAcquisition     bool         `json:"fast_acquisition"`
	NarrowBand          bool         `json:"narrow_band"`
	StatusPhraseIndex   uint8        `json:"status_phrase_index"`
}

// Phrase returns the status phrase.
func (r ReceiverStatus) Phrase() string {
	s, err := StatusPhrase(int(r.StatusPhraseIndex))
	if err != nil {
		return fmt.Sprintf("status(%d)", r.StatusPhraseIndex)
	}
	return s
}

// Oscillator holds the clock bias, oscillator offset and temperature.
type Oscillator struct {
	BiasNs         uint16 `json:"bias_ns"`
	OffsetRaw      uint32 `json:"offset_raw"`
	TemperatureRaw uint16 `json:"temperature_raw"`
}

// OffsetKHz returns the oscillator offset in kHz.
func (o Oscillator) OffsetKHz() float64 { return float64(o.OffsetRaw) / 1000 }

// TemperatureCelsius returns the receiver temperature in half-degree steps.
func (o Oscillator) TemperatureCelsius() float64 { return float64(o.TemperatureRaw) / 2 }

// UTCParameters is the UTC status.
type UTCParameters struct {
	Mode          bool  `json:"mode"`
	OffsetDecoded bool  `json:"offset_decoded"`
	OffsetValue   uint8 `json:"offset_value"`
}

// GMTSign is the sign of the configured GMT offset.
type GMTSign uint8

const (
	GMTPlus GMTSign = iota
	GMTMinus
)

var gmtSignNames = [...]string{"+", "-"}

func (g GMTSign) String() string { return enumName(gmtSignNames[:], int(g)) }

func (g GMTSign) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *GMTSign) UnmarshalText(b []byte) error {
	i, err := enumIndex(gmtSignNames[:], "gmt_sign", string(b))
	*g = GMTSign(i)
	return err
}

// GMTOffset is the local time offset configured in the receiver.
type GMTOffset struct {
	Sign   GMTSign `json:"sign"`
	Hour   uint8   `json:"hour"`
	Minute uint8   `json:"minute"`
}

func (g GMTOffset) String() string {
	return fmt.Sprintf("%s%02d:%02d", g.Sign, g.Hour, g.Minute)
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("%d", i)
	}
	return names[i]
}

func enumIndex(names []string, field, s string) (int, error) {
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", field, s)
}
