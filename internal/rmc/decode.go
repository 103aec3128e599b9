// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package rmc

import (
	"fmt"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/oncore_monitor/internal/gps"
)

// RMC field positions:
//
//	0: talker+type ($GPRMC)
//	1: time (hhmmss.sss)
//	2: status (A=valid, V=void)
//	3: latitude (ddmm.mmmm)
//	4: N/S
//	5: longitude (dddmm.mmmm)
//	6: E/W
//	7: speed over ground (knots)
//	8: track made good (degrees)
//	9: date (ddmmyy)
//	10: magnetic variation (degrees)
//	11: E/W
const (
	fieldType = iota
	fieldTime
	fieldStatus
	fieldLatitude
	fieldLatDir
	fieldLongitude
	fieldLonDir
	fieldSpeed
	fieldTrack
	fieldDate
	fieldVariation
	fieldVariationSense

	fieldCount
)

const (
	latDegreeDigits = 2
	lonDegreeDigits = 3
)

type options struct {
	strictChecksum bool
}

// Option configures Decode.
type Option func(*options)

// WithStrictChecksum makes Decode reject sentences whose trailing *hh is
// missing or wrong, and sentences that are not RMC.
func WithStrictChecksum() Option {
	return func(o *options) { o.strictChecksum = true }
}

// Decode parses one RMC sentence. The trailing *hh checksum is stripped but
// not checked unless WithStrictChecksum is given.
func Decode(sentence string, opts ...Option) (PositionFix, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	line := strings.TrimSpace(sentence)
	if o.strictChecksum {
		if err := verifyChecksum(line); err != nil {
			return PositionFix{}, err
		}
	}
	if star := strings.LastIndex(line, nmea.ChecksumSep); star >= 0 {
		line = line[:star]
	}

	f := strings.Split(line, nmea.FieldSep)
	if len(f) < fieldCount {
		return PositionFix{}, gps.Malformed("fields", fmt.Sprintf("need %d, got %d", fieldCount, len(f)))
	}
	if o.strictChecksum && !strings.HasSuffix(f[fieldType], nmea.TypeRMC) {
		return PositionFix{}, gps.Malformed("type", fmt.Sprintf("%q is not RMC", f[fieldType]))
	}

	var fix PositionFix
	fix.Valid = strings.TrimSpace(f[fieldStatus]) == "A"

	var err error
	if fix.Latitude, err = parseLatitude(f[fieldLatitude], f[fieldLatDir], fix.Valid); err != nil {
		return PositionFix{}, err
	}
	if fix.Longitude, err = parseLongitude(f[fieldLongitude], f[fieldLonDir], fix.Valid); err != nil {
		return PositionFix{}, err
	}

	// A void sentence may still carry stale text in these fields; ignore it.
	if !fix.Valid {
		return fix, nil
	}

	if fix.Time, err = parseTime(f[fieldTime]); err != nil {
		return PositionFix{}, err
	}
	if fix.SpeedKnots, err = optionalFloat("speed", f[fieldSpeed]); err != nil {
		return PositionFix{}, err
	}
	if fix.TrackDegrees, err = optionalFloat("track", f[fieldTrack]); err != nil {
		return PositionFix{}, err
	}
	if fix.FixDate, err = parseDate(f[fieldDate]); err != nil {
		return PositionFix{}, err
	}
	variation, err := optionalFloat("variation", f[fieldVariation])
	if err != nil {
		return PositionFix{}, err
	}
	if variation != nil {
		fix.MagneticVariation = &Variation{Degrees: *variation, Sense: hemisphere(f[fieldVariationSense])}
	}
	return fix, nil
}

func verifyChecksum(line string) error {
	if !strings.HasPrefix(line, nmea.SentenceStart) {
		return gps.ChecksumMismatch("sentence does not start with $")
	}
	star := strings.LastIndex(line, nmea.ChecksumSep)
	if star < 0 || len(line) < star+3 {
		return gps.ChecksumMismatch("no checksum")
	}
	want := line[star+1 : star+3]
	got := nmea.Checksum(line[len(nmea.SentenceStart):star])
	if !strings.EqualFold(got, want) {
		return gps.ChecksumMismatch(fmt.Sprintf("got %s, sentence says %s", got, want))
	}
	return nil
}

func parseLatitude(v, dir string, valid bool) (Latitude, error) {
	deg, mins, ok, err := splitCoordinate("latitude", v, latDegreeDigits, valid)
	if err != nil || !ok {
		return Latitude{}, err
	}
	return Latitude{Degrees: uint8(deg), Minutes: mins, Direction: hemisphere(dir)}, nil
}

func parseLongitude(v, dir string, valid bool) (Longitude, error) {
	deg, mins, ok, err := splitCoordinate("longitude", v, lonDegreeDigits, valid)
	if err != nil || !ok {
		return Longitude{}, err
	}
	return Longitude{Degrees: uint16(deg), Minutes: mins, Direction: hemisphere(dir)}, nil
}

// splitCoordinate cuts a coordinate at a fixed number of degree digits.
// ok is false for an empty field in a void sentence.
func splitCoordinate(field, v string, degDigits int, valid bool) (deg uint64, mins float64, ok bool, err error) {
	v = strings.TrimSpace(v)
	if v == "" {
		if valid {
			return 0, 0, false, gps.Malformed(field, "missing")
		}
		return 0, 0, false, nil
	}
	if len(v) <= degDigits {
		return 0, 0, false, gps.Malformed(field, fmt.Sprintf("%q too short", v))
	}
	bits := 8
	if degDigits == lonDegreeDigits {
		bits = 16
	}
	if !isDigits(v[:degDigits]) {
		return 0, 0, false, gps.Malformed(field, fmt.Sprintf("degrees %q", v[:degDigits]))
	}
	deg, err = strconv.ParseUint(v[:degDigits], 10, bits)
	if err != nil {
		return 0, 0, false, gps.Malformed(field, fmt.Sprintf("degrees %q", v[:degDigits]))
	}
	if !isDecimal(v[degDigits:]) {
		return 0, 0, false, gps.Malformed(field, fmt.Sprintf("minutes %q", v[degDigits:]))
	}
	mins, err = strconv.ParseFloat(v[degDigits:], 64)
	if err != nil {
		return 0, 0, false, gps.Malformed(field, fmt.Sprintf("minutes %q", v[degDigits:]))
	}
	return deg, mins, true, nil
}

func parseTime(v string) (*ClockTime, error) {
	v = strings.TrimSpace(v)
	if len(v) < 6 {
		return nil, gps.Malformed("time", fmt.Sprintf("%q too short", v))
	}
	hms, err := twoDigitFields("time", v[:6])
	if err != nil {
		return nil, err
	}
	t := &ClockTime{Hour: hms[0], Minute: hms[1], Second: hms[2]}
	if len(v) > 6 && (v[6] != '.' || (len(v) > 7 && !isDigits(v[7:]))) {
		return nil, gps.Malformed("time", fmt.Sprintf("%q", v))
	}
	if len(v) > 7 {
		frac := v[7:]
		if len(frac) > 3 {
			frac = frac[:3]
		}
		frac += strings.Repeat("0", 3-len(frac))
		ms, err := strconv.Atoi(frac)
		if err != nil {
			return nil, gps.Malformed("time", fmt.Sprintf("fraction %q", v[7:]))
		}
		t.Millis = ms
	}
	return t, nil
}

func parseDate(v string) (*FixDate, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if len(v) < 6 {
		return nil, gps.Malformed("date", fmt.Sprintf("%q too short", v))
	}
	dmy, err := twoDigitFields("date", v[:6])
	if err != nil {
		return nil, err
	}
	return &FixDate{Day: dmy[0], Month: dmy[1], Year: dmy[2]}, nil
}

func twoDigitFields(field, v string) ([3]int, error) {
	var out [3]int
	if !isDigits(v) {
		return out, gps.Malformed(field, fmt.Sprintf("%q", v))
	}
	for i := range out {
		n, err := strconv.Atoi(v[2*i : 2*i+2])
		if err != nil {
			return out, gps.Malformed(field, fmt.Sprintf("%q", v))
		}
		out[i] = n
	}
	return out, nil
}

func optionalFloat(field, v string) (*float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if !isDecimal(v) {
		return nil, gps.Malformed(field, fmt.Sprintf("%q", v))
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, gps.Malformed(field, fmt.Sprintf("%q", v))
	}
	return &x, nil
}

// isDigits reports whether s is non-empty and all ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isDecimal accepts unsigned fixed-point text: digits with at most one dot.
// strconv.ParseFloat alone would also take signs, exponents, NaN and Inf.
func isDecimal(s string) bool {
	whole, frac, dot := strings.Cut(s, ".")
	if !dot {
		return isDigits(whole)
	}
	if whole == "" && frac == "" {
		return false
	}
	return (whole == "" || isDigits(whole)) && (frac == "" || isDigits(frac))
}

func hemisphere(s string) Hemisphere {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	return Hemisphere(s[0])
}

// Extract returns the first RMC sentence in a multi-line receive buffer.
// When no line carries an RMC type it falls back to the first non-empty line.
func Extract(buf string) (string, bool) {
	var first string
	for _, line := range strings.Split(buf, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if first == "" {
			first = line
		}
		typ := line
		if i := strings.Index(line, nmea.FieldSep); i >= 0 {
			typ = line[:i]
		}
		if strings.HasSuffix(typ, nmea.TypeRMC) {
			return line, true
		}
	}
	return first, first != ""
}
