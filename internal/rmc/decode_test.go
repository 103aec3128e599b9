// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package rmc

import (
	"encoding/json"
	"errors"
	"testing"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/oncore_monitor/internal/gps"
)

const munich = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"

func withChecksum(body string) string {
	return "$" + body + "*" + nmea.Checksum(body)
}

func TestDecodeValid(t *testing.T) {
	fix, err := Decode(munich)
	require.NoError(t, err)

	assert.True(t, fix.Valid)
	require.NotNil(t, fix.Time)
	assert.Equal(t, ClockTime{Hour: 12, Minute: 35, Second: 19}, *fix.Time)
	assert.Equal(t, Latitude{Degrees: 48, Minutes: 7.038, Direction: 'N'}, fix.Latitude)
	assert.Equal(t, Longitude{Degrees: 11, Minutes: 31.0, Direction: 'E'}, fix.Longitude)
	require.NotNil(t, fix.SpeedKnots)
	assert.Equal(t, 22.4, *fix.SpeedKnots)
	require.NotNil(t, fix.TrackDegrees)
	assert.Equal(t, 84.4, *fix.TrackDegrees)
	require.NotNil(t, fix.FixDate)
	assert.Equal(t, FixDate{Day: 23, Month: 3, Year: 94}, *fix.FixDate)
	assert.Equal(t, 1994, fix.FixDate.FullYear())
	require.NotNil(t, fix.MagneticVariation)
	assert.Equal(t, Variation{Degrees: 3.1, Sense: 'W'}, *fix.MagneticVariation)
}

func TestDecodeVoidLeavesConditionalFieldsEmpty(t *testing.T) {
	fix, err := Decode("$GPRMC,123519,V,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	require.NoError(t, err)

	assert.False(t, fix.Valid)
	assert.Nil(t, fix.Time)
	assert.Nil(t, fix.SpeedKnots)
	assert.Nil(t, fix.TrackDegrees)
	assert.Nil(t, fix.FixDate)
	assert.Nil(t, fix.MagneticVariation)
	assert.Equal(t, uint8(48), fix.Latitude.Degrees)
}

func TestDecodeVoidWithEmptyFields(t *testing.T) {
	fix, err := Decode("$GPRMC,,V,,,,,,,,,,N*53\r\n")
	require.NoError(t, err)
	assert.False(t, fix.Valid)
	assert.Equal(t, Latitude{}, fix.Latitude)
	assert.Equal(t, Longitude{}, fix.Longitude)
}

func TestDecodeStripsChecksumWithoutChecking(t *testing.T) {
	fix, err := Decode(munich + "*00\r\n")
	require.NoError(t, err)
	require.NotNil(t, fix.MagneticVariation)
	assert.Equal(t, Hemisphere('W'), fix.MagneticVariation.Sense)
}

func TestDecodeFractionalSeconds(t *testing.T) {
	fix, err := Decode("$GPRMC,081836.75,A,3751.65,S,14507.36,E,000.0,360.0,130998,011.3,E")
	require.NoError(t, err)
	assert.Equal(t, ClockTime{Hour: 8, Minute: 18, Second: 36, Millis: 750}, *fix.Time)
	assert.InDelta(t, -(37 + 51.65/60), fix.Latitude.Decimal(), 1e-9)
	assert.InDelta(t, 145+7.36/60, fix.Longitude.Decimal(), 1e-9)
}

func TestDecodeOptionalFieldsEmptyWhenValid(t *testing.T) {
	fix, err := Decode("$GPRMC,123519,A,4807.038,N,01131.000,E,,,230394,,")
	require.NoError(t, err)
	assert.Nil(t, fix.SpeedKnots)
	assert.Nil(t, fix.TrackDegrees)
	assert.Nil(t, fix.MagneticVariation)
	assert.NotNil(t, fix.FixDate)
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"too few fields":    "$GPRMC,123519,A,4807.038,N",
		"empty":             "",
		"bad latitude":      "$GPRMC,123519,A,48x7.038,N,01131.000,E,022.4,084.4,230394,003.1,W",
		"missing longitude": "$GPRMC,123519,A,4807.038,N,,E,022.4,084.4,230394,003.1,W",
		"bad speed":         "$GPRMC,123519,A,4807.038,N,01131.000,E,fast,084.4,230394,003.1,W",
		"short time":        "$GPRMC,1235,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W",
		"NaN minutes":       "$GPRMC,123519,A,48NaN,N,01131.000,E,022.4,084.4,230394,003.1,W",
		"Inf minutes":       "$GPRMC,123519,A,4807.038,N,011Inf,E,022.4,084.4,230394,003.1,W",
		"NaN speed":         "$GPRMC,123519,A,4807.038,N,01131.000,E,NaN,084.4,230394,003.1,W",
		"signed track":      "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,-84.4,230394,003.1,W",
		"exponent":          "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,3e1,W",
		"signed degrees":    "$GPRMC,123519,A,+807.038,N,01131.000,E,022.4,084.4,230394,003.1,W",
		"signed time":       "$GPRMC,-1-1-1,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W",
		"signed date":       "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,+1+1+1,003.1,W",
		"bad fraction":      "$GPRMC,123519.-5,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W",
		"time suffix":       "$GPRMC,123519Z,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W",
	}
	for name, s := range cases {
		_, err := Decode(s)
		assert.True(t, errors.Is(err, gps.ErrMalformedSentence), "%s: %v", name, err)
	}
}

func TestDecodeStrictChecksum(t *testing.T) {
	good := withChecksum(munich[1:])
	_, err := Decode(good, WithStrictChecksum())
	require.NoError(t, err)

	_, err = Decode(munich+"*00", WithStrictChecksum())
	assert.True(t, errors.Is(err, gps.ErrChecksum))

	_, err = Decode(munich, WithStrictChecksum())
	assert.True(t, errors.Is(err, gps.ErrChecksum))

	gga := withChecksum("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	_, err = Decode(gga, WithStrictChecksum())
	assert.True(t, errors.Is(err, gps.ErrMalformedSentence))
}

func TestFixFlattening(t *testing.T) {
	fix, err := Decode(munich)
	require.NoError(t, err)
	f := fix.Fix()
	assert.Equal(t, "A", f.Validity)
	assert.Equal(t, "12:35:19", f.Time)
	assert.Equal(t, "1994-03-23", f.Date)
	assert.InDelta(t, 48.1173, f.Latitude, 1e-9)
	assert.InDelta(t, 11.516666, f.Longitude, 1e-6)
	assert.Equal(t, 22.4, f.SpeedKnots)
	assert.Equal(t, 84.4, f.CourseDeg)

	void, err := Decode("$GPRMC,,V,,,,,,,,,,N")
	require.NoError(t, err)
	assert.Equal(t, "V", void.Fix().Validity)
	assert.Empty(t, void.Fix().Time)
}

func TestExtract(t *testing.T) {
	buf := "$PMOTG,RMC,0000\r\n$GPGGA,1,2,3\r\n" + munich + "*6A\r\n"
	line, ok := Extract(buf)
	require.True(t, ok)
	assert.Equal(t, munich+"*6A", line)

	line, ok = Extract("\r\n$GPGGA,1,2\r\n")
	assert.True(t, ok)
	assert.Equal(t, "$GPGGA,1,2", line)

	_, ok = Extract("\r\n \r\n")
	assert.False(t, ok)
}

func TestFixJSONUsesLetters(t *testing.T) {
	fix, err := Decode(munich)
	require.NoError(t, err)

	b, err := json.Marshal(fix)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"latitude":{"degrees":48,"minutes":7.038,"direction":"N"}`)
	assert.Contains(t, string(b), `"direction":"E"`)
	assert.Contains(t, string(b), `"sense":"W"`)

	var back PositionFix
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, fix, back)

	void, err := Decode("$GPRMC,,V,,,,,,,,,,N")
	require.NoError(t, err)
	b, err = json.Marshal(void)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"direction":""`)

	var h Hemisphere
	assert.Error(t, json.Unmarshal([]byte(`"NW"`), &h))
}
