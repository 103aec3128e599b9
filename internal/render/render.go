// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package render prints decoded receiver data as console text.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/relabs-tech/oncore_monitor/internal/oncore"
	"github.com/relabs-tech/oncore_monitor/internal/rmc"
)

const unknown = "??"

// printer remembers the first write error so the render functions can
// print unconditionally.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) f(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func meters(v float64) string {
	if math.IsInf(v, 1) {
		return "∞"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func position(p *printer, title string, pos oncore.Position) {
	p.f("%s\n", title)
	p.f("lat:%.6f° lon:%.6f° GPS height:%.2fm MSL height:%.2fm\n",
		pos.LatitudeDegrees(), pos.LongitudeDegrees(), pos.GPSHeightMeters(), pos.MSLHeightMeters())
}

// Snapshot prints every section of an @@Ha status message.
func Snapshot(w io.Writer, s oncore.ReceiverSnapshot) error {
	p := &printer{w: w}

	p.f("Date\n%02d/%02d/%d\n", s.Date.Month, s.Date.Day, s.Date.Year)
	p.f("Time\n%d:%02d:%02d.%09d\n", s.Time.Hour, s.Time.Minute, s.Time.Second, s.Time.Nanosecond)

	position(p, "Position (Filtered or Unfiltered following Filter Select)", s.FilteredPosition)
	position(p, "Position (Always Unfiltered)", s.UnfilteredPosition)

	p.f("Speed/Heading\n3D speed:%.2fm/s 2D speed:%.2fm/s 2D heading:%.1f°\n",
		s.Velocity.Speed3D(), s.Velocity.Speed2D(), s.Velocity.Heading())
	p.f("Geometry\n%.1f DOP\n", s.DOP())
	p.f("Satellite Data\nvisible:%d tracked:%d\n", s.SatellitesVisible, s.SatellitesTracked)

	p.f("Channel Data\n")
	for i, ch := range s.Channels {
		band := ch.Status.Band()
		st := ch.Status
		p.f("Channel %d:\n", i)
		p.f("SVID:%d mode:%q signal strength:%.1f%% IODE:%d ",
			ch.SVID, ch.ModeName(), ch.SignalLevel()*100, ch.IODE)
		p.f("accuracy:%sm - %sm ", meters(band.Low), meters(band.High))
		p.f("unhealthy:%t anti-spoof flag:%t momentum alert:%t used for position fix:%t ",
			st.Unhealthy, st.AntiSpoof, st.MomentumAlert, st.UsedForFix)
		p.f("parity error:%t invalid data:%t differential corrections available:%t ",
			st.ParityError, st.InvalidData, st.DifferentialCorrections)
		p.f("used for time solution:%t narrow-band search mode:%t\n", st.UsedForTime, st.NarrowBand)
	}

	rs := s.ReceiverStatus
	p.f("Receiver Status\n")
	p.f("Code location:%s\n", rs.CodeLocation)
	p.f("Antenna sense:%s\n", rs.AntennaSense)
	p.f("Insufficient Visible Satellites:%t\n", rs.InsufficientVisible)
	p.f("Autosurvey Mode:%t\n", rs.Autosurvey)
	p.f("Position Lock:%t\n", rs.PositionLock)
	p.f("Differential Fix:%t\n", rs.DifferentialFix)
	p.f("Cold Start:%t\n", rs.ColdStart)
	p.f("Filter Reset To Raw GPS Solution:%t\n", rs.FilterReset)
	p.f("Fast Acquisition Position:%t\n", rs.FastAcquisition)
	p.f("Narrow band tracking mode:%t\n", rs.NarrowBand)
	p.f("Status:%s\n", rs.Phrase())

	p.f("Oscillator and Clock Parameters\nBias:%dns offset:%.3fkHz temperature:%.1f°C\n",
		s.Oscillator.BiasNs, s.Oscillator.OffsetKHz(), s.Oscillator.TemperatureCelsius())

	p.f("UTC Parameters\nUTC mode:%s UTC offset:%s UTC offset value:%d\n",
		oncore.UTCModeLabel(s.UTC.Mode), oncore.UTCOffsetLabel(s.UTC.OffsetDecoded), s.UTC.OffsetValue)
	p.f("GMT Offset\n%s\n", s.GMTOffset)
	p.f("ID tag:%s\n", s.IDTag)
	return p.err
}

// Fix prints an RMC fix. Fields the receiver only reports with a valid fix
// print as "??" otherwise.
func Fix(w io.Writer, f rmc.PositionFix) error {
	p := &printer{w: w}

	p.f("Status\n")
	if f.Valid {
		p.f("valid\n")
	} else {
		p.f("invalid\n")
	}

	p.f("Time\n")
	if f.Time != nil {
		p.f("%02d:%02d:%02d.%03d\n", f.Time.Hour, f.Time.Minute, f.Time.Second, f.Time.Millis)
	} else {
		p.f("%[1]s:%[1]s:%[1]s.%[1]s\n", unknown)
	}

	p.f("Latitude\n%02d° %s' %s\n", f.Latitude.Degrees, minutes(f.Latitude.Minutes), f.Latitude.Direction)
	p.f("Longitude\n%03d° %s' %s\n", f.Longitude.Degrees, minutes(f.Longitude.Minutes), f.Longitude.Direction)

	p.f("Speed over ground\n%s kts\n", optional(f.SpeedKnots, 1))
	p.f("Track made good\n%s°\n", optional(f.TrackDegrees, 1))

	p.f("UTC date of position fix\n")
	if f.FixDate != nil {
		p.f("%02d. %02d. '%02d\n", f.FixDate.Day, f.FixDate.Month, f.FixDate.Year)
	} else {
		p.f("%[1]s. %[1]s. '%[1]s\n", unknown)
	}

	p.f("Magnetic variation\n")
	if v := f.MagneticVariation; v != nil {
		p.f("%.1f° %s\n", v.Degrees, v.Sense)
	} else {
		p.f("%[1]s° %[1]s\n", unknown)
	}
	return p.err
}

// ReceiverID prints the @@Cj identification text.
func ReceiverID(w io.Writer, id string) error {
	_, err := fmt.Fprintf(w, "Receiver ID\n%s\n", id)
	return err
}

func minutes(m float64) string {
	return strconv.FormatFloat(m, 'f', 3, 64)
}

func optional(v *float64, prec int) string {
	if v == nil {
		return unknown
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
