// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package history stores decoded receiver data in InfluxDB.
package history

import (
	"context"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/pkg/errors"

	"github.com/relabs-tech/oncore_monitor/internal/oncore"
	"github.com/relabs-tech/oncore_monitor/internal/rmc"
)

// Measurement names.
const (
	MeasurementSnapshot = "oncore_snapshot"
	MeasurementChannel  = "oncore_channel"
	MeasurementFix      = "rmc_fix"
)

// Config is the InfluxDB connection. An empty URL disables history.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Enabled reports whether a server is configured.
func (c Config) Enabled() bool { return c.URL != "" }

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Influx writes snapshots and fixes as points.
type Influx struct {
	client influxdb2.Client
	writer pointWriter
}

// NewInflux creates a client with a blocking write API.
func NewInflux(cfg Config) *Influx {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

// Close releases the HTTP client.
func (i *Influx) Close() {
	if i.client != nil {
		i.client.Close()
	}
}

// WriteSnapshot writes one summary point and one point per channel.
func (i *Influx) WriteSnapshot(ctx context.Context, runID string, at time.Time, s oncore.ReceiverSnapshot) error {
	points := SnapshotPoints(runID, at, s)
	if err := i.writer.WritePoint(ctx, points...); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	return nil
}

// WriteFix writes one RMC fix.
func (i *Influx) WriteFix(ctx context.Context, runID string, at time.Time, f rmc.PositionFix) error {
	if err := i.writer.WritePoint(ctx, FixPoint(runID, at, f)); err != nil {
		return errors.Wrap(err, "write fix")
	}
	return nil
}

// SnapshotPoints builds the points for one status message.
func SnapshotPoints(runID string, at time.Time, s oncore.ReceiverSnapshot) []*write.Point {
	rs := s.ReceiverStatus
	points := make([]*write.Point, 0, 1+oncore.ChannelCount)
	points = append(points, influxdb2.NewPoint(MeasurementSnapshot,
		map[string]string{
			"run":    runID,
			"id_tag": s.IDTag,
		},
		map[string]interface{}{
			"lat":               s.FilteredPosition.LatitudeDegrees(),
			"lon":               s.FilteredPosition.LongitudeDegrees(),
			"gps_height_m":      s.FilteredPosition.GPSHeightMeters(),
			"msl_height_m":      s.FilteredPosition.MSLHeightMeters(),
			"speed_3d":          s.Velocity.Speed3D(),
			"speed_2d":          s.Velocity.Speed2D(),
			"heading":           s.Velocity.Heading(),
			"dop":               s.DOP(),
			"visible":           int64(s.SatellitesVisible),
			"tracked":           int64(s.SatellitesTracked),
			"status":            rs.Phrase(),
			"antenna":           rs.AntennaSense.String(),
			"position_lock":     rs.PositionLock,
			"osc_bias_ns":       int64(s.Oscillator.BiasNs),
			"osc_offset_khz":    s.Oscillator.OffsetKHz(),
			"osc_temperature_c": s.Oscillator.TemperatureCelsius(),
			"utc_offset":        int64(s.UTC.OffsetValue),
		},
		at))

	for i, ch := range s.Channels {
		points = append(points, influxdb2.NewPoint(MeasurementChannel,
			map[string]string{
				"run":     runID,
				"channel": strconv.Itoa(i),
				"svid":    strconv.Itoa(int(ch.SVID)),
			},
			map[string]interface{}{
				"mode":           ch.ModeName(),
				"signal":         ch.SignalLevel(),
				"iode":           int64(ch.IODE),
				"accuracy_index": int64(ch.Status.AccuracyIndex),
				"used_for_fix":   ch.Status.UsedForFix,
				"used_for_time":  ch.Status.UsedForTime,
				"unhealthy":      ch.Status.Unhealthy,
			},
			at))
	}
	return points
}

// FixPoint builds the point for one RMC fix. Absent fields are left out.
func FixPoint(runID string, at time.Time, f rmc.PositionFix) *write.Point {
	fields := map[string]interface{}{
		"valid": f.Valid,
		"lat":   f.Latitude.Decimal(),
		"lon":   f.Longitude.Decimal(),
	}
	if f.SpeedKnots != nil {
		fields["speed_knots"] = *f.SpeedKnots
	}
	if f.TrackDegrees != nil {
		fields["track_deg"] = *f.TrackDegrees
	}
	if f.MagneticVariation != nil {
		v := f.MagneticVariation.Degrees
		if f.MagneticVariation.Sense == 'W' {
			v = -v
		}
		fields["mag_variation"] = v
	}
	return influxdb2.NewPoint(MeasurementFix, map[string]string{"run": runID}, fields, at)
}
