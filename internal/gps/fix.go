// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

// Fix is a position fix flattened for JSON and MQTT.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // e.g. "1994-03-23"
	Latitude   float64 `json:"lat"`         // decimal degrees, south negative
	Longitude  float64 `json:"lon"`         // decimal degrees, west negative
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // track made good
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void)
}
