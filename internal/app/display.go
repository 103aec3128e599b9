// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/oncore_monitor/internal/config"
	"github.com/relabs-tech/oncore_monitor/internal/gps"
	"github.com/relabs-tech/oncore_monitor/internal/logging"
	"github.com/relabs-tech/oncore_monitor/internal/oncore"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13
)

// Display content choices.
const (
	contentPosition = "position"
	contentStatus   = "status"
)

// panel is the part of ssd1306.Dev the display loop draws on.
type panel interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// RunDisplay shows the latest position or receiver status on an SSD1306
// OLED over I2C.
func RunDisplay() error {
	cfg := config.Get()
	if cfg == nil {
		return errNoConfig
	}
	log := logging.For("display")

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	// the driver always talks to 0x3C
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Info().Msg("display initialized at 0x3C")

	if err := show(dev, splashFrame()); err != nil {
		log.Warn().Err(err).Msg("error showing splash")
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	topics := topicsFor(cfg)
	kind := kindPosition
	if cfg.DisplayContent == contentStatus {
		kind = kindSnapshot
	}
	state := &monitorState{}
	if err := subscribeState(client, map[string]string{kind: topics[kind]}, state, log); err != nil {
		return fmt.Errorf("failed to subscribe for display: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.DisplayUpdateInterval)
	defer ticker.Stop()

	log.Info().Str("content", cfg.DisplayContent).Msg("starting update loop")
	for {
		select {
		case <-sigCh:
			log.Info().Msg("shutting down")
			return nil
		case <-ticker.C:
		}
		if err := show(dev, contentFrame(cfg.DisplayContent, state)); err != nil {
			log.Warn().Err(err).Msg("error updating display")
		}
	}
}

func show(p panel, img image.Image) error {
	return p.Draw(p.Bounds(), img, image.Point{})
}

// frameWriter draws text lines onto a blank 128x64 frame.
type frameWriter struct {
	img    *image1bit.VerticalLSB
	drawer *font.Drawer
}

func newFrame() *frameWriter {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	return &frameWriter{
		img: img,
		drawer: &font.Drawer{
			Dst:  img,
			Src:  &image.Uniform{image1bit.On},
			Face: basicfont.Face7x13,
		},
	}
}

func (f *frameWriter) line(x, row int, format string, args ...interface{}) {
	f.drawer.Dot = fixed.P(x, row*lineHeight)
	f.drawer.DrawString(fmt.Sprintf(format, args...))
}

func waitingFrame(title string) *image1bit.VerticalLSB {
	f := newFrame()
	f.line(0, 2, "%s", title)
	f.line(0, 3, "Waiting...")
	return f.img
}

func contentFrame(content string, state *monitorState) *image1bit.VerticalLSB {
	if content == contentStatus {
		v, ok := state.latest(kindSnapshot)
		if !ok {
			return waitingFrame("Receiver Status")
		}
		return statusFrame(v.(oncore.ReceiverSnapshot))
	}
	v, ok := state.latest(kindPosition)
	if !ok {
		return waitingFrame("GPS Position")
	}
	return positionFrame(v.(gps.Fix))
}

func positionFrame(pos gps.Fix) *image1bit.VerticalLSB {
	f := newFrame()

	latDir := "N"
	lat := pos.Latitude
	if lat < 0 {
		latDir = "S"
		lat = -lat
	}
	f.line(0, 1, "%.4f%s", lat, latDir)

	lonDir := "E"
	lon := pos.Longitude
	if lon < 0 {
		lonDir = "W"
		lon = -lon
	}
	f.line(0, 2, "%.4f%s", lon, lonDir)

	if pos.Validity == "A" {
		f.line(0, 3, "%.1fkn %.0fdeg", pos.SpeedKnots, pos.CourseDeg)
		f.line(0, 4, "UTC %s", pos.Time)
	} else {
		f.line(0, 3, "No fix")
	}
	return f.img
}

func statusFrame(s oncore.ReceiverSnapshot) *image1bit.VerticalLSB {
	f := newFrame()
	f.line(0, 1, "%s", s.ReceiverStatus.Phrase())
	f.line(0, 2, "Sats %d vis %d trk", s.SatellitesVisible, s.SatellitesTracked)
	f.line(0, 3, "DOP %.1f Ant %s", s.DOP(), s.ReceiverStatus.AntennaSense)
	f.line(0, 4, "%02d:%02d:%02d %s", s.Time.Hour, s.Time.Minute, s.Time.Second, s.GMTOffset)
	return f.img
}

func splashFrame() *image1bit.VerticalLSB {
	f := newFrame()
	f.drawer.Dot = fixed.P(10, 26)
	f.drawer.DrawString("Oncore GPS")
	f.drawer.Dot = fixed.P(5, 43)
	f.drawer.DrawString("Looking for")
	f.drawer.Dot = fixed.P(25, 56)
	f.drawer.DrawString("sats")
	return f.img
}
