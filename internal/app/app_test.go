// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/oncore_monitor/internal/config"
	"github.com/relabs-tech/oncore_monitor/internal/gps"
	"github.com/relabs-tech/oncore_monitor/internal/oncore"
	"github.com/relabs-tech/oncore_monitor/internal/receiver"
	"github.com/relabs-tech/oncore_monitor/internal/rmc"
)

const munich = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"

func sampleReport(t *testing.T) receiver.Report {
	t.Helper()
	snap, err := oncore.Decode(make([]byte, oncore.BodyLen))
	require.NoError(t, err)
	snap.SatellitesTracked = 4
	fix, err := rmc.Decode(munich)
	require.NoError(t, err)
	return receiver.Report{
		At:         time.Date(2024, 3, 23, 12, 35, 19, 0, time.UTC),
		Snapshot:   &snap,
		Fix:        &fix,
		ReceiverID: "MOTOROLA ONCORE",
	}
}

// ---- fake MQTT publisher ----

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type fakePublisher struct {
	published map[string][]byte
	failTopic string
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	if topic == p.failTopic {
		return doneToken{err: errors.New("not connected")}
	}
	p.published[topic] = payload.([]byte)
	return doneToken{}
}

type fakeStore struct {
	snapshots, fixes int
	runID            string
}

func (s *fakeStore) WriteSnapshot(_ context.Context, runID string, _ time.Time, _ oncore.ReceiverSnapshot) error {
	s.snapshots++
	s.runID = runID
	return nil
}

func (s *fakeStore) WriteFix(context.Context, string, time.Time, rmc.PositionFix) error {
	s.fixes++
	return nil
}

func testTopics() map[string]string {
	return topicsFor(&config.Config{
		TopicSnapshot:   "oncore/snapshot",
		TopicFix:        "oncore/fix",
		TopicPosition:   "oncore/position",
		TopicReceiverID: "oncore/receiver_id",
	})
}

func TestProducerPublishesEveryPart(t *testing.T) {
	pub := &fakePublisher{published: map[string][]byte{}}
	store := &fakeStore{}
	p := &producer{pub: pub, topics: testTopics(), store: store, runID: "run-1", log: zerolog.Nop()}

	require.NoError(t, p.publish(context.Background(), sampleReport(t)))
	assert.Len(t, pub.published, 4)
	assert.Equal(t, 1, store.snapshots)
	assert.Equal(t, 1, store.fixes)
	assert.Equal(t, "run-1", store.runID)

	var pos gps.Fix
	require.NoError(t, json.Unmarshal(pub.published["oncore/position"], &pos))
	assert.Equal(t, "A", pos.Validity)
	assert.InDelta(t, 48.1173, pos.Latitude, 1e-9)

	var id gps.Identity
	require.NoError(t, json.Unmarshal(pub.published["oncore/receiver_id"], &id))
	assert.Equal(t, gps.Identity{Run: "run-1", ReceiverID: "MOTOROLA ONCORE", At: sampleReport(t).At}, id)
}

func TestProducerSkipsMissingParts(t *testing.T) {
	pub := &fakePublisher{published: map[string][]byte{}, failTopic: "oncore/fix"}
	p := &producer{pub: pub, topics: testTopics(), runID: "run-1", log: zerolog.Nop()}

	r := sampleReport(t)
	r.Snapshot = nil
	r.ReceiverID = ""
	err := p.publish(context.Background(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oncore/fix")
	assert.Contains(t, pub.published, "oncore/position")
	assert.NotContains(t, pub.published, "oncore/snapshot")
	assert.NotContains(t, pub.published, "oncore/receiver_id")
}

func TestStateRoundTripsPublishedPayloads(t *testing.T) {
	pub := &fakePublisher{published: map[string][]byte{}}
	p := &producer{pub: pub, topics: testTopics(), runID: "run-1", log: zerolog.Nop()}
	r := sampleReport(t)
	require.NoError(t, p.publish(context.Background(), r))

	var seen []string
	state := &monitorState{onUpdate: func(kind string, _ interface{}) { seen = append(seen, kind) }}
	for kind, topic := range testTopics() {
		require.NoError(t, state.apply(kind, pub.published[topic]), kind)
	}
	assert.ElementsMatch(t, []string{kindSnapshot, kindFix, kindPosition, kindReceiverID}, seen)

	v, ok := state.latest(kindSnapshot)
	require.True(t, ok)
	assert.Equal(t, *r.Snapshot, v.(oncore.ReceiverSnapshot))

	v, ok = state.latest(kindFix)
	require.True(t, ok)
	assert.Equal(t, *r.Fix, v.(rmc.PositionFix))

	assert.Error(t, state.apply(kindFix, []byte("{")))
	assert.Error(t, state.apply("weather", []byte("{}")))
}

func TestPrintReport(t *testing.T) {
	r := sampleReport(t)
	r.Fix = nil
	r.PositionErr = errors.New("switch to NMEA: timeout")

	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, r))
	out := buf.String()
	assert.Contains(t, out, "== Receiver status ==")
	assert.Contains(t, out, "visible:0 tracked:4")
	assert.Contains(t, out, "unavailable: switch to NMEA: timeout")
	assert.Contains(t, out, "MOTOROLA ONCORE")
}

func TestPrintUpdate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUpdate(&buf, kindPosition, gps.Fix{Time: "12:35:19", Validity: "A"}))
	assert.Contains(t, buf.String(), "[GPS ]  time=12:35:19")
	assert.Error(t, printUpdate(&buf, "weather", 3))
}

func TestSessionOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		GPSBinaryBaudRate:     9600,
		GPSNMEABaudRate:       4800,
		GPSCommandDelay:       time.Second,
		GPSModeSwitchDelay:    10 * time.Second,
		GPSRawCommandChecksum: true,
		NMEAStrictChecksum:    true,
	}
	want := receiver.DefaultOptions()
	want.RawCommandChecksum = true
	want.StrictNMEAChecksum = true
	assert.Equal(t, want, sessionOptions(cfg))
	assert.False(t, influxConfig(cfg).Enabled())
}

// ---- web ----

func TestWebAPI(t *testing.T) {
	h := newHub(zerolog.Nop())
	state := &monitorState{onUpdate: h.broadcast}
	srv := httptest.NewServer(newWebMux(state, h, "", zerolog.Nop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/position")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	require.NoError(t, state.apply(kindPosition, []byte(`{"lat":48.1173,"lon":11.5167,"validity":"A"}`)))
	resp, err = http.Get(srv.URL + "/api/position")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var got gps.Fix
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 48.1173, got.Latitude)
}

func TestWebSocketStream(t *testing.T) {
	h := newHub(zerolog.Nop())
	state := &monitorState{onUpdate: h.broadcast}
	srv := httptest.NewServer(newWebMux(state, h, "", zerolog.Nop()))
	defer srv.Close()

	require.NoError(t, state.apply(kindPosition, []byte(`{"lat":1,"validity":"V"}`)))

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, kindPosition, msg.Type)

	require.NoError(t, state.apply(kindReceiverID, []byte(`{"run":"r","receiver_id":"ONCORE"}`)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, kindReceiverID, msg.Type)
	var id gps.Identity
	require.NoError(t, json.Unmarshal(msg.Data, &id))
	assert.Equal(t, "ONCORE", id.ReceiverID)
}

func TestWebServesStaticPage(t *testing.T) {
	h := newHub(zerolog.Nop())
	srv := httptest.NewServer(newWebMux(&monitorState{}, h, filepath.Join("..", "..", staticDir), zerolog.Nop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"/ws"`)
}

// ---- display ----

func lit(img *image1bit.VerticalLSB) int {
	n := 0
	for _, b := range img.Pix {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}

type recordingPanel struct{ frames int }

func (p *recordingPanel) Bounds() image.Rectangle { return image.Rect(0, 0, displayWidth, displayHeight) }
func (p *recordingPanel) Draw(image.Rectangle, image.Image, image.Point) error {
	p.frames++
	return nil
}

func TestDisplayFrames(t *testing.T) {
	state := &monitorState{}

	waiting := contentFrame(contentPosition, state)
	assert.Greater(t, lit(waiting), 0)

	require.NoError(t, state.apply(kindPosition, []byte(`{"lat":-34,"lon":-75,"validity":"A","time":"12:35:19"}`)))
	pos := contentFrame(contentPosition, state)
	assert.Greater(t, lit(pos), 0)
	assert.NotEqual(t, waiting.Pix, pos.Pix)

	status := contentFrame(contentStatus, state)
	assert.Equal(t, waitingFrame("Receiver Status").Pix, status.Pix)

	snap, err := json.Marshal(oncore.ReceiverSnapshot{SatellitesVisible: 9})
	require.NoError(t, err)
	require.NoError(t, state.apply(kindSnapshot, snap))
	assert.NotEqual(t, status.Pix, contentFrame(contentStatus, state).Pix)

	p := &recordingPanel{}
	require.NoError(t, show(p, splashFrame()))
	assert.Equal(t, 1, p.frames)
}
