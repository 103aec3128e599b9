// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/oncore_monitor/internal/config"
	"github.com/relabs-tech/oncore_monitor/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const (
	wsSendBuffer   = 16
	wsWriteTimeout = 5 * time.Second

	// served at /, relative to the working directory
	staticDir = "web"
)

// wsMessage is what /ws clients receive.
type wsMessage struct {
	Type string      `json:"type"` // snapshot, fix, position, receiver_id
	Data interface{} `json:"data"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan wsMessage
}

// hub fans updates out to every connected websocket client. Clients that
// fall behind are dropped.
type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	log     zerolog.Logger
}

func newHub(log zerolog.Logger) *hub {
	return &hub{clients: make(map[*wsClient]struct{}), log: log}
}

func (h *hub) broadcast(kind string, v interface{}) {
	msg := wsMessage{Type: kind, Data: v}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("websocket client too slow, dropping")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// serveWS streams every update. A new client first gets the latest value of
// each kind that has arrived so far.
func (h *hub) serveWS(state *monitorState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn().Err(err).Msg("websocket upgrade error")
			return
		}
		c := &wsClient{conn: conn, send: make(chan wsMessage, wsSendBuffer)}

		// hold the hub lock so no broadcast lands between registering and the
		// initial state
		h.mu.Lock()
		h.clients[c] = struct{}{}
		for _, kind := range []string{kindSnapshot, kindFix, kindPosition, kindReceiverID} {
			if v, ok := state.latest(kind); ok {
				c.send <- wsMessage{Type: kind, Data: v}
			}
		}
		h.mu.Unlock()

		go h.writeLoop(c)

		// reads only detect the close
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.log.Warn().Err(err).Msg("websocket error")
				}
				break
			}
		}
		h.remove(c)
	}
}

func (h *hub) writeLoop(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			h.log.Debug().Err(err).Msg("websocket write error")
			h.remove(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// latestHandler serves the most recent value of one kind as JSON.
func latestHandler(state *monitorState, kind string, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := state.latest(kind)
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Warn().Err(err).Msg("json encode error")
		}
	}
}

func newWebMux(state *monitorState, h *hub, staticDir string, log zerolog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	for _, kind := range []string{kindSnapshot, kindFix, kindPosition, kindReceiverID} {
		mux.HandleFunc("/api/"+kind, latestHandler(state, kind, log))
	}
	mux.HandleFunc("/ws", h.serveWS(state))
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

// RunWeb serves the latest receiver data over HTTP and pushes updates to
// websocket clients on /ws.
func RunWeb() error {
	cfg := config.Get()
	if cfg == nil {
		return errNoConfig
	}
	log := logging.For("web")

	h := newHub(log)
	state := &monitorState{onUpdate: h.broadcast}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeState(client, topicsFor(cfg), state, log); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Info().Str("addr", addr).Msg("web server listening")
	return http.ListenAndServe(addr, newWebMux(state, h, staticDir, log))
}
