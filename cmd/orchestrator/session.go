// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"geoagent/platform/common/usage"
	"geoagent/platform/internal/app"
	"geoagent/platform/internal/kernel"
	"geoagent/platform/internal/transport"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// sessionHub upgrades one WebSocket connection per chat session to the
// transport frame contract: it decodes inbound UserFrames, drives the
// session's kernel.Agent, and serializes every outbound frame type onto
// the same connection in the order the Agent Kernel produces them.
type sessionHub struct {
	deps *app.Deps
}

func newSessionHub(deps *app.Deps) *sessionHub {
	return &sessionHub{deps: deps}
}

func (h *sessionHub) handleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("session %s: upgrade failed: %v", sessionID, err)
		return
	}

	agent := h.deps.NewAgent(sessionID)
	sess := &session{id: sessionID, conn: conn, agent: agent, ctx: r.Context(), usage: h.deps.Usage, send: make(chan []byte, 16)}

	go sess.writePump()
	sess.readPump()
}

// session pairs one WebSocket connection with the kernel.Agent driving
// it. send decouples the Subscriber (which must not block a turn) from
// the connection's actual write, mirroring the register/unregister/send
// channel split a connection manager needs for concurrent writers.
type session struct {
	id    string
	conn  *websocket.Conn
	agent *kernel.Agent
	ctx   context.Context
	usage *usage.Recorder

	send chan []byte
}

func (s *session) emit(frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("session %s: failed to marshal frame: %v", s.id, err)
		return
	}
	select {
	case s.send <- data:
	default:
		log.Printf("session %s: send buffer full, dropping frame", s.id)
	}
}

// Emit adapts session to kernel.Subscriber: every kernel.Event becomes a
// ToolFrame or AnalysisFrame depending on which tool produced it.
func (s *session) Emit(ev kernel.Event) {
	if ev.Tool == "run_analysis" {
		s.emit(transport.NewAnalysisFrame(s.id, "", ev.Message, string(ev.Status), 0))
		return
	}
	s.emit(transport.NewToolFrame(ev.Tool, ev.Args, string(ev.Status)))
}

func (s *session) readPump() {
	defer func() {
		close(s.send)
		s.conn.Close()
	}()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("session %s: read error: %v", s.id, err)
			}
			return
		}

		var in transport.UserFrame
		if err := json.Unmarshal(raw, &in); err != nil {
			s.emit(transport.NewToolFrame("", nil, "error"))
			continue
		}

		s.emit(transport.NewUserMessageEcho(in.Message))

		start := time.Now()
		reply, err := s.agent.Chat(s.ctx, in.Message, s)
		latencyMs := time.Since(start).Milliseconds()

		status := http.StatusOK
		if err != nil {
			status = http.StatusInternalServerError
		}
		s.usage.RecordTurn(usage.TurnEvent{
			SessionID:      s.id,
			HTTPMethod:     "WS",
			HTTPPath:       "/ws/sessions/" + s.id,
			HTTPStatusCode: status,
			LatencyMs:      latencyMs,
		})

		if err != nil {
			log.Printf("session %s: chat turn failed: %v", s.id, err)
			s.emit(transport.NewToolFrame("", nil, "error"))
			continue
		}
		s.emit(transport.NewAIResponseFrame(reply))
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
