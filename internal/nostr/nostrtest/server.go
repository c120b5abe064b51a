package nostrtest

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"net/http/httptest"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/trustwaveapp/trustwave-server/internal/nostr"
)

// Server exposes a MemoryRelay over the relay WebSocket protocol.
type Server struct {
	Relay *MemoryRelay
	// SuppressEOSE sends stored events but never ends the subscription.
	SuppressEOSE bool
	// ClosedReason, when set, answers every REQ with CLOSED and this reason.
	ClosedReason string

	http *httptest.Server
}

// NewServer starts a test relay server backed by relay.
func NewServer(relay *MemoryRelay) *Server {
	s := &Server{Relay: relay}
	s.http = httptest.NewServer(websocket.Handler(s.serve))
	return s
}

// URL returns the ws:// URL of the server.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.http.URL, "http")
}

// Close stops the server.
func (s *Server) Close() {
	s.http.Close()
}

func (s *Server) serve(ws *websocket.Conn) {
	defer ws.Close()
	for {
		var data string
		if err := websocket.Message.Receive(ws, &data); err != nil {
			return
		}

		var frame []jsontext.Value
		if err := json.Unmarshal([]byte(data), &frame); err != nil || len(frame) < 2 {
			s.write(ws, "NOTICE", "invalid frame")
			continue
		}
		var label string
		_ = json.Unmarshal(frame[0], &label)

		switch label {
		case "REQ":
			s.handleReq(ws, frame[1:])
		case "EVENT":
			s.handleEvent(ws, frame[1])
		case "CLOSE":
		default:
			s.write(ws, "NOTICE", "unknown message "+label)
		}
	}
}

func (s *Server) handleReq(ws *websocket.Conn, args []jsontext.Value) {
	var subID string
	_ = json.Unmarshal(args[0], &subID)

	if s.ClosedReason != "" {
		s.write(ws, "CLOSED", subID, s.ClosedReason)
		return
	}

	for _, raw := range args[1:] {
		var filter nostr.Filter
		if err := json.Unmarshal(raw, &filter); err != nil {
			s.write(ws, "CLOSED", subID, "error: bad filter")
			return
		}
		events, err := s.Relay.Query(context.Background(), filter)
		if err != nil {
			s.write(ws, "CLOSED", subID, "error: "+err.Error())
			return
		}
		for _, ev := range events {
			s.write(ws, "EVENT", subID, ev)
		}
	}

	if !s.SuppressEOSE {
		s.write(ws, "EOSE", subID)
	}
}

func (s *Server) handleEvent(ws *websocket.Conn, raw jsontext.Value) {
	var ev nostr.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		s.write(ws, "NOTICE", "invalid event")
		return
	}
	if err := nostr.Verify(&ev); err != nil {
		s.write(ws, "OK", ev.ID, false, "invalid: bad signature")
		return
	}

	err := s.Relay.Publish(context.Background(), &ev)
	if err != nil {
		s.write(ws, "OK", ev.ID, false, err.Error())
		return
	}
	s.write(ws, "OK", ev.ID, true, "")
}

func (s *Server) write(ws *websocket.Conn, label string, args ...any) {
	data, err := json.Marshal(append([]any{label}, args...))
	if err != nil {
		return
	}
	_ = websocket.Message.Send(ws, string(data))
}
