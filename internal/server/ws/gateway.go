// Package ws provides a WebSocket gateway for LogCask.
//
// The gateway lets browser-based viewers decode a log container on the
// host running logcask-serve and stream the result without holding the
// whole decode in one response. It speaks a JSON command protocol.
//
// # Protocol
//
// Clients send JSON requests:
//
//	{
//	  "id": "request-id",
//	  "command": "decode|status",
//	  "params": { ... command-specific parameters ... }
//	}
//
// For "decode" the server pushes interim frames while working:
//
//	{"command": "progress", "data": {"job": "...", "percent": 42.5}}
//	{"command": "lines", "data": {"job": "...", "lines": ["..."]}}
//
// and finishes with a response frame:
//
//	{"id": "request-id", "success": true, "data": {"job": "...", "lines": 1234, ...}}
//
// Lines are pushed in order; diagnostic lines keep their inline "[F]"
// prefix, so viewers can style them differently.
package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"logcask/internal/config"
	"logcask/internal/decode"
	"logcask/internal/logging"
	"logcask/internal/metrics"
)

// Default configuration values for the WebSocket gateway.
const (
	// DefaultReadBufferSize is the size of the read buffer.
	DefaultReadBufferSize = 4096
	// DefaultWriteBufferSize is the size of the write buffer.
	DefaultWriteBufferSize = 4096
	// DefaultWriteTimeout is the timeout for write operations.
	DefaultWriteTimeout = 10 * time.Second
	// DefaultLineBatch is how many decoded lines are pushed per frame.
	DefaultLineBatch = 200
)

// Request is a JSON request from a WebSocket client.
type Request struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON response to a WebSocket client.
type Response struct {
	ID      string      `json:"id,omitempty"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Push is a server-initiated frame sent while a command is running.
type Push struct {
	Command string      `json:"command"`
	Data    interface{} `json:"data"`
}

// DecodeParams are the parameters of the "decode" command.
type DecodeParams struct {
	Path string `json:"path"`
}

// Gateway upgrades HTTP connections and serves the decode protocol.
type Gateway struct {
	decoder  *decode.Decoder
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	log      *logging.Logger
}

// NewGateway creates a Gateway decoding with the configured tunables.
// The metrics may be nil.
func NewGateway(cfg *config.Config, m *metrics.Metrics) *Gateway {
	return &Gateway{
		decoder:  decode.New(decode.FromConfig(cfg)),
		upgrader: newUpgrader(cfg.AllowedOrigins),
		metrics:  m,
		log:      logging.NewLogger("ws"),
	}
}

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:    DefaultReadBufferSize,
		WriteBufferSize:   DefaultWriteBufferSize,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				// No origin header, likely not a browser.
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || origin == allowed || strings.HasSuffix(origin, allowed) {
					return true
				}
			}
			return false
		},
	}
}

// ServeHTTP upgrades the connection and runs the command loop until the
// client disconnects.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err.Error())
		return
	}
	defer conn.Close()

	session := &session{conn: conn, gateway: g, id: uuid.NewString()}
	g.log.Info("session opened", "session", session.id, "remote", r.RemoteAddr)
	defer g.log.Info("session closed", "session", session.id)
	session.run()
}

// session is one client connection. Writes are serialized through mu
// because decode pushes and responses come from the same handler
// goroutine today but the lock keeps that an implementation detail.
type session struct {
	conn    *websocket.Conn
	gateway *Gateway
	id      string
	mu      sync.Mutex
}

func (s *session) run() {
	for {
		var req Request
		if err := s.conn.ReadJSON(&req); err != nil {
			return
		}
		switch req.Command {
		case "decode":
			s.handleDecode(req)
		case "status":
			s.write(Response{ID: req.ID, Success: true, Data: map[string]interface{}{
				"session": s.id,
			}})
		default:
			s.write(Response{ID: req.ID, Success: false, Error: "unknown command: " + req.Command})
		}
	}
}

func (s *session) handleDecode(req Request) {
	var params DecodeParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Path == "" {
		s.write(Response{ID: req.ID, Success: false, Error: "decode requires a path parameter"})
		return
	}

	job := uuid.NewString()
	res, err := s.gateway.decoder.DecodeFile(params.Path, func(percent float64) {
		s.write(Push{Command: "progress", Data: map[string]interface{}{
			"job":     job,
			"percent": percent,
		}})
	})
	if err != nil {
		if s.gateway.metrics != nil {
			s.gateway.metrics.RecordFailure()
		}
		s.write(Response{ID: req.ID, Success: false, Error: err.Error()})
		return
	}
	if s.gateway.metrics != nil {
		s.gateway.metrics.RecordDecode(res.Stats)
	}

	for start := 0; start < len(res.Lines); start += DefaultLineBatch {
		end := start + DefaultLineBatch
		if end > len(res.Lines) {
			end = len(res.Lines)
		}
		s.write(Push{Command: "lines", Data: map[string]interface{}{
			"job":   job,
			"lines": res.Lines[start:end],
		}})
	}

	s.write(Response{ID: req.ID, Success: true, Data: map[string]interface{}{
		"job":     job,
		"lines":   len(res.Lines),
		"frames":  res.Stats.Frames,
		"gaps":    res.Stats.Gaps,
		"resyncs": res.Stats.Resyncs,
	}})
}

func (s *session) write(v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(DefaultWriteTimeout))
	if err := s.conn.WriteJSON(v); err != nil {
		s.gateway.log.Warn("write failed", "session", s.id, "error", err.Error())
	}
}
