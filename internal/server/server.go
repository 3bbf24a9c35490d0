// ABOUTME: WebSocket server streaming scope frames to visualization clients
// ABOUTME: Pushes a snapshot per tick on /wavetap until the client leaves
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultFrameInterval is how often a scope frame is pushed to a client.
const DefaultFrameInterval = 50 * time.Millisecond

// Source is what the server reads from; the playback engine satisfies it.
type Source interface {
	Scope() []int16
	StreamID() string
	Position() time.Duration
}

// Frame is one scope snapshot on the wire.
type Frame struct {
	StreamID   string  `json:"stream_id"`
	PositionMs int64   `json:"position_ms"`
	Samples    []int16 `json:"samples"`
}

// Config holds server configuration.
type Config struct {
	Addr          string
	FrameInterval time.Duration
}

// Server pushes scope frames to any number of WebSocket clients.
type Server struct {
	config   Config
	source   Source
	upgrader websocket.Upgrader
	httpSrv  *http.Server
	listener net.Listener
}

// New creates a scope server for the given source.
func New(config Config, source Source) *Server {
	if config.FrameInterval <= 0 {
		config.FrameInterval = DefaultFrameInterval
	}
	return &Server{
		config: config,
		source: source,
		upgrader: websocket.Upgrader{
			// Visualizers connect from anywhere on the local network.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler serving the scope endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/wavetap", s.handleScope)
	return mux
}

// Start begins listening. It returns once the listener is bound; serving
// continues in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("scope server listen failed: %w", err)
	}
	s.listener = ln
	s.httpSrv = &http.Server{Handler: s.Handler()}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("Scope server stopped: %v", err)
		}
	}()

	log.Printf("Scope server listening on %s", ln.Addr())
	return nil
}

// Port returns the bound TCP port, or 0 before Start.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Shutdown stops the server, closing client connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// handleScope upgrades the connection and pushes frames until the client
// disconnects.
func (s *Server) handleScope(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Scope client upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("Scope client connected: %s", conn.RemoteAddr())

	// Drain client messages so pings and close frames are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.config.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			log.Printf("Scope client disconnected: %s", conn.RemoteAddr())
			return
		case <-ticker.C:
			frame := Frame{
				StreamID:   s.source.StreamID(),
				PositionMs: s.source.Position().Milliseconds(),
				Samples:    s.source.Scope(),
			}
			payload, err := json.Marshal(frame)
			if err != nil {
				log.Printf("Scope frame encode failed: %v", err)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
