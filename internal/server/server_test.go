// ABOUTME: Tests for the scope WebSocket server
// ABOUTME: Connects a real client and checks streamed frames
package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type fakeSource struct {
	id      string
	pos     time.Duration
	samples []int16
}

func (f *fakeSource) Scope() []int16 { return f.samples }
func (f *fakeSource) StreamID() string { return f.id }
func (f *fakeSource) Position() time.Duration { return f.pos }

func TestServerStreamsFrames(t *testing.T) {
	src := &fakeSource{
		id:      "stream-1",
		pos:     1500 * time.Millisecond,
		samples: []int16{0, 100, -100, 32767, -32768},
	}
	s := New(Config{FrameInterval: 5 * time.Millisecond}, src)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/wavetap"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}

	if frame.StreamID != "stream-1" {
		t.Errorf("StreamID = %q, want stream-1", frame.StreamID)
	}
	if frame.PositionMs != 1500 {
		t.Errorf("PositionMs = %d, want 1500", frame.PositionMs)
	}
	if len(frame.Samples) != len(src.samples) {
		t.Fatalf("got %d samples, want %d", len(frame.Samples), len(src.samples))
	}
	for i, v := range src.samples {
		if frame.Samples[i] != v {
			t.Errorf("sample %d = %d, want %d", i, frame.Samples[i], v)
		}
	}

	// Frames keep coming until the client leaves.
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("failed to read second frame: %v", err)
	}
}

func TestServerStartAndShutdown(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"}, &fakeSource{})
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if s.Port() == 0 {
		t.Error("expected a bound port")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}
