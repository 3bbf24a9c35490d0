// ABOUTME: Playback engine tying pipeline, scope and lifecycle together
// ABOUTME: Drives pruning on a timer and exposes transport controls
package engine

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wavetap/wavetap-go/internal/audio"
	"github.com/wavetap/wavetap-go/internal/pipeline"
	"github.com/wavetap/wavetap-go/internal/scope"
)

// State is the engine playback state.
type State int

const (
	StateEmpty State = iota
	StateIdle
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

// DefaultTickInterval is how often the engine prunes the scope queue while
// playing, so it stays bounded even when no visualizer is reading.
const DefaultTickInterval = 25 * time.Millisecond

// ErrNoTrack is returned by transport controls when nothing is loaded.
var ErrNoTrack = errors.New("engine: no track loaded")

// Config holds engine configuration and observer callbacks. Callbacks may
// be invoked from the pipeline goroutine.
type Config struct {
	ScopeSize    int
	TickInterval time.Duration
	ChunkFrames  int
	Sink         pipeline.Sink

	OnStateChange func(State)
	OnTrackEnded  func()
	OnError       func(error)
	OnMetadata    func(audio.Metadata)
}

// Engine owns one pipeline at a time and the waveform scope fed by it.
type Engine struct {
	cfg   Config
	sink  pipeline.Sink
	scope *scope.Scope

	mu       sync.Mutex
	pipe     *pipeline.Pipeline
	state    State
	streamID uuid.UUID

	tickStop  chan struct{}
	tickOnce  sync.Once
	closeOnce sync.Once
}

// New creates an engine. The prune timer starts with the first Play.
func New(cfg Config) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	sink := cfg.Sink
	if sink == nil {
		sink = pipeline.NewOtoSink()
	}
	return &Engine{
		cfg:      cfg,
		sink:     sink,
		scope:    scope.New(cfg.ScopeSize),
		state:    StateEmpty,
		tickStop: make(chan struct{}),
	}
}

// Load opens a track and builds its pipeline, replacing any current one.
// The engine moves to the idle state; call Play to start rendering.
func (e *Engine) Load(path string) error {
	e.teardown()

	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := pipeline.New(path, pipeline.Config{
		ChunkFrames: e.cfg.ChunkFrames,
		Sink:        e.sink,
		OnChunk:     e.scope.Push,
		OnEOS:       e.handleEOS,
		OnError:     e.handleError,
	})
	if err != nil {
		e.setStateLocked(StateEmpty)
		return err
	}

	e.pipe = p
	e.streamID = uuid.New()
	e.setStateLocked(StateIdle)

	if e.cfg.OnMetadata != nil {
		go e.cfg.OnMetadata(p.Metadata())
	}
	return nil
}

// Play starts playback, optionally resuming from a stream offset.
func (e *Engine) Play(offset time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pipe == nil {
		return ErrNoTrack
	}

	e.pipe.Play()
	if offset > 0 {
		e.seekLocked(offset)
	}
	e.startTickerLocked()
	e.setStateLocked(StatePlaying)
	return nil
}

// Pause suspends playback keeping the current position.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pipe == nil || e.state != StatePlaying {
		return
	}
	e.pipe.Pause()
	e.setStateLocked(StatePaused)
}

// Unpause resumes a paused track.
func (e *Engine) Unpause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pipe == nil || e.state != StatePaused {
		return
	}
	e.pipe.Play()
	e.setStateLocked(StatePlaying)
}

// Seek repositions playback. On success the scope queue is cleared, since
// every queued chunk belongs to the abandoned position.
func (e *Engine) Seek(pos time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pipe == nil {
		return
	}
	e.seekLocked(pos)
}

func (e *Engine) seekLocked(pos time.Duration) {
	if err := e.pipe.Seek(pos); err != nil {
		log.Printf("Seek failed: %v", err)
		return
	}
	e.scope.Clear()
}

// Stop tears down the current pipeline and empties the scope.
func (e *Engine) Stop() {
	e.teardown()
	e.mu.Lock()
	e.setStateLocked(StateEmpty)
	e.mu.Unlock()
}

// Close shuts the engine down entirely.
func (e *Engine) Close() {
	e.Stop()
	e.closeOnce.Do(func() { close(e.tickStop) })
	e.sink.Close()
}

// State returns the current playback state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// StreamID identifies the currently loaded track, empty when none.
func (e *Engine) StreamID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pipe == nil {
		return ""
	}
	return e.streamID.String()
}

// Position returns the device playback position.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	p := e.pipe
	e.mu.Unlock()
	if p == nil {
		return 0
	}
	return p.Position()
}

// Duration returns the loaded track length, or 0.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	p := e.pipe
	e.mu.Unlock()
	if p == nil {
		return 0
	}
	return p.Duration()
}

// Metadata returns the loaded track's metadata bundle.
func (e *Engine) Metadata() (audio.Metadata, bool) {
	e.mu.Lock()
	p := e.pipe
	e.mu.Unlock()
	if p == nil {
		return audio.Metadata{}, false
	}
	return p.Metadata(), true
}

// Scope returns the current waveform snapshot: prune, extract, then the
// last complete fill. Callable at any rate.
func (e *Engine) Scope() []int16 {
	return e.scope.Read(e.Position())
}

// ScopeSize returns the snapshot length in samples.
func (e *Engine) ScopeSize() int {
	return e.scope.Size()
}

// SetVolume sets the output volume (0-100).
func (e *Engine) SetVolume(v int) { e.sink.SetVolume(v) }

// Volume returns the output volume.
func (e *Engine) Volume() int { return e.sink.Volume() }

// SetMuted sets the output mute state.
func (e *Engine) SetMuted(m bool) { e.sink.SetMuted(m) }

// Muted returns the output mute state.
func (e *Engine) Muted() bool { return e.sink.Muted() }

// teardown detaches and stops the current pipeline. The scope reverts to
// empty so stale chunks never survive into the next track.
func (e *Engine) teardown() {
	e.mu.Lock()
	p := e.pipe
	e.pipe = nil
	e.mu.Unlock()

	if p == nil {
		return
	}
	p.Stop()
	e.scope.Clear()
}

// startTickerLocked launches the prune timer once per engine lifetime.
func (e *Engine) startTickerLocked() {
	e.tickOnce.Do(func() {
		go e.tickLoop()
	})
}

// tickLoop prunes the scope queue against the device position so the
// queue cannot grow unbounded while no visualizer reads the scope.
func (e *Engine) tickLoop() {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.tickStop:
			return
		case <-ticker.C:
			e.mu.Lock()
			p := e.pipe
			e.mu.Unlock()
			if p != nil {
				e.scope.Prune(p.Position())
			}
		}
	}
}

// handleEOS runs on the pipeline goroutine when the track finishes.
func (e *Engine) handleEOS() {
	go func() {
		e.Stop()
		if e.cfg.OnTrackEnded != nil {
			e.cfg.OnTrackEnded()
		}
	}()
}

// handleError runs on the pipeline goroutine on a fatal pipeline error.
func (e *Engine) handleError(err error) {
	log.Printf("Pipeline error: %v", err)
	go func() {
		e.Stop()
		if e.cfg.OnError != nil {
			e.cfg.OnError(err)
		}
	}()
}

func (e *Engine) setStateLocked(s State) {
	if e.state == s {
		return
	}
	e.state = s
	if e.cfg.OnStateChange != nil {
		go e.cfg.OnStateChange(s)
	}
}
