// ABOUTME: Decode-to-device pipeline with a queryable position clock
// ABOUTME: Emits timestamped chunks to an observer as buffers reach the sink
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/wavetap/wavetap-go/internal/audio"
	"github.com/wavetap/wavetap-go/internal/decode"
)

// DefaultChunkFrames is the number of frames decoded per chunk.
const DefaultChunkFrames = 1024

// Config wires a pipeline to its collaborators. OnChunk is invoked with
// each chunk as it is handed to the sink, before the device renders it;
// the chunk's timestamps are stream time, the same base Position reports.
type Config struct {
	ChunkFrames int
	Sink        Sink
	OnChunk     func(*audio.Chunk)
	OnEOS       func()
	OnError     func(error)
}

// Pipeline decodes one track and feeds the output sink. The sink's
// blocking writes pace decoding, so only a bounded amount of audio is
// in flight ahead of the device at any time.
type Pipeline struct {
	dec         decode.Decoder
	sink        Sink
	format      audio.Format
	meta        audio.Metadata
	chunkFrames int
	onChunk     func(*audio.Chunk)
	onEOS       func()
	onError     func(error)

	mu      sync.Mutex // guards dec, streamPos, paused across loop/Seek/Pause
	paused  bool
	resume  chan struct{}
	stream  time.Duration // stream time of the next decoded frame
	clock   positionClock
	started bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New opens the file, initializes the sink and prepares a pipeline in the
// idle state. Play starts rendering.
func New(path string, cfg Config) (*Pipeline, error) {
	if cfg.Sink == nil {
		return nil, errors.New("pipeline: nil sink")
	}

	dec, err := decode.Open(path)
	if err != nil {
		return nil, err
	}

	format := dec.Format()
	if err := cfg.Sink.Open(format.SampleRate, format.Channels); err != nil {
		dec.Close()
		return nil, fmt.Errorf("failed to open output: %w", err)
	}

	frames := cfg.ChunkFrames
	if frames <= 0 {
		frames = DefaultChunkFrames
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		dec:         dec,
		sink:        cfg.Sink,
		format:      format,
		chunkFrames: frames,
		onChunk:     cfg.OnChunk,
		onEOS:       cfg.OnEOS,
		onError:     cfg.OnError,
		resume:      make(chan struct{}, 1),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	p.meta = audio.Metadata{
		Title:      decode.TitleFromPath(path),
		Codec:      format.Codec,
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		Duration:   dec.Duration(),
	}

	return p, nil
}

// Format describes the decoded stream.
func (p *Pipeline) Format() audio.Format { return p.format }

// Metadata returns the bundle extracted at load time.
func (p *Pipeline) Metadata() audio.Metadata { return p.meta }

// Duration returns the track length, or 0 if unknown.
func (p *Pipeline) Duration() time.Duration { return p.meta.Duration }

// Position returns the device playback position in stream time.
func (p *Pipeline) Position() time.Duration { return p.clock.pos() }

// Playing reports whether the pipeline is rendering (not paused).
func (p *Pipeline) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started && !p.paused
}

// Play starts (or resumes) rendering.
func (p *Pipeline) Play() {
	p.mu.Lock()
	if !p.started {
		p.started = true
		p.paused = false
		p.clock.start()
		p.mu.Unlock()
		go p.run()
		return
	}
	if p.paused {
		p.paused = false
		p.clock.start()
		p.sink.Resume()
		select {
		case p.resume <- struct{}{}:
		default:
		}
	}
	p.mu.Unlock()
}

// Pause suspends rendering; the position clock freezes.
func (p *Pipeline) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started || p.paused {
		return
	}
	p.paused = true
	p.clock.pause()
	p.sink.Pause()
}

// Seek repositions decoding and the clock to pos. Audio already queued in
// the device keeps playing briefly; the scope treats that as drift.
func (p *Pipeline) Seek(pos time.Duration) error {
	if pos < 0 {
		pos = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.dec.Seek(pos); err != nil {
		return err
	}
	p.stream = pos
	p.clock.set(pos)
	return nil
}

// Stop tears the pipeline down and releases the decoder. Safe to call
// more than once.
func (p *Pipeline) Stop() {
	p.cancel()

	p.mu.Lock()
	started := p.started
	p.mu.Unlock()

	// Unpark the run loop: it may be waiting for resume, or blocked in a
	// sink write that a paused device will never drain.
	select {
	case p.resume <- struct{}{}:
	default:
	}
	p.sink.Resume()

	if started {
		<-p.done
	}
	p.dec.Close()
}

// run is the render loop: decode a chunk, announce it, hand it to the
// sink. The sink write blocks until the device accepts the data.
func (p *Pipeline) run() {
	defer close(p.done)

	rate := p.format.SampleRate
	channels := p.format.Channels

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		p.mu.Lock()
		if p.paused {
			p.mu.Unlock()
			select {
			case <-p.resume:
			case <-p.ctx.Done():
				return
			}
			continue
		}

		buf := make([]int16, p.chunkFrames*channels)
		n, err := p.dec.Read(buf)
		start := p.stream
		if n > 0 {
			frames := n / channels
			dur := time.Duration(frames) * time.Second / time.Duration(rate)
			p.stream += dur
		}
		p.mu.Unlock()

		if n > 0 {
			frames := n / channels
			chunk := &audio.Chunk{
				Start:    start,
				Duration: time.Duration(frames) * time.Second / time.Duration(rate),
				Channels: channels,
				Samples:  buf[:n],
			}
			if p.onChunk != nil {
				p.onChunk(chunk)
			}
			if werr := p.sink.Write(chunk.Samples); werr != nil {
				if p.ctx.Err() == nil {
					log.Printf("Sink write failed: %v", werr)
					if p.onError != nil {
						p.onError(werr)
					}
				}
				return
			}
		}

		if err != nil {
			if err == io.EOF {
				if p.onEOS != nil {
					p.onEOS()
				}
			} else if p.onError != nil {
				p.onError(err)
			}
			return
		}
	}
}

// positionClock models the device playback position: it advances with
// wall time while playing, freezes on pause and jumps on seek.
type positionClock struct {
	mu      sync.Mutex
	base    time.Duration
	started time.Time // zero while paused
}

func (c *positionClock) start() {
	c.mu.Lock()
	if c.started.IsZero() {
		c.started = time.Now()
	}
	c.mu.Unlock()
}

func (c *positionClock) pause() {
	c.mu.Lock()
	if !c.started.IsZero() {
		c.base += time.Since(c.started)
		c.started = time.Time{}
	}
	c.mu.Unlock()
}

func (c *positionClock) set(pos time.Duration) {
	c.mu.Lock()
	c.base = pos
	if !c.started.IsZero() {
		c.started = time.Now()
	}
	c.mu.Unlock()
}

func (c *positionClock) pos() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started.IsZero() {
		return c.base
	}
	return c.base + time.Since(c.started)
}
