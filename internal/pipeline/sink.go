// ABOUTME: Output sink abstraction and oto-based implementation
// ABOUTME: Streams 16-bit PCM to the audio device with software volume
package pipeline

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Sink is the output device the pipeline renders into. Write blocks until
// the device has accepted the samples, which paces the decode loop.
type Sink interface {
	Open(sampleRate, channels int) error
	Write(samples []int16) error
	Pause()
	Resume()
	SetVolume(volume int)
	SetMuted(muted bool)
	Volume() int
	Muted() bool
	Close() error
}

// OtoSink plays PCM through the oto library. A persistent player reads
// from a pipe so playback is continuous across writes.
type OtoSink struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	ready      bool

	// volMu guards volume and muted: the UI goroutine sets them while
	// Write reads them on the pipeline goroutine.
	volMu  sync.Mutex
	volume int
	muted  bool
}

// NewOtoSink creates an uninitialized oto sink.
func NewOtoSink() *OtoSink {
	return &OtoSink{volume: 100}
}

// Open initializes the output device. oto allows a single context per
// process, so a format change after the first Open keeps the old context.
func (o *OtoSink) Open(sampleRate, channels int) error {
	if o.otoCtx != nil {
		if o.sampleRate != sampleRate || o.channels != channels {
			log.Printf("Warning: format change (%dHz %dch -> %dHz %dch) but oto cannot reinitialize; keeping existing context",
				o.sampleRate, o.channels, sampleRate, channels)
		}
		o.ready = true
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()
	o.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels", sampleRate, channels)
	return nil
}

// Write outputs samples, blocking until the device accepts them.
func (o *OtoSink) Write(samples []int16) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	out := make([]byte, len(samples)*2)
	mult := o.multiplier()
	for i, s := range samples {
		v := int16(float64(s) * mult)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}

	if _, err := o.pipeWriter.Write(out); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Pause suspends device playback.
func (o *OtoSink) Pause() {
	if o.player != nil {
		o.player.Pause()
	}
}

// Resume restarts device playback after Pause.
func (o *OtoSink) Resume() {
	if o.player != nil {
		o.player.Play()
	}
}

// SetVolume sets the software volume (0-100).
func (o *OtoSink) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.volMu.Lock()
	o.volume = volume
	o.volMu.Unlock()
}

// SetMuted sets the mute state.
func (o *OtoSink) SetMuted(muted bool) {
	o.volMu.Lock()
	o.muted = muted
	o.volMu.Unlock()
}

// Volume returns the current volume.
func (o *OtoSink) Volume() int {
	o.volMu.Lock()
	defer o.volMu.Unlock()
	return o.volume
}

// Muted returns the mute state.
func (o *OtoSink) Muted() bool {
	o.volMu.Lock()
	defer o.volMu.Unlock()
	return o.muted
}

func (o *OtoSink) multiplier() float64 {
	o.volMu.Lock()
	defer o.volMu.Unlock()
	return volumeMultiplier(o.volume, o.muted)
}

// Close stops feeding the device. The oto context itself stays alive for
// the life of the process.
func (o *OtoSink) Close() error {
	o.ready = false
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
	}
	return nil
}

// volumeMultiplier converts volume and mute into a sample multiplier.
func volumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
