// ABOUTME: Tests for audio chunk derivations
// ABOUTME: Covers end time and frame count edge cases
package audio

import (
	"testing"
	"time"
)

func TestChunkDerivedFields(t *testing.T) {
	c := &Chunk{
		Start:    100 * time.Millisecond,
		Duration: 50 * time.Millisecond,
		Channels: 2,
		Samples:  make([]int16, 80),
	}

	if c.End() != 150*time.Millisecond {
		t.Errorf("End = %v, want 150ms", c.End())
	}
	if c.Frames() != 40 {
		t.Errorf("Frames = %d, want 40", c.Frames())
	}
}

func TestChunkZeroChannels(t *testing.T) {
	c := &Chunk{Samples: make([]int16, 10)}
	if c.Frames() != 0 {
		t.Errorf("Frames with zero channels = %d, want 0", c.Frames())
	}
}

func TestChunkDegenerate(t *testing.T) {
	c := &Chunk{Start: time.Second, Channels: 2}
	if c.End() != time.Second {
		t.Errorf("End of zero-duration chunk = %v, want start", c.End())
	}
	if c.Frames() != 0 {
		t.Errorf("Frames = %d, want 0", c.Frames())
	}
}
