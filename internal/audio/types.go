// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats, decoded chunks and metadata bundles
package audio

import "time"

// Format describes a decoded audio stream
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Chunk represents one decoded PCM buffer handed off from the pipeline.
// Start is stream time: when the first frame of this chunk is rendered by
// the output device, relative to the start of the track. Samples are
// interleaved 16-bit PCM, so the sample width is fixed by the element type
// rather than implied elsewhere.
type Chunk struct {
	Start    time.Duration
	Duration time.Duration
	Channels int
	Samples  []int16
}

// End returns the stream time just past the last frame of the chunk.
func (c *Chunk) End() time.Duration {
	return c.Start + c.Duration
}

// Frames returns the number of per-channel sample groups in the chunk.
func (c *Chunk) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Metadata carries track information extracted at load time.
type Metadata struct {
	Title      string
	Codec      string
	SampleRate int
	Channels   int
	Duration   time.Duration
}
