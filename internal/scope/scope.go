// ABOUTME: Waveform scope synchronized to the output device position
// ABOUTME: Prunes played chunks and extracts samples into a double buffer
package scope

import (
	"sync"
	"time"

	"github.com/wavetap/wavetap-go/internal/audio"
)

// DefaultSize is the number of samples in a scope snapshot.
const DefaultSize = 512

// Scope accumulates recently played samples into a fixed-size snapshot for
// visualization. Chunks arrive ahead of when the device renders them, so
// they sit in a delay queue until the reported device position reaches
// them. Extraction walks the queue from the chunk the device is currently
// rendering, filling a build buffer; once full, the build buffer is swapped
// wholesale into the ready buffer, so readers never observe a partial fill.
type Scope struct {
	q    *ChunkQueue
	size int

	// mu guards the build buffers and serializes all head-removal
	// (prune, extract, clear) so no two removers race for the same
	// head. Pushes only take the queue's own lock.
	mu     sync.Mutex
	build  []int16
	ready  []int16
	cursor int
}

// New creates a scope with the given snapshot size. Sizes < 1 fall back
// to DefaultSize.
func New(size int) *Scope {
	if size < 1 {
		size = DefaultSize
	}
	return &Scope{
		q:     NewChunkQueue(),
		size:  size,
		build: make([]int16, size),
		ready: make([]int16, size),
	}
}

// Size returns the snapshot length in samples.
func (s *Scope) Size() int {
	return s.size
}

// Push queues a chunk the pipeline has handed to the output device.
func (s *Scope) Push(c *audio.Chunk) {
	s.q.PushTail(c)
}

// QueueLen returns the number of chunks awaiting consumption.
func (s *Scope) QueueLen() int {
	return s.q.Len()
}

// Prune discards chunks the device has fully played past: while a head
// chunk exists and pos is beyond its end time, it is popped and released.
// Returns pos unchanged for callers that need it afterwards. Prune holds
// the scope lock so it serializes with any in-flight extraction; extract
// assumes the head it exhausted is the head it pops, and a concurrent
// prune removing that head first would make extract discard an
// unconsumed chunk instead.
func (s *Scope) Prune(pos time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(pos)
}

func (s *Scope) pruneLocked(pos time.Duration) time.Duration {
	for {
		head := s.q.PeekHead()
		if head == nil || pos <= head.End() {
			return pos
		}
		s.q.PopHead()
	}
}

// Read prunes, extracts whatever the device has played since the last
// call, and returns the ready snapshot. Prune and extract run as one
// critical section. The snapshot is a copy: it is always either a
// complete prior fill or all zeroes, never a partial build, and repeated
// calls between fills return the same content.
func (s *Scope) Read(pos time.Duration) []int16 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(pos)
	s.extract(pos)

	if s.cursor >= s.size {
		copy(s.ready, s.build)
		s.cursor = 0
	}

	out := make([]int16, s.size)
	copy(out, s.ready)
	return out
}

// Clear drains the queue and resets the build cursor. Called on stop,
// seek and pipeline teardown; idempotent on empty state.
func (s *Scope) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = 0
	s.q.Clear()
}

// extract copies samples the device is currently rendering into the build
// buffer. It never blocks; if the queue runs dry or the device position
// falls outside the queued window, the partial fill persists until a later
// call makes progress. Caller holds s.mu.
func (s *Scope) extract(pos time.Duration) {
	head := s.q.PeekHead()

	// Degenerate chunks span no time and can never contain pos.
	for head != nil && head.Frames() == 0 {
		s.q.PopHead()
		head = s.q.PeekHead()
	}
	if head == nil {
		return
	}

	// The scope does not support more than stereo.
	if head.Channels > 2 {
		return
	}

	// The device is not rendering any queued chunk right now (clock
	// drift or underrun); wait for the next call.
	if pos <= head.Start || pos >= head.End() {
		return
	}

	// Locate the frame the device is believed to be rendering. The
	// interval between frames is duration/frames; guard the division
	// even though Frames()==0 was excluded above.
	frames := head.Frames()
	interval := head.Duration / time.Duration(frames)
	if interval <= 0 {
		return
	}
	off := head.Channels * int((pos-head.Start)/interval)
	if off >= len(head.Samples) {
		return
	}

	chunk := head
	i := off
	for chunk != nil && s.cursor < s.size {
		data := chunk.Samples
		ch := chunk.Channels

		for i+ch <= len(data) && s.cursor < s.size {
			for j := 0; j < ch && s.cursor < s.size; j++ {
				s.build[s.cursor] = data[i+j]
				s.cursor++
			}
			i += ch
		}
		if s.cursor >= s.size {
			return
		}

		// Out of samples in this chunk: release it and keep filling
		// from the start of the next one, skipping degenerates. If
		// none is queued yet, resume on a later call.
		s.q.PopHead()
		chunk = s.q.PeekHead()
		for chunk != nil && chunk.Frames() == 0 {
			s.q.PopHead()
			chunk = s.q.PeekHead()
		}
		if chunk != nil && chunk.Channels > 2 {
			return
		}
		i = 0
	}
}
