// ABOUTME: Thread-safe FIFO of pending audio chunks
// ABOUTME: Tail-insert from the pipeline, head-removal from the scope
package scope

import (
	"sync"

	"github.com/wavetap/wavetap-go/internal/audio"
)

// ChunkQueue holds decoded chunks the output device has not finished
// rendering yet. The pipeline pushes at the tail as buffers are handed to
// the device; the scope pops from the head as the device plays past them.
// A chunk belongs to the queue from push until pop; callers must not
// retain a chunk after it has been removed.
type ChunkQueue struct {
	mu     sync.Mutex
	chunks []*audio.Chunk
}

// NewChunkQueue creates an empty queue.
func NewChunkQueue() *ChunkQueue {
	return &ChunkQueue{}
}

// PushTail appends a chunk. Safe to call concurrently with head removal.
func (q *ChunkQueue) PushTail(c *audio.Chunk) {
	if c == nil {
		return
	}
	q.mu.Lock()
	q.chunks = append(q.chunks, c)
	q.mu.Unlock()
}

// PeekHead returns the head chunk without removing it, or nil if empty.
func (q *ChunkQueue) PeekHead() *audio.Chunk {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.chunks) == 0 {
		return nil
	}
	return q.chunks[0]
}

// PopHead removes and returns the head chunk, or nil if empty. Ownership
// transfers to the caller; the queue keeps no reference.
func (q *ChunkQueue) PopHead() *audio.Chunk {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.chunks) == 0 {
		return nil
	}
	head := q.chunks[0]
	q.chunks[0] = nil
	q.chunks = q.chunks[1:]
	return head
}

// Clear removes every queued chunk. A no-op on an empty queue.
func (q *ChunkQueue) Clear() {
	q.mu.Lock()
	for i := range q.chunks {
		q.chunks[i] = nil
	}
	q.chunks = nil
	q.mu.Unlock()
}

// Len returns the number of queued chunks.
func (q *ChunkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.chunks)
}
