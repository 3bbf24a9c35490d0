// ABOUTME: Tests for the chunk delay queue
// ABOUTME: Covers FIFO ordering, clear idempotence and concurrent pushes
package scope

import (
	"sync"
	"testing"
	"time"

	"github.com/wavetap/wavetap-go/internal/audio"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := NewChunkQueue()

	starts := []time.Duration{0, 10 * time.Millisecond, 10 * time.Millisecond, 30 * time.Millisecond}
	for _, s := range starts {
		q.PushTail(&audio.Chunk{Start: s, Duration: 10 * time.Millisecond, Channels: 2})
	}

	if q.Len() != len(starts) {
		t.Fatalf("expected %d queued chunks, got %d", len(starts), q.Len())
	}

	prev := time.Duration(-1)
	for i := range starts {
		c := q.PopHead()
		if c == nil {
			t.Fatalf("pop %d returned nil", i)
		}
		if c.Start != starts[i] {
			t.Errorf("pop %d: expected start %v, got %v", i, starts[i], c.Start)
		}
		if c.Start < prev {
			t.Errorf("pop %d: start times went backwards (%v after %v)", i, c.Start, prev)
		}
		prev = c.Start
	}

	if c := q.PopHead(); c != nil {
		t.Errorf("expected nil from empty queue, got chunk starting at %v", c.Start)
	}
}

func TestQueuePeekDoesNotRemove(t *testing.T) {
	q := NewChunkQueue()

	if q.PeekHead() != nil {
		t.Error("expected nil peek on empty queue")
	}

	q.PushTail(&audio.Chunk{Start: 5 * time.Millisecond, Channels: 1})

	first := q.PeekHead()
	second := q.PeekHead()
	if first == nil || second == nil {
		t.Fatal("peek returned nil on non-empty queue")
	}
	if first != second {
		t.Error("repeated peeks returned different chunks")
	}
	if q.Len() != 1 {
		t.Errorf("peek changed queue length to %d", q.Len())
	}
}

func TestQueueClearIdempotent(t *testing.T) {
	q := NewChunkQueue()

	// Clearing an empty queue is a no-op.
	q.Clear()
	if q.Len() != 0 {
		t.Errorf("clear on empty queue left length %d", q.Len())
	}

	q.PushTail(&audio.Chunk{Channels: 2})
	q.PushTail(&audio.Chunk{Channels: 2})
	q.Clear()
	q.Clear()

	if q.Len() != 0 {
		t.Errorf("expected empty queue after clear, got length %d", q.Len())
	}
	if q.PeekHead() != nil {
		t.Error("expected nil head after clear")
	}
}

func TestQueueConcurrentPushAndPop(t *testing.T) {
	q := NewChunkQueue()
	const n = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.PushTail(&audio.Chunk{Start: time.Duration(i), Channels: 2})
		}
	}()

	popped := 0
	var prev time.Duration = -1
	for popped < n {
		c := q.PopHead()
		if c == nil {
			continue
		}
		if c.Start <= prev {
			t.Fatalf("out of order pop: %v after %v", c.Start, prev)
		}
		prev = c.Start
		popped++
	}
	wg.Wait()

	if q.Len() != 0 {
		t.Errorf("expected drained queue, got length %d", q.Len())
	}
}
