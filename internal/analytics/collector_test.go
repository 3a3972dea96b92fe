package analytics

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/resilience"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	failN   int
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
		return errors.New("broker unavailable")
	}
	f.batches = append(f.batches, append([]kafka.Event(nil), events...))
	return nil
}

func (f *fakePublisher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func TestCollectorBatchesAndDrains(t *testing.T) {
	pub := &fakePublisher{}
	var published atomic.Int64
	c := NewCollector(pub, CollectorConfig{BatchSize: 2, FlushInterval: time.Hour}, Counters{
		Published: func(n int) { published.Add(int64(n)) },
	})

	for i := 0; i < 5; i++ {
		c.Track(CompareEvent{Type: EventCompare, Order: "lexicographic", Sign: -1})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for pub.total() < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := pub.total(); got != 5 {
		t.Errorf("published %d events, want 5", got)
	}
	if published.Load() != 5 {
		t.Errorf("published counter = %d, want 5", published.Load())
	}
	if key := pub.batches[0][0].Key; key != "compare:lexicographic" {
		t.Errorf("event key = %q", key)
	}
}

func TestCollectorDropsWhenFull(t *testing.T) {
	var dropped atomic.Int64
	c := NewCollector(&fakePublisher{}, CollectorConfig{BufferSize: 1}, Counters{
		Dropped: func(n int) { dropped.Add(int64(n)) },
	})
	c.Track(CompareEvent{Type: EventPrefix})
	c.Track(CompareEvent{Type: EventPrefix})
	c.Track(CompareEvent{Type: EventPrefix})
	if dropped.Load() != 2 {
		t.Errorf("dropped = %d, want 2", dropped.Load())
	}
}

func TestCollectorRetriesPublish(t *testing.T) {
	pub := &fakePublisher{failN: 1}
	c := NewCollector(pub, CollectorConfig{
		BatchSize: 10,
		Retry:     resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond},
	}, Counters{})

	c.flush(context.Background(), []CompareEvent{{Type: EventCompare, Order: "prefix"}})
	if pub.total() != 1 {
		t.Errorf("published %d events after retry, want 1", pub.total())
	}
}

func TestCompareEventKey(t *testing.T) {
	if got := (CompareEvent{Type: EventPrefix}).Key(); got != "prefix" {
		t.Errorf("Key() = %q, want prefix", got)
	}
	if got := (CompareEvent{Type: EventCompare, Order: "reverse_weight"}).Key(); got != "compare:reverse_weight" {
		t.Errorf("Key() = %q", got)
	}
}
