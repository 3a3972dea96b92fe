package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/resilience"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Counters receives delivery outcomes. Nil funcs are ignored.
type Counters struct {
	Published func(n int)
	Dropped   func(n int)
}

type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	Retry         resilience.RetryConfig
}

// Collector buffers CompareEvents and publishes them in batches. Track never
// blocks; events are dropped when the buffer is full.
type Collector struct {
	publisher Publisher
	cfg       CollectorConfig
	counters  Counters
	eventCh   chan CompareEvent
	logger    *slog.Logger
}

func NewCollector(publisher Publisher, cfg CollectorConfig, counters Counters) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if counters.Published == nil {
		counters.Published = func(int) {}
	}
	if counters.Dropped == nil {
		counters.Dropped = func(int) {}
	}
	return &Collector{
		publisher: publisher,
		cfg:       cfg,
		counters:  counters,
		eventCh:   make(chan CompareEvent, cfg.BufferSize),
		logger:    slog.Default().With("component", "analytics-collector"),
	}
}

// Track enqueues event for publishing.
func (c *Collector) Track(event CompareEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.counters.Dropped(1)
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Run publishes batches until ctx is cancelled, then drains what is left
// with a short deadline. It always returns nil so it can sit in an errgroup
// without tearing down the server on a Kafka outage.
func (c *Collector) Run(ctx context.Context) error {
	c.logger.Info("analytics collector started",
		"buffer_size", c.cfg.BufferSize,
		"batch_size", c.cfg.BatchSize,
		"flush_interval", c.cfg.FlushInterval,
	)
	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]CompareEvent, 0, c.cfg.BatchSize)
	for {
		select {
		case event := <-c.eventCh:
			batch = append(batch, event)
			if len(batch) >= c.cfg.BatchSize {
				c.flush(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			c.flush(ctx, batch)
			batch = batch[:0]
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			c.drain(drainCtx, batch)
			c.logger.Info("analytics collector stopped")
			return nil
		}
	}
}

func (c *Collector) drain(ctx context.Context, batch []CompareEvent) {
	for {
		select {
		case event := <-c.eventCh:
			batch = append(batch, event)
			if len(batch) >= c.cfg.BatchSize {
				c.flush(ctx, batch)
				batch = batch[:0]
			}
		default:
			c.flush(ctx, batch)
			return
		}
	}
}

func (c *Collector) flush(ctx context.Context, batch []CompareEvent) {
	if len(batch) == 0 {
		return
	}
	events := make([]kafka.Event, len(batch))
	for i, e := range batch {
		events[i] = kafka.Event{Key: e.Key(), Value: e}
	}
	err := resilience.Retry(ctx, "publish-compare-events", c.cfg.Retry, func(ctx context.Context) error {
		return c.publisher.PublishBatch(ctx, events)
	})
	if err != nil {
		c.counters.Dropped(len(events))
		c.logger.Error("failed to publish analytics events", "count", len(events), "error", err)
		return
	}
	c.counters.Published(len(events))
	c.logger.Debug("analytics events published", "count", len(events))
}
