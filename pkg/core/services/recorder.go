package services

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/ports"
)

// ErrRecorderClosed is returned by Submit after Close.
var ErrRecorderClosed = errors.New("event recorder is closed")

// RecorderConfig configures the event recorder
type RecorderConfig struct {
	Workers      int
	QueueSize    int
	WriteTimeout time.Duration
}

func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		Workers:      4,
		QueueSize:    1024,
		WriteTimeout: 3 * time.Second,
	}
}

// EventRecorder writes analytics events on a fixed set of workers. Submit never
// blocks; when the queue is full the event is dropped.
type EventRecorder struct {
	writer  ports.EventWriter
	config  RecorderConfig
	metrics ports.Metrics
	log     *zap.Logger

	queue chan *domain.AnalyticsEvent
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewEventRecorder starts the workers. Call Close to drain and stop them.
func NewEventRecorder(writer ports.EventWriter, config RecorderConfig, metrics ports.Metrics, log *zap.Logger) *EventRecorder {
	defaults := DefaultRecorderConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	r := &EventRecorder{
		writer:  writer,
		config:  config,
		metrics: metrics,
		log:     log,
		queue:   make(chan *domain.AnalyticsEvent, config.QueueSize),
	}

	for i := 0; i < config.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}

	log.Info("Event recorder started",
		zap.Int("workers", config.Workers),
		zap.Int("queue_size", config.QueueSize))
	return r
}

// Submit queues an event for writing.
func (r *EventRecorder) Submit(event *domain.AnalyticsEvent) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.metrics.EventDropped("closed")
		return ErrRecorderClosed
	}

	select {
	case r.queue <- event:
		return nil
	default:
		r.metrics.EventDropped("queue_full")
		return domain.ErrQueueFull
	}
}

// Close stops accepting events and waits for queued ones to be written, or for
// ctx to expire.
func (r *EventRecorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.log.Info("Event recorder drained")
		return nil
	case <-ctx.Done():
		r.log.Warn("Event recorder drain interrupted", zap.Int("pending", len(r.queue)))
		return ctx.Err()
	}
}

func (r *EventRecorder) worker() {
	defer r.wg.Done()

	for event := range r.queue {
		r.write(event)
	}
}

func (r *EventRecorder) write(event *domain.AnalyticsEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.writer.RecordEvent(ctx, event); err != nil {
		r.log.Warn("Failed to record analytics event",
			zap.Error(err),
			zap.String("link_id", event.LinkID),
			zap.String("platform", string(event.Platform)))
		r.metrics.EventDropped("write_failed")
		return
	}
	r.metrics.EventRecorded()
}

var _ ports.EventSink = (*EventRecorder)(nil)
