package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
)

// blockingWriter holds every write until release is closed
type blockingWriter struct {
	release chan struct{}
	mu      sync.Mutex
	written []string
}

func (w *blockingWriter) RecordEvent(ctx context.Context, event *domain.AnalyticsEvent) error {
	<-w.release
	w.mu.Lock()
	defer w.mu.Unlock()
	w.written = append(w.written, event.LinkID)
	return nil
}

func (w *blockingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.written)
}

type countingMetrics struct {
	mu       sync.Mutex
	recorded int
	dropped  map[string]int
}

func (m *countingMetrics) ResolutionServed(domain.Platform, string) {}
func (m *countingMetrics) ResolutionFailed(string)                  {}
func (m *countingMetrics) EventRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded++
}
func (m *countingMetrics) EventDropped(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dropped == nil {
		m.dropped = map[string]int{}
	}
	m.dropped[reason]++
}

func TestEventRecorder_WritesAndDrains(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("RecordEvent", mock.Anything, mock.Anything).Return(nil)
	metrics := &countingMetrics{}

	r := NewEventRecorder(repo, RecorderConfig{Workers: 2, QueueSize: 16}, metrics, zap.NewNop())
	for i := 0; i < 10; i++ {
		require.NoError(t, r.Submit(&domain.AnalyticsEvent{LinkID: "abc12345"}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))

	repo.AssertNumberOfCalls(t, "RecordEvent", 10)
	assert.Equal(t, 10, metrics.recorded)
}

func TestEventRecorder_DropsWhenFull(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{})}
	metrics := &countingMetrics{}
	r := NewEventRecorder(w, RecorderConfig{Workers: 1, QueueSize: 1}, metrics, zap.NewNop())

	// The single worker takes the first event and blocks; the second fills the queue.
	require.NoError(t, r.Submit(&domain.AnalyticsEvent{LinkID: "a"}))
	require.Eventually(t, func() bool { return len(r.queue) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, r.Submit(&domain.AnalyticsEvent{LinkID: "b"}))

	err := r.Submit(&domain.AnalyticsEvent{LinkID: "c"})
	assert.True(t, errors.Is(err, domain.ErrQueueFull))
	assert.Equal(t, 1, metrics.dropped["queue_full"])

	close(w.release)
	require.NoError(t, r.Close(context.Background()))
	assert.Equal(t, 2, w.count())
}

func TestEventRecorder_SubmitAfterClose(t *testing.T) {
	repo := new(MockLinkRepository)
	r := NewEventRecorder(repo, RecorderConfig{}, nil, nil)
	require.NoError(t, r.Close(context.Background()))
	require.NoError(t, r.Close(context.Background()))

	err := r.Submit(&domain.AnalyticsEvent{LinkID: "abc12345"})
	assert.True(t, errors.Is(err, ErrRecorderClosed))
	repo.AssertNotCalled(t, "RecordEvent", mock.Anything, mock.Anything)
}

func TestEventRecorder_WriteFailureIsSwallowed(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("RecordEvent", mock.Anything, mock.Anything).Return(errors.New("database is locked"))
	metrics := &countingMetrics{}

	r := NewEventRecorder(repo, RecorderConfig{Workers: 1, QueueSize: 4}, metrics, zap.NewNop())
	require.NoError(t, r.Submit(&domain.AnalyticsEvent{LinkID: "abc12345"}))
	require.NoError(t, r.Close(context.Background()))

	assert.Equal(t, 0, metrics.recorded)
	assert.Equal(t, 1, metrics.dropped["write_failed"])
}

func TestEventRecorder_CloseHonorsContext(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{})}
	r := NewEventRecorder(w, RecorderConfig{Workers: 1, QueueSize: 4}, nil, zap.NewNop())
	require.NoError(t, r.Submit(&domain.AnalyticsEvent{LinkID: "a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Close(ctx), context.DeadlineExceeded)

	close(w.release)
}
