package main

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/Domenick1991/repricing/internal/kafka"
	"github.com/Domenick1991/repricing/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) EnsureSchema(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockEventRepository) Save(ctx context.Context, event domain.RepricingEvent) (bool, error) {
	args := m.Called(ctx, event)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventRepository) ListBySession(ctx context.Context, repricingSessionID string) ([]domain.RepricingEvent, error) {
	args := m.Called(ctx, repricingSessionID)
	events, _ := args.Get(0).([]domain.RepricingEvent)
	return events, args.Error(1)
}

func (m *MockEventRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// replaySource hands each event to the handler, then either stops with the
// handler's error or blocks until ctx is done.
type replaySource struct {
	events []domain.RepricingEvent
}

func (s *replaySource) Consume(ctx context.Context, handle kafka.EventHandler) error {
	for _, e := range s.events {
		if err := handle(ctx, e); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

type recordingNotifier struct {
	mu   sync.Mutex
	seen []string
}

func (n *recordingNotifier) Notify(ctx context.Context, event domain.RepricingEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen = append(n.seen, event.ID)
	return nil
}

func newTestWorker(source eventSource, repo *MockEventRepository, notifier eventNotifier) *worker {
	return &worker{
		source:     source,
		events:     repo,
		notifier:   notifier,
		sweepEvery: time.Hour,
		retention:  24 * time.Hour,
		now:        time.Now,
	}
}

func TestWorker_HandlerFailureStopsRun(t *testing.T) {
	repo := &MockEventRepository{}
	event := domain.RepricingEvent{ID: "e-1", RepricingSessionID: "rp-1"}
	repo.On("Save", mock.Anything, event).Return(false, errors.New("connection reset")).Once()

	w := newTestWorker(&replaySource{events: []domain.RepricingEvent{event}}, repo, &recordingNotifier{})

	done := make(chan error, 1)
	go func() { done <- w.run(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorContains(t, err, "connection reset")
		assert.ErrorContains(t, err, "save event e-1")
	case <-time.After(2 * time.Second):
		t.Fatal("run kept going after the consumer stopped")
	}
	repo.AssertExpectations(t)
}

func TestWorker_ConsumerReturningNilIsAnError(t *testing.T) {
	w := newTestWorker(stoppedSource{}, &MockEventRepository{}, &recordingNotifier{})

	err := w.run(context.Background())

	assert.ErrorIs(t, err, errConsumerStopped)
}

type stoppedSource struct{}

func (stoppedSource) Consume(context.Context, kafka.EventHandler) error { return nil }

func TestWorker_CancelIsCleanShutdown(t *testing.T) {
	repo := &MockEventRepository{}
	first := domain.RepricingEvent{ID: "e-1", RepricingSessionID: "rp-1"}
	replay := domain.RepricingEvent{ID: "e-2", RepricingSessionID: "rp-1"}
	repo.On("Save", mock.Anything, first).Return(true, nil).Once()
	repo.On("Save", mock.Anything, replay).Return(false, nil).Once()
	notifier := &recordingNotifier{}

	w := newTestWorker(&replaySource{events: []domain.RepricingEvent{first, replay}}, repo, notifier)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.run(ctx) }()

	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.seen) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	assert.Equal(t, []string{"e-1"}, notifier.seen)
}

func TestWorker_SweepUsesRetention(t *testing.T) {
	repo := &MockEventRepository{}
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo.On("DeleteBefore", mock.Anything, now.Add(-24*time.Hour)).Return(int64(3), nil).Once()

	w := newTestWorker(stoppedSource{}, repo, &recordingNotifier{})
	w.now = func() time.Time { return now }
	w.sweep(context.Background())

	repo.AssertExpectations(t)
}

func TestWorker_NotifiesThroughNotifier(t *testing.T) {
	repo := &MockEventRepository{}
	event := domain.RepricingEvent{ID: "e-1", Type: domain.EventPaymentLinkIssued, RepricingSessionID: "rp-1"}
	repo.On("Save", mock.Anything, event).Return(true, nil).Once()
	var buf bytes.Buffer

	w := newTestWorker(stoppedSource{}, repo, notify.NewNotifier(&buf))
	require.NoError(t, w.handle(context.Background(), event))

	assert.Contains(t, buf.String(), "rp-1")
}
