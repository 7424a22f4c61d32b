package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/Domenick1991/repricing/internal/kafka"
	"github.com/Domenick1991/repricing/internal/repository"
)

var errConsumerStopped = errors.New("consumer stopped without error")

type eventSource interface {
	Consume(ctx context.Context, handle kafka.EventHandler) error
}

type eventNotifier interface {
	Notify(ctx context.Context, event domain.RepricingEvent) error
}

// worker stores consumed repricing events, notifies on first sight and
// prunes events older than the retention window.
type worker struct {
	source     eventSource
	events     repository.RepricingEventRepository
	notifier   eventNotifier
	sweepEvery time.Duration
	retention  time.Duration
	now        func() time.Time
}

// run blocks until ctx is done or the consumer stops. A stopped consumer is
// an error so the process exits instead of only pruning.
func (w *worker) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- w.source.Consume(ctx, w.handle)
	}()

	ticker := time.NewTicker(w.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case err := <-consumeErr:
			if ctx.Err() != nil {
				return nil
			}
			if err == nil {
				err = errConsumerStopped
			}
			return fmt.Errorf("consume repricing events: %w", err)
		case <-ticker.C:
			w.sweep(ctx)
		case <-ctx.Done():
			<-consumeErr
			return nil
		}
	}
}

func (w *worker) handle(ctx context.Context, event domain.RepricingEvent) error {
	inserted, err := w.events.Save(ctx, event)
	if err != nil {
		return fmt.Errorf("save event %s: %w", event.ID, err)
	}
	if !inserted {
		return nil
	}
	return w.notifier.Notify(ctx, event)
}

func (w *worker) sweep(ctx context.Context) {
	removed, err := w.events.DeleteBefore(ctx, w.now().Add(-w.retention))
	if err != nil {
		log.Printf("[worker] prune events error: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[worker] pruned %d repricing events", removed)
	}
}
