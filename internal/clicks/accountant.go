// Package clicks implements asynchronous click accounting. Redirect handlers
// hand a click event to the accountant and return immediately; a fixed pool
// of workers persists the events with its own store handle, so accounting
// delay or failure never reaches the redirect path.
package clicks

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vadimbarashkov/link-shortener/internal/database"
	"github.com/vadimbarashkov/link-shortener/internal/models"
)

// ClickStore persists one click event: the relative counter increment plus
// the appended click_events row.
type ClickStore interface {
	RecordClick(ctx context.Context, event models.ClickEvent) error
}

type Accountant struct {
	store  ClickStore
	logger *slog.Logger
	events chan models.ClickEvent

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewAccountant starts workerCount workers draining a buffer of bufferSize
// events. The returned accountant must be closed to flush in-flight events.
func NewAccountant(store ClickStore, logger *slog.Logger, bufferSize, workerCount int) *Accountant {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	if workerCount <= 0 {
		workerCount = 1
	}

	a := &Accountant{
		store:  store,
		logger: logger,
		events: make(chan models.ClickEvent, bufferSize),
	}

	for i := 0; i < workerCount; i++ {
		a.wg.Add(1)
		go a.worker()
	}

	return a
}

// Record schedules accounting work for one redirect. It never blocks: when
// the buffer is full the event is dropped with a warning, trading perfect
// analytics for redirect latency.
func (a *Accountant) Record(event models.ClickEvent) {
	select {
	case a.events <- event:
	default:
		a.logger.Warn("click buffer full, dropping event", slog.String("short_code", event.ShortCode))
	}
}

func (a *Accountant) worker() {
	defer a.wg.Done()

	for event := range a.events {
		// Scheduled work outlives the request that produced it, so the
		// store call runs on a background context.
		err := a.store.RecordClick(context.Background(), event)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				// Lost the race with a delete. Nothing to account.
				continue
			}

			a.logger.Error("failed to record click",
				slog.String("short_code", event.ShortCode),
				slog.Any("err", err),
			)
		}
	}
}

// Close stops accepting events, drains the buffer and waits for the workers.
func (a *Accountant) Close() error {
	a.closeOnce.Do(func() {
		close(a.events)
	})
	a.wg.Wait()

	return nil
}
