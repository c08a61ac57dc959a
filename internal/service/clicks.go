package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vadimbarashkov/shortly/internal/database"
)

const (
	defaultClickWorkers    = 2
	defaultClickQueueSize  = 1024
	defaultClickMaxRetries = 3
)

// clickRecorder applies click accounting off the redirect hot path. Updates
// are queued and executed by workers under a detached context, so a client
// disconnecting mid-redirect never cancels an already-dispatched update.
// Transient failures are retried with capped backoff; permanent failures are
// logged and dropped. Click loss is tolerable, blocking a redirect is not.
type clickRecorder struct {
	repo       URLRepository
	logger     *slog.Logger
	queue      chan string
	wg         sync.WaitGroup
	timeout    time.Duration
	maxRetries int
}

func newClickRecorder(repo URLRepository, logger *slog.Logger, opts Options) *clickRecorder {
	workers := opts.ClickWorkers
	if workers <= 0 {
		workers = defaultClickWorkers
	}
	queueSize := opts.ClickQueueSize
	if queueSize <= 0 {
		queueSize = defaultClickQueueSize
	}
	maxRetries := opts.ClickMaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultClickMaxRetries
	}

	r := &clickRecorder{
		repo:       repo,
		logger:     logger,
		queue:      make(chan string, queueSize),
		timeout:    opts.StoreTimeout,
		maxRetries: maxRetries,
	}

	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}

	return r
}

// Record enqueues a click update without blocking. If the queue is full the
// click is dropped and logged.
func (r *clickRecorder) Record(shortCode string) {
	select {
	case r.queue <- shortCode:
	default:
		r.logger.Warn("click queue full, dropping click", slog.String("short_code", shortCode))
	}
}

// Close stops accepting clicks and waits until queued updates are applied.
func (r *clickRecorder) Close() {
	close(r.queue)
	r.wg.Wait()
}

func (r *clickRecorder) worker() {
	defer r.wg.Done()

	for shortCode := range r.queue {
		r.apply(shortCode)
	}
}

func (r *clickRecorder) apply(shortCode string) {
	operation := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		_, err := r.repo.RecordAccess(ctx, shortCode)
		if err != nil && errors.Is(err, database.ErrURLNotFound) {
			// The record vanished from under us; retrying cannot help.
			return backoff.Permanent(err)
		}

		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond

	if err := backoff.Retry(operation, backoff.WithMaxRetries(bo, uint64(r.maxRetries))); err != nil {
		r.logger.Error("click accounting failed",
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
	}
}
