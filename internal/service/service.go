// Package service orchestrates shortening, redirect resolution and click
// accounting on top of the store, the cache and the code generator.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vadimbarashkov/shortly/internal/cache"
	"github.com/vadimbarashkov/shortly/internal/database"
	"github.com/vadimbarashkov/shortly/internal/models"
	"github.com/vadimbarashkov/shortly/internal/shortener"
)

var (
	// ErrMaxRetriesExceeded is returned when the retry cap for generating
	// a unique short code is reached. The whole creation request can be retried.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

	// ErrCodeIntegrity is returned when a conflict-free generation strategy
	// still hits a uniqueness violation. That means the code space guarantee
	// is broken upstream (e.g. by a bulk import) and retrying cannot help.
	ErrCodeIntegrity = errors.New("short code uniqueness guarantee violated")

	// ErrServiceUnavailable is returned when the store cannot be reached
	// within its deadline. Never stands in for database.ErrURLNotFound.
	ErrServiceUnavailable = errors.New("storage unavailable")
)

// URLRepository is the authoritative store contract consumed by the service.
type URLRepository interface {
	// CreateIfAbsent atomically creates a record for originalURL with the
	// candidate short code, or returns the existing record for that URL.
	// The boolean reports whether a new record was created.
	CreateIfAbsent(ctx context.Context, originalURL, shortCode string) (*models.URL, bool, error)

	// GetByShortCode retrieves a record without mutating it.
	GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// RecordAccess atomically increments the click count and stamps the
	// access time, safe under arbitrary concurrent callers.
	RecordAccess(ctx context.Context, shortCode string) (*models.URL, error)
}

// URLValidator rejects URLs before any mutation.
type URLValidator interface {
	Validate(rawURL string) error
}

// Options tune service timeouts and retry caps. Zero values fall back to
// defaults.
type Options struct {
	// MaxRetries caps code generation attempts per creation request.
	MaxRetries int
	// StoreTimeout bounds individual store calls on the request path.
	StoreTimeout time.Duration
	// CacheTimeout bounds cache calls; an expired deadline degrades to a miss.
	CacheTimeout time.Duration
	// ClickWorkers is the number of click accounting workers.
	ClickWorkers int
	// ClickQueueSize bounds the click accounting queue.
	ClickQueueSize int
	// ClickMaxRetries caps retries of a failed click update.
	ClickMaxRetries int
}

const (
	defaultMaxRetries   = 5
	defaultStoreTimeout = 3 * time.Second
	defaultCacheTimeout = 500 * time.Millisecond
)

func (o *Options) withDefaults() {
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = defaultStoreTimeout
	}
	if o.CacheTimeout <= 0 {
		o.CacheTimeout = defaultCacheTimeout
	}
}

// URLService implements the shortening service and the redirect engine.
type URLService struct {
	repo      URLRepository
	cache     cache.Cache
	gen       shortener.Generator
	validator URLValidator
	logger    *slog.Logger
	opts      Options
	clicks    *clickRecorder
}

func NewURLService(
	repo URLRepository,
	c cache.Cache,
	gen shortener.Generator,
	validator URLValidator,
	logger *slog.Logger,
	opts Options,
) *URLService {
	opts.withDefaults()

	return &URLService{
		repo:      repo,
		cache:     c,
		gen:       gen,
		validator: validator,
		logger:    logger,
		opts:      opts,
		clicks:    newClickRecorder(repo, logger, opts),
	}
}

// ShortenURL validates originalURL and maps it to a short code. Surrounding
// whitespace is stripped before anything else, so padded and unpadded forms
// of the same URL share one record. Shortening the same URL any number of
// times, including concurrently, yields the same code: the store upsert is
// the single arbiter and losing requests receive the winner's record. Short
// code conflicts trigger regeneration up to the retry cap; with a
// deterministic generator a conflict is an integrity failure instead.
func (s *URLService) ShortenURL(ctx context.Context, originalURL string) (*models.URL, error) {
	const op = "service.URLService.ShortenURL"

	originalURL = strings.TrimSpace(originalURL)

	if err := s.validator.Validate(originalURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := 0; i < s.opts.MaxRetries; i++ {
		shortCode, err := s.gen.Generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		url, created, err := s.createIfAbsent(ctx, originalURL, shortCode)
		if err != nil {
			if errors.Is(err, database.ErrShortCodeExists) {
				if s.gen.Deterministic() {
					return nil, fmt.Errorf("%s: %w", op, ErrCodeIntegrity)
				}

				s.logger.Warn("short code collision, regenerating",
					slog.String("short_code", shortCode),
					slog.Int("attempt", i+1),
				)
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		if created {
			s.populateCache(ctx, url.ShortCode, url.OriginalURL)
		}

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// ResolveShortCode resolves a short code into its original URL for a redirect
// and dispatches click accounting. The target is returned without waiting for
// the click update; accounting is retried in the background and never affects
// the response.
func (s *URLService) ResolveShortCode(ctx context.Context, shortCode string) (string, error) {
	const op = "service.URLService.ResolveShortCode"

	cctx, cancel := context.WithTimeout(ctx, s.opts.CacheTimeout)
	originalURL, err := s.cache.Lookup(cctx, shortCode)
	cancel()
	if err == nil {
		s.clicks.Record(shortCode)
		return originalURL, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		// Cache trouble is not a user-visible failure; fall through to the store.
		s.logger.Warn("cache lookup failed", slog.String("short_code", shortCode), slog.Any("err", err))
	}

	sctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	url, err := s.repo.GetByShortCode(sctx, shortCode)
	cancel()
	if err != nil {
		if errors.Is(err, database.ErrURLNotFound) {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return "", fmt.Errorf("%s: %w: %v", op, ErrServiceUnavailable, err)
	}

	s.populateCache(ctx, url.ShortCode, url.OriginalURL)
	s.clicks.Record(shortCode)

	return url.OriginalURL, nil
}

// GetURLStats returns the record behind a short code, including its click
// statistics. Stats always come from the store; cached values never carry
// click counts.
func (s *URLService) GetURLStats(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.GetURLStats"

	sctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	url, err := s.repo.GetByShortCode(sctx, shortCode)
	if err != nil {
		if errors.Is(err, database.ErrURLNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return nil, fmt.Errorf("%s: %w: %v", op, ErrServiceUnavailable, err)
	}

	return url, nil
}

// Close drains the click accounting queue. Dispatched updates complete even
// if their originating clients are long gone.
func (s *URLService) Close() {
	s.clicks.Close()
}

// createRetries caps transient retries of the create upsert. Losing a create
// is unacceptable, so the write gets a couple of extra chances before the
// failure is surfaced.
const createRetries = 2

func (s *URLService) createIfAbsent(ctx context.Context, originalURL, shortCode string) (*models.URL, bool, error) {
	var (
		url     *models.URL
		created bool
	)

	operation := func() error {
		sctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
		defer cancel()

		var err error
		url, created, err = s.repo.CreateIfAbsent(sctx, originalURL, shortCode)
		if err != nil && errors.Is(err, database.ErrShortCodeExists) {
			return backoff.Permanent(err)
		}

		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, createRetries), ctx))
	if err != nil {
		if errors.Is(err, database.ErrShortCodeExists) {
			return nil, false, err
		}

		return nil, false, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	return url, created, nil
}

func (s *URLService) populateCache(ctx context.Context, shortCode, originalURL string) {
	cctx, cancel := context.WithTimeout(ctx, s.opts.CacheTimeout)
	defer cancel()

	if err := s.cache.Populate(cctx, shortCode, originalURL); err != nil {
		s.logger.Warn("cache population failed", slog.String("short_code", shortCode), slog.Any("err", err))
	}
}
