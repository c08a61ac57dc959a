// Package app wires the application together and runs it until the
// context is canceled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/go-chi/httplog/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/vadimbarashkov/shortly/internal/cache"
	"github.com/vadimbarashkov/shortly/internal/config"
	dbpostgres "github.com/vadimbarashkov/shortly/internal/database/postgres"
	"github.com/vadimbarashkov/shortly/internal/service"
	"github.com/vadimbarashkov/shortly/internal/shortener"
	"github.com/vadimbarashkov/shortly/internal/validation"
	"github.com/vadimbarashkov/shortly/pkg/postgres"

	myhttp "github.com/vadimbarashkov/shortly/internal/api/http"
)

func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := setupLogger(cfg.Env)

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := postgres.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	urlRepo := dbpostgres.NewURLRepository(db)

	urlCache, closeCache, err := setupCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeCache()

	gen, err := shortener.New(cfg.ShortCode.Strategy, cfg.ShortCode.Length, urlRepo)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	urlSvc := service.NewURLService(urlRepo, urlCache, gen, validation.New(), logger.Logger, service.Options{
		MaxRetries:      cfg.ShortCode.MaxRetries,
		StoreTimeout:    cfg.Postgres.QueryTimeout,
		CacheTimeout:    cfg.Cache.Timeout,
		ClickWorkers:    cfg.Clicks.Workers,
		ClickQueueSize:  cfg.Clicks.QueueSize,
		ClickMaxRetries: cfg.Clicks.MaxRetries,
	})
	defer urlSvc.Close()

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        myhttp.NewRouter(logger, urlSvc, cfg.BaseURL),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

func setupLogger(env string) *httplog.Logger {
	opts := httplog.Options{
		LogLevel: slog.LevelDebug,
		Concise:  true,
	}

	switch env {
	case config.EnvStage:
		opts = httplog.Options{
			LogLevel: slog.LevelInfo,
			JSON:     true,
		}
	case config.EnvProd:
		opts = httplog.Options{
			LogLevel: slog.LevelInfo,
			JSON:     true,
			Writer:   os.Stdout,
		}
	}

	return httplog.NewLogger("shortly", opts)
}

func setupCache(ctx context.Context, cfg *config.Config) (cache.Cache, func(), error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		return cache.NewRedisCache(client, cfg.Cache.TTL()), func() { _ = client.Close() }, nil
	case config.CacheBackendMemory:
		return cache.NewMemoryCache(cfg.Cache.MaxEntries, cfg.Cache.TTL()), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend: %q", cfg.Cache.Backend)
	}
}
