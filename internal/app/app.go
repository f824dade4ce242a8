package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"golang.org/x/sync/errgroup"

	"github.com/vadimbarashkov/link-shortener/internal/allocator"
	api "github.com/vadimbarashkov/link-shortener/internal/api/http"
	"github.com/vadimbarashkov/link-shortener/internal/cache"
	"github.com/vadimbarashkov/link-shortener/internal/clicks"
	"github.com/vadimbarashkov/link-shortener/internal/config"
	"github.com/vadimbarashkov/link-shortener/internal/database/postgres"
	"github.com/vadimbarashkov/link-shortener/internal/identity"
	"github.com/vadimbarashkov/link-shortener/internal/screening"
	"github.com/vadimbarashkov/link-shortener/internal/service"
	pkgpostgres "github.com/vadimbarashkov/link-shortener/pkg/postgres"
	pkgredis "github.com/vadimbarashkov/link-shortener/pkg/redis"
)

func newLogger(env string) *httplog.Logger {
	opts := httplog.Options{
		LogLevel: slog.LevelDebug,
		Concise:  true,
	}

	switch env {
	case config.EnvProd:
		opts.JSON = true
		opts.LogLevel = slog.LevelInfo
		opts.Concise = false
	case config.EnvStage:
		opts.JSON = true
	}

	return httplog.NewLogger("link-shortener", opts)
}

// Run wires the application together and serves HTTP until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := newLogger(cfg.Env)

	db, err := pkgpostgres.New(
		ctx,
		cfg.Postgres.DSN(),
		pkgpostgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pkgpostgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pkgpostgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pkgpostgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := pkgpostgres.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	rdb, err := pkgredis.New(
		ctx,
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		pkgredis.WithDialTimeout(cfg.Redis.DialTimeout),
		pkgredis.WithReadTimeout(cfg.Redis.ReadTimeout),
		pkgredis.WithWriteTimeout(cfg.Redis.WriteTimeout),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to redis: %w", op, err)
	}
	defer rdb.Close()

	linkRepo := postgres.NewLinkRepository(db)

	accountant := clicks.NewAccountant(linkRepo, logger.Logger, cfg.Clicks.BufferSize, cfg.Clicks.WorkerCount)
	defer accountant.Close()

	linkSvc := service.NewLinkService(
		linkRepo,
		allocator.NewCodeAllocator(rdb),
		cache.NewLinkCache(rdb, cfg.Cache.TTL),
		accountant,
		screening.NewWebRiskScreener(cfg.Screening.APIKey, cfg.Screening.Timeout, logger.Logger),
		nil,
		logger.Logger,
	)

	router := api.NewRouter(logger, linkSvc, identity.NewTokenResolver(), cfg.BaseURL)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
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
