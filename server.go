package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/ukane-philemon/transcripts/internal/config"
	"github.com/ukane-philemon/transcripts/internal/db/mongodb"
	"github.com/ukane-philemon/transcripts/internal/db/postgres"
	"github.com/ukane-philemon/transcripts/internal/db/redis"
	"github.com/ukane-philemon/transcripts/internal/db/sqlite"
	"github.com/ukane-philemon/transcripts/internal/transcript"
	"github.com/ukane-philemon/transcripts/rest"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		isDevMode bool
		port      string
	)

	cmd := &cobra.Command{
		Use:          "transcripts",
		Short:        "Serve student transcripts over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("dev") {
				cfg.Dev = isDevMode
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			log, err := newLogger(cfg)
			if err != nil {
				return fmt.Errorf("newLogger error: %w", err)
			}
			defer func() { _ = log.Sync() }()

			// Ensure graceful shutdown by capturing SIGINT and SIGTERM signals.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, log)
		},
	}

	cmd.Flags().BoolVar(&isDevMode, "dev", false, "Run server in development mode")
	cmd.Flags().StringVar(&port, "port", "", "Port to listen on, overrides PORT")

	return cmd
}

// run serves until ctx is canceled, then drains in-flight requests and
// releases the store.
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	handler := rest.NewHandler(store, log, rest.Options{
		RateLimit:      cfg.RateLimit,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:    net.JoinHostPort("", cfg.Port),
		Handler: handler.Router(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("transcripts server started",
			zap.String("addr", srv.Addr),
			zap.String("db_driver", cfg.DBDriver),
			zap.Bool("dev", cfg.Dev),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("srv.ListenAndServe error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down transcripts server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("srv.Shutdown error: %w", err))
		}
		if err := store.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("store.Shutdown error: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		log.Error("transcripts server stopped with error", zap.Error(err))
		return err
	}

	log.Info("transcripts server stopped")
	return nil
}

// openStore creates the store with the persister selected by cfg.DBDriver.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*transcript.Store, error) {
	bounds, err := cfg.GradeBounds()
	if err != nil {
		return nil, err
	}

	var persister transcript.Persister
	switch cfg.DBDriver {
	case config.DriverMemory:
		return transcript.NewStore(bounds)
	case config.DriverMongoDB:
		persister, err = mongodb.New(ctx, log, cfg.MongoDBName(), cfg.DBURL)
	case config.DriverPostgres:
		persister, err = postgres.New(ctx, log, cfg.DBURL)
	case config.DriverRedis:
		persister, err = redis.New(ctx, log, cfg.DBURL, redis.DefaultPrefix)
	case config.DriverSQLite:
		persister, err = sqlite.New(ctx, log, cfg.DBURL)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s.New error: %w", cfg.DBDriver, err)
	}

	store, err := transcript.Open(ctx, bounds, persister)
	if err != nil {
		_ = persister.Shutdown(context.Background())
		return nil, err
	}

	return store, nil
}

// newLogger builds a production logger, or a development logger in dev mode.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Dev {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}
