package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"example.com/actuaryjobs/internal/config"
	"example.com/actuaryjobs/internal/ingest"
	spg "example.com/actuaryjobs/internal/storage/postgres"
	ssqlite "example.com/actuaryjobs/internal/storage/sqlite"
	transport "example.com/actuaryjobs/internal/transport/http"
)

type store interface {
	transport.JobStore
	EnsureSchema(ctx context.Context) error
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("dotenv: %v", err)
	}
	cfg := config.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("config loaded",
		zap.String("driver", cfg.DBDriver),
		zap.String("port", cfg.Port),
		zap.Int("batch_max_size", cfg.BatchMaxSize),
		zap.Duration("batch_timeout", cfg.BatchTimeout),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		db     store
		writer ingest.BatchStore
	)
	switch cfg.DBDriver {
	case config.DriverSQLite:
		sdb, err := ssqlite.Open(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("db open", zap.Error(err))
		}
		defer sdb.Close()
		db, writer = sdb, ssqlite.NewWriter(sdb, cfg.BatchMaxSize)
	default:
		pdb, err := spg.Connect(ctx, spg.Options{DSN: cfg.PostgresDSN, MaxConns: int32(cfg.DBMaxConns)})
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pdb.Close()
		db, writer = pdb, spg.NewWriter(pdb, cfg.BatchIsolation, cfg.BatchMaxSize)
	}
	logger.Info("db: connected", zap.String("driver", cfg.DBDriver))

	if err := db.EnsureSchema(ctx); err != nil {
		logger.Fatal("schema", zap.Error(err))
	}
	logger.Info("db: schema ready")

	now := func() time.Time { return time.Now().UTC() }
	deps := &transport.ServerDeps{
		Cfg:    cfg,
		Store:  db,
		Loader: ingest.NewLoader(writer, cfg.BatchTimeout, now, logger.Named("ingest")),
		Logger: logger,
		Now:    now,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           deps.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.BatchTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel2()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}
