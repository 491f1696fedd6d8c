package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bryanwahyu/skinlens/internal/application"
	"github.com/bryanwahyu/skinlens/internal/application/analysis"
	appnarrative "github.com/bryanwahyu/skinlens/internal/application/narrative"
	"github.com/bryanwahyu/skinlens/internal/application/recommend"
	"github.com/bryanwahyu/skinlens/internal/config"
	"github.com/bryanwahyu/skinlens/internal/domain/catalog"
	"github.com/bryanwahyu/skinlens/internal/domain/inference"
	"github.com/bryanwahyu/skinlens/internal/domain/narrative"
	"github.com/bryanwahyu/skinlens/internal/domain/profiles"
	aiopenai "github.com/bryanwahyu/skinlens/internal/infra/ai/openai"
	"github.com/bryanwahyu/skinlens/internal/infra/db"
	"github.com/bryanwahyu/skinlens/internal/infra/httpserver"
	"github.com/bryanwahyu/skinlens/internal/infra/inference/remote"
	minioStore "github.com/bryanwahyu/skinlens/internal/infra/storage"
	"github.com/bryanwahyu/skinlens/internal/logging"
	"github.com/bryanwahyu/skinlens/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.Init(level, cfg.Log.Format, os.Stderr)

	engine, err := cfg.NewEngine(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("fusion engine: %w", err)
	}
	ec := engine.Config()
	logger.Info("fusion engine ready",
		"mode", ec.Mode,
		"combine", ec.Combine,
		"high", ec.Thresholds.High,
		"low", ec.Thresholds.Low,
		"low_inclusive", ec.Thresholds.LowInclusive,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checkers := map[string]middleware.HealthChecker{}

	// database (optional)
	var (
		profileRepo profiles.Repository
		catalogRepo catalog.Repository
	)
	if dsn := cfg.DSN(); dsn != "" {
		conn, err := db.Connect(ctx, cfg.Database.Driver, dsn)
		if err != nil {
			return fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
		}
		defer conn.Close()
		profileRepo, catalogRepo = db.Repositories(cfg.Database.Driver, conn)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: conn}
	} else {
		logger.Warn("no database configured, profiles are not persisted")
	}

	// init minio (optional)
	var artifacts profiles.ArtifactStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		artifacts = store
	}

	var predictor inference.Predictor
	if cfg.Inference.BaseURL != "" {
		predictor = remote.New(cfg.Inference.BaseURL, cfg.Inference.APIKey,
			time.Duration(cfg.Inference.TimeoutSeconds)*time.Second)
	}

	var narrator narrative.Narrator = aiopenai.Local{}
	if cfg.OpenAI.APIKey != "" {
		narrator = aiopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}

	analysisSvc := &analysis.Service{
		Engine:    engine,
		Predictor: predictor,
		Profiles:  profileRepo,
		Artifacts: artifacts,
		Clock:     application.SystemClock{},
		Logger:    logging.New("analysis"),
	}
	var recommendSvc *recommend.Service
	if catalogRepo != nil {
		recommendSvc = &recommend.Service{
			Catalog:  catalogRepo,
			Profiles: profileRepo,
			Canon:    engine.Canonicalizer(),
		}
	}

	var limiter *middleware.RateLimiter
	if rl := cfg.Server.RateLimit; rl.Capacity > 0 {
		limiter = middleware.NewRateLimiter(rl.Capacity, rl.RefillPerSecond)
		go limiter.Run(ctx)
	}

	handler := httpserver.NewRouter(httpserver.Deps{
		Analysis:       analysisSvc,
		Recommend:      recommendSvc,
		Narrative:      appnarrative.NewService(narrator, profileRepo),
		Checkers:       checkers,
		Logger:         logging.New("http"),
		APIKeys:        cfg.Server.APIKeys,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Limiter:        limiter,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// graceful shutdown
	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}
