package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/trustreach/verifyd/internal/api"
	"github.com/trustreach/verifyd/internal/app"
	"github.com/trustreach/verifyd/internal/app/maintenance"
	"github.com/trustreach/verifyd/internal/audit"
	"github.com/trustreach/verifyd/internal/database"
	"github.com/trustreach/verifyd/internal/middleware"
	"github.com/trustreach/verifyd/internal/notify"
	"github.com/trustreach/verifyd/internal/verification"
	"github.com/trustreach/verifyd/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("verifyd", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	redisClient := connectRedis(ctx, cfg, log)
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	var store verification.Store
	if redisClient != nil {
		store = verification.NewRedisStore(redisClient)
	} else {
		store = verification.NewMemoryStore()
	}

	verifier, err := verification.NewService(store,
		verification.WithCodeTTL(cfg.Verification.CodeTTL),
		verification.WithMaxAttempts(cfg.Verification.MaxAttempts),
	)
	if err != nil {
		return fmt.Errorf("initialise verification service: %w", err)
	}

	notifier := buildNotifier(cfg, log)

	var auditSvc *audit.Service
	var auditDB *gorm.DB
	if cfg.Audit.Enabled {
		auditDB, err = openAuditDatabase(cfg)
		if err != nil {
			return err
		}
		auditSvc, err = audit.NewService(auditDB)
		if err != nil {
			return fmt.Errorf("initialise audit service: %w", err)
		}
	}
	defer closeDatabase(auditDB, log)

	cleaner := maintenance.NewCleaner(verifier, auditSvc,
		maintenance.WithSweepInterval(cfg.Verification.SweepInterval),
		maintenance.WithAuditRetentionDays(cfg.Audit.RetentionDays),
	)
	if err := cleaner.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	defer func() {
		stopCtx := cleaner.Stop()
		if err := cleaner.RunOnce(stopCtx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}()

	var rateStore middleware.RateStore
	if redisClient != nil {
		rateStore = middleware.NewRedisRateStore(redisClient)
	} else {
		rateStore = middleware.NewMemoryRateStore()
	}

	router, err := api.NewRouter(cfg, api.Dependencies{
		Verifier:  verifier,
		Notifier:  notifier,
		Audit:     auditSvc,
		RateStore: rateStore,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

// connectRedis returns a verified Redis client, or nil when Redis is disabled
// or unreachable. An unreachable Redis downgrades to the in-process store so
// a cache outage never blocks issuing codes.
func connectRedis(ctx context.Context, cfg *app.Config, log *zap.Logger) *redis.Client {
	if !cfg.Cache.Redis.Enabled {
		return nil
	}

	client := redis.NewClient(cfg.Cache.RedisOptions())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable; falling back to in-memory record store", zap.Error(err))
		_ = client.Close()
		return nil
	}

	log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
	return client
}

// buildNotifier selects the outbound email transport. With SMTP disabled the
// log notifier keeps the flow operable for local development.
func buildNotifier(cfg *app.Config, log *zap.Logger) notify.Notifier {
	if !cfg.Email.SMTP.Enabled {
		log.Warn("smtp disabled; verification emails will only be logged")
		return notify.NewLogNotifier()
	}

	notifier, err := notify.NewSMTPNotifier(cfg.Email.SMTPSettings())
	if err != nil {
		log.Error("invalid smtp settings; verification emails will only be logged", zap.Error(err))
		return notify.NewLogNotifier()
	}

	log.Info("smtp notifier configured",
		zap.String("host", cfg.Email.SMTP.Host),
		zap.Int("port", cfg.Email.SMTP.Port),
	)
	return notifier
}

func openAuditDatabase(cfg *app.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.Audit.DatabaseConfig())
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate audit database: %w", err)
	}

	logger.WithModule("database").Info("audit database connected",
		zap.String("driver", strings.ToLower(strings.TrimSpace(cfg.Audit.Database.Driver))),
	)
	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
