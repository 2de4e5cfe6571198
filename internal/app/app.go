package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/webmark/webmark/internal/broker"
	"github.com/webmark/webmark/internal/config"
	"github.com/webmark/webmark/internal/httpserver"
	"github.com/webmark/webmark/internal/httpserver/deps"
	"github.com/webmark/webmark/internal/logger"
	"github.com/webmark/webmark/internal/redis"
	"github.com/webmark/webmark/internal/scheduler"
	"github.com/webmark/webmark/internal/sources/settingsfile"
	"github.com/webmark/webmark/internal/store"
	redisstore "github.com/webmark/webmark/internal/store/redis"
	"github.com/webmark/webmark/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	store       *store.Store
	backup      *scheduler.BackupScheduler
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if configured but unavailable.
	// No address means a volatile run: everything lives in memory only.
	var redisClient *goredis.Client
	if cfg.RedisAddr != "" {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("Redis initialized successfully")
		redisClient = client
	} else {
		loggerClient.Warn("no redis address configured, running in volatile mode")
	}

	// Initialize the highlight store over the right persistence backend.
	var persistence store.Persistence
	var backupSink scheduler.BackupSink
	if redisClient != nil {
		p := redisstore.NewPersistence(redisClient)
		persistence = p
		backupSink = p
	} else {
		persistence = store.NewMemoryPersistence()
	}
	st := store.New(persistence, loggerClient, store.Limits{
		MaxTotal:  cfg.MaxHighlights,
		MaxPerURL: cfg.MaxPerPage,
	})

	// Seed settings from the operator file before loading persisted
	// state, so API-saved preferences still win.
	if cfg.SettingsFile != "" {
		seeded, err := settingsfile.NewLoader(cfg.SettingsFile).Load()
		if err != nil {
			loggerClient.Errorf("Failed to load settings file: %v", err)
			os.Exit(1)
		}
		st.SeedSettings(seeded)
		loggerClient.Info("settings seeded from file",
			logger.String("file", cfg.SettingsFile))
	}

	if err := st.Load(context.Background()); err != nil {
		loggerClient.Warn("failed to load persisted state, starting empty",
			logger.Error(err))
	}

	// Initialize the sync coordinator. It registers itself as the
	// store's notification sink.
	br := broker.New(st, loggerClient)

	// Initialize backup scheduler (needs a durable sink)
	var backup *scheduler.BackupScheduler
	var backupTrigger chan struct{}
	if backupSink != nil {
		backupTrigger = make(chan struct{}, 1)
		backup = scheduler.NewBackupScheduler(
			st,
			backupSink,
			loggerClient,
			cfg.BackupInterval,
			cfg.BackupTTL,
			backupTrigger,
		)
	} else {
		loggerClient.Info("volatile mode, backup scheduler disabled")
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		RedisClient:   redisClient,
		Store:         st,
		Broker:        br,
		BackupTrigger: backupTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		store:       st,
		backup:      backup,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Webmark v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Webmark %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start backup scheduler (if durable)
	if a.backup != nil {
		if err := a.backup.Start(ctx); err != nil {
			return fmt.Errorf("failed to start backup scheduler: %w", err)
		}
		a.logger.Info("backup scheduler started",
			logger.Duration("interval", a.cfg.BackupInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Stop backup scheduler
	if a.backup != nil {
		a.backup.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// Flush store snapshots one last time before letting go of Redis.
	if err := a.store.Flush(shutdownCtx); err != nil {
		a.logger.Warnf("failed to flush store on shutdown: %v", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Webmark stopped cleanly")
	return nil
}
