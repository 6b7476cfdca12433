package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"expenseweb/internal/amqp"
	"expenseweb/internal/api"
	"expenseweb/internal/cache"
	"expenseweb/internal/cli"
	"expenseweb/internal/forms"
	apphttp "expenseweb/internal/http"
	"expenseweb/internal/log"
	"expenseweb/internal/middleware/ratelimit"
	"expenseweb/internal/page"
	"expenseweb/internal/session"
	"expenseweb/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	client := api.New(cfg.APIBaseURL, api.WithTimeout(cfg.APITimeout), api.WithLogger(logger))
	loader := page.NewLoader(client, logger)

	var checks []apphttp.Check
	cacheManager := cache.NewManager(logger)

	// Sessions
	var (
		store        session.Store
		sessionCount func() int
	)
	switch cfg.SessionStore {
	case "redis":
		rdb, err := session.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to connect to Redis", log.FieldError, err, "addr", cfg.RedisURL)
			os.Exit(1)
		}
		defer rdb.Close()
		rs := session.NewRedisStore(rdb, cfg.SessionTTL)
		store = rs
		checks = append(checks, apphttp.Check{Name: "redis", Fn: rs.Ping})
		logger.Info("Using Redis session store", "addr", cfg.RedisURL)
	default:
		ms := session.NewMemoryStore(cfg.SessionMax, cfg.SessionTTL)
		store, sessionCount = ms, ms.Size
		cacheManager.Register(ms)
		logger.Info("Using in-memory session store", "max_sessions", cfg.SessionMax)
	}
	cacheManager.StartCleanup(5 * time.Minute)

	// Activity journal and events
	var (
		journal   *storage.Journal
		recorders forms.MultiRecorder
	)
	if cfg.JournalDBPath != "" {
		journal = cli.OpenJournal(logger, cfg.JournalDBPath)
		defer journal.Close()
		checks = append(checks, apphttp.Check{Name: "journal", Fn: journal.Ping})
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, activity events disabled", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			recorders = append(recorders, amqpClient)
			logger.Info("Publishing activity events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}
	// Without a broker the web process journals submissions itself; with one
	// the activity worker does.
	if journal != nil && amqpClient == nil {
		recorders = append(recorders, journal)
	}

	controller := forms.NewController(client, loader, logger, forms.WithRecorder(recorders))

	deps := apphttp.Deps{
		API:          client,
		Loader:       loader,
		Forms:        controller,
		Sessions:     session.NewManager(store, cfg.SessionTTL, logger).WithSecureCookie(cfg.SecureCookie),
		Checks:       checks,
		SessionCount: sessionCount,
		Logger:       logger,
	}
	if journal != nil {
		deps.Activity = journal
	}

	rl := ratelimit.DefaultConfig()
	rl.RequestsPerMinute = cfg.RateLimitPerMinute
	rl.Burst = cfg.RateLimitBurst

	srv, err := apphttp.NewServer(apphttp.Config{Addr: ":" + cfg.Port, RateLimit: rl}, deps)
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		os.Exit(1)
	}

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
	})

	logger.Info("Starting expenseweb server",
		"port", cfg.Port,
		"api", client.BaseURL(),
		"session_store", cfg.SessionStore,
		"journal", cfg.JournalDBPath != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
