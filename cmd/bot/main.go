package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rock-coffee/loyalty-bot/internal/bot"
	"github.com/rock-coffee/loyalty-bot/internal/clientcache"
	"github.com/rock-coffee/loyalty-bot/internal/database"
	"github.com/rock-coffee/loyalty-bot/internal/health"
	"github.com/rock-coffee/loyalty-bot/internal/idempotency"
	"github.com/rock-coffee/loyalty-bot/internal/jobs"
	"github.com/rock-coffee/loyalty-bot/internal/jobs/handlers"
	"github.com/rock-coffee/loyalty-bot/internal/ratelimit"
	"github.com/rock-coffee/loyalty-bot/internal/registration"
	"github.com/rock-coffee/loyalty-bot/internal/registry"
	"github.com/rock-coffee/loyalty-bot/internal/repository"
	"github.com/rock-coffee/loyalty-bot/pkg/config"
	"github.com/rock-coffee/loyalty-bot/pkg/graceful"
	"github.com/rock-coffee/loyalty-bot/pkg/logger"
	"github.com/rock-coffee/loyalty-bot/pkg/metrics"
	redisclient "github.com/rock-coffee/loyalty-bot/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(*cfg)
	log.Info("starting loyalty bot",
		slog.String("env", cfg.AppEnv),
		slog.String("bot_mode", cfg.Bot.Mode),
		slog.String("http_port", cfg.Server.Port),
	)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Error("failed to initialize sentry", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("error closing database", slog.Any("error", cerr))
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		os.Exit(1)
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, "migrations"); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if cerr := rdb.Close(); cerr != nil {
			log.Error("error closing redis", slog.Any("error", cerr))
		}
	}()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	jobsManager := jobs.NewManager(redisOpt, log)
	defer func() {
		if cerr := jobsManager.Close(); cerr != nil {
			log.Error("error closing jobs client", slog.Any("error", cerr))
		}
	}()

	loyalty := config.WatchLoyalty(v, cfg.Loyalty)

	clientRepo := repository.NewClientRepository(db, log)
	cache := clientcache.NewCache(rdb.Client)
	clients := registry.NewService(clientRepo, cache, jobsManager, log, func() int64 {
		return loyalty().WelcomeBonus
	})

	registration.RegisterTransitionRecorder(metrics.RecordWorkflowTransition)
	sessionStorage := registration.NewRedisStorage(rdb.Client, log)
	machine := registration.NewMachine(sessionStorage, log, rdb.Client)
	workflow := registration.NewWorkflow(machine, clients, log)

	idempotencyStore := idempotency.NewRedisStore(rdb.Client, log)
	idempotencyManager := idempotency.NewManager(idempotencyStore, log)

	limiter := ratelimit.NewRedisLimiter(rdb.Client, log)

	tgBot, err := bot.New(*cfg, log, workflow, idempotencyManager, limiter)
	if err != nil {
		log.Error("failed to initialize telegram bot", slog.Any("error", err))
		os.Exit(1)
	}

	worker := jobs.NewWorker(redisOpt, log)
	worker.RegisterHandler(jobs.TypeWelcomeNotification, handlers.NewWelcomeHandler(clients, tgBot.Telebot(), log))

	checker := health.NewChecker(log)
	checker.AddCheck("database", health.NewDBChecker(db))
	checker.AddCheck("redis", health.NewRedisChecker(rdb.Client))
	checker.AddCheck("telegram", health.NewTelegramChecker(tgBot.Telebot()))

	srv := graceful.NewServer(log, &http.Server{
		Addr:    cfg.Server.Port,
		Handler: logger.Middleware(log)(buildMux(checker)),
	}, cfg.Server.ShutdownTimeout)

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			log.Error("http server stopped", slog.Any("error", err))
		}
	}()

	go func() {
		if err := worker.Run(); err != nil {
			log.Error("jobs worker stopped", slog.Any("error", err))
			stop()
		}
	}()

	go tgBot.Start()

	<-ctx.Done()

	log.Info("shutting down loyalty bot")
	tgBot.Stop()
	worker.Shutdown()
}

func buildMux(checker *health.Checker) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		statuses := checker.Check(ctx)

		w.Header().Set("Content-Type", "application/json")
		if !checker.Healthy(ctx) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(statuses)
	})

	return mux
}
