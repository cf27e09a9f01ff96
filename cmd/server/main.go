// Crisp Chatbot - support escalation bot for the Crisp live chat.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/purifyx/crisp-chatbot/internal/activity"
	"github.com/purifyx/crisp-chatbot/internal/ai"
	"github.com/purifyx/crisp-chatbot/internal/api"
	"github.com/purifyx/crisp-chatbot/internal/config"
	"github.com/purifyx/crisp-chatbot/internal/crisp"
	"github.com/purifyx/crisp-chatbot/internal/dedupe"
	"github.com/purifyx/crisp-chatbot/internal/engine"
	"github.com/purifyx/crisp-chatbot/internal/middleware"
	"github.com/purifyx/crisp-chatbot/internal/notify"
	"github.com/purifyx/crisp-chatbot/internal/store"
)

// fingerprintTTL is how long a webhook delivery fingerprint is remembered.
const fingerprintTTL = 5 * time.Minute

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.LogLevel)

	slog.Info("Starting server",
		"port", cfg.Port,
		"ai_provider", cfg.AI.Provider,
		"session_backend", cfg.Sessions.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	health := map[string]api.Pinger{"database": repo}

	sessions, redisClient, err := openSessions(ctx, cfg, health)
	if err != nil {
		slog.Error("Failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize AI provider", "error", err)
		os.Exit(1)
	}
	slog.Info("AI provider ready", "provider", provider.Name())

	sink, closeSinks, err := newNotifier(cfg, repo)
	if err != nil {
		slog.Error("Failed to initialize notifiers", "error", err)
		os.Exit(1)
	}
	dispatcher := notify.NewDispatcher(sink, cfg.Notify.QueueSize, cfg.Notify.Timeout, logger)
	defer closeSinks()
	defer dispatcher.Close()

	var replier engine.Replier
	crispClient := crisp.NewClient(cfg.Crisp.WebsiteID, cfg.Crisp.TokenID, cfg.Crisp.TokenKey, cfg.Crisp.Timeout)
	if crispClient.Configured() {
		replier = crispClient
	} else {
		slog.Warn("Crisp credentials not set, replies will only be logged")
	}

	hub := activity.NewHub(50)

	opts := []engine.Option{
		engine.WithTriggers(cfg.SupportTriggers),
		engine.WithDedupeWindow(cfg.DedupeWindow),
		engine.WithAITimeout(cfg.AI.Timeout),
		engine.WithReplyTimeout(cfg.Crisp.Timeout),
		engine.WithReplies(engine.DefaultReplies(cfg.BrandName)),
		engine.WithObserver(hub),
		engine.WithLogger(logger),
	}
	if redisClient != nil {
		// Replicas share fingerprints and serialize sessions through Redis.
		opts = append(opts,
			engine.WithFingerprints(store.NewRedisFingerprints(redisClient, fingerprintTTL)),
			engine.WithSessionLocker(store.NewRedisLocker(redisClient, cfg.Sessions.LockTTL)))
	} else {
		fingerprints := dedupe.New(fingerprintTTL, 10000, time.Minute)
		defer fingerprints.Close()
		opts = append(opts, engine.WithFingerprints(fingerprints))
	}
	if cfg.TranscriptsEnabled {
		opts = append(opts, engine.WithRecorder(repo))
	}
	bot := engine.New(sessions, provider, dispatcher, replier, opts...)

	// Initialize handlers.
	webhookHandler := api.NewWebhookHandler(bot, cfg.Crisp.WebhookSecret)
	chatHandler := api.NewChatHandler(repo)
	adminHandler := api.NewAdminHandler(bot, repo)
	healthHandler := api.NewHealthHandler(health)
	activityHandler := activity.NewHandler(hub, cfg.CORSOrigins)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Close()

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Public routes.
	r.Get("/", api.Root)
	healthHandler.RegisterHealth(r)

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		webhookHandler.RegisterRoutes(r)
		chatHandler.RegisterRoutes(r)
	})

	// Operator routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.AdminToken))
		adminHandler.RegisterRoutes(r)
		r.Get("/ws/activity", activityHandler.ServeHTTP)
	})
	if cfg.AdminToken == "" {
		slog.Info("ADMIN_TOKEN not set, operator routes disabled")
	}

	// Create server.
	// The activity feed is a long-lived websocket, so there is no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start retention worker.
	if cfg.TranscriptsEnabled && cfg.TranscriptRetention > 0 {
		store.StartRetentionWorker(ctx, repo, cfg.TranscriptRetention, time.Hour)
		slog.Info("Retention worker started", "retention", cfg.TranscriptRetention)
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped successfully")
}

// openSessions builds the configured session store and registers its health
// check. The Redis client is returned for the cross-replica lock and
// fingerprint filter; it is nil for the in-memory store.
func openSessions(ctx context.Context, cfg *config.Config, health map[string]api.Pinger) (store.SessionStore, *redis.Client, error) {
	if cfg.Sessions.Backend != config.SessionBackendRedis {
		slog.Info("Using in-memory session store")
		return store.NewMemorySessions(), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Sessions.RedisAddr,
		Password: cfg.Sessions.RedisPassword,
		DB:       cfg.Sessions.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	health["redis"] = redisPinger{client}
	slog.Info("Redis session store connected",
		"addr", cfg.Sessions.RedisAddr,
		"ttl", cfg.Sessions.TTL,
		"lock_ttl", cfg.Sessions.LockTTL)
	return store.NewRedisSessions(client, cfg.Sessions.TTL), client, nil
}

type redisPinger struct{ client *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }

// newProvider builds the configured AI provider.
func newProvider(ctx context.Context, cfg *config.Config) (ai.Provider, error) {
	system := ai.SystemPrompt(cfg.BrandName, "")
	switch cfg.AI.Provider {
	case config.AIProviderGemini:
		return ai.NewGemini(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, system)
	case config.AIProviderAnthropic:
		return ai.NewAnthropic(cfg.AI.AnthropicKey, cfg.AI.AnthropicModel, system), nil
	default:
		slog.Info("AI answers disabled, ordinary messages will be escalated")
		return ai.Disabled{}, nil
	}
}

// newNotifier fans escalation alerts out to every configured channel. The
// escalation log in the database is always written.
func newNotifier(cfg *config.Config, repo store.Repository) (notify.Sink, func(), error) {
	sinks := notify.Multi{{Name: "database", Sink: notify.NewRecording(repo)}}
	closeFn := func() {}

	if cfg.Notify.SlackWebhookURL != "" {
		sinks = append(sinks, notify.Named{
			Name: "slack",
			Sink: notify.NewSlack(cfg.Notify.SlackWebhookURL, &http.Client{Timeout: cfg.Notify.Timeout}),
		})
	}

	if cfg.Notify.MatrixHomeserver != "" {
		m, err := notify.NewMatrix(cfg.Notify.MatrixHomeserver, cfg.Notify.MatrixUserID, cfg.Notify.MatrixAccessToken, cfg.Notify.MatrixRoomID)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, notify.Named{Name: "matrix", Sink: m})
	}

	if cfg.Notify.AMQPURL != "" {
		pub, err := notify.NewAMQPPublisher(cfg.Notify.AMQPURL)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, notify.Named{Name: "amqp", Sink: notify.NewBus(pub, cfg.Notify.AMQPExchange)})
		closeFn = pub.Close
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name)
	}
	slog.Info("Escalation notifiers ready", "sinks", names)
	return sinks, closeFn, nil
}
