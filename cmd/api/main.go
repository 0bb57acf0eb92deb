package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-platform/internal/ai"
	"voice-platform/internal/audit"
	"voice-platform/internal/auth"
	"voice-platform/internal/calls"
	"voice-platform/internal/campaigns"
	"voice-platform/internal/config"
	"voice-platform/internal/httpapi"
	"voice-platform/internal/integrations"
	"voice-platform/internal/knowledge"
	"voice-platform/internal/reporting"
	"voice-platform/internal/sop"
	"voice-platform/internal/voice"
	"voice-platform/pkg/logger"
	"voice-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Persistence and domain services.
	callStore := calls.NewPGStore(db)
	callService := calls.NewService(callStore)
	integrationService := integrations.NewService(integrations.NewPGStore(db))
	auditService := audit.NewService(audit.NewPGRepo(db))
	campaignService := campaigns.NewService(campaigns.NewPGStore(db))
	reportService := reporting.NewService(callStore)

	// AI wiring is optional: without an API key the platform still answers
	// calls with static prompts and serves demo SOPs.
	var aiClient *ai.Client
	if cfg.OpenAI.APIKey != "" {
		aiClient, err = ai.NewClient(ai.Config{
			APIKey:         cfg.OpenAI.APIKey,
			ChatModel:      cfg.OpenAI.ChatModel,
			SpeechModel:    cfg.OpenAI.SpeechModel,
			EmbeddingModel: cfg.OpenAI.EmbeddingModel,
			Timeout:        cfg.OpenAI.RequestTimeout,
		})
		if err != nil {
			log.Error("ai init failed", "err", err)
			os.Exit(1)
		}
		log.Info("ai responder enabled", "chat_model", cfg.OpenAI.ChatModel)
	} else {
		log.Warn("OPENAI_API_KEY not set, running with static call handling")
	}

	var (
		embedder  knowledge.Embedder
		generator sop.Generator
	)
	if aiClient != nil {
		embedder = aiClient
		generator = aiClient
	}
	knowledgeService := knowledge.NewService(knowledge.NewPGStore(db), embedder)
	sopService := sop.NewService(sop.NewPGStore(db), generator)

	var (
		decider   voice.TurnDecider = voice.StaticDecider{}
		responder *ai.Responder
	)
	if aiClient != nil {
		responder = ai.NewResponder(aiClient, aiClient, knowledgeService)
		decider = responder
	}

	// Webhook turns and operator actions share one limiter so a dashboard
	// end-call frees the slot the incoming-call webhook took.
	var limiter voice.CallLimiter
	if cfg.Voice.MaxConcurrentCalls > 0 {
		limiter = voice.NewRedisCallLimiter(rdb, cfg.Voice.MaxConcurrentCalls)
	}

	webhooks := &voice.Handler{
		Integrations:  integrationService,
		Calls:         callService,
		Decider:       decider,
		Dedupe:        voice.NewRedisDedupe(rdb, 0),
		Limiter:       limiter,
		Greeting:      cfg.Voice.Greeting,
		Goodbye:       cfg.Voice.Goodbye,
		RecordSeconds: cfg.Voice.RecordSeconds,
		BaseURL:       cfg.App.BaseURL,
	}

	apiHandlers := httpapi.Handlers{
		Auth:         authManager,
		Calls:        callService,
		Integrations: integrationService,
		Knowledge:    knowledgeService,
		SOPs:         sopService,
		Campaigns:    campaignService,
		Reports:      reportService,
		Responder:    responder,
		Audit:        auditService,
		CallSlots:    limiter,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, auth.RequireAccessToken(authManager), apiHandlers, webhooks)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
