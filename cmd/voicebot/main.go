package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/emi-voice-agent/cmd/mainconfig"
	"github.com/wolfman30/emi-voice-agent/internal/api/router"
	"github.com/wolfman30/emi-voice-agent/internal/app/bootstrap"
	"github.com/wolfman30/emi-voice-agent/internal/callrecord"
	appconfig "github.com/wolfman30/emi-voice-agent/internal/config"
	httpmiddleware "github.com/wolfman30/emi-voice-agent/internal/http/middleware"
	"github.com/wolfman30/emi-voice-agent/internal/observability/metrics"
	"github.com/wolfman30/emi-voice-agent/internal/voicebot"
	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	logger.Info("starting emi voice agent",
		"env", cfg.Env,
		"port", cfg.Port,
		"nlu_provider", cfg.NLUProvider,
	)

	ctx := context.Background()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	voiceMetrics := metrics.NewVoiceMetrics(registry)

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	clients := bootstrap.NewAWSClients(awsCfg, mainconfig.NewS3Client(awsCfg, cfg))

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	db, err := bootstrap.BuildDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	speechSvc, err := bootstrap.BuildSpeech(cfg, voiceMetrics, logger)
	if err != nil {
		logger.Error("failed to configure speech", "error", err)
		os.Exit(1)
	}
	transferer, err := bootstrap.BuildTransferer(cfg, logger)
	if err != nil {
		logger.Error("failed to configure call control", "error", err)
		os.Exit(1)
	}
	stores := bootstrap.BuildRecorder(cfg, redisClient, db, clients, logger)

	controller, err := bootstrap.BuildController(cfg, bootstrap.VoiceDeps{
		Resolver:    bootstrap.BuildResolver(redisClient, db, logger),
		Speech:      speechSvc,
		IntentModel: bootstrap.BuildIntentModel(ctx, cfg, clients.Bedrock, logger),
		Transferer:  transferer,
		Recorder:    stores.Recorder,
		Metrics:     voiceMetrics,
	}, logger)
	if err != nil {
		logger.Error("failed to build conversation controller", "error", err)
		os.Exit(1)
	}
	streamHandler := voicebot.NewHandler(controller, logger)

	r := router.New(&router.Config{
		Logger:         logger,
		StreamHandler:  streamHandler,
		CallsHandler:   callrecord.NewHandler(stores.State, stores.StatusLog, logger),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		TokenSecret:    cfg.StreamTokenSecret,
		StreamLimiter:  httpmiddleware.NewRateLimiter(cfg.StreamRateLimit, cfg.StreamRateBurst),
	})

	// Read and write deadlines on /stream are managed per message by the
	// websocket connection, so only the header read is bounded here.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := streamHandler.Drain(shutdownCtx); err != nil {
		logger.Warn("calls still active at shutdown", "error", err)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
