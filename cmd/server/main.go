package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/promoter-admin-go/internal/config"
	"github.com/promoter-admin-go/internal/handlers"
	"github.com/promoter-admin-go/internal/i18n"
	"github.com/promoter-admin-go/internal/middleware"
	"github.com/promoter-admin-go/internal/services/ai"
	"github.com/promoter-admin-go/internal/services/analytics"
	"github.com/promoter-admin-go/internal/services/insights"
	"github.com/promoter-admin-go/internal/services/notify"
	"github.com/promoter-admin-go/internal/storage"
	"github.com/promoter-admin-go/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// Load .env file if exists
	if err := godotenv.Load(*envFile); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting promoter admin backend...")

	db, err := storage.Open(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}

	convStore := storage.NewConversationStore(db, log)
	eventStore := storage.NewEventStore(db, log)

	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	metrics := middleware.NewMetrics()

	analyticsService := analytics.New(db, log)
	mentionAnalyzer := analytics.NewMentionAnalyzer(analyticsService, cfg.Mentions.CacheEnabled, cfg.Mentions.CacheTTL, log)

	aiClient := ai.NewClient(&cfg.AI, log)
	if !aiClient.Enabled() {
		log.Warn("No AI credential configured; insights will serve a placeholder")
	}

	insightStore, err := insights.NewStore(&cfg.Insights, func() time.Time { return time.Now().UTC() }, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize insight store")
	}

	notifier, err := notify.New(&cfg.Notify, localizer, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize notifier")
	}

	opts := insights.Options{
		TTL:            cfg.Insights.TTL,
		RecentMessages: cfg.Insights.RecentMessages,
		MinMessages:    cfg.Insights.MinMessages,
	}
	if notifier != nil {
		opts.Notifier = notifier
	}
	insightService := insights.NewService(convStore, aiClient, insightStore, localizer, metrics, log, opts)

	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, metrics, log)

	router := handlers.NewRouter(handlers.RouterDeps{
		Stats:         handlers.NewStatsHandler(analyticsService, eventStore, log),
		Insights:      handlers.NewInsightsHandler(insightService, log),
		Events:        handlers.NewEventsHandler(eventStore, analyticsService, mentionAnalyzer, log),
		Conversations: handlers.NewConversationsHandler(analyticsService, convStore, log),
		Messages:      handlers.NewMessagesHandler(convStore, log),
		Metrics:       metrics,
		RateLimiter:   rateLimiter,
		APIKeyAuth:    middleware.APIKeyAuth(cfg.Server.APIKey, log),
	})

	if cfg.Monitoring.Metrics.Enabled {
		go func() {
			log.WithFields(logrus.Fields{
				"port": cfg.Monitoring.Metrics.Port,
				"path": cfg.Monitoring.Metrics.Path,
			}).Info("Starting metrics server")

			if err := middleware.StartMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("API server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("API server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}

	log.Info("Server stopped")
}
