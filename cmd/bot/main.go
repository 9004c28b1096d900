package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/researchbot/internal/api"
	"github.com/timmy/researchbot/internal/bot"
	"github.com/timmy/researchbot/internal/config"
	"github.com/timmy/researchbot/internal/domain"
	"github.com/timmy/researchbot/internal/logger"
	"github.com/timmy/researchbot/internal/render"
	"github.com/timmy/researchbot/internal/repository"
	"github.com/timmy/researchbot/internal/service"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLog := logger.NewDefault()
	logger.SetDefaultLogger(appLog)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLog.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize repositories
	jobRepo := repository.NewResearchRepository(db)
	settingsRepo := repository.NewSettingsRepository(db, domain.UserSettings{
		MaxResults:   cfg.Defaults.MaxResults,
		DeepAnalysis: cfg.Defaults.DeepAnalysis,
		Lang:         cfg.Defaults.Lang,
	})

	// Initialize external clients
	searchClient := service.NewSerperClient(&service.SerperConfig{
		APIKey:     cfg.Serper.APIKey,
		BaseURL:    cfg.Serper.BaseURL,
		Timeout:    cfg.Serper.RequestTimeout,
		MaxRetries: cfg.Serper.MaxRetries,
		Country:    cfg.Serper.Country,
		Locale:     cfg.Serper.Locale,
	})
	synthClient := service.NewMistralClient(&service.MistralConfig{
		APIKey:     cfg.Mistral.APIKey,
		BaseURL:    cfg.Mistral.BaseURL,
		Model:      cfg.Mistral.Model,
		Timeout:    cfg.Mistral.RequestTimeout,
		MaxRetries: cfg.Mistral.MaxRetries,
	})

	// Initialize research service. The per-call timeout outlasts the client's
	// own retry loop; synthesis gets the same headroom.
	researchService := service.NewResearchService(jobRepo, settingsRepo, searchClient, synthClient, service.ResearchConfig{
		Concurrency:      cfg.Research.MaxConcurrentSearches,
		PerCallTimeout:   cfg.Serper.RequestTimeout*time.Duration(cfg.Serper.MaxRetries) + 5*time.Second,
		CallPause:        cfg.Research.CallPause,
		BatchPause:       cfg.Research.BatchPause,
		SynthesisTimeout: cfg.Mistral.RequestTimeout*time.Duration(cfg.Mistral.MaxRetries) + 10*time.Second,
		MaxFindings:      cfg.Research.MaxFindings,
		MinSnippetLength: cfg.Research.MinSnippetLength,
	})

	// Jobs left running by a previous process can never complete; mark them
	// before accepting new work.
	recovered, err := researchService.RecoverInterrupted(context.Background())
	if err != nil {
		appLog.Fatalf("Failed to recover interrupted jobs: %v", err)
	}
	if recovered > 0 {
		appLog.Warnf("Marked %d interrupted research jobs from a previous run", recovered)
	}

	// Initialize Telegram transport and the bot
	tgClient := bot.NewTelegramClient(&bot.TelegramConfig{
		Token:       cfg.Telegram.Token,
		BaseURL:     cfg.Telegram.BaseURL,
		PollTimeout: cfg.Telegram.PollTimeout,
	})
	pdfRenderer := render.NewPDFRenderer(cfg.Research.PDFFontPath)
	researchBot := bot.New(tgClient, researchService, settingsRepo, pdfRenderer, appLog)
	researchService.SetNotifier(researchBot)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the ops HTTP server
	var srv *http.Server
	if cfg.Server.Enabled {
		router := api.SetupRouter(researchService, jobRepo, appLog, cfg.Server.Mode)
		srv = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: router,
		}
		go func() {
			appLog.Infof("Starting ops API server on port %d (mode=%s)", cfg.Server.Port, cfg.Server.Mode)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLog.Fatalf("Failed to start ops API server: %v", err)
			}
		}()
	}

	// Start the bot update loop
	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		if err := researchBot.Run(rootCtx); err != nil && rootCtx.Err() == nil {
			appLog.Errorf("Bot update loop stopped: %v", err)
		}
	}()

	appLog.Info("Research bot started")

	// Wait for interrupt signal
	<-rootCtx.Done()
	appLog.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLog.Errorf("Ops API server forced to shutdown: %v", err)
		}
	}

	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		appLog.Warn("Bot update loop did not stop in time")
	}

	appLog.Info("Server exited")
}
