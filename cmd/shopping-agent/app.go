package main

import (
	"fmt"

	"github.com/paihanhuang/shopping-agent/internal/alerts"
	"github.com/paihanhuang/shopping-agent/internal/cashback"
	"github.com/paihanhuang/shopping-agent/internal/config"
	"github.com/paihanhuang/shopping-agent/internal/logger"
	"github.com/paihanhuang/shopping-agent/internal/pipeline"
	"github.com/paihanhuang/shopping-agent/internal/search"
	"github.com/paihanhuang/shopping-agent/internal/storage"
	"github.com/paihanhuang/shopping-agent/internal/telegram"
	"github.com/paihanhuang/shopping-agent/internal/tracker"
)

// app bundles the long-lived pieces shared by every subcommand.
type app struct {
	cfg      *config.Config
	store    *storage.Storage
	tracker  *tracker.Tracker
	pipeline *pipeline.Pipeline
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if configPath != "" {
		logger.Info("Configuration loaded from %s", configPath)
	}

	kb, err := cashback.Load(cfg.Cashback.KnowledgeBasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load cashback knowledge base: %w", err)
	}

	searchClient := search.NewClient(search.Config{
		BaseURL:        cfg.Agent.BaseURL,
		APIKey:         cfg.Agent.APIKey,
		Timeout:        cfg.Agent.Timeout,
		MaxRetries:     cfg.Agent.MaxRetries,
		RetryDelayBase: cfg.Agent.RetryDelayBase,
	})

	var telegramClient *telegram.Client
	var notifier alerts.Notifier
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		notifier = telegramClient
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	store, err := storage.New(cfg.Tracker.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	tr := tracker.New(store, searchClient, alerts.New(store, notifier))
	if telegramClient != nil {
		tr.OnComplete = func(sessionID int64, query, reason string) {
			if err := telegramClient.NotifySessionEnded(sessionID, query, reason); err != nil {
				logger.Warn("Failed to send session-ended notification to Telegram: %v", err)
			}
		}
	}

	return &app{
		cfg:      cfg,
		store:    store,
		tracker:  tr,
		pipeline: pipeline.New(search.NewCachedAgent(searchClient, cfg.Agent.CacheTTL), kb),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.Error("Failed to close storage: %v", err)
	}
}
