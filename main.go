package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"newsreel/internal/clients/easynews"
	"newsreel/internal/clients/metadata"
	"newsreel/internal/clients/notifications"
	"newsreel/internal/config"
	"newsreel/internal/core"
	"newsreel/internal/handlers"
	"newsreel/internal/utils"
)

func main() {
	configPath := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.Easynews.Username == "" || cfg.Easynews.Password == "" {
		log.Fatal("Easynews credentials are not configured")
	}

	// Initialize logger to write to both file and console
	if err := os.MkdirAll(cfg.App.DataPath, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.App.DataPath, "app.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()

	multiWriter := io.MultiWriter(os.Stdout, logFile)
	logger := utils.NewLogger(cfg.App.Debug, cfg.App.Silly, multiWriter)

	// Fold the noisiest per-request lines into periodic counters.
	summary := utils.NewSummaryLogger(logger, []utils.SummaryRule{
		{Name: "cache_hits", Pattern: regexp.MustCompile(`easynews (persistent )?cache hit`)},
		{Name: "cache_misses", Pattern: regexp.MustCompile(`easynews cache miss`)},
		{Name: "upstream_timeouts", Pattern: regexp.MustCompile(`easynews search timed out`)},
	})

	// Persistent second-level search cache, optional.
	var store *easynews.CacheStore
	if cfg.Search.CachePath != "" {
		store, err = easynews.OpenCacheStore(cfg.Search.CachePath,
			time.Duration(cfg.Search.CacheTTLHours)*time.Hour, summary)
		if err != nil {
			logger.Fatal("Failed to open search cache:", err)
		}
	}

	client, err := easynews.NewClient(easynews.Options{
		BaseURL:           cfg.Easynews.URL,
		Username:          cfg.Easynews.Username,
		Password:          cfg.Easynews.Password,
		TotalMaxResults:   cfg.Search.TotalMaxResults,
		MaxPages:          cfg.Search.MaxPages,
		MaxResultsPerPage: cfg.Search.MaxResultsPerPage,
		CacheTTL:          time.Duration(cfg.Search.CacheTTLHours) * time.Hour,
		CacheMaxEntries:   cfg.Search.CacheMaxEntries,
		Store:             store,
	}, summary)
	if err != nil {
		logger.Fatal("Failed to initialize easynews client:", err)
	}

	resolver := buildResolver(cfg, summary, logger)

	var notifiers []notifications.Notifier
	if cfg.Notifications.Pushbullet.APIKey != "" {
		notifiers = append(notifiers, notifications.NewPushbulletClient(cfg.Notifications.Pushbullet.APIKey, logger))
	}

	// Create manager
	manager := core.NewManager(cfg, client, resolver, notifiers, store, summary, logger)

	// Start web server
	server := handlers.NewServer(cfg, manager, logger)

	// Handle shutdown gracefully
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Server failed to start:", err)
		}
	}()

	manager.StartScheduler()

	logger.Info("Newsreel started successfully on port", cfg.App.Port)

	// Wait for interrupt
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("Shutting down...")
	manager.Stop()
	server.Stop(ctx)
}

// buildResolver assembles the metadata provider chain in configured
// order. Unknown provider names are skipped with a warning rather than
// refusing to start.
func buildResolver(cfg *config.Config, chainLogger utils.Log, logger *utils.Logger) metadata.Resolver {
	var providers []metadata.Resolver
	for _, name := range cfg.Metadata.Providers {
		switch name {
		case "cinemeta":
			providers = append(providers, metadata.NewCinemetaClient(""))
		case "tmdb":
			if cfg.Metadata.TMDB.APIKey == "" {
				logger.Warn("tmdb provider configured without an api key, skipping")
				continue
			}
			providers = append(providers, metadata.NewTMDBClient(cfg.Metadata.TMDB.APIKey, cfg.Metadata.Language))
		default:
			logger.Warn("unknown metadata provider:", name)
		}
	}
	if len(providers) == 0 {
		providers = append(providers, metadata.NewCinemetaClient(""))
	}
	return metadata.NewChain(providers, chainLogger)
}
