package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"prism/internal/analysisstore"
	"prism/internal/assets"
	"prism/internal/config"
	"prism/internal/director"
	"prism/internal/engine"
	"prism/internal/logging"
	"prism/internal/scenecache"
	"prism/internal/services/lmstudio"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	catalogue := assets.NewCatalogue(cfg.Paths.AssetsDir, logger)
	if count, err := catalogue.Rescan(); err != nil {
		logger.Warn("asset scan failed", logging.Error(err))
	} else {
		logger.Info("asset catalogue scanned", logging.Int("asset_count", count))
	}

	analyses, err := analysisstore.Open(cfg.Paths.AnalysisDB, logger)
	if err != nil {
		logger.Error("open analysis store", logging.Error(err))
		return
	}
	defer analyses.Close()

	scenes := scenecache.NewCache(cfg.Paths.ScenesDir, logger)
	client := lmstudio.NewClient(lmstudio.Config{
		BaseURL:        cfg.Model.BaseURL,
		Model:          cfg.Model.Name,
		APIKey:         cfg.Model.APIKey,
		ConnectTimeout: time.Duration(cfg.Model.ConnectTimeoutSeconds) * time.Second,
		ReadTimeout:    time.Duration(cfg.Model.ReadTimeoutSeconds) * time.Second,
		ProbeTimeout:   time.Duration(cfg.Model.ProbeTimeoutSeconds) * time.Second,
		Retries:        cfg.Model.Retries,
		RetryDelay:     time.Duration(cfg.Model.RetryDelaySeconds) * time.Second,
		Temperature:    cfg.Model.Temperature,
		MaxTokens:      cfg.Model.MaxTokens,
	})

	d := director.New(director.Config{
		ProbeInterval: time.Duration(cfg.Model.ProbeIntervalSeconds) * time.Second,
		LyricsPreview: cfg.Model.LyricsPreviewChars,
		AutoAnalyze:   cfg.Model.AutoAnalyze,
	}, client, catalogue, analyses, scenes, logger)

	eng, err := engine.New(cfg, d, logger)
	if err != nil {
		logger.Error("create engine", logging.Error(err))
		return
	}
	if err := eng.Start(ctx); err != nil {
		logger.Error("start engine", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("prismd shutting down")
	eng.Stop()
}
