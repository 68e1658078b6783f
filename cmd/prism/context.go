package main

import (
	"strings"
	"sync"
	"time"

	"prism/internal/analysisstore"
	"prism/internal/assets"
	"prism/internal/config"
	"prism/internal/director"
	"prism/internal/logging"
	"prism/internal/scenecache"
	"prism/internal/services/lmstudio"
)

// commandContext lazily loads the configuration and builds the shared
// service handles commands need. Stores open on first use.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) catalogue() (*assets.Catalogue, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	catalogue := assets.NewCatalogue(cfg.Paths.AssetsDir, logging.NewNop())
	if _, err := catalogue.Rescan(); err != nil {
		return nil, err
	}
	return catalogue, nil
}

func (c *commandContext) scenes() (*scenecache.Cache, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return scenecache.NewCache(cfg.Paths.ScenesDir, logging.NewNop()), nil
}

func (c *commandContext) analyses() (*analysisstore.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return analysisstore.Open(cfg.Paths.AnalysisDB, logging.NewNop())
}

func (c *commandContext) modelClient() (*lmstudio.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return lmstudio.NewClient(lmstudio.Config{
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
	}), nil
}

// director builds a one-shot director over freshly opened stores. The caller
// owns closing the returned analysis store.
func (c *commandContext) director() (*director.Director, *analysisstore.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	catalogue, err := c.catalogue()
	if err != nil {
		return nil, nil, err
	}
	analyses, err := c.analyses()
	if err != nil {
		return nil, nil, err
	}
	scenes, err := c.scenes()
	if err != nil {
		analyses.Close()
		return nil, nil, err
	}
	client, err := c.modelClient()
	if err != nil {
		analyses.Close()
		return nil, nil, err
	}

	d := director.New(director.Config{
		ProbeInterval: time.Duration(cfg.Model.ProbeIntervalSeconds) * time.Second,
		LyricsPreview: cfg.Model.LyricsPreviewChars,
	}, client, catalogue, analyses, scenes, logging.NewNop())
	return d, analyses, nil
}
