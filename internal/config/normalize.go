package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOSC()
	c.normalizeModel()
	c.normalizeEnvelope()
	c.normalizeEngine()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.AssetsDir) == "" {
		c.Paths.AssetsDir = defaultAssetsDir
	}
	if c.Paths.AssetsDir, err = expandPath(c.Paths.AssetsDir); err != nil {
		return fmt.Errorf("paths.assets_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScenesDir) == "" {
		c.Paths.ScenesDir = defaultScenesDir
	}
	if c.Paths.ScenesDir, err = expandPath(c.Paths.ScenesDir); err != nil {
		return fmt.Errorf("paths.scenes_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.BindingsFile, err = expandPath(c.Paths.BindingsFile); err != nil {
		return fmt.Errorf("paths.bindings_file: %w", err)
	}
	if c.Paths.AnalysisDB, err = expandPath(c.Paths.AnalysisDB); err != nil {
		return fmt.Errorf("paths.analysis_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeOSC() {
	if strings.TrimSpace(c.OSC.Bind) == "" {
		c.OSC.Bind = defaultOSCBind
	}
	targets := make([]string, 0, len(c.OSC.ForwardTargets))
	for _, target := range c.OSC.ForwardTargets {
		if trimmed := strings.TrimSpace(target); trimmed != "" {
			targets = append(targets, trimmed)
		}
	}
	c.OSC.ForwardTargets = targets
	if c.OSC.LivenessWindowMS <= 0 {
		c.OSC.LivenessWindowMS = defaultLivenessWindowMS
	}
}

func (c *Config) normalizeModel() {
	c.Model.BaseURL = strings.TrimRight(strings.TrimSpace(c.Model.BaseURL), "/")
	if c.Model.BaseURL == "" {
		c.Model.BaseURL = defaultModelBaseURL
	}
	if strings.TrimSpace(c.Model.Name) == "" {
		c.Model.Name = defaultModelName
	}
	if c.Model.ConnectTimeoutSeconds <= 0 {
		c.Model.ConnectTimeoutSeconds = defaultConnectTimeout
	}
	if c.Model.ReadTimeoutSeconds <= 0 {
		c.Model.ReadTimeoutSeconds = defaultReadTimeout
	}
	if c.Model.ProbeTimeoutSeconds <= 0 {
		c.Model.ProbeTimeoutSeconds = defaultProbeTimeout
	}
	if c.Model.Retries < 0 {
		c.Model.Retries = defaultRetries
	}
	if c.Model.RetryDelaySeconds <= 0 {
		c.Model.RetryDelaySeconds = defaultRetryDelay
	}
	if c.Model.ProbeIntervalSeconds <= 0 {
		c.Model.ProbeIntervalSeconds = defaultProbeInterval
	}
	if c.Model.MaxTokens <= 0 {
		c.Model.MaxTokens = defaultMaxTokens
	}
	if c.Model.LyricsPreviewChars <= 0 {
		c.Model.LyricsPreviewChars = defaultLyricsPreviewChars
	}
}

func (c *Config) normalizeEnvelope() {
	if c.Envelope.BandSmoothing <= 0 || c.Envelope.BandSmoothing >= 1 {
		c.Envelope.BandSmoothing = defaultBandSmoothing
	}
	if c.Envelope.FastSmoothing <= 0 || c.Envelope.FastSmoothing >= 1 {
		c.Envelope.FastSmoothing = defaultFastSmoothing
	}
	if c.Envelope.SlowSmoothing <= 0 || c.Envelope.SlowSmoothing >= 1 {
		c.Envelope.SlowSmoothing = defaultSlowSmoothing
	}
	if c.Envelope.KickThreshold <= 0 {
		c.Envelope.KickThreshold = defaultKickThreshold
	}
	if c.Envelope.KickCooldownMS <= 0 {
		c.Envelope.KickCooldownMS = defaultKickCooldownMS
	}
	if c.Envelope.BeatDecay <= 0 || c.Envelope.BeatDecay >= 1 {
		c.Envelope.BeatDecay = defaultBeatDecay
	}
	if c.Envelope.StaleDecay <= 0 || c.Envelope.StaleDecay >= 1 {
		c.Envelope.StaleDecay = defaultStaleDecay
	}
}

func (c *Config) normalizeEngine() {
	if c.Engine.FrameRate <= 0 {
		c.Engine.FrameRate = defaultFrameRate
	}
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}
