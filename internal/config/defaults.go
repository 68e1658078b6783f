package config

const (
	defaultAssetsDir    = "~/.local/share/prism/assets"
	defaultScenesDir    = "~/.local/share/prism/scenes"
	defaultLogDir       = "~/.local/share/prism/logs"
	defaultBindingsFile = "~/.config/prism/bindings.yaml"
	defaultAnalysisDB   = "~/.local/share/prism/analysis.db"

	defaultOSCBind          = "0.0.0.0:9000"
	defaultForwardTarget    = "127.0.0.1:10000"
	defaultLivenessWindowMS = 1500

	defaultModelBaseURL        = "http://localhost:1234"
	defaultModelName           = "local-model"
	defaultConnectTimeout      = 30
	defaultReadTimeout         = 600
	defaultProbeTimeout        = 5
	defaultRetries             = 3
	defaultRetryDelay          = 5
	defaultProbeInterval       = 10
	defaultTemperature         = 0.7
	defaultMaxTokens           = 500
	defaultLyricsPreviewChars  = 600
	defaultBandSmoothing       = 0.80
	defaultFastSmoothing       = 0.60
	defaultSlowSmoothing       = 0.92
	defaultKickThreshold       = 0.45
	defaultKickCooldownMS      = 140
	defaultBeatDecay           = 0.87
	defaultStaleDecay          = 0.90
	defaultFrameRate           = 60
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AssetsDir:    defaultAssetsDir,
			ScenesDir:    defaultScenesDir,
			LogDir:       defaultLogDir,
			BindingsFile: defaultBindingsFile,
			AnalysisDB:   defaultAnalysisDB,
		},
		OSC: OSC{
			Bind:             defaultOSCBind,
			ForwardTargets:   []string{defaultForwardTarget},
			LivenessWindowMS: defaultLivenessWindowMS,
		},
		Model: Model{
			BaseURL:               defaultModelBaseURL,
			Name:                  defaultModelName,
			ConnectTimeoutSeconds: defaultConnectTimeout,
			ReadTimeoutSeconds:    defaultReadTimeout,
			ProbeTimeoutSeconds:   defaultProbeTimeout,
			Retries:               defaultRetries,
			RetryDelaySeconds:     defaultRetryDelay,
			ProbeIntervalSeconds:  defaultProbeInterval,
			Temperature:           defaultTemperature,
			MaxTokens:             defaultMaxTokens,
			LyricsPreviewChars:    defaultLyricsPreviewChars,
			AutoAnalyze:           false,
		},
		Envelope: Envelope{
			BandSmoothing:  defaultBandSmoothing,
			FastSmoothing:  defaultFastSmoothing,
			SlowSmoothing:  defaultSlowSmoothing,
			KickThreshold:  defaultKickThreshold,
			KickCooldownMS: defaultKickCooldownMS,
			BeatDecay:      defaultBeatDecay,
			StaleDecay:     defaultStaleDecay,
		},
		Engine: Engine{
			FrameRate:    defaultFrameRate,
			AutoWire:     true,
			StartVisible: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
