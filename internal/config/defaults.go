package config

const (
	defaultStateDir             = "~/.local/share/worthit/state"
	defaultLogDir               = "~/.local/share/worthit/logs"
	defaultBackendBaseURL       = "https://api.worthit.app"
	defaultBackendTimeout       = 30
	defaultBackendRetryAttempts = 3
	defaultCommentLimit         = 50
	defaultDailyLimit           = 5
	defaultOwnerScope           = "default"
	defaultDepthWeight          = 0.60
	defaultSentimentWeight      = 0.40
	defaultHighSignalThreshold  = 0.85
	defaultHighSignalBonus      = 5
	defaultLowDepthThreshold    = 0.35
	defaultLowDepthPenalty      = 8
	defaultLockTimeoutSeconds   = 5
	defaultReadingWordsPerMin   = 160
	defaultQARetryAttempts      = 3
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

var defaultTranscriptLanguages = []string{"en"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Backend: Backend{
			BaseURL:             defaultBackendBaseURL,
			TimeoutSeconds:      defaultBackendTimeout,
			RetryMaxAttempts:    defaultBackendRetryAttempts,
			CommentLimit:        defaultCommentLimit,
			TranscriptLanguages: append([]string(nil), defaultTranscriptLanguages...),
		},
		Quota: Quota{
			DailyLimit: defaultDailyLimit,
			OwnerScope: defaultOwnerScope,
		},
		Score: Score{
			DepthWeight:         defaultDepthWeight,
			SentimentWeight:     defaultSentimentWeight,
			HighSignalThreshold: defaultHighSignalThreshold,
			HighSignalBonus:     defaultHighSignalBonus,
			LowDepthThreshold:   defaultLowDepthThreshold,
			LowDepthPenalty:     defaultLowDepthPenalty,
		},
		Pipeline: Pipeline{
			RefreshOnCacheHit:  true,
			EssentialsEnabled:  true,
			LockTimeoutSeconds: defaultLockTimeoutSeconds,
			ReadingWordsPerMin: defaultReadingWordsPerMin,
		},
		QA: QA{
			RetryMaxAttempts: defaultQARetryAttempts,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
