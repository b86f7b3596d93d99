package config

const (
	defaultLogDir                 = "~/.local/share/weir/logs"
	defaultDataDir                = "~/.local/share/weir"
	defaultWatchPollInterval      = 10
	defaultWatchMaxPartialRetries = 5
	defaultNotifyRequestTimeout   = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  defaultLogDir,
			DataDir: defaultDataDir,
		},
		Watch: Watch{
			PollInterval:      defaultWatchPollInterval,
			MaxPartialRetries: defaultWatchMaxPartialRetries,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Detections:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
