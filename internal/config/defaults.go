package config

const (
	defaultConfigDir      = "~/.config/buildhooks"
	defaultLogDir         = "~/.local/share/buildhooks/logs"
	defaultSettingsFile   = "webhooks.json"
	defaultS3SettingsFile = "s3.json"
	defaultRequestTimeout = 10
	defaultUserAgent      = "buildhooks/0.1.0"
	defaultAPIBind        = "127.0.0.1:7491"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ConfigDir:      defaultConfigDir,
			LogDir:         defaultLogDir,
			SettingsFile:   defaultSettingsFile,
			S3SettingsFile: defaultS3SettingsFile,
		},
		Delivery: Delivery{
			RequestTimeout: defaultRequestTimeout,
			UserAgent:      defaultUserAgent,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
