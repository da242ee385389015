package config

const (
	defaultConfigPath     = "~/.config/promptindex/config.toml"
	projectConfigName     = "promptindex.toml"
	indexFileName         = "index.db"
	lockFileName          = "index.lock"
	defaultIndexDir       = "~/.local/share/promptindex"
	defaultLogDir         = "~/.local/share/promptindex/logs"
	defaultFFprobeBinary  = "ffprobe"
	defaultFFprobeTimeout = 30
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultSearchLimit    = 50
	indexDirEnv           = "PROMPTINDEX_INDEX_DIR"
)

var defaultExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".mp4", ".webm", ".mov", ".mkv"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			IndexDir: defaultIndexDir,
			LogDir:   defaultLogDir,
		},
		Scan: Scan{
			Workers:    defaultWorkers(),
			Extensions: append([]string(nil), defaultExtensions...),
			SkipHidden: true,
		},
		FFprobe: FFprobe{
			Enabled:        true,
			Binary:         defaultFFprobeBinary,
			TimeoutSeconds: defaultFFprobeTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Search: Search{
			DefaultLimit: defaultSearchLimit,
		},
	}
}
