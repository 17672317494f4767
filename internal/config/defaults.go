package config

const (
	defaultTimeoutSeconds = 1800
	defaultStatRetries    = 3
	defaultBackupSuffix   = ".backup"
	defaultLogDir         = "~/.local/share/relocator/logs"
	defaultHistoryPath    = "~/.local/share/relocator/history.db"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultRetentionDays  = 30

	maxWorkers = 64
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Search: Search{
			TimeoutSeconds: defaultTimeoutSeconds,
			StatRetries:    defaultStatRetries,
		},
		Catalog: Catalog{
			Backup:       true,
			BackupSuffix: defaultBackupSuffix,
		},
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
	}
}
