package config

const (
	defaultSourceCollection = "Download"
	defaultSyncedCollection = "Synced"
	defaultLogDir           = "~/.local/share/absync/logs"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultScanPollInterval = 5
	defaultScanTimeout      = 300
	defaultRequestTimeout   = 30
	defaultDownloadTimeout  = 600
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Source: Source{
			Collection:       defaultSourceCollection,
			SyncedCollection: defaultSyncedCollection,
		},
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Sync: Sync{
			ScanPollInterval: defaultScanPollInterval,
			ScanTimeout:      defaultScanTimeout,
			RequestTimeout:   defaultRequestTimeout,
			DownloadTimeout:  defaultDownloadTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
