// Package conf loads navtool configuration from navtool.toml files and
// NAVTOOL_-prefixed environment variables via Viper.
package conf

// Config represents the navtool configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Loader    LoaderConfig    `mapstructure:"loader"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
}

// DatabaseConfig configures the SQLite database backing the integrity
// registry and the load history.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoaderConfig configures the retrying chart loader.
//
// The decode retry count, backoff base, and the 500ms slow-load threshold are
// compile-time constants in chart/loader (timing contracts, not preferences)
// and deliberately have no knobs here.
type LoaderConfig struct {
	VerboseDiagnostics bool `mapstructure:"verbose_diagnostics"` // populate technical detail on load errors
}

// QueueConfig configures the chart load queue
type QueueConfig struct {
	SubscriberBuffer int `mapstructure:"subscriber_buffer"` // event channel buffer per subscriber (default: 100)
}

// DiscoveryConfig configures the archive drop-directory watcher
type DiscoveryConfig struct {
	WatchDir string `mapstructure:"watch_dir"` // empty = discovery disabled
	SettleMS int    `mapstructure:"settle_ms"` // quiet period before a new archive is enqueued (default: 500)
}
