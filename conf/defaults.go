package conf

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultDatabaseFile is the database filename under the navtool home directory
const DefaultDatabaseFile = "navtool.db"

// SetDefaults registers default values on the provided Viper instance
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", defaultDatabasePath())
	v.SetDefault("loader.verbose_diagnostics", false)
	v.SetDefault("queue.subscriber_buffer", 100)
	v.SetDefault("discovery.watch_dir", "")
	v.SetDefault("discovery.settle_ms", 500)
}

// defaultDatabasePath returns ~/.navtool/navtool.db, falling back to the
// working directory when the home directory cannot be resolved.
func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDatabaseFile
	}
	return filepath.Join(home, ".navtool", DefaultDatabaseFile)
}
