// Package config loads cache settings from a JSON file, environment variables
// and command-line flags.
//
// Precedence, highest first: flags that were set explicitly, environment
// variables, the config file, then the cache's built-in defaults. Durations
// are expressed in whole seconds everywhere. A missing or non-positive value
// means "use the default".
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/discochess/kvcache"
)

// EnvConfigPath names the variable holding the config file location.
const EnvConfigPath = "CONFIG_PATH"

// DefaultConfigFile is read from the working directory when no path is given.
const DefaultConfigFile = "config.json"

// setting binds one config key to its environment variable and flag.
type setting struct {
	key   string
	env   string
	flag  string
	usage string
}

var settings = []setting{
	{"maxEntries", "MAX_ENTRIES", "max-entries", "maximum number of cache entries"},
	{"maxMemory", "MAX_MEMORY", "max-memory", "maximum estimated cache size in bytes"},
	{"defaultTTL", "DEFAULT_TTL", "default-ttl", "default time-to-live in seconds"},
	{"checkInterval", "CHECK_INTERVAL", "check-interval", "seconds between expiry sweeps"},
	{"statsInterval", "STATS_INTERVAL", "stats-interval", "seconds between stats refreshes"},
}

// Loader resolves a kvcache.Config from its sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader bound to the cache environment variables.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("json")
	for _, s := range settings {
		// BindEnv only errors when called without a key.
		_ = v.BindEnv(s.key, s.env)
	}
	return &Loader{v: v}
}

// RegisterFlags adds one flag per setting to fs and binds them to the loader.
func (l *Loader) RegisterFlags(fs *pflag.FlagSet) error {
	for _, s := range settings {
		if fs.Lookup(s.flag) == nil {
			fs.Int64(s.flag, 0, s.usage)
		}
		if err := l.v.BindPFlag(s.key, fs.Lookup(s.flag)); err != nil {
			return fmt.Errorf("binding flag %s: %w", s.flag, err)
		}
	}
	return nil
}

// Path returns the config file location: explicit path, then $CONFIG_PATH,
// then config.json in the working directory.
func Path(explicit string) string {
	if explicit != "" {
		return filepath.Clean(explicit)
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return filepath.Clean(p)
	}
	return DefaultConfigFile
}

// Load reads the config file at path, if it exists, and returns the merged config.
// A missing file is not an error; a malformed one is.
func (l *Loader) Load(path string) (kvcache.Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return kvcache.Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	return kvcache.Config{
		MaxEntries:    positiveInt(l.v.GetInt64("maxEntries")),
		MaxMemory:     positive(l.v.GetInt64("maxMemory")),
		DefaultTTL:    seconds(l.v.GetInt64("defaultTTL")),
		CheckInterval: seconds(l.v.GetInt64("checkInterval")),
		StatsInterval: seconds(l.v.GetInt64("statsInterval")),
	}, nil
}

func positive(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

func positiveInt(n int64) int {
	return int(positive(n))
}

func seconds(n int64) time.Duration {
	return time.Duration(positive(n)) * time.Second
}
