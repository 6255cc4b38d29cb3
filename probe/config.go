package probe

import (
	"github.com/hazyhaar/streamprobe/probe/internal/config"
)

// Config is the top-level streamprobe configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle and page hardening.
type BrowserConfig = config.BrowserConfig

// RunConfig holds probe timings and scheduling limits.
type RunConfig = config.RunConfig

// MediaConfig is the item every provider is asked to play.
type MediaConfig = config.MediaConfig

// ProviderConfig defines an extra provider.
type ProviderConfig = config.ProviderConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// HistoryConfig controls the run-history store.
type HistoryConfig = config.HistoryConfig

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = config.ErrInvalid

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}

// SplitList parses a comma-separated list.
func SplitList(s string) []string {
	return config.SplitList(s)
}
