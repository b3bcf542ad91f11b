package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

var (
	ErrDefaultCultureRequired  = errors.New("blocks config: default culture is required")
	ErrDefaultCultureUnknown   = errors.New("blocks config: default culture must be listed in cultures")
	ErrFoldModeInvalid         = errors.New("blocks config: variance fold mode is invalid")
	ErrStorageProviderUnknown  = errors.New("blocks config: storage provider is invalid")
	ErrStorageDSNRequired      = errors.New("blocks config: storage dsn is required for database providers")
	ErrCacheTTLInvalid         = errors.New("blocks config: cache ttl must be positive when cache is enabled")
	ErrLoggingProviderRequired = errors.New("blocks config: logging provider is required when logging feature is enabled")
	ErrLoggingProviderUnknown  = errors.New("blocks config: logging provider is invalid")
	ErrLoggingLevelInvalid     = errors.New("blocks config: logging level is invalid")
	ErrLoggingFormatInvalid    = errors.New("blocks config: logging format is invalid")
)

// Storage providers understood by the container.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Fold modes mirrored from the resolver so configuration stays decoupled.
const (
	FoldDefaultOnly         = "default_only"
	FoldDefaultThenFallback = "default_then_fallback"
)

// Config aggregates the runtime options of the block editor module.
type Config struct {
	DefaultCulture string         `toml:"default_culture"`
	Cultures       []string       `toml:"cultures"`
	Variance       VarianceConfig `toml:"variance"`
	Storage        StorageConfig  `toml:"storage"`
	Cache          CacheConfig    `toml:"cache"`
	Features       Features       `toml:"features"`
	Logging        LoggingConfig  `toml:"logging"`
}

// VarianceConfig tunes how values are reconciled when variance changes.
type VarianceConfig struct {
	// FoldMode selects which culture wins when culture variant values
	// collapse to one invariant value.
	FoldMode      string   `toml:"fold_mode"`
	FallbackOrder []string `toml:"fallback_order"`
	// AutoExposeNewBlocks exposes blocks added without expose entries under
	// the edited cultures.
	AutoExposeNewBlocks bool `toml:"auto_expose_new_blocks"`
}

// StorageConfig selects the repository backend.
type StorageConfig struct {
	Provider string `toml:"provider"`
	DSN      string `toml:"dsn"`
}

// CacheConfig captures cache behaviour toggles.
type CacheConfig struct {
	Enabled    bool          `toml:"enabled"`
	DefaultTTL time.Duration `toml:"default_ttl"`
}

// Features toggles optional behaviour.
type Features struct {
	Logger   bool `toml:"logger"`
	Commands bool `toml:"commands"`
	// WatchContentTypes re-resolves stored drafts when element type
	// variance changes.
	WatchContentTypes bool `toml:"watch_content_types"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `toml:"provider"`
	Level     string   `toml:"level"`
	Format    string   `toml:"format"`
	AddSource bool     `toml:"add_source"`
	Focus     []string `toml:"focus"`
}

// DefaultConfig returns defaults suitable for an in-memory single culture setup.
func DefaultConfig() Config {
	return Config{
		DefaultCulture: "en-US",
		Cultures:       []string{"en-US"},
		Variance: VarianceConfig{
			FoldMode:            FoldDefaultThenFallback,
			AutoExposeNewBlocks: true,
		},
		Storage: StorageConfig{
			Provider: StorageMemory,
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
		},
		Features: Features{
			WatchContentTypes: true,
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "json",
		},
	}
}

// LoadFile reads a TOML file over DefaultConfig and validates the result.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("blocks config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return Config{}, fmt.Errorf("blocks config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	def := strings.TrimSpace(cfg.DefaultCulture)
	if def == "" {
		return ErrDefaultCultureRequired
	}
	if len(cfg.Cultures) > 0 && !containsFold(cfg.Cultures, def) {
		return fmt.Errorf("%w: %s", ErrDefaultCultureUnknown, def)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Variance.FoldMode)) {
	case "", FoldDefaultOnly, FoldDefaultThenFallback:
	default:
		return fmt.Errorf("%w: %s", ErrFoldModeInvalid, cfg.Variance.FoldMode)
	}

	switch provider := normalizeProvider(cfg.Storage.Provider); provider {
	case "", StorageMemory:
	case StorageSQLite, StoragePostgres:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return fmt.Errorf("%w: %s", ErrStorageDSNRequired, provider)
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, provider)
	}
	if cfg.Cache.Enabled && cfg.Cache.DefaultTTL <= 0 {
		return ErrCacheTTLInvalid
	}

	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if provider != "gologger" {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// CultureList returns the configured cultures with the default culture
// guaranteed to be present.
func (cfg Config) CultureList() []string {
	def := strings.TrimSpace(cfg.DefaultCulture)
	out := make([]string, 0, len(cfg.Cultures)+1)
	for _, code := range cfg.Cultures {
		if code = strings.TrimSpace(code); code != "" && !containsFold(out, code) {
			out = append(out, code)
		}
	}
	if def != "" && !containsFold(out, def) {
		out = append([]string{def}, out...)
	}
	return out
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), target) {
			return true
		}
	}
	return false
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
