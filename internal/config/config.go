// Package config loads sorta configuration from defaults, an optional TOML
// file and SORTA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides (SORTA_WATCH_DEBOUNCE).
const EnvPrefix = "SORTA"

// Config is the complete application configuration.
type Config struct {
	DataDir  string         `mapstructure:"data_dir" toml:"data_dir"`
	Watch    WatchConfig    `mapstructure:"watch" toml:"watch"`
	Classify ClassifyConfig `mapstructure:"classify" toml:"classify"`
	AI       AIConfig       `mapstructure:"ai" toml:"ai"`
	Ledger   LedgerConfig   `mapstructure:"ledger" toml:"ledger"`
	Relocate RelocateConfig `mapstructure:"relocate" toml:"relocate"`
	Library  LibraryConfig  `mapstructure:"library" toml:"library"`
	Retry    RetryConfig    `mapstructure:"retry" toml:"retry"`
}

// WatchConfig configures the directory watcher.
type WatchConfig struct {
	Debounce       time.Duration `mapstructure:"debounce" toml:"debounce"`
	PollInterval   time.Duration `mapstructure:"poll_interval" toml:"poll_interval"`
	IgnoreSuffixes []string      `mapstructure:"ignore_suffixes" toml:"ignore_suffixes"`
}

// ClassifyConfig configures the classification cascade.
type ClassifyConfig struct {
	MinInterval   time.Duration `mapstructure:"min_interval" toml:"min_interval"`
	EscalateBelow float64       `mapstructure:"escalate_below" toml:"escalate_below"`
	HintLimit     int           `mapstructure:"hint_limit" toml:"hint_limit"`
	ImageMaxBytes int64         `mapstructure:"image_max_bytes" toml:"image_max_bytes"`
	MinTextChars  int           `mapstructure:"min_text_chars" toml:"min_text_chars"`
	SnippetChars  int           `mapstructure:"snippet_chars" toml:"snippet_chars"`
	TextTimeout   time.Duration `mapstructure:"text_timeout" toml:"text_timeout"`
	VisionTimeout time.Duration `mapstructure:"vision_timeout" toml:"vision_timeout"`
	Concurrency   int           `mapstructure:"concurrency" toml:"concurrency"`
}

// AIConfig selects the classifier backend.
type AIConfig struct {
	Provider    string `mapstructure:"provider" toml:"provider"`
	APIKey      string `mapstructure:"api_key" toml:"api_key,omitempty"`
	TextModel   string `mapstructure:"text_model" toml:"text_model"`
	VisionModel string `mapstructure:"vision_model" toml:"vision_model"`
	BaseURL     string `mapstructure:"base_url" toml:"base_url,omitempty"`
}

// LedgerConfig bounds ledger retention.
type LedgerConfig struct {
	MaxCorrections int `mapstructure:"max_corrections" toml:"max_corrections"`
	MaxActivity    int `mapstructure:"max_activity" toml:"max_activity"`
}

// RelocateConfig configures the relocation engine.
type RelocateConfig struct {
	MaxRenameAttempts int `mapstructure:"max_rename_attempts" toml:"max_rename_attempts"`
}

// LibraryConfig names the destination root and its candidate folders.
type LibraryConfig struct {
	Root    string   `mapstructure:"root" toml:"root"`
	Folders []string `mapstructure:"folders" toml:"folders"`
}

// RetryConfig configures the locked-file retry queue.
type RetryConfig struct {
	Base     time.Duration `mapstructure:"base" toml:"base"`
	Max      time.Duration `mapstructure:"max" toml:"max"`
	Attempts int           `mapstructure:"attempts" toml:"attempts"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".sorta"),
		Watch: WatchConfig{
			Debounce:       2 * time.Second,
			PollInterval:   500 * time.Millisecond,
			IgnoreSuffixes: []string{".crdownload", ".part", ".partial", ".download", ".tmp"},
		},
		Classify: ClassifyConfig{
			MinInterval:   500 * time.Millisecond,
			EscalateBelow: 0.7,
			HintLimit:     10,
			ImageMaxBytes: 20 * 1024 * 1024,
			MinTextChars:  20,
			SnippetChars:  500,
			TextTimeout:   30 * time.Second,
			VisionTimeout: 60 * time.Second,
			Concurrency:   4,
		},
		AI: AIConfig{
			Provider:    "openai",
			TextModel:   "gpt-4o-mini",
			VisionModel: "gpt-4o",
		},
		Ledger: LedgerConfig{
			MaxCorrections: 50,
			MaxActivity:    100,
		},
		Relocate: RelocateConfig{
			MaxRenameAttempts: 9999,
		},
		Library: LibraryConfig{
			Root: filepath.Join(home, "Documents", "Courses"),
		},
		Retry: RetryConfig{
			Base:     5 * time.Second,
			Max:      60 * time.Second,
			Attempts: 5,
		},
	}
}

// DefaultPath returns ~/.sorta/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sorta", "config.toml"), nil
}

// Load reads configuration. An empty path uses DefaultPath; a missing file
// at the default path is not an error, a missing explicit path is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		path = p
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			if explicit {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = providerKeyFromEnv(cfg.AI.Provider)
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.Library.Root = expandHome(cfg.Library.Root)

	return &cfg, nil
}

// Save writes cfg as TOML to path, creating parent directories.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := toml.Marshal(fileConfig(cfg))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Encode renders cfg as TOML with durations spelled as strings.
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(fileConfig(cfg))
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("watch.poll_interval", d.Watch.PollInterval)
	v.SetDefault("watch.ignore_suffixes", d.Watch.IgnoreSuffixes)
	v.SetDefault("classify.min_interval", d.Classify.MinInterval)
	v.SetDefault("classify.escalate_below", d.Classify.EscalateBelow)
	v.SetDefault("classify.hint_limit", d.Classify.HintLimit)
	v.SetDefault("classify.image_max_bytes", d.Classify.ImageMaxBytes)
	v.SetDefault("classify.min_text_chars", d.Classify.MinTextChars)
	v.SetDefault("classify.snippet_chars", d.Classify.SnippetChars)
	v.SetDefault("classify.text_timeout", d.Classify.TextTimeout)
	v.SetDefault("classify.vision_timeout", d.Classify.VisionTimeout)
	v.SetDefault("classify.concurrency", d.Classify.Concurrency)
	v.SetDefault("ai.provider", d.AI.Provider)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.text_model", d.AI.TextModel)
	v.SetDefault("ai.vision_model", d.AI.VisionModel)
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ledger.max_corrections", d.Ledger.MaxCorrections)
	v.SetDefault("ledger.max_activity", d.Ledger.MaxActivity)
	v.SetDefault("relocate.max_rename_attempts", d.Relocate.MaxRenameAttempts)
	v.SetDefault("library.root", d.Library.Root)
	v.SetDefault("library.folders", d.Library.Folders)
	v.SetDefault("retry.base", d.Retry.Base)
	v.SetDefault("retry.max", d.Retry.Max)
	v.SetDefault("retry.attempts", d.Retry.Attempts)
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
