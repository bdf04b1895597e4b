package config

import "time"

// fileShape mirrors Config for TOML output with human-readable durations.
type fileShape struct {
	DataDir  string `toml:"data_dir"`
	Watch    struct {
		Debounce       string   `toml:"debounce"`
		PollInterval   string   `toml:"poll_interval"`
		IgnoreSuffixes []string `toml:"ignore_suffixes"`
	} `toml:"watch"`
	Classify struct {
		MinInterval   string  `toml:"min_interval"`
		EscalateBelow float64 `toml:"escalate_below"`
		HintLimit     int     `toml:"hint_limit"`
		ImageMaxBytes int64   `toml:"image_max_bytes"`
		MinTextChars  int     `toml:"min_text_chars"`
		SnippetChars  int     `toml:"snippet_chars"`
		TextTimeout   string  `toml:"text_timeout"`
		VisionTimeout string  `toml:"vision_timeout"`
		Concurrency   int     `toml:"concurrency"`
	} `toml:"classify"`
	AI       AIConfig       `toml:"ai"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Relocate RelocateConfig `toml:"relocate"`
	Library  LibraryConfig  `toml:"library"`
	Retry    struct {
		Base     string `toml:"base"`
		Max      string `toml:"max"`
		Attempts int    `toml:"attempts"`
	} `toml:"retry"`
}

func fileConfig(cfg Config) fileShape {
	var f fileShape
	f.DataDir = cfg.DataDir

	f.Watch.Debounce = dur(cfg.Watch.Debounce)
	f.Watch.PollInterval = dur(cfg.Watch.PollInterval)
	f.Watch.IgnoreSuffixes = cfg.Watch.IgnoreSuffixes

	c := cfg.Classify
	f.Classify.MinInterval = dur(c.MinInterval)
	f.Classify.EscalateBelow = c.EscalateBelow
	f.Classify.HintLimit = c.HintLimit
	f.Classify.ImageMaxBytes = c.ImageMaxBytes
	f.Classify.MinTextChars = c.MinTextChars
	f.Classify.SnippetChars = c.SnippetChars
	f.Classify.TextTimeout = dur(c.TextTimeout)
	f.Classify.VisionTimeout = dur(c.VisionTimeout)
	f.Classify.Concurrency = c.Concurrency

	f.AI = cfg.AI
	f.Ledger = cfg.Ledger
	f.Relocate = cfg.Relocate
	f.Library = cfg.Library
	if f.Library.Folders == nil {
		f.Library.Folders = []string{}
	}

	f.Retry.Base = dur(cfg.Retry.Base)
	f.Retry.Max = dur(cfg.Retry.Max)
	f.Retry.Attempts = cfg.Retry.Attempts
	return f
}

func dur(d time.Duration) string {
	return d.String()
}
