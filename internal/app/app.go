// Package app wires the driven adapters into the core services and hands
// them to the driving adapters.
package app

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/custodia-labs/sorta/internal/adapters/driven/ai"
	"github.com/custodia-labs/sorta/internal/adapters/driven/prompts"
	"github.com/custodia-labs/sorta/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/sorta/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sorta/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sorta/internal/adapters/driven/trash"
	"github.com/custodia-labs/sorta/internal/adapters/driven/watcher"
	"github.com/custodia-labs/sorta/internal/adapters/driving/cli"
	"github.com/custodia-labs/sorta/internal/config"
	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
	"github.com/custodia-labs/sorta/internal/core/services"
	"github.com/custodia-labs/sorta/internal/extractors"
	"github.com/custodia-labs/sorta/internal/extractors/docx"
	"github.com/custodia-labs/sorta/internal/extractors/html"
	"github.com/custodia-labs/sorta/internal/extractors/ocr"
	"github.com/custodia-labs/sorta/internal/extractors/pdf"
	"github.com/custodia-labs/sorta/internal/extractors/plaintext"
	"github.com/custodia-labs/sorta/internal/logger"
)

// Bootstrap loads configuration and builds every service for one
// invocation. It satisfies cli.Bootstrap.
func Bootstrap(opts cli.BootOptions) (*cli.Services, error) {
	logger.SetVerbose(opts.Verbose)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	return Wire(cfg, opts.Ephemeral, afero.NewOsFs())
}

// Wire builds the services from cfg over fs. With ephemeral the ledger
// lives in memory and nothing is written to the data directory.
func Wire(cfg *config.Config, ephemeral bool, fs afero.Fs) (*cli.Services, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: no configuration", domain.ErrInvalidInput)
	}
	provider := domain.AIProvider(cfg.AI.Provider)
	if !provider.IsValid() {
		return nil, fmt.Errorf("%w: unknown AI provider %q", domain.ErrInvalidInput, cfg.AI.Provider)
	}

	ledger, err := openLedger(cfg, ephemeral)
	if err != nil {
		return nil, err
	}

	creds := services.NewCredentialService(ledger, provider, cfg.AI.APIKey)
	creds.SetLogger(logger.Named("credential"))

	factory := ai.NewFactory(domain.AISettings{
		Provider:    provider,
		TextModel:   cfg.AI.TextModel,
		VisionModel: cfg.AI.VisionModel,
		BaseURL:     cfg.AI.BaseURL,
	}, creds)

	gate := ratelimit.NewGate(cfg.Classify.MinInterval)

	pdfText := pdf.New()
	documents := extractors.NewRegistry(
		pdfText,
		docx.New(fs),
		html.New(fs),
		plaintext.New(fs),
	)

	classify := services.NewClassifyService(factory, gate, ledger, services.ClassifyOptions{
		HintLimit:     cfg.Classify.HintLimit,
		ImageMaxBytes: cfg.Classify.ImageMaxBytes,
		MinTextChars:  cfg.Classify.MinTextChars,
		SnippetChars:  cfg.Classify.SnippetChars,
		TextTimeout:   cfg.Classify.TextTimeout,
		VisionTimeout: cfg.Classify.VisionTimeout,
	})
	classify.SetFs(fs)
	classify.SetExtractors(pdfText, ocr.New(""), documents)
	classify.SetLogger(logger.Named("classify"))
	if !ephemeral {
		classify.SetPrompts(prompts.New(fs, filepath.Join(cfg.DataDir, "prompts"), services.DefaultInstructions()))
	}

	cascade := services.NewCascadeService(classify, ledger, cfg.Classify.EscalateBelow)
	cascade.SetLogger(logger.Named("cascade"))

	trasher, err := trash.New(fs)
	if err != nil {
		logger.Named("app").Warn("trash unavailable", zap.Error(err))
	}
	relocation := services.NewRelocationService(fs, trasherOrNil(trasher), cfg.Relocate.MaxRenameAttempts)
	relocation.SetLogger(logger.Named("relocation"))

	watch := services.NewWatchService(watcher.New(), fs, services.WatchOptions{
		Debounce:       cfg.Watch.Debounce,
		PollInterval:   cfg.Watch.PollInterval,
		IgnoreSuffixes: cfg.Watch.IgnoreSuffixes,
	})
	watch.SetLogger(logger.Named("watch"))

	organiser := services.NewOrganiserService(relocation, cascade, ledger, cfg.Classify.EscalateBelow)
	organiser.SetLogger(logger.Named("organiser"))

	retry := services.NewRetryQueue(organiser.Relocate, services.RetryOptions{
		Base:     cfg.Retry.Base,
		Max:      cfg.Retry.Max,
		Attempts: cfg.Retry.Attempts,
	})
	retryLog := logger.Named("retry")
	retry.SetLogger(retryLog)
	retry.OnResult(func(r services.RetryResult) {
		if r.Err == nil && r.Entry != nil {
			retryLog.Info("relocated after retry",
				zap.String("file", r.Entry.Filename),
				zap.String("to", r.Entry.ToFolder),
				zap.Int("attempts", r.Attempts))
		}
	})
	organiser.SetRetryQueue(retry)

	browse := services.NewBrowseService(fs, documents)
	browse.SetLogger(logger.Named("browse"))

	history := services.NewHistoryService(ledger)
	history.SetLogger(logger.Named("history"))

	return &cli.Services{
		Organiser:  organiser,
		Classify:   classify,
		Cascade:    cascade,
		Relocation: relocation,
		Watch:      watch,
		Browse:     browse,
		History:    history,
		Credential: creds,
		Background: retry.Run,
		Config:     cfg,
		Close: func() error {
			watch.Stop()
			err := ledger.Close()
			logger.Sync()
			return err
		},
	}, nil
}

func openLedger(cfg *config.Config, ephemeral bool) (driven.Ledger, error) {
	if ephemeral {
		return memory.NewLedger(cfg.Ledger.MaxCorrections, cfg.Ledger.MaxActivity), nil
	}
	store, err := sqlite.NewStore(cfg.DataDir, sqlite.Retention{
		MaxCorrections: cfg.Ledger.MaxCorrections,
		MaxActivity:    cfg.Ledger.MaxActivity,
	})
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	return store, nil
}

// trasherOrNil keeps a nil *trash.Trasher from becoming a non-nil
// interface.
func trasherOrNil(t *trash.Trasher) driven.Trasher {
	if t == nil {
		return nil
	}
	return t
}
