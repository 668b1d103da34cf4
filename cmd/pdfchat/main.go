// Command pdfchat chats with a local model and answers questions about PDFs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/pdfchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/extractor/pdf"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/watcher"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/services"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := file.LoadDotEnv(); err != nil {
		logger.Warn("%v", err)
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetBootstrap(func(ctx context.Context, o cli.Overrides) (*cli.Services, error) {
		settings, err := settingsService.Get()
		if err != nil {
			return nil, err
		}
		return bootstrap(ctx, settings, o)
	})
	defer cli.Close() //nolint:errcheck

	return cli.Execute(ctx)
}

// bootstrap builds every service a command can drive.
func bootstrap(ctx context.Context, settings domain.Settings, o cli.Overrides) (*cli.Services, error) {
	if o.Provider != "" {
		settings.Model.Provider = domain.ModelProvider(o.Provider)
	}
	if o.BaseURL != "" {
		settings.Model.BaseURL = o.BaseURL
	}
	if o.Model != "" {
		settings.Model.Name = o.Model
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	model, err := ai.CreateAndValidateChatModel(ctx, settings.Model)
	if model == nil {
		return nil, err
	}
	if err != nil {
		// Commands still run; the first model call reports the failure.
		logger.Warn("%v", err)
	}
	closers := []func() error{model.Close}

	var transcripts driven.TranscriptStore
	if settings.Storage.Transcripts {
		store, err := sqlite.NewStore(settings.Storage.DataDir)
		if err != nil {
			logger.Warn("transcripts kept in memory only: %v", err)
			transcripts = memory.NewTranscriptStore()
		} else {
			closers = append(closers, store.Close)
			transcripts = store
		}
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return nil, errors.Join(err, model.Close())
	}

	s := &cli.Services{
		Settings: settings,
		Models:   services.NewModelCatalogService(model),
		Sessions: services.NewSessionManager(services.SessionConfig{
			Model:         model,
			Extractor:     pdf.NewExtractor(),
			Prompts:       prompts,
			Transcripts:   transcripts,
			ChunkSize:     settings.Document.ChunkSize,
			RecordAnswers: settings.Document.RecordAnswers,
		}),
		Watcher: watcher.New(),
		Close: func() error {
			var errs []error
			for i := len(closers) - 1; i >= 0; i-- {
				errs = append(errs, closers[i]())
			}
			return errors.Join(errs...)
		},
	}
	if transcripts != nil {
		s.History = services.NewHistoryService(transcripts)
	}
	return s, nil
}
