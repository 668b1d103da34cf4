// Package cli provides the command-line interface for pdfchat.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// annotationNoBootstrap marks commands that run without a model client.
const annotationNoBootstrap = "pdfchat/no-bootstrap"

// Overrides are the persistent flags that take precedence over every other source.
type Overrides struct {
	Provider string
	BaseURL  string
	Model    string
}

// Services is everything the commands drive once the model client is built.
type Services struct {
	// Settings is the effective configuration with overrides applied.
	Settings domain.Settings

	Models   driving.ModelCatalog
	Sessions driving.SessionManager

	// History is nil when transcripts are disabled.
	History driving.History

	// Watcher is optional.
	Watcher driven.FileWatcher

	// Close releases stores and clients.
	Close func() error
}

// Bootstrap builds the services after flags are parsed.
type Bootstrap func(ctx context.Context, overrides Overrides) (*Services, error)

// Flags.
var (
	verbose   bool
	overrides Overrides
)

// Wired services.
var (
	settingsService driving.SettingsService
	bootstrap       Bootstrap
	services        *Services
)

var rootCmd = &cobra.Command{
	Use:   "pdfchat",
	Short: "Chat with a local model and ask questions about PDFs",
	Long: `pdfchat talks to a local model server (Ollama or any OpenAI-compatible API).

Chat freely with a model, or load a PDF and ask about it: the extracted text is
split into chunks and every chunk is sent to the model with your question.

Run without a subcommand to open the interactive chat.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
	RunE:               runChat,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&overrides.Provider, "provider", "", "model server API: ollama or openai")
	rootCmd.PersistentFlags().StringVar(&overrides.BaseURL, "base-url", "", "model server URL")
	rootCmd.PersistentFlags().StringVarP(&overrides.Model, "model", "m", "", "model to use")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the reported version.
func SetVersion(v string) {
	version = v
}

// SetSettingsService sets the settings service used by the config command.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetBootstrap sets how services are built before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs already built services, bypassing the bootstrap.
func SetServices(s *Services) {
	services = s
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[annotationNoBootstrap] == "true" || bootstrap == nil || services != nil {
		return nil
	}

	built, err := bootstrap(cmd.Context(), overrides)
	if err != nil {
		return describe(cmd, err)
	}
	services = built
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if services == nil || services.Close == nil {
		return nil
	}
	err := services.Close()
	services.Close = nil
	return err
}

// requireServices fails commands that need a model client when none is wired.
func requireServices() (*Services, error) {
	if services == nil || services.Models == nil || services.Sessions == nil {
		return nil, errors.New("services not configured")
	}
	return services, nil
}

// describe prints the user-facing notice for err and returns err for the exit code.
func describe(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	n := domain.Describe(err)
	if n.Hint != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Hint: %s\n", n.Hint)
	}
	if n.Text != err.Error() {
		return fmt.Errorf("%s (%w)", n.Text, err)
	}
	return err
}

// preferredModel is the configured model after flag and environment overrides.
func preferredModel(s *Services) string {
	if overrides.Model != "" {
		return overrides.Model
	}
	return s.Settings.Model.Name
}

// Close releases the services if a command did not get to.
func Close() error {
	return teardown(nil, nil)
}
