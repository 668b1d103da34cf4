package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	coresvc "github.com/custodia-labs/pdfchat/internal/core/services"
)

// secretKeys are prompted for without echo when set without a value.
var secretKeys = map[string]bool{
	"model.api_key": true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage application settings",
	Long: `View and change settings stored in the config file.

Effective values come from defaults, then the config file, then environment
variables (PDFCHAT_PROVIDER, PDFCHAT_BASE_URL, PDFCHAT_API_KEY, PDFCHAT_MODEL,
OLLAMA_HOST), then command-line flags.`,
	Annotations: map[string]string{annotationNoBootstrap: "true"},
	RunE:        runConfigList,
}

var configListCmd = &cobra.Command{
	Use:         "list",
	Short:       "Show every setting with its effective value",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoBootstrap: "true"},
	RunE:        runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:         "get <key>",
	Short:       "Print one setting",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNoBootstrap: "true"},
	RunE:        runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Persist a setting",
	Long: `Persist a setting to the config file.

When setting model.api_key without a value it is read from the terminal
without echo.`,
	Example: `  pdfchat config set model.name llama3.2
  pdfchat config set document.chunk_size 1000
  pdfchat config set model.api_key`,
	Args:        cobra.RangeArgs(1, 2),
	Annotations: map[string]string{annotationNoBootstrap: "true"},
	RunE:        runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:         "unset <key>",
	Short:       "Remove a setting so its default applies",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNoBootstrap: "true"},
	RunE:        runConfigUnset,
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	entries, err := settingsService.Entries()
	if err != nil {
		return describe(cmd, err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE\tSOURCE")
	for _, e := range entries {
		value := e.Value
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Key, value, e.Source)
	}
	return w.Flush()
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	entries, err := settingsService.Entries()
	if err != nil {
		return describe(cmd, err)
	}
	for _, e := range entries {
		if e.Key == args[0] {
			fmt.Fprintln(cmd.OutOrStdout(), e.Value)
			return nil
		}
	}
	return fmt.Errorf("unknown setting %q (known: %s)", args[0], strings.Join(coresvc.SettingKeys(), ", "))
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case secretKeys[key]:
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", key)
		value = readPassword(cmd.InOrStdin())
		fmt.Fprintln(cmd.ErrOrStderr())
	default:
		return fmt.Errorf("missing value for %s", key)
	}

	if err := settingsService.Set(key, value); err != nil {
		return describe(cmd, err)
	}
	if secretKeys[key] {
		cmd.Printf("✓ %s saved\n", key)
		return nil
	}
	cmd.Printf("✓ %s = %s\n", key, value)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	if err := settingsService.Unset(args[0]); err != nil {
		return describe(cmd, err)
	}
	cmd.Printf("✓ %s reset to default\n", args[0])
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	// Try to read password without echo
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
