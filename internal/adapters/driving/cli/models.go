package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models available on the server",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "output models as JSON")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	discovery, err := s.Models.Discover(cmd.Context())
	if err != nil {
		return describe(cmd, err)
	}

	if modelsJSON {
		models := discovery.Models
		if models == nil {
			models = []string{}
		}
		data, err := json.MarshalIndent(models, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal models: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if discovery.Unavailable {
		n := domain.Describe(domain.ErrModelUnavailable)
		cmd.Printf("⚠️  %s\n%s\n", n.Text, n.Hint)
		return nil
	}

	current := preferredModel(s)
	for _, m := range discovery.Models {
		marker := "  "
		if m == current {
			marker = "* "
		}
		cmd.Printf("%s%s\n", marker, m)
	}
	return nil
}
