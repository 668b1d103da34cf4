package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

const timeLayout = "2006-01-02 15:04"

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded conversations",
	Long: `List and print conversations recorded in the local database.

Recording is controlled by storage.transcripts.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded sessions, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id|latest]",
	Short: "Print one session's transcript",
	Long: `Print the messages of a recorded session.

The session is chosen by id, by an unambiguous id prefix, or with "latest".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistoryShow,
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of sessions to list")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func requireHistory() (driving.History, error) {
	s, err := requireServices()
	if err != nil {
		return nil, err
	}
	if s.History == nil {
		return nil, errors.New("transcripts are disabled: enable them with `pdfchat config set storage.transcripts true`")
	}
	return s.History, nil
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	history, err := requireHistory()
	if err != nil {
		return err
	}

	sessions, err := history.Sessions(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		cmd.Println("No recorded sessions.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tMODEL\tMESSAGES")
	for _, s := range sessions {
		model := s.Model
		if model == "" {
			model = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			shortID(s.ID), s.StartedAt.Local().Format(timeLayout), model, s.MessageCount)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	history, err := requireHistory()
	if err != nil {
		return err
	}

	id := driving.LatestSession
	if len(args) == 1 {
		id = args[0]
	}

	info, msgs, err := history.Transcript(cmd.Context(), id)
	if err != nil {
		return describe(cmd, err)
	}

	cmd.Printf("Session %s · %s", info.ID, info.StartedAt.Local().Format(timeLayout))
	if info.Model != "" {
		cmd.Printf(" · %s", info.Model)
	}
	cmd.Println()

	for _, m := range msgs {
		cmd.Printf("\n%s %s\n%s\n", roleAvatar(m.Role), m.Role, m.Content)
	}
	return nil
}

func roleAvatar(r domain.Role) string {
	switch r {
	case domain.RoleAssistant:
		return "🤖"
	case domain.RoleUser:
		return "😎"
	default:
		return "📄"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
