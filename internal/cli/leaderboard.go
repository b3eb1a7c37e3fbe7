package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"roboclic/internal/app"
	"roboclic/internal/infra/file"
)

// NewLeaderboardCmd prints the ledger, or one participant's score.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the score ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, io.Discard)
			participants, err := file.LoadRegistry(cfg.Data.Participants)
			if err != nil {
				return err
			}
			st, err := openStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			return printLeaderboard(cmd, app.NewLedger(st.scores, participants, logger), name, logger)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "show a single participant")
	return cmd
}

func printLeaderboard(cmd *cobra.Command, ledger *app.Ledger, name string, logger *slog.Logger) error {
	out := cmd.OutOrStdout()
	if name != "" {
		display, score, err := ledger.Lookup(cmd.Context(), name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d\n", display, score)
		return nil
	}

	lb, err := ledger.Snapshot(cmd.Context())
	if err != nil {
		return err
	}
	if len(lb.Entries) == 0 {
		fmt.Fprintln(out, "No stat available")
		return nil
	}
	for _, e := range lb.Entries {
		fmt.Fprintf(out, "%s: %d\n", e.DisplayName, e.Score)
	}
	logger.Debug("leaderboard printed", "entries", len(lb.Entries))
	return nil
}
