package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyLimit int

// errNoDatabase is returned by commands that need the history store.
var errNoDatabase = errors.New("no history database configured (use --db or DATABASE_URL)")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent recognition runs recorded in the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command) error {
	if DB == nil {
		return errNoDatabase
	}
	runs, err := DB.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recognition runs found in database.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tPATH\tENGINE\tLANG\tLINES\tSTATUS\tCREATED")
	fmt.Fprintln(w, "--\t----\t------\t----\t-----\t------\t-------")

	for _, r := range runs {
		status := "ok"
		if r.Error != "" {
			status = "error: " + truncate(r.Error, 40)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n", r.ID, r.Path, r.Engine, r.Lang, r.LineCount, status, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
