package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/crmpulse/crmpulse/internal/history"
	"github.com/crmpulse/crmpulse/pkg/config"
)

func newHistoryCmd() *cobra.Command {
	var (
		portal    string
		limit     int
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous audit runs recorded on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.OutOrStdout(), loadConfig(), portal, limit, outputFmt)
		},
	}

	cmd.Flags().StringVar(&portal, "portal", "", "Only show runs for this portal")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")

	return cmd
}

func runHistory(out io.Writer, cfg *config.Config, portal string, limit int, outputFmt string) error {
	path := config.HistoryPath(cfg)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(out, "No audit history yet. Run: crmpulse audit")
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(portal, limit)
	if err != nil {
		return err
	}

	if outputFmt == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No audit runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GENERATED\tPORTAL\tSCORE\tSEVERITY\tCONTACTS\tCOMPANIES\tDEALS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%d\t%d\n",
			e.GeneratedAt, e.Portal, e.Score, e.Severity, e.Contacts, e.Companies, e.Deals)
	}
	return tw.Flush()
}
