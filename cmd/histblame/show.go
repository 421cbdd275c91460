package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/histblame/internal/config"
	"github.com/rohankatakam/histblame/internal/output"
	"github.com/rohankatakam/histblame/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show stored ownership results",
	Long: `Print the per-author summary, or the team summary with --by-team, from the
configured store.

Examples:
  # Top 20 authors as a table
  histblame show --limit 20

  # Team summary as CSV
  histblame show --by-team --format=csv`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	showCmd.Flags().String("format", output.FormatTable, "Output format: table, json, csv")
	showCmd.Flags().Int("limit", 0, "Maximum number of authors in table output (0 = all)")
	showCmd.Flags().Bool("by-team", false, "Show the team summary instead of authors")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, _ := cmd.Flags().GetString("format")
	limit, _ := cmd.Flags().GetInt("limit")
	byTeam, _ := cmd.Flags().GetBool("by-team")

	// Validate format
	if !output.ValidFormat(format) {
		return fmt.Errorf("invalid format %q, must be: table, json, or csv", format)
	}

	applyFlags(cmd)
	if err := cfg.Require(config.ValidationContextGroup); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	formatter := output.NewOwnershipFormatter(format, limit)

	if byTeam {
		stats, err := storage.ReadTeamStats(ctx, store)
		if err != nil {
			return fmt.Errorf("%w. Run 'histblame teamify' first", err)
		}
		return formatter.FormatTeams(os.Stdout, stats)
	}

	groups, err := storage.ReadGroups(ctx, store)
	if err != nil {
		return fmt.Errorf("%w. Run 'histblame group' first", err)
	}
	totals, err := storage.ReadTotals(ctx, store)
	if err != nil {
		return fmt.Errorf("%w. Run 'histblame compute' first", err)
	}
	return formatter.FormatAuthors(os.Stdout, groups, totals)
}
