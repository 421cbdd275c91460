package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/histblame/internal/cli"
	"github.com/rohankatakam/histblame/internal/config"
	"github.com/rohankatakam/histblame/internal/storage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute, group and teamify in one pass",
	Long: `Run every stage against the files changed since a revision and write all
documents in a single batch.

Examples:
  # Files changed since master, file output in ./histblame-out
  histblame run

  # Files changed since a tag, with a team directory
  histblame run --since v2.3.0 --teams teams.yaml

  # Store results in SQLite instead of files
  histblame run --store sqlite`,
	Args: cobra.NoArgs,
	RunE: runAll,
}

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute per-file ownership and repository totals",
	Long:  `Write the per-file ledger (blame.json) and the repository totals (stats.json).`,
	Args:  cobra.NoArgs,
	RunE:  runCompute,
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Group the ledger by author",
	Long:  `Read blame.json and stats.json and write the per-author summary (grouped.json).`,
	Args:  cobra.NoArgs,
	RunE:  runGroup,
}

var teamifyCmd = &cobra.Command{
	Use:   "teamify",
	Short: "Roll author ownership up to teams",
	Long: `Read grouped.json, resolve every author against the team directory and write
teamified, by-team and team-stats documents with their CSV exports.`,
	Args: cobra.NoArgs,
	RunE: runTeamify,
}

func init() {
	for _, cmd := range []*cobra.Command{runCmd, computeCmd} {
		cmd.Flags().String("repo", "", "repository path (default: repo.path)")
		cmd.Flags().String("since", "", "revision to diff against (default: repo.since_rev)")
		cmd.Flags().Bool("include-commits-after-rev", false, "count commits made after the revision too")
		cmd.Flags().StringSlice("ignore", nil, "file basenames to skip")
	}
	for _, cmd := range []*cobra.Command{runCmd, teamifyCmd} {
		cmd.Flags().String("teams", "", "team directory file, JSON or YAML")
	}
	for _, cmd := range []*cobra.Command{runCmd, computeCmd, groupCmd, teamifyCmd, showCmd} {
		cmd.Flags().String("store", "", "storage type: file, sqlite, postgres, bolt")
		cmd.Flags().String("out", "", "output directory for file storage")
	}
}

// applyFlags copies explicitly set flags over the loaded configuration
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("repo") {
		cfg.Repo.Path, _ = flags.GetString("repo")
	}
	if flags.Changed("since") {
		cfg.Repo.SinceRev, _ = flags.GetString("since")
	}
	if flags.Changed("include-commits-after-rev") {
		cfg.Repo.IncludeCommitsAfterRev, _ = flags.GetBool("include-commits-after-rev")
	}
	if flags.Changed("ignore") {
		cfg.Repo.Ignore, _ = flags.GetStringSlice("ignore")
	}
	if flags.Changed("teams") {
		cfg.Teams.Directory, _ = flags.GetString("teams")
	}
	if flags.Changed("store") {
		cfg.Storage.Type, _ = flags.GetString("store")
	}
	if flags.Changed("out") {
		cfg.Storage.Directory, _ = flags.GetString("out")
	}
}

func openStore() (storage.Store, error) {
	return storage.Open(storage.Options{
		Type:        cfg.Storage.Type,
		Directory:   cfg.Storage.Directory,
		SQLitePath:  cfg.Storage.SQLitePath,
		PostgresDSN: cfg.Storage.PostgresDSN,
		BoltPath:    cfg.Storage.BoltPath,
	}, log)
}

func computeOptions() cli.ComputeOptions {
	return cli.ComputeOptions{
		RepoPath:               cfg.Repo.Path,
		SinceRev:               cfg.Repo.SinceRev,
		IncludeCommitsAfterRev: cfg.Repo.IncludeCommitsAfterRev,
		Ignore:                 cfg.Repo.Ignore,
		Progress:               cli.TerminalProgress(os.Stderr),
	}
}

// prepare validates the configuration for ctx and opens the pipeline
func prepare(cmd *cobra.Command, ctx config.ValidationContext) (*cli.Pipeline, storage.Store, error) {
	applyFlags(cmd)

	result := cfg.Validate(ctx)
	for _, warn := range result.Warnings {
		log.Warn(warn)
	}
	if err := cfg.Require(ctx); err != nil {
		return nil, nil, err
	}

	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return cli.NewPipeline(store, log), store, nil
}

func runAll(cmd *cobra.Command, args []string) error {
	pipeline, store, err := prepare(cmd, config.ValidationContextAll)
	if err != nil {
		return err
	}
	defer store.Close()

	directory, err := config.LoadTeammates(cfg.Teams.Directory)
	if err != nil {
		return err
	}

	summary, err := pipeline.Run(cmd.Context(), computeOptions(), directory)
	if err != nil {
		return err
	}

	fmt.Printf("✅ %s files analyzed in %s (%s ignored, %s deleted)\n",
		humanize.Comma(int64(summary.Compute.FilesTotal)),
		summary.Compute.Duration.Round(time.Millisecond),
		humanize.Comma(int64(summary.Compute.FilesIgnored)),
		humanize.Comma(int64(summary.Compute.FilesDeleted)))
	fmt.Printf("   %s lines changed by %d authors in %d teams\n",
		humanize.Comma(int64(summary.Compute.Totals.TotalChanged)),
		len(summary.Groups), len(summary.Teams.ByTeam))
	fmt.Printf("   %d documents written to %s storage\n", summary.Documents, cfg.Storage.Type)
	return nil
}

func runCompute(cmd *cobra.Command, args []string) error {
	pipeline, store, err := prepare(cmd, config.ValidationContextCompute)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := pipeline.RunCompute(cmd.Context(), computeOptions())
	if err != nil {
		return err
	}

	fmt.Printf("✅ %s files analyzed, %s lines changed (+%s -%s)\n",
		humanize.Comma(int64(result.FilesTotal)),
		humanize.Comma(int64(result.Totals.TotalChanged)),
		humanize.Comma(int64(result.Totals.TotalAdded)),
		humanize.Comma(int64(result.Totals.TotalDeleted)))
	return nil
}

func runGroup(cmd *cobra.Command, args []string) error {
	pipeline, store, err := prepare(cmd, config.ValidationContextGroup)
	if err != nil {
		return err
	}
	defer store.Close()

	groups, err := pipeline.RunGroup(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("✅ %d authors grouped\n", len(groups))
	return nil
}

func runTeamify(cmd *cobra.Command, args []string) error {
	pipeline, store, err := prepare(cmd, config.ValidationContextTeamify)
	if err != nil {
		return err
	}
	defer store.Close()

	directory, err := config.LoadTeammates(cfg.Teams.Directory)
	if err != nil {
		return err
	}

	report, err := pipeline.RunTeamify(cmd.Context(), directory)
	if err != nil {
		return err
	}

	fmt.Printf("✅ %d authors assigned to %d teams\n", len(report.Authors), len(report.ByTeam))
	return nil
}
