package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/histblame/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage histblame configuration",
	Long:  `View, validate and initialize histblame configuration.`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	RunE:  runConfigList,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var forceInit bool

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
}

func runConfigList(cmd *cobra.Command, args []string) error {
	fmt.Println("📋 histblame Configuration")
	fmt.Println("══════════════════════════")

	fmt.Printf("\n📁 Repository:\n")
	fmt.Printf("  repo.path = %s\n", cfg.Repo.Path)
	fmt.Printf("  repo.since_rev = %s\n", cfg.Repo.SinceRev)
	fmt.Printf("  repo.include_commits_after_rev = %v\n", cfg.Repo.IncludeCommitsAfterRev)
	fmt.Printf("  repo.ignore = [%s]\n", strings.Join(cfg.Repo.Ignore, ", "))

	fmt.Printf("\n👥 Teams:\n")
	if cfg.Teams.Directory != "" {
		fmt.Printf("  teams.directory = %s\n", cfg.Teams.Directory)
	} else {
		fmt.Printf("  teams.directory = (not set)\n")
	}

	fmt.Printf("\n💾 Storage:\n")
	fmt.Printf("  storage.type = %s\n", cfg.Storage.Type)
	fmt.Printf("  storage.directory = %s\n", cfg.Storage.Directory)
	fmt.Printf("  storage.sqlite_path = %s\n", cfg.Storage.SQLitePath)
	fmt.Printf("  storage.bolt_path = %s\n", cfg.Storage.BoltPath)
	if cfg.Storage.PostgresDSN != "" {
		fmt.Printf("  storage.postgres_dsn = %s\n", maskDSN(cfg.Storage.PostgresDSN))
	}

	fmt.Printf("\n📝 Logging:\n")
	fmt.Printf("  log.level = %s\n", cfg.Log.Level)
	fmt.Printf("  log.json = %v\n", cfg.Log.JSON)
	if cfg.Log.File != "" {
		fmt.Printf("  log.file = %s\n", cfg.Log.File)
	}

	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if err := cfg.Require(config.ValidationContextAll); err != nil {
		return err
	}

	result := cfg.Validate(config.ValidationContextAll)
	for _, warn := range result.Warnings {
		fmt.Printf("  ⚠️  %s\n", warn)
	}
	fmt.Println("✅ Configuration is valid")
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "histblame.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	if err := config.Default().Save(path); err != nil {
		return err
	}

	fmt.Printf("✅ Wrote %s\n", path)
	return nil
}

// maskDSN hides the password of a connection URL
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}
