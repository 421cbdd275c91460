package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// HISTBLAME_REPO_SINCE_REV
const EnvPrefix = "HISTBLAME"

// Config holds all configuration settings
type Config struct {
	// Repository to analyze
	Repo RepoConfig `mapstructure:"repo" yaml:"repo"`

	// Team directory
	Teams TeamsConfig `mapstructure:"teams" yaml:"teams"`

	// Storage configuration
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Logging
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

type RepoConfig struct {
	Path                   string   `mapstructure:"path" yaml:"path"`
	SinceRev               string   `mapstructure:"since_rev" yaml:"since_rev"`
	IncludeCommitsAfterRev bool     `mapstructure:"include_commits_after_rev" yaml:"include_commits_after_rev"`
	Ignore                 []string `mapstructure:"ignore" yaml:"ignore"` // basenames
}

type TeamsConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"` // JSON or YAML teammate list
}

type StorageConfig struct {
	Type        string `mapstructure:"type" yaml:"type"` // "file", "sqlite", "postgres", "bolt"
	Directory   string `mapstructure:"directory" yaml:"directory"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	BoltPath    string `mapstructure:"bolt_path" yaml:"bolt_path"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
	File  string `mapstructure:"file" yaml:"file"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Repo: RepoConfig{
			Path:     ".",
			SinceRev: "master",
			Ignore:   []string{},
		},
		Storage: StorageConfig{
			Type:       "file",
			Directory:  "histblame-out",
			SQLitePath: filepath.Join(homeDir, ".histblame", "histblame.db"),
			BoltPath:   filepath.Join(homeDir, ".histblame", "histblame.bolt"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from file, .env files and HISTBLAME_* variables
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults
	cfg := Default()
	setDefaults(v, cfg)

	// Load from environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to find config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search for config in standard locations
		v.SetConfigName("histblame")
		v.AddConfigPath(".histblame")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".histblame"))
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Storage.Directory = expandPath(cfg.Storage.Directory)
	cfg.Storage.SQLitePath = expandPath(cfg.Storage.SQLitePath)
	cfg.Storage.BoltPath = expandPath(cfg.Storage.BoltPath)
	cfg.Teams.Directory = expandPath(cfg.Teams.Directory)
	cfg.Log.File = expandPath(cfg.Log.File)

	return cfg, nil
}

// setDefaults registers every leaf key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("repo.path", cfg.Repo.Path)
	v.SetDefault("repo.since_rev", cfg.Repo.SinceRev)
	v.SetDefault("repo.include_commits_after_rev", cfg.Repo.IncludeCommitsAfterRev)
	v.SetDefault("repo.ignore", cfg.Repo.Ignore)
	v.SetDefault("teams.directory", cfg.Teams.Directory)
	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.directory", cfg.Storage.Directory)
	v.SetDefault("storage.sqlite_path", cfg.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", cfg.Storage.PostgresDSN)
	v.SetDefault("storage.bolt_path", cfg.Storage.BoltPath)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.json", cfg.Log.JSON)
	v.SetDefault("log.file", cfg.Log.File)
}

// loadEnvFiles loads .env files in order of precedence. godotenv never
// overrides variables that are already set, so earlier files win.
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	// Also try loading from home directory
	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".histblame", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("repo", map[string]any{
		"path":                      c.Repo.Path,
		"since_rev":                 c.Repo.SinceRev,
		"include_commits_after_rev": c.Repo.IncludeCommitsAfterRev,
		"ignore":                    c.Repo.Ignore,
	})
	v.Set("teams", map[string]any{
		"directory": c.Teams.Directory,
	})
	v.Set("storage", map[string]any{
		"type":         c.Storage.Type,
		"directory":    c.Storage.Directory,
		"sqlite_path":  c.Storage.SQLitePath,
		"postgres_dsn": c.Storage.PostgresDSN,
		"bolt_path":    c.Storage.BoltPath,
	})
	v.Set("log", map[string]any{
		"level": c.Log.Level,
		"json":  c.Log.JSON,
		"file":  c.Log.File,
	})

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write config file
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
