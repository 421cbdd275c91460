package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/histblame/internal/errors"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextCompute - compute reads the repository and writes to storage
	ValidationContextCompute ValidationContext = "compute"
	// ValidationContextGroup - group only touches storage
	ValidationContextGroup ValidationContext = "group"
	// ValidationContextTeamify - teamify needs storage and the team directory
	ValidationContextTeamify ValidationContext = "teamify"
	// ValidationContextAll - validate all configuration
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  ❌ %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠️  %s\n", warn))
		}
	}

	return sb.String()
}

// Validate validates configuration for the given context
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextCompute:
		c.validateRepo(result)
		c.validateStorage(result)
	case ValidationContextGroup:
		c.validateStorage(result)
	case ValidationContextTeamify:
		c.validateStorage(result)
		c.validateTeams(result)
	case ValidationContextAll:
		c.validateRepo(result)
		c.validateStorage(result)
		c.validateTeams(result)
	}
	c.validateLog(result)

	return result
}

// Require validates for ctx and returns a validation error listing every problem
func (c *Config) Require(ctx ValidationContext) error {
	result := c.Validate(ctx)
	if result.HasErrors() {
		return errors.ValidationError(result.Error()).
			WithContext("stage", string(ctx)).
			WithContext("problems", len(result.Errors))
	}
	return nil
}

func (c *Config) validateRepo(result *ValidationResult) {
	if c.Repo.Path == "" {
		result.AddError("repo.path is required but not set")
	} else if info, err := os.Stat(c.Repo.Path); err != nil {
		result.AddError("repo.path %s is not accessible: %v", c.Repo.Path, err)
	} else if !info.IsDir() {
		result.AddError("repo.path %s is not a directory", c.Repo.Path)
	}

	if strings.TrimSpace(c.Repo.SinceRev) == "" {
		result.AddError("repo.since_rev is required but not set")
	}

	for _, name := range c.Repo.Ignore {
		if strings.Contains(name, "/") {
			result.AddWarning("repo.ignore entry %q contains a path separator; only basenames are matched", name)
		}
	}
}

func (c *Config) validateStorage(result *ValidationResult) {
	switch c.Storage.Type {
	case "file":
		if c.Storage.Directory == "" {
			result.AddError("storage.directory is required for file storage")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			result.AddError("storage.sqlite_path is required for sqlite storage")
		}
	case "bolt":
		if c.Storage.BoltPath == "" {
			result.AddError("storage.bolt_path is required for bolt storage")
		}
	case "postgres":
		c.validatePostgres(result)
	default:
		result.AddError("storage.type must be one of file, sqlite, postgres, bolt (got %q)", c.Storage.Type)
	}
}

func (c *Config) validatePostgres(result *ValidationResult) {
	dsn := c.Storage.PostgresDSN
	if dsn == "" {
		result.AddError("storage.postgres_dsn is required for postgres storage")
		return
	}

	// Validate DSN format
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		result.AddError("storage.postgres_dsn must start with postgres:// or postgresql://")
		return
	}
	if _, err := url.Parse(dsn); err != nil {
		result.AddError("storage.postgres_dsn is invalid: %v", err)
	}

	if strings.Contains(dsn, "sslmode=disable") {
		result.AddWarning("storage.postgres_dsn has sslmode=disable")
	}
}

func (c *Config) validateTeams(result *ValidationResult) {
	if c.Teams.Directory == "" {
		result.AddWarning("teams.directory is not set, every author will be reported without a team")
		return
	}

	switch strings.ToLower(filepath.Ext(c.Teams.Directory)) {
	case ".json", ".yaml", ".yml":
	default:
		result.AddError("teams.directory must be a .json, .yaml or .yml file (got %s)", c.Teams.Directory)
		return
	}

	if _, err := os.Stat(c.Teams.Directory); err != nil {
		result.AddError("teams.directory %s is not accessible: %v", c.Teams.Directory, err)
	}
}

func (c *Config) validateLog(result *ValidationResult) {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		result.AddError("log.level is invalid: %v", err)
	}
}
