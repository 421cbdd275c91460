package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/rohankatakam/histblame/internal/errors"
	"github.com/rohankatakam/histblame/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ".", cfg.Repo.Path)
	assert.Equal(t, "master", cfg.Repo.SinceRev)
	assert.False(t, cfg.Repo.IncludeCommitsAfterRev)
	assert.Equal(t, "file", cfg.Storage.Type)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "histblame.yaml", `
repo:
  path: /src/app
  since_rev: main
  include_commits_after_rev: true
  ignore:
    - package-lock.json
    - yarn.lock
storage:
  type: bolt
  bolt_path: /tmp/hb.bolt
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/src/app", cfg.Repo.Path)
	assert.Equal(t, "main", cfg.Repo.SinceRev)
	assert.True(t, cfg.Repo.IncludeCommitsAfterRev)
	assert.Equal(t, []string{"package-lock.json", "yarn.lock"}, cfg.Repo.Ignore)
	assert.Equal(t, "bolt", cfg.Storage.Type)
	assert.Equal(t, "/tmp/hb.bolt", cfg.Storage.BoltPath)
	assert.Equal(t, "debug", cfg.Log.Level)

	// untouched keys keep their defaults
	assert.Equal(t, "histblame-out", cfg.Storage.Directory)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "histblame.yaml", "repo:\n  since_rev: main\n")

	t.Setenv("HISTBLAME_REPO_SINCE_REV", "develop")
	t.Setenv("HISTBLAME_STORAGE_TYPE", "sqlite")
	t.Setenv("HISTBLAME_LOG_JSON", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "develop", cfg.Repo.SinceRev)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.True(t, cfg.Log.JSON)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "histblame.yaml")

	cfg := Default()
	cfg.Repo.SinceRev = "v1.0.0"
	cfg.Repo.Ignore = []string{"go.sum"}
	cfg.Teams.Directory = "/etc/teams.json"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", loaded.Repo.SinceRev)
	assert.Equal(t, []string{"go.sum"}, loaded.Repo.Ignore)
	assert.Equal(t, "/etc/teams.json", loaded.Teams.Directory)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	teams := writeFile(t, dir, "teams.json", "[]")

	tests := []struct {
		name    string
		mutate  func(*Config)
		ctx     ValidationContext
		wantErr bool
	}{
		{"defaults for group", func(c *Config) {}, ValidationContextGroup, false},
		{"repo dir for compute", func(c *Config) { c.Repo.Path = dir }, ValidationContextCompute, false},
		{"missing repo", func(c *Config) { c.Repo.Path = filepath.Join(dir, "nope") }, ValidationContextCompute, true},
		{"repo is a file", func(c *Config) { c.Repo.Path = teams }, ValidationContextCompute, true},
		{"empty since rev", func(c *Config) { c.Repo.Path = dir; c.Repo.SinceRev = " " }, ValidationContextCompute, true},
		{"repo ignored for group", func(c *Config) { c.Repo.Path = "" }, ValidationContextGroup, false},
		{"unknown storage", func(c *Config) { c.Storage.Type = "redis" }, ValidationContextGroup, true},
		{"postgres without dsn", func(c *Config) { c.Storage.Type = "postgres" }, ValidationContextGroup, true},
		{"postgres bad scheme", func(c *Config) {
			c.Storage.Type = "postgres"
			c.Storage.PostgresDSN = "mysql://x"
		}, ValidationContextGroup, true},
		{"postgres ok", func(c *Config) {
			c.Storage.Type = "postgres"
			c.Storage.PostgresDSN = "postgres://u:p@db:5432/histblame"
		}, ValidationContextGroup, false},
		{"teams file ok", func(c *Config) { c.Teams.Directory = teams }, ValidationContextTeamify, false},
		{"teams wrong extension", func(c *Config) { c.Teams.Directory = filepath.Join(dir, "teams.txt") }, ValidationContextTeamify, true},
		{"teams missing", func(c *Config) { c.Teams.Directory = filepath.Join(dir, "absent.yaml") }, ValidationContextTeamify, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, ValidationContextGroup, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			result := cfg.Validate(tt.ctx)
			assert.Equal(t, tt.wantErr, result.HasErrors(), result.Error())

			err := cfg.Require(tt.ctx)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var structured *cerrors.Error
			require.True(t, errors.As(err, &structured))
			assert.Equal(t, cerrors.ErrorTypeValidation, structured.Type)
			assert.Equal(t, cerrors.SeverityHigh, structured.Severity)
			assert.Equal(t, string(tt.ctx), structured.Context["stage"])
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	cfg := Default()
	cfg.Repo.Path = t.TempDir()
	cfg.Repo.Ignore = []string{"vendor/modules.txt"}

	result := cfg.Validate(ValidationContextAll)
	assert.False(t, result.HasErrors())
	assert.Len(t, result.Warnings, 2) // ignore entry and unset team directory
}

func TestLoadTeammates(t *testing.T) {
	dir := t.TempDir()
	want := []models.Teammate{
		{Fullname: "Alice A", Email: "a@x.com", Team: "Core"},
		{Fullname: "Bob", Email: "b@x.com", Team: "Web"},
	}

	jsonPath := writeFile(t, dir, "teams.json", `[
  {"fullname": "Alice A", "email": "a@x.com", "team": "Core"},
  {"fullname": "Bob", "email": "b@x.com", "team": "Web"}
]`)
	got, err := LoadTeammates(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	yamlPath := writeFile(t, dir, "teams.yml", `
- fullname: Alice A
  email: a@x.com
  team: Core
- fullname: Bob
  email: b@x.com
  team: Web
`)
	got, err = LoadTeammates(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = LoadTeammates("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = LoadTeammates(filepath.Join(dir, "absent.json"))
	assert.Error(t, err)

	badPath := writeFile(t, dir, "bad.json", `{"not": "a list"}`)
	_, err = LoadTeammates(badPath)
	assert.Error(t, err)
}
