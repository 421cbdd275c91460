package main

import (
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/histblame/internal/config"
	"github.com/rohankatakam/histblame/internal/errors"
)

func TestMaskDSN(t *testing.T) {
	masked := maskDSN("postgres://hb:secret@db:5432/histblame")
	assert.NotContains(t, masked, "secret")
	assert.Contains(t, masked, "postgres://hb:")
	assert.Contains(t, masked, "@db:5432/histblame")
	assert.Equal(t, "postgres://db/histblame", maskDSN("postgres://db/histblame"))
}

func TestApplyFlags(t *testing.T) {
	cfg = config.Default()

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("since", "", "")
	cmd.Flags().String("store", "", "")
	cmd.Flags().StringSlice("ignore", nil, "")
	cmd.Flags().Bool("include-commits-after-rev", false, "")
	require.NoError(t, cmd.ParseFlags([]string{"--since", "v2", "--ignore", "a.lock,b.lock", "--include-commits-after-rev"}))

	applyFlags(cmd)

	assert.Equal(t, "v2", cfg.Repo.SinceRev)
	assert.Equal(t, []string{"a.lock", "b.lock"}, cfg.Repo.Ignore)
	assert.True(t, cfg.Repo.IncludeCommitsAfterRev)
	assert.Equal(t, "file", cfg.Storage.Type) // not passed, keeps config value
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", errors.ValidationError("repo.path is required"), 2},
		{"config wrapped", fmt.Errorf("load: %w", errors.ConfigErrorf("unknown storage type %q", "redis")), 2},
		{"storage", errors.StorageErrorf(fmt.Errorf("disk full"), "commit blame.json"), 1},
		{"plain", fmt.Errorf("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
