package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	cerrors "github.com/rohankatakam/histblame/internal/errors"
)

// Runner executes git with args inside dir and returns its stdout.
// Tests substitute canned output for the real binary.
type Runner func(ctx context.Context, dir string, args ...string) ([]byte, error)

// ExecRunner runs the git binary found on PATH
func ExecRunner(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("git %s failed: %w (stderr: %s)",
				strings.Join(args, " "), err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}

	return output, nil
}

// Client runs the git commands the ownership computation depends on
// against one repository
type Client struct {
	repoPath   string
	historyRev string
	run        Runner
}

// Option configures a Client
type Option func(*Client)

// WithRunner replaces the git binary
func WithRunner(r Runner) Option {
	return func(c *Client) {
		c.run = r
	}
}

// WithHistoryRev bounds file histories to commits reachable from rev.
// An empty rev means the full history up to HEAD.
func WithHistoryRev(rev string) Option {
	return func(c *Client) {
		c.historyRev = rev
	}
}

// NewClient creates a Client for the repository at repoPath
func NewClient(repoPath string, opts ...Option) *Client {
	c := &Client{
		repoPath: repoPath,
		run:      ExecRunner,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DetectGitRepo checks that the client's path is inside a work tree
func (c *Client) DetectGitRepo(ctx context.Context) error {
	if _, err := c.run(ctx, c.repoPath, "rev-parse", "--is-inside-work-tree"); err != nil {
		return fmt.Errorf("not a git repository: %w", err)
	}
	return nil
}

// HeadSHA returns the SHA of the current commit
func (c *Client) HeadSHA(ctx context.Context) (string, error) {
	output, err := c.run(ctx, c.repoPath, "rev-parse", "HEAD")
	if err != nil {
		return "", cerrors.ExternalErrorf(err, "failed to resolve HEAD")
	}
	return strings.TrimSpace(string(output)), nil
}

// Exists reports whether filePath, relative to the repository root, is
// present in the working tree
func (c *Client) Exists(filePath string) (bool, error) {
	_, err := os.Stat(filepath.Join(c.repoPath, filePath))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", filePath, err)
}
