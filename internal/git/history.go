package git

import (
	"context"

	cerrors "github.com/rohankatakam/histblame/internal/errors"
)

// historyFormat prints sha, author name and author email on separate lines
// ahead of each commit's stat block
const historyFormat = "--pretty=format:%H%n%aN%n%aE"

// FileHistory returns the raw `git log --follow --stat` output for one file.
// The output is parsed by temporal.ParseFileHistory. Renames are followed so
// a file's history includes commits made under its earlier paths.
func (c *Client) FileHistory(ctx context.Context, filePath string) (string, error) {
	args := []string{"log"}
	if c.historyRev != "" {
		args = append(args, c.historyRev)
	}
	args = append(args, "--stat=1000", "--follow", "--no-color", historyFormat, "--", filePath)

	output, err := c.run(ctx, c.repoPath, args...)
	if err != nil {
		return "", cerrors.ExternalErrorf(err, "failed to read history of %s", filePath).
			WithContext("file", filePath)
	}

	return string(output), nil
}
