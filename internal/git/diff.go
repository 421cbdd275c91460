package git

import (
	"context"
	"strings"

	cerrors "github.com/rohankatakam/histblame/internal/errors"
)

// ChangedFiles returns the paths changed between rev and the working tree,
// in the order git reports them
func (c *Client) ChangedFiles(ctx context.Context, rev string) ([]string, error) {
	output, err := c.run(ctx, c.repoPath, "-c", "core.quotepath=off", "diff", "--name-only", "--no-color", rev)
	if err != nil {
		return nil, cerrors.ExternalErrorf(err, "failed to list files changed since %s", rev).
			WithContext("rev", rev)
	}

	return parseNameOnly(string(output)), nil
}

func parseNameOnly(output string) []string {
	var files []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files
}
