package cli

import (
	"errors"
	"fmt"

	"github.com/rohankatakam/histblame/internal/storage"
)

// missingInput explains which stage has to run before the current one
func missingInput(err error, stage string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w. Run 'histblame %s' first", err, stage)
	}
	return err
}

// FormatNotGitRepoError provides a helpful message when the repository path
// is not a git work tree
func FormatNotGitRepoError(path string) error {
	return fmt.Errorf(`%s is not a git repository.

To analyze a repository:
  1. Run histblame from inside its work tree, or
  2. Pass --repo <path> or set repo.path in histblame.yaml`, path)
}
