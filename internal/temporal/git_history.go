package temporal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	cerrors "github.com/rohankatakam/histblame/internal/errors"
	"github.com/rohankatakam/histblame/internal/models"
)

var (
	// ErrMalformedBlock means a commit block did not have the expected five lines
	ErrMalformedBlock = errors.New("malformed commit block")
	// ErrUnrecognizedStatTrailer means the numeric-stat line had no usable
	// insertion or deletion clause
	ErrUnrecognizedStatTrailer = errors.New("unrecognized stat trailer")
)

// Lines per commit block: sha, author name, author email, stat line, trailer.
// Depends on the `--stat --pretty=format:%H%n%aN%n%aE` format used by the
// history source.
const blockLines = 5

// ParseFileHistory parses the raw `git log --follow --stat` output for one
// file into change records, oldest block last as git prints them.
// Empty output yields no records. The first malformed block aborts parsing.
func ParseFileHistory(filePath, output string) ([]models.ChangeRecord, error) {
	blocks := SplitCommitBlocks(output)
	records := make([]models.ChangeRecord, 0, len(blocks))

	for _, block := range blocks {
		record, err := ParseChangeRecord(filePath, block)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// SplitCommitBlocks splits git log output on blank lines and returns the
// lines of each commit block
func SplitCommitBlocks(output string) [][]string {
	output = strings.ReplaceAll(output, "\r\n", "\n")
	output = strings.TrimRight(output, "\n")
	if strings.TrimSpace(output) == "" {
		return nil
	}

	chunks := strings.Split(output, "\n\n")
	blocks := make([][]string, 0, len(chunks))
	for _, chunk := range chunks {
		blocks = append(blocks, strings.Split(chunk, "\n"))
	}
	return blocks
}

// ParseChangeRecord parses one commit block into a ChangeRecord
func ParseChangeRecord(filePath string, lines []string) (models.ChangeRecord, error) {
	if len(lines) != blockLines {
		return models.ChangeRecord{}, cerrors.ParseErrorf(ErrMalformedBlock,
			"commit block for %s has %d lines, expected %d", filePath, len(lines), blockLines).
			WithContext("file", filePath).
			WithContext("block", strings.Join(lines, "\n"))
	}

	commitID := strings.TrimSpace(lines[0])

	insertions, deletions, err := parseStatTrailer(lines[4])
	if err != nil {
		return models.ChangeRecord{}, cerrors.ParseErrorf(err, "commit %s of %s", commitID, filePath).
			WithContext("file", filePath).
			WithContext("commit", commitID)
	}

	return models.ChangeRecord{
		CommitID:      commitID,
		AuthorName:    strings.TrimSpace(lines[1]),
		AuthorEmail:   strings.TrimSpace(lines[2]),
		FilePath:      filePath,
		FileOperation: parseFileOperation(lines[3]),
		Insertions:    insertions,
		Deletions:     deletions,
	}, nil
}

// parseFileOperation returns the path column of a stat line such as
// " src/{old => new}.go | 12 ++++--"
func parseFileOperation(statLine string) string {
	column, _, _ := strings.Cut(statLine, "|")
	return strings.TrimSpace(column)
}

// parseStatTrailer reads " 1 file changed, 5 insertions(+), 2 deletions(-)".
// Either clause may be missing; at least one must be present.
func parseStatTrailer(line string) (insertions, deletions int, err error) {
	clauses := strings.Split(line, ",")
	if len(clauses) < 2 || len(clauses) > 3 {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnrecognizedStatTrailer, strings.TrimSpace(line))
	}

	var sawInsertions, sawDeletions bool
	for _, clause := range clauses[1:] {
		fields := strings.Fields(clause)
		if len(fields) < 2 {
			return 0, 0, fmt.Errorf("%w: %q", ErrUnrecognizedStatTrailer, strings.TrimSpace(line))
		}

		n, convErr := strconv.Atoi(fields[0])
		if convErr != nil || n < 0 {
			return 0, 0, fmt.Errorf("%w: bad count %q in %q", ErrUnrecognizedStatTrailer, fields[0], strings.TrimSpace(line))
		}

		switch {
		case strings.HasPrefix(fields[1], "insertion") && !sawInsertions:
			insertions, sawInsertions = n, true
		case strings.HasPrefix(fields[1], "deletion") && !sawDeletions:
			deletions, sawDeletions = n, true
		default:
			return 0, 0, fmt.Errorf("%w: %q", ErrUnrecognizedStatTrailer, strings.TrimSpace(line))
		}
	}

	return insertions, deletions, nil
}
