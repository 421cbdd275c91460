package temporal

import (
	"github.com/rohankatakam/histblame/internal/models"
)

// FileResult is the outcome of folding one file's history
type FileResult struct {
	FilePath          string
	SumAdded          int
	SumDeleted        int
	SumOfTotalChanges int
	Entries           []models.LedgerEntry
}

// Deleted reports whether the result is a tombstone for a removed file
func (r FileResult) Deleted() bool {
	return len(r.Entries) == 1 && r.Entries[0].IsTombstone()
}

// DeletedFile returns the result for a file that no longer exists in the
// working tree: a single tombstone and zero sums.
func DeletedFile(filePath string) FileResult {
	return FileResult{
		FilePath: filePath,
		Entries:  []models.LedgerEntry{models.NewTombstone(filePath)},
	}
}

// AggregateFile folds the change records of one file into per-author
// totals keyed by email. Authors keep first-seen order; an email seen with
// several display names keeps the last one.
func AggregateFile(filePath string, records []models.ChangeRecord) FileResult {
	totals := make(map[string]*models.AuthorTotals)
	var order []string

	for _, r := range records {
		t, exists := totals[r.AuthorEmail]
		if !exists {
			t = &models.AuthorTotals{}
			totals[r.AuthorEmail] = t
			order = append(order, r.AuthorEmail)
		}

		t.AuthorName = r.AuthorName
		t.Adds += r.Insertions
		t.Dels += r.Deletions
		t.Both += r.TotalChanges()
	}

	result := FileResult{FilePath: filePath}
	for _, email := range order {
		t := totals[email]
		result.SumAdded += t.Adds
		result.SumDeleted += t.Dels
		result.SumOfTotalChanges += t.Both
	}

	result.Entries = make([]models.LedgerEntry, 0, len(order))
	for _, email := range order {
		t := totals[email]
		t.Fraction = Fraction(t.Both, result.SumOfTotalChanges)
		result.Entries = append(result.Entries, models.LedgerEntry{
			Kind:        models.EntryAuthor,
			FilePath:    filePath,
			AuthorEmail: email,
			AuthorName:  t.AuthorName,
			Adds:        t.Adds,
			Dels:        t.Dels,
			Both:        t.Both,
			Fraction:    t.Fraction,
		})
	}

	return result
}

// Fraction returns part/whole, or 0 when whole is 0
func Fraction(part, whole int) models.Decimal {
	if whole == 0 {
		return 0
	}
	return models.Decimal(float64(part) / float64(whole))
}
