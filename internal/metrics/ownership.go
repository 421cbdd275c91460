package metrics

import (
	"sort"

	"github.com/rohankatakam/histblame/internal/models"
)

// GroupByAuthor collapses the per-file ledger into one row per author email.
// Tombstones carry no author and are skipped. Ownership is the author's share
// of totalChanged as a percentage; it is 0 when totalChanged is 0.
// The result is sorted by changed lines, descending, keeping first-seen order
// between equal authors.
func GroupByAuthor(ledger []models.LedgerEntry, totalChanged int) []models.AuthorGroup {
	index := make(map[string]int)
	var groups []models.AuthorGroup

	for _, entry := range ledger {
		if entry.IsTombstone() {
			continue
		}

		i, exists := index[entry.AuthorEmail]
		if !exists {
			i = len(groups)
			index[entry.AuthorEmail] = i
			groups = append(groups, models.AuthorGroup{
				AuthorEmail: entry.AuthorEmail,
				Filepaths:   []string{},
			})
		}

		g := &groups[i]
		g.AuthorName = entry.AuthorName
		g.Adds += entry.Adds
		g.Dels += entry.Dels
		g.Filepaths = append(g.Filepaths, entry.FilePath)
	}

	for i := range groups {
		g := &groups[i]
		g.Both = g.Adds + g.Dels
		g.TotalOwnership = Ownership(g.Both, totalChanged)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Both > groups[j].Both
	})

	return groups
}

// Ownership returns part as a percentage of whole, or 0 when whole is 0
func Ownership(part, whole int) models.Decimal {
	if whole == 0 {
		return 0
	}
	return models.Decimal(float64(part) / float64(whole) * 100)
}
