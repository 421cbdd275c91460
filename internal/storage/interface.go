package storage

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrNotFound = errors.New("document not found")
)

// Document names shared by every store
const (
	DocLedger       = "blame.json"
	DocTotals       = "stats.json"
	DocGrouped      = "grouped.json"
	DocTeamified    = "teamified.json"
	DocTeamifiedCSV = "teamified.csv"
	DocByTeam       = "by-team.json"
	DocByTeamCSV    = "by-team.csv"
	DocTeamStats    = "team-stats.json"
	DocTeamStatsCSV = "team-stats.csv"
)

// Store persists named documents. Write is all-or-nothing: either every
// document of the batch becomes visible or none does.
type Store interface {
	Write(ctx context.Context, batch *Batch) error

	// Read returns ErrNotFound when the document was never written
	Read(ctx context.Context, name string) ([]byte, error)

	Close() error
}
