package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Decimal is a ratio or percentage kept at full precision in memory and
// written with exactly two decimal places.
type Decimal float64

// String formats the value with two decimal places
func (d Decimal) String() string {
	return strconv.FormatFloat(float64(d), 'f', 2, 64)
}

// Rounded returns the value as it appears once serialized
func (d Decimal) Rounded() float64 {
	f, _ := strconv.ParseFloat(d.String(), 64)
	return f
}

// MarshalJSON writes the value as a quoted two-decimal string
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare numbers
func (d *Decimal) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	*d = Decimal(f)
	return nil
}

// ChangeRecord is one commit's effect on one file
type ChangeRecord struct {
	CommitID      string `json:"commitId"`
	AuthorName    string `json:"authorName"`
	AuthorEmail   string `json:"authorEmail"`
	FilePath      string `json:"filepath"`
	FileOperation string `json:"fileOperation"`
	Insertions    int    `json:"insertions"`
	Deletions     int    `json:"deletions"`
}

// TotalChanges is always derived, never parsed
func (r ChangeRecord) TotalChanges() int {
	return r.Insertions + r.Deletions
}

// AuthorTotals accumulates one author's changes to a single file
type AuthorTotals struct {
	AuthorName string
	Adds       int
	Dels       int
	Both       int
	Fraction   Decimal
}

// EntryKind discriminates the two ledger entry variants
type EntryKind int

const (
	// EntryAuthor carries one author's totals for a file
	EntryAuthor EntryKind = iota
	// EntryDeleted marks a file absent from the working tree
	EntryDeleted
)

// DeletedInfo is the marker written for tombstone entries
const DeletedInfo = "deleted"

// LedgerEntry is a per-file-per-author row of the ledger, or a tombstone
// for a deleted file. Only FilePath is meaningful for tombstones.
type LedgerEntry struct {
	Kind        EntryKind
	FilePath    string
	AuthorEmail string
	AuthorName  string
	Adds        int
	Dels        int
	Both        int
	Fraction    Decimal
}

// NewTombstone returns the single entry emitted for a deleted file
func NewTombstone(filePath string) LedgerEntry {
	return LedgerEntry{Kind: EntryDeleted, FilePath: filePath}
}

// IsTombstone reports whether the entry marks a deleted file
func (e LedgerEntry) IsTombstone() bool {
	return e.Kind == EntryDeleted
}

type authorEntryJSON struct {
	FilePath    string  `json:"filepath"`
	AuthorEmail string  `json:"authorEmail"`
	AuthorName  string  `json:"authorName"`
	Adds        int     `json:"adds"`
	Dels        int     `json:"dels"`
	Both        int     `json:"both"`
	Fraction    Decimal `json:"fraction"`
}

type tombstoneJSON struct {
	FilePath string `json:"filepath"`
	Info     string `json:"info"`
}

// MarshalJSON writes the variant-specific shape
func (e LedgerEntry) MarshalJSON() ([]byte, error) {
	if e.Kind == EntryDeleted {
		return json.Marshal(tombstoneJSON{FilePath: e.FilePath, Info: DeletedInfo})
	}
	return json.Marshal(authorEntryJSON{
		FilePath:    e.FilePath,
		AuthorEmail: e.AuthorEmail,
		AuthorName:  e.AuthorName,
		Adds:        e.Adds,
		Dels:        e.Dels,
		Both:        e.Both,
		Fraction:    e.Fraction,
	})
}

// UnmarshalJSON discriminates on the "info" marker
func (e *LedgerEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		authorEntryJSON
		Info string `json:"info"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.Info == DeletedInfo {
		*e = NewTombstone(raw.FilePath)
		return nil
	}

	*e = LedgerEntry{
		Kind:        EntryAuthor,
		FilePath:    raw.FilePath,
		AuthorEmail: raw.AuthorEmail,
		AuthorName:  raw.AuthorName,
		Adds:        raw.Adds,
		Dels:        raw.Dels,
		Both:        raw.Both,
		Fraction:    raw.Fraction,
	}
	return nil
}

// Totals are the repository-wide sums produced by the compute stage
type Totals struct {
	TotalAdded   int `json:"totalAdded"`
	TotalDeleted int `json:"totalDeleted"`
	TotalChanged int `json:"totalChanged"`
}

// NewTotals derives TotalChanged from the two counters
func NewTotals(added, deleted int) Totals {
	return Totals{
		TotalAdded:   added,
		TotalDeleted: deleted,
		TotalChanged: added + deleted,
	}
}

// AuthorGroup is one author's repository-wide totals
type AuthorGroup struct {
	AuthorName     string   `json:"authorName"`
	AuthorEmail    string   `json:"authorEmail"`
	Adds           int      `json:"adds"`
	Dels           int      `json:"dels"`
	Both           int      `json:"both"`
	TotalOwnership Decimal  `json:"totalOwnership"`
	Filepaths      []string `json:"filepaths"`
}

// Teammate is an entry of the externally supplied team directory
type Teammate struct {
	Fullname string `json:"fullname" yaml:"fullname"`
	Email    string `json:"email" yaml:"email"`
	Team     string `json:"team" yaml:"team"`
}

// NullTeam labels the group of authors without a team
const NullTeam = "null"

// TeamedAuthor is an AuthorGroup annotated with its resolved team
type TeamedAuthor struct {
	AuthorName     string   `json:"authorName"`
	AuthorEmail    string   `json:"authorEmail"`
	Adds           int      `json:"adds"`
	Dels           int      `json:"dels"`
	Both           int      `json:"both"`
	TotalOwnership Decimal  `json:"totalOwnership"`
	Team           *string  `json:"team"`
	Filepaths      []string `json:"filepaths"`
}

// TeamLabel returns the team name, or "null" when unmatched
func (a TeamedAuthor) TeamLabel() string {
	if a.Team == nil {
		return NullTeam
	}
	return *a.Team
}

// TeamGroup lists the members of one team
type TeamGroup struct {
	Team                    string         `json:"team"`
	TotalOwnershipAggregate Decimal        `json:"totalOwnershipAggregate"`
	Teammates               []TeamedAuthor `json:"teammates"`
}

// TeamStat is the team-level summary row
type TeamStat struct {
	Team                    string  `json:"team"`
	TotalOwnershipAggregate Decimal `json:"totalOwnershipAggregate"`
}

// TeamReport bundles the three team roll-up documents
type TeamReport struct {
	Authors []TeamedAuthor
	ByTeam  []TeamGroup
	Stats   []TeamStat
}
