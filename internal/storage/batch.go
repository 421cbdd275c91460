package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/rohankatakam/histblame/internal/models"
	"github.com/rohankatakam/histblame/internal/output"
)

// Document is a named, fully encoded output
type Document struct {
	Name string
	Body []byte
}

// Batch collects the documents of one stage so they can be written
// together. Putting a name twice replaces the earlier body.
type Batch struct {
	docs  []Document
	index map[string]int
}

// NewBatch creates an empty batch
func NewBatch() *Batch {
	return &Batch{index: make(map[string]int)}
}

// Put adds a raw document
func (b *Batch) Put(name string, body []byte) {
	if i, ok := b.index[name]; ok {
		b.docs[i].Body = body
		return
	}
	b.index[name] = len(b.docs)
	b.docs = append(b.docs, Document{Name: name, Body: body})
}

// PutJSON encodes v as indented JSON followed by a newline
func (b *Batch) PutJSON(name string, v any) error {
	data, err := encodeJSON(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	b.Put(name, data)
	return nil
}

// PutLedger adds the per-file ownership ledger
func (b *Batch) PutLedger(ledger []models.LedgerEntry) error {
	if ledger == nil {
		ledger = []models.LedgerEntry{}
	}
	return b.PutJSON(DocLedger, ledger)
}

// PutTotals adds the repository-wide totals
func (b *Batch) PutTotals(totals models.Totals) error {
	return b.PutJSON(DocTotals, totals)
}

// PutGroups adds the per-author summary
func (b *Batch) PutGroups(groups []models.AuthorGroup) error {
	if groups == nil {
		groups = []models.AuthorGroup{}
	}
	return b.PutJSON(DocGrouped, groups)
}

// PutTeams adds the three team documents and their CSV exports
func (b *Batch) PutTeams(report *models.TeamReport) error {
	authors := report.Authors
	if authors == nil {
		authors = []models.TeamedAuthor{}
	}
	byTeam := report.ByTeam
	if byTeam == nil {
		byTeam = []models.TeamGroup{}
	}
	stats := report.Stats
	if stats == nil {
		stats = []models.TeamStat{}
	}

	if err := b.PutJSON(DocTeamified, authors); err != nil {
		return err
	}
	if err := b.PutJSON(DocByTeam, byTeam); err != nil {
		return err
	}
	if err := b.PutJSON(DocTeamStats, stats); err != nil {
		return err
	}

	if err := b.putCSV(DocTeamifiedCSV, func(w io.Writer) error { return output.WriteTeamifiedCSV(w, authors) }); err != nil {
		return err
	}
	if err := b.putCSV(DocByTeamCSV, func(w io.Writer) error { return output.WriteByTeamCSV(w, byTeam) }); err != nil {
		return err
	}
	return b.putCSV(DocTeamStatsCSV, func(w io.Writer) error { return output.WriteTeamStatsCSV(w, stats) })
}

func (b *Batch) putCSV(name string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	b.Put(name, buf.Bytes())
	return nil
}

// Documents returns the documents in insertion order
func (b *Batch) Documents() []Document {
	return b.docs
}

// Len returns the number of documents in the batch
func (b *Batch) Len() int {
	return len(b.docs)
}

func encodeJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ReadLedger loads the ledger written by the compute stage
func ReadLedger(ctx context.Context, s Store) ([]models.LedgerEntry, error) {
	var ledger []models.LedgerEntry
	if err := readJSON(ctx, s, DocLedger, &ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

// ReadTotals loads the totals written by the compute stage
func ReadTotals(ctx context.Context, s Store) (models.Totals, error) {
	var totals models.Totals
	if err := readJSON(ctx, s, DocTotals, &totals); err != nil {
		return models.Totals{}, err
	}
	return totals, nil
}

// ReadGroups loads the per-author summary written by the group stage
func ReadGroups(ctx context.Context, s Store) ([]models.AuthorGroup, error) {
	var groups []models.AuthorGroup
	if err := readJSON(ctx, s, DocGrouped, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ReadTeamStats loads the team summary written by the teamify stage
func ReadTeamStats(ctx context.Context, s Store) ([]models.TeamStat, error) {
	var stats []models.TeamStat
	if err := readJSON(ctx, s, DocTeamStats, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func readJSON(ctx context.Context, s Store, name string, v any) error {
	data, err := s.Read(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
