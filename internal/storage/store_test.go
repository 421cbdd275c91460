package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/histblame/internal/models"
)

func sampleLedger() []models.LedgerEntry {
	return []models.LedgerEntry{
		{Kind: models.EntryAuthor, FilePath: "a.txt", AuthorEmail: "a@x.com", AuthorName: "alice", Adds: 4, Dels: 2, Both: 6, Fraction: 0.75},
		{Kind: models.EntryAuthor, FilePath: "a.txt", AuthorEmail: "b@x.com", AuthorName: "bob", Adds: 2, Both: 2, Fraction: 0.25},
		models.NewTombstone("gone.txt"),
	}
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	fileStore, err := NewFileStore(filepath.Join(dir, "out"), logger)
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "db", "histblame.db"), logger)
	require.NoError(t, err)

	boltStore, err := NewBoltStore(filepath.Join(dir, "bolt", "histblame.bolt"), logger)
	require.NoError(t, err)

	stores := map[string]Store{
		TypeFile:   fileStore,
		TypeSQLite: sqliteStore,
		TypeBolt:   boltStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStoresRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			batch := NewBatch()
			require.NoError(t, batch.PutLedger(sampleLedger()))
			require.NoError(t, batch.PutTotals(models.NewTotals(6, 2)))
			require.NoError(t, store.Write(ctx, batch))

			ledger, err := ReadLedger(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, sampleLedger(), ledger)

			totals, err := ReadTotals(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, models.Totals{TotalAdded: 6, TotalDeleted: 2, TotalChanged: 8}, totals)

			_, err = store.Read(ctx, DocGrouped)
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestStoresOverwrite(t *testing.T) {
	ctx := context.Background()

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			first := NewBatch()
			first.Put("note.txt", []byte("one"))
			require.NoError(t, store.Write(ctx, first))

			second := NewBatch()
			second.Put("note.txt", []byte("two"))
			require.NoError(t, store.Write(ctx, second))

			data, err := store.Read(ctx, "note.txt")
			require.NoError(t, err)
			assert.Equal(t, "two", string(data))
		})
	}
}

func TestBatchEncodingIsIdempotent(t *testing.T) {
	encode := func() []Document {
		b := NewBatch()
		require.NoError(t, b.PutLedger(sampleLedger()))
		require.NoError(t, b.PutGroups([]models.AuthorGroup{
			{AuthorName: "alice", AuthorEmail: "a@x.com", Adds: 5, Dels: 2, Both: 7, TotalOwnership: 87.5, Filepaths: []string{"a.txt"}},
		}))
		return b.Documents()
	}

	assert.Equal(t, encode(), encode())
}

func TestBatchLedgerShape(t *testing.T) {
	b := NewBatch()
	require.NoError(t, b.PutLedger([]models.LedgerEntry{
		{Kind: models.EntryAuthor, FilePath: "a.txt", AuthorEmail: "a@x.com", AuthorName: "alice", Adds: 5, Dels: 2, Both: 7, Fraction: 0.875},
		{Kind: models.EntryAuthor, FilePath: "a.txt", AuthorEmail: "b@x.com", AuthorName: "bob", Adds: 1, Both: 1, Fraction: 0.125},
		models.NewTombstone("gone.txt"),
	}))

	body := string(b.Documents()[0].Body)
	assert.Contains(t, body, `"fraction": "0.88"`)
	assert.Contains(t, body, `"fraction": "0.12"`)
	assert.Contains(t, body, `"info": "deleted"`)
	assert.Equal(t, byte('\n'), body[len(body)-1])
}

func TestBatchEmptyDocuments(t *testing.T) {
	b := NewBatch()
	require.NoError(t, b.PutLedger(nil))
	require.NoError(t, b.PutGroups(nil))
	require.NoError(t, b.PutTeams(&models.TeamReport{}))

	docs := b.Documents()
	require.Len(t, docs, 8)
	assert.Equal(t, DocLedger, docs[0].Name)
	assert.Equal(t, "[]\n", string(docs[0].Body))
	assert.Equal(t, "[]\n", string(docs[1].Body))
}

func TestBatchPutReplaces(t *testing.T) {
	b := NewBatch()
	b.Put("x", []byte("1"))
	b.Put("y", []byte("2"))
	b.Put("x", []byte("3"))

	require.Equal(t, 2, b.Len())
	assert.Equal(t, "3", string(b.Documents()[0].Body))
}

func TestBatchTeams(t *testing.T) {
	core := "Core"
	report := &models.TeamReport{
		Authors: []models.TeamedAuthor{
			{AuthorName: "alice", AuthorEmail: "a@x.com", Both: 7, TotalOwnership: 87.5, Team: &core, Filepaths: []string{"a.txt"}},
			{AuthorName: "bob", AuthorEmail: "b@x.com", Both: 1, TotalOwnership: 12.5, Filepaths: []string{"a.txt"}},
		},
		ByTeam: []models.TeamGroup{{Team: "Core"}, {Team: models.NullTeam}},
		Stats: []models.TeamStat{
			{Team: "Core", TotalOwnershipAggregate: 87.5},
			{Team: models.NullTeam, TotalOwnershipAggregate: 12.5},
		},
	}

	b := NewBatch()
	require.NoError(t, b.PutTeams(report))

	names := make([]string, 0, b.Len())
	for _, d := range b.Documents() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		DocTeamified, DocByTeam, DocTeamStats,
		DocTeamifiedCSV, DocByTeamCSV, DocTeamStatsCSV,
	}, names)
	assert.Contains(t, string(b.Documents()[0].Body), `"team": null`)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()
	store, err := NewFileStore(dir, logger)
	require.NoError(t, err)

	b := NewBatch()
	require.NoError(t, b.PutTotals(models.NewTotals(1, 1)))
	require.NoError(t, store.Write(context.Background(), b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DocTotals, entries[0].Name())
}

func TestFileStoreCancelledWriteIsNoop(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()
	store, err := NewFileStore(dir, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBatch()
	require.NoError(t, b.PutTotals(models.NewTotals(1, 1)))
	require.Error(t, store.Write(ctx, b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStoreFailedCommitRestoresPrevious(t *testing.T) {
	logger, hook := test.NewNullLogger()
	dir := t.TempDir()
	store, err := NewFileStore(dir, logger)
	require.NoError(t, err)
	ctx := context.Background()

	first := NewBatch()
	first.Put(DocLedger, []byte("old ledger\n"))
	first.Put(DocTotals, []byte("old totals\n"))
	require.NoError(t, store.Write(ctx, first))

	// Fail the rename that puts the new stats.json into place
	t.Cleanup(func() { rename = os.Rename })
	rename = func(from, to string) error {
		if to == filepath.Join(dir, DocTotals) {
			return errors.New("device busy")
		}
		return os.Rename(from, to)
	}

	second := NewBatch()
	second.Put(DocLedger, []byte("new ledger\n"))
	second.Put(DocTotals, []byte("new totals\n"))
	second.Put(DocGrouped, []byte("new grouped\n"))
	err = store.Write(ctx, second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit "+DocTotals)

	for name, want := range map[string]string{DocLedger: "old ledger\n", DocTotals: "old totals\n"} {
		got, err := store.Read(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, want, string(got), name)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{DocLedger, DocTotals}, names)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Rolled back document batch", hook.LastEntry().Message)
	assert.Equal(t, DocTotals, hook.LastEntry().Data["failed"])
}

func TestFileStoreFailedCommitRemovesNewDocuments(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()
	store, err := NewFileStore(dir, logger)
	require.NoError(t, err)

	t.Cleanup(func() { rename = os.Rename })
	rename = func(from, to string) error {
		if strings.HasSuffix(to, DocGrouped) {
			return errors.New("device busy")
		}
		return os.Rename(from, to)
	}

	b := NewBatch()
	b.Put(DocLedger, []byte("ledger\n"))
	b.Put(DocGrouped, []byte("grouped\n"))
	require.Error(t, store.Write(context.Background(), b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpen(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	store, err := Open(Options{Type: TypeFile, Directory: dir}, logger)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
	require.NoError(t, store.Close())

	store, err = Open(Options{Type: TypeBolt, BoltPath: filepath.Join(dir, "x.bolt")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &BoltStore{}, store)
	require.NoError(t, store.Close())

	_, err = Open(Options{Type: "redis"}, logger)
	assert.Error(t, err)
}
