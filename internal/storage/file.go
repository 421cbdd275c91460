package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	cerrors "github.com/rohankatakam/histblame/internal/errors"
)

// FileStore writes each document as a file in one output directory
type FileStore struct {
	dir    string
	logger logrus.FieldLogger
}

// NewFileStore creates a file store rooted at dir, creating it if needed
func NewFileStore(dir string, logger logrus.FieldLogger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, cerrors.FileSystemErrorf(err, "create output directory %s", dir)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the output directory
func (s *FileStore) Dir() string {
	return s.dir
}

// rename moves staged files into place; tests replace it to fail a commit
var rename = os.Rename

// Write stages every document in a temp file, then renames them all into
// place. Nothing is renamed unless staging succeeded for the whole batch, and
// a failed rename restores the documents the batch had already replaced.
func (s *FileStore) Write(ctx context.Context, batch *Batch) error {
	docs := batch.Documents()
	staged := make([]string, 0, len(docs))
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			cleanup()
			return err
		}

		tmp, err := s.stage(doc)
		if err != nil {
			cleanup()
			return cerrors.StorageErrorf(err, "stage %s", doc.Name)
		}
		staged = append(staged, tmp)
	}

	if err := s.commit(docs, staged); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"dir":       s.dir,
		"documents": len(docs),
	}).Debug("Wrote documents")
	return nil
}

// commit renames staged[i] over docs[i]. An existing document is first moved
// to a backup next to its staged file; backups are dropped once every rename
// succeeded.
func (s *FileStore) commit(docs []Document, staged []string) error {
	backups := make([]string, len(docs))

	for i, doc := range docs {
		target := filepath.Join(s.dir, doc.Name)

		if _, err := os.Lstat(target); err == nil {
			backup := staged[i] + ".prev"
			if err := rename(target, backup); err != nil {
				s.rollback(docs, staged, backups, i)
				return cerrors.StorageErrorf(err, "commit %s", doc.Name)
			}
			backups[i] = backup
		}

		if err := rename(staged[i], target); err != nil {
			s.rollback(docs, staged, backups, i)
			return cerrors.StorageErrorf(err, "commit %s", doc.Name)
		}
	}

	for _, backup := range backups {
		if backup != "" {
			os.Remove(backup)
		}
	}
	return nil
}

// rollback undoes a commit that failed at docs[failed]: documents before it
// get their previous content back (or are removed if they are new), and
// staged files that were never renamed are deleted.
func (s *FileStore) rollback(docs []Document, staged, backups []string, failed int) {
	var restored, unrestored []string

	for i := 0; i <= failed; i++ {
		target := filepath.Join(s.dir, docs[i].Name)
		var err error
		switch {
		case backups[i] != "":
			err = os.Rename(backups[i], target)
		case i < failed:
			err = os.Remove(target)
		default:
			continue
		}
		if err != nil {
			unrestored = append(unrestored, docs[i].Name)
		} else {
			restored = append(restored, docs[i].Name)
		}
	}
	for _, tmp := range staged[failed:] {
		os.Remove(tmp)
	}

	entry := s.logger.WithFields(logrus.Fields{
		"dir":      s.dir,
		"failed":   docs[failed].Name,
		"restored": restored,
	})
	if len(unrestored) > 0 {
		entry.WithField("unrestored", unrestored).Error("Rollback left documents from the failed batch in place")
		return
	}
	entry.Warn("Rolled back document batch")
}

func (s *FileStore) stage(doc Document) (string, error) {
	f, err := os.CreateTemp(s.dir, "."+doc.Name+"-*")
	if err != nil {
		return "", err
	}

	if _, err := f.Write(doc.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// Read returns the content of a document file
func (s *FileStore) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, cerrors.StorageErrorf(err, "read %s", name)
	}
	return data, nil
}

// Close is a no-op for the file store
func (s *FileStore) Close() error {
	return nil
}
