package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	cerrors "github.com/rohankatakam/histblame/internal/errors"
)

const bucketName = "documents"

// BoltStore keeps documents in a single bbolt bucket
type BoltStore struct {
	db     *bolt.DB
	logger logrus.FieldLogger
}

// NewBoltStore opens (or creates) a bbolt database at path
func NewBoltStore(path string, logger logrus.FieldLogger) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, cerrors.FileSystemErrorf(err, "create database directory")
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, cerrors.StorageErrorf(err, "open bolt database %s", path)
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BoltStore{db: db, logger: logger}, nil
}

// Write puts every document of the batch in a single update transaction
func (s *BoltStore) Write(ctx context.Context, batch *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		for _, doc := range batch.Documents() {
			if err := bucket.Put([]byte(doc.Name), doc.Body); err != nil {
				return fmt.Errorf("put %s: %w", doc.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return cerrors.StorageError(err, "write documents")
	}

	s.logger.WithField("documents", batch.Len()).Debug("Wrote documents")
	return nil
}

// Read copies the document out of the read transaction
func (s *BoltStore) Read(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return nil
		}
		if v := bucket.Get([]byte(name)); v != nil {
			data = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, cerrors.StorageErrorf(err, "read %s", name)
	}
	if data == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return data, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}
