package storage

import (
	"github.com/sirupsen/logrus"

	cerrors "github.com/rohankatakam/histblame/internal/errors"
)

// Store types accepted by Open
const (
	TypeFile     = "file"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeBolt     = "bolt"
)

// Options selects and locates a store
type Options struct {
	Type        string
	Directory   string // file
	SQLitePath  string // sqlite
	PostgresDSN string // postgres
	BoltPath    string // bolt
}

// Open creates the store named by opts.Type
func Open(opts Options, logger logrus.FieldLogger) (Store, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger = logger.WithField("store", opts.Type)

	var (
		store Store
		err   error
	)
	switch opts.Type {
	case TypeFile, "":
		store, err = NewFileStore(opts.Directory, logger)
	case TypeSQLite:
		store, err = NewSQLiteStore(opts.SQLitePath, logger)
	case TypePostgres:
		store, err = NewPostgresStore(opts.PostgresDSN, logger)
	case TypeBolt:
		store, err = NewBoltStore(opts.BoltPath, logger)
	default:
		return nil, cerrors.ConfigErrorf("unknown storage type %q", opts.Type)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
