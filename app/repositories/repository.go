package repositories

import (
	"fmt"
	"io"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// Repository owns the Badger database backing the post store. It is opened
// once at startup and closed on shutdown.
type Repository struct {
	db       *badger.DB
	mutex    sync.RWMutex
	dbPath   string
	inMemory bool
	posts    *BadgerPostRepository
}

// Options configures how the database is opened.
type Options struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     logrus.FieldLogger
}

// NewRepository opens (or creates) the database described by opts.
func NewRepository(opts Options) (*Repository, error) {
	path := opts.Path
	if opts.InMemory {
		path = ""
	}
	bopts := badger.DefaultOptions(path).
		WithInMemory(opts.InMemory).
		WithSyncWrites(opts.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger(opts.Logger))

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %q: %v", path, err)
	}
	return &Repository{
		db:       db,
		dbPath:   path,
		inMemory: opts.InMemory,
		posts:    NewBadgerPostRepository(db),
	}, nil
}

// Posts returns the post store.
func (r *Repository) Posts() *BadgerPostRepository {
	return r.posts
}

// DB exposes the underlying database handle.
func (r *Repository) DB() *badger.DB {
	return r.db
}

// Path returns the directory the database lives in; empty when in memory.
func (r *Repository) Path() string {
	return r.dbPath
}

// Backup writes a full backup of the database to w.
func (r *Repository) Backup(w io.Writer) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if _, err := r.db.Backup(w, 0); err != nil {
		return fmt.Errorf("failed to backup database: %v", err)
	}
	return nil
}

// Restore loads a backup produced by Backup.
func (r *Repository) Restore(rd io.Reader) (err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic occurred during restore: %v", rec)
		}
	}()
	if err := r.db.Load(rd, 4); err != nil {
		return fmt.Errorf("failed to restore database: %v", err)
	}
	return nil
}

// Clear drops every key, sequences included.
func (r *Repository) Clear() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.db.DropAll()
}

// Close flushes and closes the database.
func (r *Repository) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.db.Close()
}

// badgerLogger routes badger's own log lines through logrus at reduced verbosity.
func badgerLogger(l logrus.FieldLogger) badger.Logger {
	if l == nil {
		return nil
	}
	return &badgerLogAdapter{entry: l.WithField("component", "badger")}
}

type badgerLogAdapter struct {
	entry *logrus.Entry
}

func (a *badgerLogAdapter) Errorf(format string, args ...interface{}) {
	a.entry.Errorf(format, args...)
}

func (a *badgerLogAdapter) Warningf(format string, args ...interface{}) {
	a.entry.Warnf(format, args...)
}

func (a *badgerLogAdapter) Infof(format string, args ...interface{}) {
	a.entry.Debugf(format, args...)
}

func (a *badgerLogAdapter) Debugf(format string, args ...interface{}) {
	a.entry.Tracef(format, args...)
}
