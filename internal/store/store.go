// Package store persists finalized sessions.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/verte-zerg/tuimath/internal/logging"
	"github.com/verte-zerg/tuimath/internal/model"
)

// Supported backends.
const (
	BackendXLSX   = "xlsx"
	BackendSQLite = "sqlite"
)

// Store appends finalized sessions and reads them back in insertion order.
// AppendSession returns the identifier the session was stored under, which
// differs from rec.ID only when that identifier was already taken.
type Store interface {
	AppendSession(ctx context.Context, rec model.SessionRecord) (string, error)
	ReadAllSessions(ctx context.Context) ([]model.SessionRecord, error)
	Close() error
}

// PersistenceError wraps a failed read or write of the results file.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func wrapErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Path: path, Err: err}
}

// Option configures a store.
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the logger that receives warnings about records skipped
// while reading.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open opens the store for the given backend at path.
func Open(backend, path string, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendXLSX:
		return OpenWorkbook(path, opts...)
	case BackendSQLite:
		return OpenSQLite(path, opts...)
	default:
		return nil, fmt.Errorf("unknown store backend %q (use %s or %s)", backend, BackendXLSX, BackendSQLite)
	}
}

// ValidBackend reports whether name selects a known backend.
func ValidBackend(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BackendXLSX, BackendSQLite:
		return true
	default:
		return false
	}
}

// uniqueID appends a numeric suffix until id is not taken.
func uniqueID(id string, taken func(string) bool) string {
	if !taken(id) {
		return id
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", id, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
