// Package dataset provides per-session data stores backed by SQLite.
// Each upload session owns a private database file; the query pipeline
// only ever sees the Engine interface.
package dataset

import (
	"context"
	"errors"

	"github.com/official-eswaran/DataWhisper/internal/domain"
)

// ErrSessionNotFound is returned when a session has no dataset loaded.
var ErrSessionNotFound = errors.New("session not found")

// Column is one column of a dataset table with its declared type.
type Column struct {
	Name string
	Type string
}

// Engine is the read/introspection surface of a session's dataset.
// The pipeline requires exactly this contract: catalog introspection,
// a plan-only dry run, and execution of a validated statement.
type Engine interface {
	// Tables lists the table names in the session dataset.
	Tables(ctx context.Context) ([]string, error)

	// Columns lists (name, declared type) for a table.
	Columns(ctx context.Context, table string) ([]Column, error)

	// SampleRows returns up to limit rows of a table.
	SampleRows(ctx context.Context, table string, limit int) (*domain.ResultSet, error)

	// DryRun validates a statement's syntax and plan without executing it.
	DryRun(ctx context.Context, query string) error

	// Execute runs a validated statement and returns the result set.
	Execute(ctx context.Context, query string) (*domain.ResultSet, error)

	// Close releases the underlying database handle.
	Close() error
}
