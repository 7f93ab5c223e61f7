package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/official-eswaran/DataWhisper/internal/domain"
	"github.com/official-eswaran/DataWhisper/internal/shared"
	_ "modernc.org/sqlite"
)

// Manager opens per-session dataset databases under a common directory.
type Manager struct {
	dir string
}

// NewManager creates a dataset manager rooted at dir.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create dataset directory: %w", err)
	}
	return &Manager{dir: dir}, nil
}

func (m *Manager) path(sessionID string) string {
	return filepath.Join(m.dir, sessionID+".db")
}

// Open creates or opens the dataset database for a session.
// Used during upload, where a missing file is expected.
func (m *Manager) Open(sessionID string) (*SQLiteEngine, error) {
	return openSQLite(m.path(sessionID))
}

// Require opens an existing dataset database, returning ErrSessionNotFound
// when the session has never had data loaded.
func (m *Manager) Require(sessionID string) (*SQLiteEngine, error) {
	path := m.path(sessionID)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}
	return openSQLite(path)
}

// SQLiteEngine implements Engine on a session's SQLite file.
type SQLiteEngine struct {
	db *sql.DB
}

func openSQLite(path string) (*SQLiteEngine, error) {
	// WAL mode for read concurrency during uploads.
	dsn := path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open dataset database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping dataset database: %w", err)
	}
	return &SQLiteEngine{db: db}, nil
}

// Tables lists the user tables of the dataset.
func (e *SQLiteEngine) Tables(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

// Columns lists (name, declared type) for a table.
func (e *SQLiteEngine) Columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT name, type FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("describe table %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		if c.Type == "" {
			c.Type = "TEXT"
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return cols, nil
}

// SampleRows returns up to limit rows of a table.
func (e *SQLiteEngine) SampleRows(ctx context.Context, table string, limit int) (*domain.ResultSet, error) {
	if limit <= 0 {
		limit = 3
	}
	return e.query(ctx, fmt.Sprintf(`SELECT * FROM %s LIMIT %d`, QuoteIdentifier(table), limit))
}

// DryRun validates a statement via EXPLAIN without materializing results.
func (e *SQLiteEngine) DryRun(ctx context.Context, query string) error {
	rows, err := e.db.QueryContext(ctx, "EXPLAIN "+query)
	if err != nil {
		return fmt.Errorf("dry-run failed: %w", err)
	}
	return rows.Close()
}

// Execute runs a statement and returns the full result set. A single retry
// absorbs transient SQLITE_BUSY conflicts with a concurrent upload.
func (e *SQLiteEngine) Execute(ctx context.Context, query string) (*domain.ResultSet, error) {
	rs, err := e.query(ctx, query)
	if shared.IsSQLiteConflictError(err) {
		rs, err = e.query(ctx, query)
	}
	return rs, err
}

func (e *SQLiteEngine) query(ctx context.Context, query string) (*domain.ResultSet, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	rs := &domain.ResultSet{Columns: cols, Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

// Exec runs a write statement. Only the ingestion path uses this; model
// generated SQL never reaches it.
func (e *SQLiteEngine) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.db.ExecContext(ctx, query, args...)
	return err
}

// Tx runs fn inside a transaction. Used by bulk loading.
func (e *SQLiteEngine) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (e *SQLiteEngine) Close() error {
	return e.db.Close()
}

// QuoteIdentifier quotes a table or column name for safe interpolation.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
