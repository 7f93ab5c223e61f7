package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/official-eswaran/DataWhisper/internal/domain"
	"github.com/official-eswaran/DataWhisper/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'department',
		is_active INTEGER NOT NULL DEFAULT 1,
		failed_attempts INTEGER NOT NULL DEFAULT 0,
		locked_until INTEGER,
		last_login INTEGER,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL DEFAULT '',
		session_id TEXT,
		natural_query TEXT NOT NULL,
		generated_sql TEXT,
		result_summary TEXT,
		status TEXT DEFAULT 'success',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_logs(created_at);
	CREATE INDEX IF NOT EXISTS idx_audit_session ON audit_logs(session_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUserByUsername retrieves a user account.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT username, password_hash, role, is_active,
		       failed_attempts, locked_until, last_login, created_at
		FROM users WHERE username = ?`

	row := s.db.QueryRowContext(ctx, query, username)

	var user domain.User
	var isActive int
	var lockedUntil, lastLogin sql.NullInt64
	var createdAt int64

	err := row.Scan(
		&user.Username, &user.PasswordHash, &user.Role, &isActive,
		&user.FailedAttempts, &lockedUntil, &lastLogin, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.IsActive = isActive != 0
	if lockedUntil.Valid {
		t := time.Unix(lockedUntil.Int64, 0)
		user.LockedUntil = &t
	}
	if lastLogin.Valid {
		t := time.Unix(lastLogin.Int64, 0)
		user.LastLogin = &t
	}
	user.CreatedAt = time.Unix(createdAt, 0)

	return &user, nil
}

// CreateUser inserts a new user account.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash, role string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)`,
		username, passwordHash, role, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// CountUsers returns the number of user accounts.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// RecordFailedLogin increments the failure counter and applies the lockout
// once the threshold is reached.
func (s *SQLiteStore) RecordFailedLogin(ctx context.Context, username string, maxAttempts int, lockedUntil time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET failed_attempts = failed_attempts + 1 WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET locked_until = ? WHERE username = ? AND failed_attempts >= ?`,
		lockedUntil.Unix(), username, maxAttempts)
	if err != nil {
		return fmt.Errorf("apply lockout: %w", err)
	}
	return nil
}

// RecordSuccessfulLogin clears the failure state and stamps last_login.
func (s *SQLiteStore) RecordSuccessfulLogin(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET failed_attempts = 0, locked_until = NULL, last_login = ? WHERE username = ?`,
		time.Now().Unix(), username)
	if err != nil {
		return fmt.Errorf("record successful login: %w", err)
	}
	return nil
}

// InsertAudit appends one query turn to the audit trail. A single retry
// absorbs transient lock conflicts with concurrent turns.
func (s *SQLiteStore) InsertAudit(ctx context.Context, entry *domain.AuditEntry) error {
	insert := func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO audit_logs (username, session_id, natural_query, generated_sql, result_summary, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			entry.Username, entry.SessionID, entry.Question, entry.SQL, entry.Summary, entry.Status, time.Now().Unix(),
		)
		return err
	}
	err := insert()
	if shared.IsSQLiteConflictError(err) {
		err = insert()
	}
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListAudit returns the most recent audit entries, newest first.
func (s *SQLiteStore) ListAudit(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, session_id, natural_query, generated_sql, result_summary, status, created_at
		 FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanAuditRows(rows)
}

// ListAuditBySession returns a session's audit entries, oldest first.
func (s *SQLiteStore) ListAuditBySession(ctx context.Context, sessionID string) ([]*domain.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, session_id, natural_query, generated_sql, result_summary, status, created_at
		 FROM audit_logs WHERE session_id = ? ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanAuditRows(rows)
}

func scanAuditRows(rows *sql.Rows) ([]*domain.AuditEntry, error) {
	entries := []*domain.AuditEntry{}
	for rows.Next() {
		var e domain.AuditEntry
		var sessionID, generatedSQL, summary, status sql.NullString
		var createdAt int64
		err := rows.Scan(&e.ID, &e.Username, &sessionID, &e.Question, &generatedSQL, &summary, &status, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		e.SessionID = sessionID.String
		e.SQL = generatedSQL.String
		e.Summary = summary.String
		e.Status = status.String
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
