// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/official-eswaran/DataWhisper/internal/domain"
)

// Repository defines the interface for persisting users and the audit trail.
type Repository interface {
	// GetUserByUsername retrieves a user account, or nil if none exists.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// CreateUser inserts a new user account.
	CreateUser(ctx context.Context, username, passwordHash, role string) error

	// CountUsers returns the number of user accounts.
	CountUsers(ctx context.Context) (int64, error)

	// RecordFailedLogin increments the failed-attempt counter and locks the
	// account until lockedUntil once maxAttempts is reached.
	RecordFailedLogin(ctx context.Context, username string, maxAttempts int, lockedUntil time.Time) error

	// RecordSuccessfulLogin clears the failure counter and lockout and
	// stamps last_login.
	RecordSuccessfulLogin(ctx context.Context, username string) error

	// InsertAudit appends one query turn to the audit trail.
	InsertAudit(ctx context.Context, entry *domain.AuditEntry) error

	// ListAudit returns the most recent audit entries, newest first.
	ListAudit(ctx context.Context, limit int) ([]*domain.AuditEntry, error)

	// ListAuditBySession returns a session's audit entries, oldest first,
	// for report export.
	ListAuditBySession(ctx context.Context, sessionID string) ([]*domain.AuditEntry, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
