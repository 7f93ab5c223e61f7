package domain

import "time"

// User is an account that can log in and query data.
type User struct {
	Username       string     `json:"username"`
	PasswordHash   string     `json:"-"`
	Role           string     `json:"role"`
	IsActive       bool       `json:"is_active"`
	FailedAttempts int        `json:"-"`
	LockedUntil    *time.Time `json:"-"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Locked reports whether the account is currently locked out.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// AuditEntry records one query turn for the audit trail.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	SQL       string    `json:"sql"`
	Summary   string    `json:"summary"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"timestamp"`
}
