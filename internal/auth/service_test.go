package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/official-eswaran/DataWhisper/internal/domain"
)

// fakeRepo is an in-memory store.Repository covering the parts the auth
// service touches.
type fakeRepo struct {
	users map[string]*domain.User
	audit []*domain.AuditEntry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*domain.User)}
}

func (r *fakeRepo) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.users[username], nil
}

func (r *fakeRepo) CreateUser(_ context.Context, username, passwordHash, role string) error {
	if _, exists := r.users[username]; exists {
		return errors.New("user exists")
	}
	r.users[username] = &domain.User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	return nil
}

func (r *fakeRepo) CountUsers(context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeRepo) RecordFailedLogin(_ context.Context, username string, maxAttempts int, lockedUntil time.Time) error {
	u, ok := r.users[username]
	if !ok {
		return nil
	}
	u.FailedAttempts++
	if u.FailedAttempts >= maxAttempts {
		u.LockedUntil = &lockedUntil
	}
	return nil
}

func (r *fakeRepo) RecordSuccessfulLogin(_ context.Context, username string) error {
	if u, ok := r.users[username]; ok {
		now := time.Now()
		u.FailedAttempts = 0
		u.LockedUntil = nil
		u.LastLogin = &now
	}
	return nil
}

func (r *fakeRepo) InsertAudit(_ context.Context, entry *domain.AuditEntry) error {
	r.audit = append(r.audit, entry)
	return nil
}

func (r *fakeRepo) ListAudit(_ context.Context, limit int) ([]*domain.AuditEntry, error) {
	out := make([]*domain.AuditEntry, 0, limit)
	for i := len(r.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.audit[i])
	}
	return out, nil
}

func (r *fakeRepo) ListAuditBySession(_ context.Context, sessionID string) ([]*domain.AuditEntry, error) {
	var out []*domain.AuditEntry
	for _, e := range r.audit {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRepo) Ping(context.Context) error { return nil }
func (r *fakeRepo) Close() error               { return nil }

func testService(t *testing.T, repo *fakeRepo) *Service {
	t.Helper()
	issuer := NewTokenIssuer("test-secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, issuer, 3, 15*time.Minute, logger)
}

func seedUser(t *testing.T, repo *fakeRepo, username, password, role string) {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if err := repo.CreateUser(context.Background(), username, hash, role); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	seedUser(t, repo, "ceo", "Admin@2024", "admin")
	svc := testService(t, repo)

	result, err := svc.Login(context.Background(), "  CEO  ", "Admin@2024")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.TokenType != "bearer" {
		t.Errorf("token type = %q", result.TokenType)
	}
	if result.Role != "admin" {
		t.Errorf("role = %q", result.Role)
	}
	if result.AccessToken == "" {
		t.Error("empty access token")
	}
	if repo.users["ceo"].LastLogin == nil {
		t.Error("last login not recorded")
	}
}

func TestLoginBadCredentials(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	seedUser(t, repo, "ceo", "Admin@2024", "admin")
	svc := testService(t, repo)

	tests := []struct {
		name, username, password string
	}{
		{"wrong password", "ceo", "nope"},
		{"unknown user", "ghost", "whatever"},
		{"empty username", "", "x"},
		{"empty password", "ceo", ""},
		{"oversized username", strings.Repeat("a", 51), "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.username, tt.password)
			if !errors.Is(err, ErrBadCredentials) {
				t.Errorf("err = %v, want ErrBadCredentials", err)
			}
		})
	}
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	seedUser(t, repo, "ceo", "Admin@2024", "admin")
	svc := testService(t, repo)

	for i := 0; i < 3; i++ {
		if _, err := svc.Login(context.Background(), "ceo", "wrong"); !errors.Is(err, ErrBadCredentials) {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
	}

	// Even the correct password is rejected while the lockout holds.
	_, err := svc.Login(context.Background(), "ceo", "Admin@2024")
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("err = %v, want ErrAccountLocked", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	seedUser(t, repo, "ceo", "Admin@2024", "admin")
	repo.users["ceo"].IsActive = false
	svc := testService(t, repo)

	_, err := svc.Login(context.Background(), "ceo", "Admin@2024")
	if !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("err = %v, want ErrAccountDisabled", err)
	}
}

func TestLoginClearsFailuresOnSuccess(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	seedUser(t, repo, "ceo", "Admin@2024", "admin")
	svc := testService(t, repo)

	if _, err := svc.Login(context.Background(), "ceo", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.Login(context.Background(), "ceo", "Admin@2024"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if repo.users["ceo"].FailedAttempts != 0 {
		t.Errorf("failed attempts = %d, want 0", repo.users["ceo"].FailedAttempts)
	}
}

func TestSeedDefaultUsers(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	if err := SeedDefaultUsers(context.Background(), repo, "adminpw", "managerpw"); err != nil {
		t.Fatalf("SeedDefaultUsers failed: %v", err)
	}

	ceo := repo.users["ceo"]
	if ceo == nil || ceo.Role != "admin" {
		t.Fatalf("ceo account = %+v", ceo)
	}
	manager := repo.users["manager"]
	if manager == nil || manager.Role != "department" {
		t.Fatalf("manager account = %+v", manager)
	}
	if !VerifyPassword("adminpw", ceo.PasswordHash) {
		t.Error("ceo password hash does not match")
	}

	// Seeding is first-run only.
	repo.users["ceo"].Role = "changed"
	if err := SeedDefaultUsers(context.Background(), repo, "other", "other"); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if repo.users["ceo"].Role != "changed" {
		t.Error("second seed overwrote existing users")
	}
}
