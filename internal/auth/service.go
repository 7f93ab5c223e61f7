package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/official-eswaran/DataWhisper/internal/store"
)

// Login failure modes the handler maps onto HTTP statuses.
var (
	ErrBadCredentials  = errors.New("invalid username or password")
	ErrAccountDisabled = errors.New("account is disabled")
	ErrAccountLocked   = errors.New("account locked due to too many failed attempts")
)

// Service implements the login flow with failed-attempt lockout.
type Service struct {
	repo            store.Repository
	issuer          *TokenIssuer
	maxAttempts     int
	lockoutDuration time.Duration
	logger          *slog.Logger
}

// NewService creates an auth service.
func NewService(repo store.Repository, issuer *TokenIssuer, maxAttempts int, lockoutDuration time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:            repo,
		issuer:          issuer,
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
		logger:          logger,
	}
}

// LoginResult is a successful authentication.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
}

// Login authenticates a username/password pair and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || len(username) > 50 || password == "" || len(password) > 128 {
		return nil, ErrBadCredentials
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	// Unknown users take the same failure path as bad passwords so the
	// response does not leak which usernames exist.
	if user == nil {
		return nil, ErrBadCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	if user.Locked(time.Now()) {
		return nil, fmt.Errorf("%w until %s", ErrAccountLocked, user.LockedUntil.UTC().Format(time.RFC3339))
	}

	if !VerifyPassword(password, user.PasswordHash) {
		lockedUntil := time.Now().Add(s.lockoutDuration)
		if err := s.repo.RecordFailedLogin(ctx, username, s.maxAttempts, lockedUntil); err != nil {
			s.logger.Error("failed to record login failure", "username", username, "error", err)
		}
		return nil, ErrBadCredentials
	}

	if err := s.repo.RecordSuccessfulLogin(ctx, username); err != nil {
		s.logger.Error("failed to record login success", "username", username, "error", err)
	}

	token, err := s.issuer.Issue(user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{AccessToken: token, TokenType: "bearer", Role: user.Role}, nil
}

// SeedDefaultUsers inserts the default accounts on first run only.
func SeedDefaultUsers(ctx context.Context, repo store.Repository, adminPassword, managerPassword string) error {
	count, err := repo.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, account := range []struct {
		username, password, role string
	}{
		{"ceo", adminPassword, "admin"},
		{"manager", managerPassword, "department"},
	} {
		hash, err := HashPassword(account.password)
		if err != nil {
			return err
		}
		if err := repo.CreateUser(ctx, account.username, hash, account.role); err != nil {
			return fmt.Errorf("seed user %q: %w", account.username, err)
		}
	}
	return nil
}
