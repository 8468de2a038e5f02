package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tradepost.org/internal/market"
)

const (
	defaultTimeout = 5 * time.Minute
	maxUsernameLen = 32
)

// Service owns the session lifecycle for both realms and the account
// registration/login operations that feed it.
type Service struct {
	sessions Store
	accounts AccountStore
	janitor  CartJanitor
	timeout  time.Duration
	now      func() time.Time

	revokeWG sync.WaitGroup
}

// Option configures Service behavior.
type Option func(*Service)

// WithTimeout overrides the idle session timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithJanitor wires the cart cleanup performed when a buyer session ends.
func WithJanitor(j CartJanitor) Option {
	return func(s *Service) { s.janitor = j }
}

// NewService constructs the session service.
func NewService(sessions Store, accounts AccountStore, opts ...Option) *Service {
	svc := &Service{
		sessions: sessions,
		accounts: accounts,
		timeout:  defaultTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register creates an account in the given realm. The username is unique per
// realm; a duplicate surfaces as market.ErrConflict from the store.
func (s *Service) Register(ctx context.Context, realm market.Realm, username, password string) (*market.Account, error) {
	if !realm.Valid() {
		return nil, market.Invalid("realm", "must be buyer or seller")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, market.Invalid("username", "must not be empty")
	}
	if len(username) > maxUsernameLen {
		return nil, market.Invalid("username", "must be 32 characters or less")
	}
	if password == "" {
		return nil, market.Invalid("password", "must not be empty")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	acct := &market.Account{
		Realm:        realm,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.accounts.CreateAccount(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// Login verifies credentials and mints a fresh session. A failed lookup and a
// bad password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, realm market.Realm, username, password string) (string, error) {
	if !realm.Valid() {
		return "", market.Invalid("realm", "must be buyer or seller")
	}
	acct, err := s.accounts.FindAccountByUsername(ctx, realm, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, market.ErrNotFound) {
			return "", market.ErrUnauthorized
		}
		return "", err
	}
	if err := VerifyPassword(acct.PasswordHash, password); err != nil {
		return "", market.ErrUnauthorized
	}
	return s.CreateSession(ctx, acct.ID, realm)
}

// CreateSession mints an opaque random token and persists the session row.
func (s *Service) CreateSession(ctx context.Context, accountID int64, realm market.Realm) (string, error) {
	sess := &market.Session{
		Token:      uuid.NewString(),
		AccountID:  accountID,
		Realm:      realm,
		LastActive: s.now().UTC(),
	}
	if err := s.sessions.InsertSession(ctx, sess); err != nil {
		return "", err
	}
	return sess.Token, nil
}

// Validate resolves a token to its account id. Absent, expired, and
// wrong-realm sessions all come back as market.ErrUnauthorized; an expired
// session is additionally revoked in the background, which triggers the
// unsaved-cart cleanup for buyers.
func (s *Service) Validate(ctx context.Context, token string, realm market.Realm) (int64, error) {
	if token == "" {
		return 0, market.ErrUnauthorized
	}
	sess, err := s.sessions.FindSession(ctx, token)
	if err != nil {
		if errors.Is(err, market.ErrNotFound) {
			return 0, market.ErrUnauthorized
		}
		return 0, err
	}
	if sess.Realm != realm {
		return 0, market.ErrUnauthorized
	}
	if s.now().Sub(sess.LastActive) > s.timeout {
		s.revokeWG.Add(1)
		go func() {
			defer s.revokeWG.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.Revoke(ctx, token)
		}()
		return 0, market.ErrUnauthorized
	}
	return sess.AccountID, nil
}

// Touch refreshes the session's last-active timestamp. Touching an absent
// session is a no-op.
func (s *Service) Touch(ctx context.Context, token string) error {
	return s.sessions.TouchSession(ctx, token, s.now().UTC())
}

// Revoke deletes the session and, for buyers, clears unsaved cart lines.
// Revoking an absent session is not an error.
func (s *Service) Revoke(ctx context.Context, token string) error {
	sess, err := s.sessions.FindSession(ctx, token)
	if err != nil {
		if errors.Is(err, market.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return err
	}
	if sess.Realm == market.RealmBuyer && s.janitor != nil {
		return s.janitor.ReleaseUnsaved(ctx, sess.AccountID)
	}
	return nil
}

// Drain waits for background expiry revocations to finish. Called on
// shutdown and by tests that assert on the cleanup side effect.
func (s *Service) Drain() {
	s.revokeWG.Wait()
}
