package battlenet

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RefreshMargin is how close to expiry a cached token is still served.
const RefreshMargin = 60 * time.Second

// Token is a bearer credential with its expiry.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Exchanger performs the client-credentials exchange.
type Exchanger interface {
	ExchangeToken(ctx context.Context) (TokenResponse, error)
}

// CredentialManager caches the bearer token and refreshes it before it expires.
type CredentialManager struct {
	exchanger Exchanger
	clock     Clock
	logger    *zap.Logger

	mu     sync.Mutex
	cached *Token
	group  singleflight.Group
}

// NewCredentialManager creates a manager. A nil clock uses SystemClock.
func NewCredentialManager(exchanger Exchanger, clock Clock, logger *zap.Logger) *CredentialManager {
	if clock == nil {
		clock = SystemClock
	}
	return &CredentialManager{exchanger: exchanger, clock: clock, logger: logger}
}

// EnsureToken returns a token valid for more than RefreshMargin, exchanging a new one if needed.
func (m *CredentialManager) EnsureToken(ctx context.Context) (Token, error) {
	if tok, ok := m.fresh(); ok {
		return tok, nil
	}

	v, err, _ := m.group.Do("token", func() (interface{}, error) {
		if tok, ok := m.fresh(); ok {
			return tok, nil
		}
		return m.refresh(ctx)
	})
	if err != nil {
		return Token{}, err
	}
	return v.(Token), nil
}

// Invalidate drops the cached token.
func (m *CredentialManager) Invalidate() {
	m.mu.Lock()
	m.cached = nil
	m.mu.Unlock()
}

func (m *CredentialManager) fresh() (Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached == nil {
		return Token{}, false
	}
	if m.cached.ExpiresAt.Sub(m.clock.Now()) <= RefreshMargin {
		return Token{}, false
	}
	return *m.cached, true
}

func (m *CredentialManager) refresh(ctx context.Context) (Token, error) {
	issued := m.clock.Now()

	resp, err := m.exchanger.ExchangeToken(ctx)
	if err == nil && resp.AccessToken == "" {
		err = errors.New("empty access token")
	}
	if err != nil {
		m.Invalidate()
		m.logger.Error("Credential exchange failed", zap.Error(err))
		return Token{}, &AuthError{Err: err}
	}

	tok := Token{
		AccessToken: resp.AccessToken,
		ExpiresAt:   issued.Add(time.Duration(resp.ExpiresIn) * time.Second),
	}

	m.mu.Lock()
	m.cached = &tok
	m.mu.Unlock()

	m.logger.Debug("Credential refreshed", zap.Time("expires_at", tok.ExpiresAt))
	return tok, nil
}
