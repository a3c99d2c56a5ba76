/*
Package auth issues and validates the credentials the capture extension and
the web client present.  Two schemes are supported: short-lived JWT bearer
tokens with a refresh flow, and static API keys mapped to an owner for
headless capture clients.
*/
package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apierr "github.com/theapemachine/recall/pkg/errors"
)

const (
	tokenTTL   = time.Hour
	refreshTTL = 24 * time.Hour
)

// Service validates bearer tokens and API keys and maps them to an owner.
type Service struct {
	mu         sync.RWMutex
	signingKey []byte
	apiKeys    map[string]string // key -> owner ID
	refresh    map[string]string // refresh token -> owner ID
	limiter    *RateLimiter
}

// TokenPair is what a login or refresh hands back to the client.
type TokenPair struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type Option func(*Service)

func WithAPIKeys(keys map[string]string) Option {
	return func(srv *Service) {
		for key, owner := range keys {
			srv.apiKeys[key] = owner
		}
	}
}

func WithRateLimit(requests int64, interval time.Duration) Option {
	return func(srv *Service) {
		srv.limiter = NewRateLimiter(requests, interval)
	}
}

// NewService creates an auth service around an HMAC signing key.
func NewService(signingKey string, options ...Option) *Service {
	srv := &Service{
		signingKey: []byte(signingKey),
		apiKeys:    make(map[string]string),
		refresh:    make(map[string]string),
		limiter:    NewRateLimiter(100, time.Minute),
	}

	for _, option := range options {
		option(srv)
	}

	return srv
}

func (srv *Service) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, apierr.ErrUnauthorized.WithMessagef(
			"unexpected signing method: %v", token.Header["alg"],
		)
	}

	return srv.signingKey, nil
}

// IssueTokens signs a fresh access + refresh pair for one owner.
func (srv *Service) IssueTokens(ownerID string) (*TokenPair, error) {
	now := time.Now()
	expiresAt := now.Add(tokenTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": ownerID,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	})

	accessStr, err := access.SignedString(srv.signingKey)

	if err != nil {
		return nil, apierr.ErrUnauthorized.Wrap(err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": ownerID,
		"exp": now.Add(refreshTTL).Unix(),
	})

	refreshStr, err := refresh.SignedString(srv.signingKey)

	if err != nil {
		return nil, apierr.ErrUnauthorized.Wrap(err)
	}

	srv.mu.Lock()
	srv.refresh[refreshStr] = ownerID
	srv.mu.Unlock()

	return &TokenPair{
		Token:        accessStr,
		RefreshToken: refreshStr,
		ExpiresAt:    expiresAt,
	}, nil
}

// Refresh exchanges a known refresh token for a new pair and retires the
// old one, so each refresh token works exactly once.
func (srv *Service) Refresh(refreshToken string) (*TokenPair, error) {
	srv.mu.Lock()
	ownerID, ok := srv.refresh[refreshToken]

	if ok {
		delete(srv.refresh, refreshToken)
	}

	srv.mu.Unlock()

	if !ok {
		return nil, apierr.ErrUnauthorized.WithMessagef("unknown refresh token")
	}

	token, err := jwt.Parse(refreshToken, srv.keyFunc)

	if err != nil || !token.Valid {
		return nil, apierr.ErrUnauthorized.WithMessagef("refresh token expired")
	}

	return srv.IssueTokens(ownerID)
}

// Authenticate resolves an Authorization header value to an owner ID.
// Bearer tokens and API keys both arrive through the same header; API keys
// are checked first because they are opaque strings, not JWTs.
func (srv *Service) Authenticate(authHeader string) (string, error) {
	if !srv.limiter.Allow() {
		return "", apierr.ErrUnauthorized.WithMessagef("rate limit exceeded")
	}

	if authHeader == "" {
		return "", apierr.ErrUnauthorized.WithMessagef("missing authorization header")
	}

	credential := strings.TrimPrefix(authHeader, "Bearer ")

	srv.mu.RLock()
	ownerID, isKey := srv.apiKeys[credential]
	srv.mu.RUnlock()

	if isKey {
		return ownerID, nil
	}

	token, err := jwt.Parse(credential, srv.keyFunc)

	if err != nil {
		return "", apierr.ErrUnauthorized.Wrap(err)
	}

	if !token.Valid {
		return "", apierr.ErrUnauthorized.WithMessagef("token expired")
	}

	claims, ok := token.Claims.(jwt.MapClaims)

	if !ok {
		return "", apierr.ErrUnauthorized.WithMessagef("invalid token claims")
	}

	subject, err := claims.GetSubject()

	if err != nil || subject == "" {
		return "", apierr.ErrUnauthorized.WithMessagef("token missing subject")
	}

	return subject, nil
}
