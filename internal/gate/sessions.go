package gate

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/hpungsan/recipevault/internal/errors"
)

// SessionsConfig configures operator sessions for the web UI.
type SessionsConfig struct {
	// PasswordHash is the argon2id hash to verify against; empty disables login
	PasswordHash string
	TTL          time.Duration
	// RatePerMinute and Burst bound login attempts per client key
	RatePerMinute int
	Burst         int
}

// Sessions issues and tracks operator session tokens.
type Sessions struct {
	mu       sync.Mutex
	hasher   *PasswordHasher
	hash     string
	ttl      time.Duration
	limit    rate.Limit
	burst    int
	now      func() time.Time
	tokens   map[string]time.Time // token -> expiry
	limiters map[string]*rate.Limiter
}

// NewSessions creates a session manager.
func NewSessions(cfg SessionsConfig) *Sessions {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = perMinute
	}
	return &Sessions{
		hasher:   NewPasswordHasher(),
		hash:     cfg.PasswordHash,
		ttl:      ttl,
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		now:      time.Now,
		tokens:   make(map[string]time.Time),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Enabled reports whether an operator password has been configured.
func (s *Sessions) Enabled() bool {
	return s.hash != ""
}

// Login verifies password for the client identified by key (usually its
// remote address) and returns a new session token.
func (s *Sessions) Login(key, password string) (string, error) {
	if !s.allow(key) {
		return "", errors.NewRateLimited(key)
	}
	if !s.Enabled() {
		return "", errors.NewOperatorRequired("log in (no operator password configured)")
	}

	ok, err := s.hasher.Verify(password, s.hash)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if !ok {
		return "", errors.NewOperatorRequired("log in (invalid credentials)")
	}

	now := s.now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	token := id.String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	s.tokens[token] = now.Add(s.ttl)
	return token, nil
}

// Valid reports whether token names an unexpired session.
func (s *Sessions) Valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.tokens[token]
	if !ok {
		return false
	}
	if !s.now().Before(expiry) {
		delete(s.tokens, token)
		return false
	}
	return true
}

// Logout ends the session. Unknown tokens are ignored.
func (s *Sessions) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// Gate returns the gate for a request carrying token.
func (s *Sessions) Gate(token string) Gate {
	return Static(s.Valid(token))
}

func (s *Sessions) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, ok := s.limiters[key]
	if !ok {
		// Simple cleanup: clear all if map gets too large
		if len(s.limiters) > 10000 {
			s.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(s.limit, s.burst)
		s.limiters[key] = limiter
	}
	return limiter.AllowN(s.now(), 1)
}

func (s *Sessions) pruneLocked(now time.Time) {
	for token, expiry := range s.tokens {
		if !now.Before(expiry) {
			delete(s.tokens, token)
		}
	}
}
