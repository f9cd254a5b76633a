// Package service provides domain services for LinkGate.
//
// AuthService authenticates issuer keys, checks roles and applies per-key
// rate limits. Keys are declared in configuration and may be replaced at
// runtime with Reload.
package service

import (
	"container/list"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/linkgate-go/internal/core/domain"
)

// AuthService handles issuer key authentication and authorization.
//
// @req RQ-0205
// @design DS-0205
type AuthService struct {
	mu          sync.RWMutex
	keys        map[string]*domain.IssuerKey
	cache       *IssuerKeyCache
	limiters    *RateLimiterRegistry
	globalAllow []string
	metrics     AuthRecorder
}

// AuthRecorder receives authentication counters.
type AuthRecorder interface {
	IncAuthCacheHit()
	IncAuthCacheMiss()
	RecordAuthFailure(reason string)
}

type nopAuthRecorder struct{}

func (nopAuthRecorder) IncAuthCacheHit() {}
func (nopAuthRecorder) IncAuthCacheMiss() {}
func (nopAuthRecorder) RecordAuthFailure(string) {}

// AuthServiceConfig holds configuration for AuthService.
type AuthServiceConfig struct {
	// CacheTTL is how long a verified secret skips Argon2 (default: 60s).
	CacheTTL time.Duration

	// CacheSize is the maximum number of cached verifications (default: 1,000).
	CacheSize int

	// GlobalAllowlist is the IP/CIDR allowlist for issuer calls (empty = no restriction).
	GlobalAllowlist []string

	// Metrics receives cache and failure counters (optional).
	Metrics AuthRecorder
}

// DefaultAuthServiceConfig returns default configuration.
func DefaultAuthServiceConfig() *AuthServiceConfig {
	return &AuthServiceConfig{
		CacheTTL:        60 * time.Second,
		CacheSize:       1000,
		GlobalAllowlist: []string{},
	}
}

// NewAuthService creates a new AuthService for the declared keys.
func NewAuthService(keys []domain.IssuerKey, config *AuthServiceConfig) *AuthService {
	if config == nil {
		config = DefaultAuthServiceConfig()
	}

	s := &AuthService{
		cache:       NewIssuerKeyCache(config.CacheSize, config.CacheTTL),
		limiters:    NewRateLimiterRegistry(),
		globalAllow: config.GlobalAllowlist,
		metrics:     config.Metrics,
	}
	if s.metrics == nil {
		s.metrics = nopAuthRecorder{}
	}
	s.Reload(keys)
	return s
}

// Reload replaces the declared keys and drops cached verifications and
// limiters so removed or rotated keys stop working immediately.
func (s *AuthService) Reload(keys []domain.IssuerKey) {
	m := make(map[string]*domain.IssuerKey, len(keys))
	for i := range keys {
		k := keys[i]
		m[k.ID] = &k
	}

	s.mu.Lock()
	s.keys = m
	s.mu.Unlock()

	s.cache.Clear()
	s.limiters.Clear()
}

// KeyCount returns the number of declared keys.
func (s *AuthService) KeyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// ValidateKeyRequest contains parameters for key validation.
type ValidateKeyRequest struct {
	KeyID     string
	KeySecret string
	ClientIP  string
}

// ValidateKey authenticates an issuer key and returns it if valid.
func (s *AuthService) ValidateKey(ctx context.Context, req *ValidateKeyRequest) (*domain.IssuerKey, error) {
	if req.KeyID == "" || req.KeySecret == "" {
		s.metrics.RecordAuthFailure("missing")
		return nil, domain.ErrIssuerKeyMissing
	}

	// 1. IP allowlist
	if err := s.checkIPAllowlist(req.ClientIP); err != nil {
		s.metrics.RecordAuthFailure("ip_not_allowed")
		return nil, err
	}

	// 2. Lookup
	s.mu.RLock()
	key, ok := s.keys[req.KeyID]
	s.mu.RUnlock()
	if !ok {
		s.metrics.RecordAuthFailure("unknown_key")
		return nil, domain.ErrIssuerKeyInvalid
	}

	// 3. Cache hit skips Argon2
	digest := secretDigest(req.KeySecret)
	if cached := s.cache.Get(req.KeyID); cached != nil {
		if subtle.ConstantTimeCompare(cached, digest) == 1 {
			s.metrics.IncAuthCacheHit()
			return key, nil
		}
	}
	s.metrics.IncAuthCacheMiss()

	// 4. Verify (Argon2 - expensive)
	if !domain.VerifyIssuerSecret(req.KeySecret, key.SecretHash) {
		s.metrics.RecordAuthFailure("bad_secret")
		return nil, domain.ErrIssuerKeyInvalid
	}

	s.cache.Set(req.KeyID, digest)
	return key, nil
}

// CheckRole checks that key carries at least the required role.
func (s *AuthService) CheckRole(key *domain.IssuerKey, required domain.Role) error {
	if !domain.IsRoleAtLeast(key.Role, required) {
		return domain.ErrPermissionDenied.WithDetails(
			"role " + string(key.Role) + " does not include " + string(required),
		)
	}
	return nil
}

// CheckRateLimit checks whether key has exceeded its rate limit.
func (s *AuthService) CheckRateLimit(ctx context.Context, key *domain.IssuerKey) error {
	if key.RateLimit <= 0 {
		return nil
	}

	limiter := s.limiters.GetOrCreate(key.ID, key.RateLimit)
	if !limiter.Allow() {
		reservation := limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()

		return domain.ErrRateLimited.WithDetails(
			"rate limit exceeded, retry after " + delay.String(),
		)
	}
	return nil
}

// checkIPAllowlist checks if the client IP is in the global allowlist.
func (s *AuthService) checkIPAllowlist(clientIP string) error {
	if len(s.globalAllow) == 0 {
		return nil
	}

	ip := net.ParseIP(clientIP)
	if ip == nil {
		return domain.ErrIPNotAllowed.WithDetails("invalid client IP format")
	}

	for _, entry := range s.globalAllow {
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				continue
			}
			if ipNet.Contains(ip) {
				return nil
			}
		} else if allowed := net.ParseIP(entry); allowed != nil && allowed.Equal(ip) {
			return nil
		}
	}

	return domain.ErrIPNotAllowed.WithDetails("client IP not in allowlist")
}

func secretDigest(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// ============================================================================
// IssuerKeyCache - LRU cache of verified secrets
// ============================================================================

// IssuerKeyCache remembers the digest of recently verified secrets so
// repeated calls skip Argon2. Entries expire after ttl.
type IssuerKeyCache struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	capacity int
	ttl      time.Duration
}

type cacheEntry struct {
	keyID     string
	digest    []byte
	expiresAt time.Time
}

// NewIssuerKeyCache creates a new cache with LRU eviction.
func NewIssuerKeyCache(capacity int, ttl time.Duration) *IssuerKeyCache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &IssuerKeyCache{
		items:    make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Get returns the cached digest for keyID, or nil if absent or expired.
func (c *IssuerKeyCache) Get(keyID string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[keyID]
	if !ok {
		return nil
	}

	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.items, keyID)
		return nil
	}

	c.order.MoveToFront(elem)
	return entry.digest
}

// Set stores a digest, evicting the least recently used entry at capacity.
func (c *IssuerKeyCache) Set(keyID string, digest []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[keyID]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.digest = digest
		entry.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	for c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		delete(c.items, oldest.Value.(*cacheEntry).keyID)
		c.order.Remove(oldest)
	}

	c.items[keyID] = c.order.PushFront(&cacheEntry{
		keyID:     keyID,
		digest:    digest,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// Clear removes all entries.
func (c *IssuerKeyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Size returns the number of cached entries.
func (c *IssuerKeyCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// ============================================================================
// RateLimiterRegistry - per-key limiters
// ============================================================================

// RateLimiterRegistry manages a token-bucket limiter per issuer key.
type RateLimiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiterRegistry creates a new RateLimiterRegistry.
func NewRateLimiterRegistry() *RateLimiterRegistry {
	return &RateLimiterRegistry{
		limiters: make(map[string]*rate.Limiter),
	}
}

// GetOrCreate returns the limiter for keyID, creating one allowing
// rateLimit requests per second with an equal burst.
func (r *RateLimiterRegistry) GetOrCreate(keyID string, rateLimit int) *rate.Limiter {
	r.mu.RLock()
	limiter, ok := r.limiters[keyID]
	r.mu.RUnlock()
	if ok {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter, ok := r.limiters[keyID]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(rateLimit), rateLimit)
	r.limiters[keyID] = limiter
	return limiter
}

// Clear removes all limiters.
func (r *RateLimiterRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters = make(map[string]*rate.Limiter)
}
