// Package service provides domain services for LinkGate.
package service

import (
	"context"
	"testing"
	"time"

	"github.com/yndnr/linkgate-go/internal/core/domain"
)

// newTestIssuerKey declares a key and returns it with its plaintext secret.
func newTestIssuerKey(t *testing.T, id string, role domain.Role, rateLimit int) (domain.IssuerKey, string) {
	t.Helper()
	secret, hash, err := domain.GenerateIssuerSecret()
	if err != nil {
		t.Fatalf("GenerateIssuerSecret() error = %v", err)
	}
	return domain.IssuerKey{ID: id, SecretHash: hash, Role: role, RateLimit: rateLimit}, secret
}

// TestAuthService_ValidateKey tests issuer key validation.
func TestAuthService_ValidateKey(t *testing.T) {
	key, secret := newTestIssuerKey(t, "shop-backend", domain.RoleIssuer, 0)
	svc := NewAuthService([]domain.IssuerKey{key}, nil)
	ctx := context.Background()

	t.Run("valid key", func(t *testing.T) {
		got, err := svc.ValidateKey(ctx, &ValidateKeyRequest{KeyID: "shop-backend", KeySecret: secret, ClientIP: "10.0.0.1"})
		if err != nil {
			t.Fatalf("ValidateKey failed: %v", err)
		}
		if got.Role != domain.RoleIssuer {
			t.Errorf("Role = %s, want issuer", got.Role)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := svc.ValidateKey(ctx, &ValidateKeyRequest{KeyID: "shop-backend", KeySecret: "lgk_wrong"})
		if !domain.IsDomainError(err, domain.ErrIssuerKeyInvalid.Code) {
			t.Errorf("error = %v, want ErrIssuerKeyInvalid", err)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := svc.ValidateKey(ctx, &ValidateKeyRequest{KeyID: "nobody", KeySecret: secret})
		if !domain.IsDomainError(err, domain.ErrIssuerKeyInvalid.Code) {
			t.Errorf("error = %v, want ErrIssuerKeyInvalid", err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := svc.ValidateKey(ctx, &ValidateKeyRequest{KeyID: "shop-backend"})
		if !domain.IsDomainError(err, domain.ErrIssuerKeyMissing.Code) {
			t.Errorf("error = %v, want ErrIssuerKeyMissing", err)
		}
	})
}

// TestAuthService_ValidateKeyWithCache tests that a cached verification still
// rejects a different secret.
func TestAuthService_ValidateKeyWithCache(t *testing.T) {
	key, secret := newTestIssuerKey(t, "cached", domain.RoleAdmin, 0)
	svc := NewAuthService([]domain.IssuerKey{key}, nil)
	ctx := context.Background()

	if _, err := svc.ValidateKey(ctx, &ValidateKeyRequest{KeyID: "cached", KeySecret: secret}); err != nil {
		t.Fatalf("first ValidateKey failed: %v", err)
	}
	if svc.cache.Size() != 1 {
		t.Fatalf("cache size = %d, want 1", svc.cache.Size())
	}

	if _, err := svc.ValidateKey(ctx, &ValidateKeyRequest{KeyID: "cached", KeySecret: secret}); err != nil {
		t.Errorf("cached ValidateKey failed: %v", err)
	}
	if _, err := svc.ValidateKey(ctx, &ValidateKeyRequest{KeyID: "cached", KeySecret: secret + "x"}); err == nil {
		t.Error("cached entry must not accept a different secret")
	}
}

// TestAuthService_Reload tests that reloading drops removed keys.
func TestAuthService_Reload(t *testing.T) {
	key, secret := newTestIssuerKey(t, "old", domain.RoleIssuer, 0)
	svc := NewAuthService([]domain.IssuerKey{key}, nil)
	ctx := context.Background()

	if _, err := svc.ValidateKey(ctx, &ValidateKeyRequest{KeyID: "old", KeySecret: secret}); err != nil {
		t.Fatalf("ValidateKey failed: %v", err)
	}

	next, _ := newTestIssuerKey(t, "new", domain.RoleIssuer, 0)
	svc.Reload([]domain.IssuerKey{next})

	if svc.KeyCount() != 1 {
		t.Errorf("KeyCount() = %d, want 1", svc.KeyCount())
	}
	if svc.cache.Size() != 0 {
		t.Errorf("cache size after reload = %d, want 0", svc.cache.Size())
	}
	if _, err := svc.ValidateKey(ctx, &ValidateKeyRequest{KeyID: "old", KeySecret: secret}); err == nil {
		t.Error("removed key should be rejected after reload")
	}
}

// TestAuthService_CheckRole tests role checks.
func TestAuthService_CheckRole(t *testing.T) {
	svc := NewAuthService(nil, nil)

	tests := []struct {
		name     string
		role     domain.Role
		required domain.Role
		wantErr  bool
	}{
		{"admin can issue", domain.RoleAdmin, domain.RoleIssuer, false},
		{"issuer can issue", domain.RoleIssuer, domain.RoleIssuer, false},
		{"issuer cannot sweep", domain.RoleIssuer, domain.RoleAdmin, true},
		{"metrics cannot issue", domain.RoleMetrics, domain.RoleIssuer, true},
		{"metrics can read metrics", domain.RoleMetrics, domain.RoleMetrics, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CheckRole(&domain.IssuerKey{ID: "k", Role: tt.role}, tt.required)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckRole() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !domain.IsDomainError(err, domain.ErrPermissionDenied.Code) {
				t.Errorf("error = %v, want ErrPermissionDenied", err)
			}
		})
	}
}

// TestAuthService_CheckRateLimit tests per-key rate limiting.
func TestAuthService_CheckRateLimit(t *testing.T) {
	svc := NewAuthService(nil, nil)
	ctx := context.Background()

	t.Run("unlimited key", func(t *testing.T) {
		key := &domain.IssuerKey{ID: "free", RateLimit: 0}
		for i := 0; i < 50; i++ {
			if err := svc.CheckRateLimit(ctx, key); err != nil {
				t.Fatalf("Request %d should be allowed: %v", i, err)
			}
		}
	})

	t.Run("exceeds rate limit", func(t *testing.T) {
		key := &domain.IssuerKey{ID: "limited", RateLimit: 5}
		exceeded := false
		for i := 0; i < 20; i++ {
			if err := svc.CheckRateLimit(ctx, key); err != nil {
				if !domain.IsDomainError(err, domain.ErrRateLimited.Code) {
					t.Errorf("error = %v, want ErrRateLimited", err)
				}
				exceeded = true
				break
			}
		}
		if !exceeded {
			t.Error("Rate limit should have been exceeded")
		}
	})
}

// TestIssuerKeyCache tests the verification cache.
func TestIssuerKeyCache(t *testing.T) {
	cache := NewIssuerKeyCache(5, time.Minute)

	t.Run("set and get", func(t *testing.T) {
		cache.Set("k1", []byte("digest"))
		if got := cache.Get("k1"); string(got) != "digest" {
			t.Errorf("Get() = %q, want digest", got)
		}
	})

	t.Run("get non-existent", func(t *testing.T) {
		if cache.Get("missing") != nil {
			t.Error("Should return nil for non-existent key")
		}
	})

	t.Run("clear", func(t *testing.T) {
		cache.Set("del", []byte("x"))
		cache.Clear()
		if cache.Get("del") != nil || cache.Size() != 0 {
			t.Error("Should be empty after clear")
		}
	})

	t.Run("expiration", func(t *testing.T) {
		short := NewIssuerKeyCache(5, 20*time.Millisecond)
		short.Set("exp", []byte("x"))
		if short.Get("exp") == nil {
			t.Fatal("Should exist immediately after set")
		}
		time.Sleep(50 * time.Millisecond)
		if short.Get("exp") != nil {
			t.Error("Should be expired after TTL")
		}
	})

	t.Run("LRU eviction", func(t *testing.T) {
		small := NewIssuerKeyCache(3, time.Minute)
		small.Set("key1", []byte("1"))
		small.Set("key2", []byte("2"))
		small.Set("key3", []byte("3"))
		small.Get("key1")
		small.Set("key4", []byte("4"))

		if small.Get("key1") == nil {
			t.Error("key1 should still exist (was recently accessed)")
		}
		if small.Get("key2") != nil {
			t.Error("key2 should be evicted (least recently used)")
		}
		if small.Get("key4") == nil {
			t.Error("key4 should exist")
		}
	})

	t.Run("clear", func(t *testing.T) {
		cache.Set("c", []byte("x"))
		cache.Clear()
		if cache.Size() != 0 {
			t.Errorf("Size after clear = %d, want 0", cache.Size())
		}
	})
}

// TestRateLimiterRegistry tests the rate limiter registry.
func TestRateLimiterRegistry(t *testing.T) {
	registry := NewRateLimiterRegistry()

	limiter1 := registry.GetOrCreate("key1", 100)
	if limiter1 != registry.GetOrCreate("key1", 100) {
		t.Error("Same key should return same limiter")
	}
	if limiter1 == registry.GetOrCreate("key2", 100) {
		t.Error("Different keys should return different limiters")
	}

	registry.Clear()
	if limiter1 == registry.GetOrCreate("key1", 100) {
		t.Error("Clear should drop the limiter")
	}
}

// TestAuthService_CheckIPAllowlist tests the global allowlist.
func TestAuthService_CheckIPAllowlist(t *testing.T) {
	tests := []struct {
		name      string
		allowlist []string
		ip        string
		wantErr   bool
	}{
		{"empty allowlist allows all", nil, "192.168.1.1", false},
		{"single IP match", []string{"192.168.1.1"}, "192.168.1.1", false},
		{"single IP no match", []string{"192.168.1.1"}, "192.168.1.2", true},
		{"CIDR match", []string{"192.168.1.0/24"}, "192.168.1.100", false},
		{"CIDR no match", []string{"192.168.1.0/24"}, "192.168.2.1", true},
		{"invalid client IP", []string{"192.168.1.0/24"}, "invalid-ip", true},
		{"invalid CIDR skipped", []string{"invalid-cidr/xx", "192.168.1.1"}, "192.168.1.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(nil, &AuthServiceConfig{GlobalAllowlist: tt.allowlist})
			err := svc.checkIPAllowlist(tt.ip)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkIPAllowlist(%q) error = %v, wantErr %v", tt.ip, err, tt.wantErr)
			}
		})
	}
}

// TestDefaultAuthServiceConfig tests default configuration.
func TestDefaultAuthServiceConfig(t *testing.T) {
	cfg := DefaultAuthServiceConfig()
	if cfg.CacheTTL != 60*time.Second {
		t.Errorf("CacheTTL = %v, want 60s", cfg.CacheTTL)
	}
	if cfg.CacheSize != 1000 {
		t.Errorf("CacheSize = %d, want 1000", cfg.CacheSize)
	}
}
