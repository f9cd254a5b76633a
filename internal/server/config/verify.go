// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	checks := []func(*ServerConfig) error{
		verifyServer,
		verifyLinks,
		verifyChallenge,
		verifyGate,
		verifyDelivery,
		verifyResource,
		verifySecurity,
		verifyRateLimit,
		verifyLog,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func verifyServer(cfg *ServerConfig) error {
	h := cfg.Server.HTTP
	if _, _, err := net.SplitHostPort(h.Addr); err != nil {
		return fmt.Errorf("server.http.addr %q: %w", h.Addr, err)
	}
	if (h.TLSCertFile == "") != (h.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	if h.PublicBaseURL != "" {
		u, err := url.Parse(h.PublicBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("server.http.public_base_url %q must be an absolute URL", h.PublicBaseURL)
		}
	}
	return nil
}

func verifyLinks(cfg *ServerConfig) error {
	l := cfg.Links
	if l.DefaultTTL <= 0 {
		return errors.New("links.default_ttl must be positive")
	}
	if l.MaxTTL < l.DefaultTTL {
		return errors.New("links.max_ttl must be at least links.default_ttl")
	}
	if l.SweepInterval <= 0 {
		return errors.New("links.sweep_interval must be positive")
	}
	if l.MaxLinks < 1 {
		return errors.New("links.max_links must be at least 1")
	}
	return nil
}

func verifyChallenge(cfg *ServerConfig) error {
	c := cfg.Challenge
	if c.TTL <= 0 {
		return errors.New("challenge.ttl must be positive")
	}
	if c.MaxAttempts < 1 {
		return errors.New("challenge.max_attempts must be at least 1")
	}
	if strings.Count(c.MessageTemplate, "%s") != 1 {
		return errors.New("challenge.message_template must contain exactly one %s")
	}
	return nil
}

func verifyGate(cfg *ServerConfig) error {
	if cfg.Gate.BypassWindow < 0 {
		return errors.New("gate.bypass_window must not be negative")
	}
	switch cfg.Gate.AmbiguousPolicy {
	case "permissive", "strict":
		return nil
	default:
		return fmt.Errorf("gate.ambiguous_policy %q: want permissive or strict", cfg.Gate.AmbiguousPolicy)
	}
}

func verifyDelivery(cfg *ServerConfig) error {
	d := cfg.Delivery
	switch d.Mode {
	case "log":
		return nil
	case "relay":
	default:
		return fmt.Errorf("delivery.mode %q: want relay or log", d.Mode)
	}

	u, err := url.Parse(d.RelayURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("delivery.relay_url %q must be an http(s) URL", d.RelayURL)
	}
	if d.Timeout <= 0 {
		return errors.New("delivery.timeout must be positive")
	}
	if d.RatePerSecond < 0 {
		return errors.New("delivery.rate_per_second must not be negative")
	}
	if d.RatePerSecond > 0 && d.Burst < 1 {
		return errors.New("delivery.burst must be at least 1 when rate limited")
	}
	return nil
}

func verifyResource(cfg *ServerConfig) error {
	r := cfg.Resource
	if r.Dir == "" {
		return errors.New("resource.dir is required")
	}
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return fmt.Errorf("resource.pattern: %w", err)
	}
	if re.MatchString("../x") || re.MatchString("a/b") {
		return errors.New("resource.pattern must not match path separators")
	}
	return nil
}

func verifySecurity(cfg *ServerConfig) error {
	seen := make(map[string]struct{}, len(cfg.Security.IssuerKeys))
	for i := range cfg.Security.IssuerKeys {
		k := &cfg.Security.IssuerKeys[i]
		if err := k.Validate(); err != nil {
			return fmt.Errorf("security.issuer_keys[%d]: %w", i, err)
		}
		if _, dup := seen[k.ID]; dup {
			return fmt.Errorf("security.issuer_keys: duplicate id %q", k.ID)
		}
		seen[k.ID] = struct{}{}
	}
	for _, entry := range cfg.Security.AdminAllowList {
		if net.ParseIP(entry) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(entry); err != nil {
			return fmt.Errorf("security.admin_allow_list entry %q is not an IP or CIDR", entry)
		}
	}
	return nil
}

func verifyRateLimit(cfg *ServerConfig) error {
	r := cfg.RateLimit
	if !r.Enabled {
		return nil
	}
	if r.VerifyRequests < 1 || r.VerifyWindow <= 0 {
		return errors.New("ratelimit.verify_requests and verify_window must be positive")
	}
	if r.VerifySecretRequests < 1 || r.VerifySecretWindow <= 0 {
		return errors.New("ratelimit.verify_secret_requests and verify_secret_window must be positive")
	}
	if r.IssueRequests < 1 || r.IssueWindow <= 0 {
		return errors.New("ratelimit.issue_requests and issue_window must be positive")
	}
	return nil
}

func verifyLog(cfg *ServerConfig) error {
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("log.format %q: want json or text", cfg.Log.Format)
	}
}
