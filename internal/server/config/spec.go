// Package config defines the server configuration structure.
package config

import (
	"time"

	"github.com/yndnr/linkgate-go/internal/core/domain"
)

// ServerConfig is the root configuration for linkgate-server.
type ServerConfig struct {
	Server     ServerSection     `koanf:"server"`
	Links      LinksSection      `koanf:"links"`
	Challenge  ChallengeSection  `koanf:"challenge"`
	Gate       GateSection       `koanf:"gate"`
	Classifier ClassifierSection `koanf:"classifier"`
	Delivery   DeliverySection   `koanf:"delivery"`
	Resource   ResourceSection   `koanf:"resource"`
	Security   SecuritySection   `koanf:"security"`
	RateLimit  RateLimitSection  `koanf:"ratelimit"`
	Audit      AuditSection      `koanf:"audit"`
	Log        LogSection        `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// PublicBaseURL prefixes resource URLs returned to issuers.
	// Empty means the path is returned without a host.
	PublicBaseURL string `koanf:"public_base_url"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LinksSection configures link lifetimes and the store.
type LinksSection struct {
	DefaultTTL    time.Duration `koanf:"default_ttl"`
	MaxTTL        time.Duration `koanf:"max_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	MaxLinks      int           `koanf:"max_links"`
}

// ChallengeSection configures verification codes.
type ChallengeSection struct {
	TTL             time.Duration `koanf:"ttl"`
	MaxAttempts     int           `koanf:"max_attempts"`
	MessageTemplate string        `koanf:"message_template"`
}

// GateSection configures access decisions.
type GateSection struct {
	BypassWindow time.Duration `koanf:"bypass_window"`

	// AmbiguousPolicy is "permissive" or "strict".
	AmbiguousPolicy string `koanf:"ambiguous_policy"`
}

// ClassifierSection overrides the built-in signature lists.
// Empty lists keep the defaults.
type ClassifierSection struct {
	AutomatedAgents  []string `koanf:"automated_agents"`
	MobileAgents     []string `koanf:"mobile_agents"`
	ChannelReferrers []string `koanf:"channel_referrers"`
}

// DeliverySection configures out-of-band code delivery.
type DeliverySection struct {
	// Mode is "relay" or "log".
	Mode string `koanf:"mode"`

	RelayURL      string        `koanf:"relay_url"`
	AuthToken     string        `koanf:"auth_token"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	Burst         int           `koanf:"burst"`

	// ContactSuffix is appended to contacts that carry no "@".
	ContactSuffix string `koanf:"contact_suffix"`
}

// ResourceSection configures the gated resource directory.
type ResourceSection struct {
	Dir        string        `koanf:"dir"`
	Pattern    string        `koanf:"pattern"`
	StaleAfter time.Duration `koanf:"stale_after"`
}

// SecuritySection configures issuer authentication.
type SecuritySection struct {
	IssuerKeys []domain.IssuerKey `koanf:"issuer_keys"`

	// IssuerKeysFile is an optional YAML file with an issuer_keys list.
	// It is watched and reloaded on change.
	IssuerKeysFile string `koanf:"issuer_keys_file"`

	AdminAllowList []string `koanf:"admin_allow_list"`
	CORSOrigins    []string `koanf:"cors_origins"`

	// MetricsAuth requires a metrics-role key on /metrics.
	MetricsAuth bool `koanf:"metrics_auth"`
}

// RateLimitSection configures request limits. Verify and issue limits
// count per client IP; the verify_secret limit counts per link.
type RateLimitSection struct {
	Enabled              bool          `koanf:"enabled"`
	VerifyRequests       int           `koanf:"verify_requests"`
	VerifyWindow         time.Duration `koanf:"verify_window"`
	VerifySecretRequests int           `koanf:"verify_secret_requests"`
	VerifySecretWindow   time.Duration `koanf:"verify_secret_window"`
	IssueRequests        int           `koanf:"issue_requests"`
	IssueWindow          time.Duration `koanf:"issue_window"`
}

// AuditSection configures the access event bus.
type AuditSection struct {
	Enabled bool   `koanf:"enabled"`
	Topic   string `koanf:"topic"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
