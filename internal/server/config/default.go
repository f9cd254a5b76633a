// Package config defines the server configuration structure.
package config

import (
	"time"

	"github.com/yndnr/linkgate-go/internal/core/domain"
)

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultMaxLinks = 100000

	DefaultMessageTemplate = "Your verification code is: %s"

	DefaultDeliveryMode    = "relay"
	DefaultRelayURL        = "http://127.0.0.1:3001/send-message"
	DefaultDeliveryTimeout = 10 * time.Second
	DefaultDeliveryRate    = 5.0
	DefaultDeliveryBurst   = 10
	DefaultContactSuffix   = "@c.us"

	DefaultResourceDir     = "./htmls"
	DefaultResourcePattern = `^products_[A-Za-z0-9@._-]+\.html$`
	DefaultStaleAfter      = time.Hour

	DefaultVerifyRequests       = 10
	DefaultVerifyWindow         = time.Minute
	DefaultVerifySecretRequests = 6
	DefaultVerifySecretWindow   = 5 * time.Minute
	DefaultIssueRequests        = 120
	DefaultIssueWindow          = time.Minute

	DefaultAuditTopic = "linkgate.access"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		Links: LinksSection{
			DefaultTTL:    domain.DefaultLinkTTL,
			MaxTTL:        domain.MaxLinkTTL,
			SweepInterval: domain.DefaultSweepInterval,
			MaxLinks:      DefaultMaxLinks,
		},
		Challenge: ChallengeSection{
			TTL:             domain.ChallengeTTL,
			MaxAttempts:     domain.MaxChallengeAttempts,
			MessageTemplate: DefaultMessageTemplate,
		},
		Gate: GateSection{
			BypassWindow:    domain.DefaultBypassWindow,
			AmbiguousPolicy: "permissive",
		},
		Delivery: DeliverySection{
			Mode:          DefaultDeliveryMode,
			RelayURL:      DefaultRelayURL,
			Timeout:       DefaultDeliveryTimeout,
			RatePerSecond: DefaultDeliveryRate,
			Burst:         DefaultDeliveryBurst,
			ContactSuffix: DefaultContactSuffix,
		},
		Resource: ResourceSection{
			Dir:        DefaultResourceDir,
			Pattern:    DefaultResourcePattern,
			StaleAfter: DefaultStaleAfter,
		},
		RateLimit: RateLimitSection{
			Enabled:              true,
			VerifyRequests:       DefaultVerifyRequests,
			VerifyWindow:         DefaultVerifyWindow,
			VerifySecretRequests: DefaultVerifySecretRequests,
			VerifySecretWindow:   DefaultVerifySecretWindow,
			IssueRequests:        DefaultIssueRequests,
			IssueWindow:          DefaultIssueWindow,
		},
		Audit: AuditSection{
			Enabled: true,
			Topic:   DefaultAuditTopic,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
