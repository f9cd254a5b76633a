// Package service provides domain services for LinkGate.
//
// Classifier decides whether a request comes from a link-preview client,
// a likely human, or an ambiguous source. It is a pure function over
// request metadata; the signature lists are plain data.
package service

import (
	"net/url"
	"strings"

	"github.com/yndnr/linkgate-go/internal/core/domain"
)

// Signatures holds the substring lists the classifier matches against.
// All matching is case-insensitive.
type Signatures struct {
	// AutomatedAgents are user-agent fragments of link unfurlers and
	// in-app preview fetchers.
	AutomatedAgents []string `koanf:"automated_agents"`

	// MobileAgents are user-agent fragments of mobile browsers.
	MobileAgents []string `koanf:"mobile_agents"`

	// ChannelReferrers are hosts (or host suffixes) of the issuing channel.
	ChannelReferrers []string `koanf:"channel_referrers"`
}

// DefaultSignatures returns the built-in signature lists.
func DefaultSignatures() Signatures {
	return Signatures{
		AutomatedAgents: []string{
			"whatsapp",
			"facebookexternalhit",
			"facebot",
			"telegrambot",
			"twitterbot",
			"slackbot",
			"slack-imgproxy",
			"discordbot",
			"linkedinbot",
			"skypeuripreview",
			"googlebot",
			"bingpreview",
			"applebot",
			"viber",
			"embedly",
			"pinterest",
		},
		MobileAgents: []string{
			"mobile",
			"android",
			"iphone",
			"ipad",
			"ipod",
			"windows phone",
			"opera mini",
			"iemobile",
			"blackberry",
		},
		ChannelReferrers: []string{
			"whatsapp.com",
			"whatsapp.net",
			"wa.me",
		},
	}
}

// Merge returns s with every empty list filled from defaults.
func (s Signatures) Merge(defaults Signatures) Signatures {
	if len(s.AutomatedAgents) == 0 {
		s.AutomatedAgents = defaults.AutomatedAgents
	}
	if len(s.MobileAgents) == 0 {
		s.MobileAgents = defaults.MobileAgents
	}
	if len(s.ChannelReferrers) == 0 {
		s.ChannelReferrers = defaults.ChannelReferrers
	}
	return s
}

// Classification is the classifier's verdict with the rule that produced it.
type Classification struct {
	Category domain.ClientCategory
	Reason   string
}

// Classification reasons.
const (
	ReasonAutomatedAgent  = "automated_agent"
	ReasonMobileAgent     = "mobile_agent"
	ReasonMobileHint      = "mobile_client_hint"
	ReasonChannelReferrer = "channel_referrer"
	ReasonNoReferrer      = "desktop_without_channel_referrer"
	ReasonEmptyAgent      = "empty_user_agent"
)

// Classifier classifies requests. It is safe for concurrent use.
type Classifier struct {
	automated []string
	mobile    []string
	channels  []string
}

// NewClassifier creates a classifier from sig. Empty lists fall back to the
// defaults.
func NewClassifier(sig Signatures) *Classifier {
	sig = sig.Merge(DefaultSignatures())
	return &Classifier{
		automated: lowerAll(sig.AutomatedAgents),
		mobile:    lowerAll(sig.MobileAgents),
		channels:  lowerAll(sig.ChannelReferrers),
	}
}

// Classify returns the category of the request described by meta.
// The result is advisory input to the gatekeeper.
func (c *Classifier) Classify(meta domain.RequestMeta) Classification {
	ua := strings.ToLower(meta.UserAgent)

	if containsAny(ua, c.automated) {
		return Classification{Category: domain.CategoryAutomatedFetch, Reason: ReasonAutomatedAgent}
	}
	if containsAny(ua, c.mobile) {
		return Classification{Category: domain.CategoryLikelyHuman, Reason: ReasonMobileAgent}
	}
	if strings.TrimSpace(meta.MobileHint) == "?1" {
		return Classification{Category: domain.CategoryLikelyHuman, Reason: ReasonMobileHint}
	}
	if c.fromChannel(meta.Referer) || c.fromChannel(meta.Origin) {
		return Classification{Category: domain.CategoryLikelyHuman, Reason: ReasonChannelReferrer}
	}
	if ua == "" {
		return Classification{Category: domain.CategoryAmbiguous, Reason: ReasonEmptyAgent}
	}
	return Classification{Category: domain.CategoryAmbiguous, Reason: ReasonNoReferrer}
}

// fromChannel reports whether raw names a host of the issuing channel.
func (c *Classifier) fromChannel(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	host := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host = u.Hostname()
	}
	host = strings.ToLower(host)
	for _, ch := range c.channels {
		if host == ch || strings.HasSuffix(host, "."+ch) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
