// Package domain defines the core domain models for LinkGate.
package domain

// ClientCategory is the classifier's verdict on who is asking for a link.
type ClientCategory string

// Client categories.
const (
	// CategoryAutomatedFetch is a link-preview or in-app unfurling client.
	CategoryAutomatedFetch ClientCategory = "automated_fetch"

	// CategoryLikelyHuman is a mobile browser or a browser arriving from the
	// issuing channel.
	CategoryLikelyHuman ClientCategory = "likely_human"

	// CategoryAmbiguous is a desktop browser with no channel referrer, the
	// shape of a copy-pasted link.
	CategoryAmbiguous ClientCategory = "ambiguous"
)

// RequestMeta is the request metadata the classifier looks at.
type RequestMeta struct {
	UserAgent    string
	Referer      string
	Origin       string
	ForwardedFor string
	RemoteIP     string

	// MobileHint is the Sec-CH-UA-Mobile client hint ("?1" or "?0").
	MobileHint string

	// PlatformHint is the Sec-CH-UA-Platform client hint.
	PlatformHint string
}

// ClientIP returns the best-effort client address for diagnostics.
func (m RequestMeta) ClientIP() string {
	if m.RemoteIP != "" {
		return m.RemoteIP
	}
	return m.ForwardedFor
}
