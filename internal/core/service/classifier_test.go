// Package service provides domain services for LinkGate.
package service

import (
	"testing"

	"github.com/yndnr/linkgate-go/internal/core/domain"
)

const (
	uaWhatsApp      = "WhatsApp/2.23.20.0 A"
	uaFacebook      = "facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)"
	uaTelegram      = "TelegramBot (like TwitterBot)"
	uaIPhoneSafari  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	uaAndroid       = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Mobile Safari/537.36"
	uaDesktopChrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(Signatures{})

	tests := []struct {
		name       string
		meta       domain.RequestMeta
		want       domain.ClientCategory
		wantReason string
	}{
		{
			name:       "whatsapp unfurler",
			meta:       domain.RequestMeta{UserAgent: uaWhatsApp},
			want:       domain.CategoryAutomatedFetch,
			wantReason: ReasonAutomatedAgent,
		},
		{
			name:       "facebook crawler",
			meta:       domain.RequestMeta{UserAgent: uaFacebook},
			want:       domain.CategoryAutomatedFetch,
			wantReason: ReasonAutomatedAgent,
		},
		{
			name:       "telegram preview",
			meta:       domain.RequestMeta{UserAgent: uaTelegram},
			want:       domain.CategoryAutomatedFetch,
			wantReason: ReasonAutomatedAgent,
		},
		{
			name:       "iphone safari",
			meta:       domain.RequestMeta{UserAgent: uaIPhoneSafari},
			want:       domain.CategoryLikelyHuman,
			wantReason: ReasonMobileAgent,
		},
		{
			name:       "android chrome",
			meta:       domain.RequestMeta{UserAgent: uaAndroid},
			want:       domain.CategoryLikelyHuman,
			wantReason: ReasonMobileAgent,
		},
		{
			name:       "desktop with mobile client hint",
			meta:       domain.RequestMeta{UserAgent: uaDesktopChrome, MobileHint: "?1"},
			want:       domain.CategoryLikelyHuman,
			wantReason: ReasonMobileHint,
		},
		{
			name:       "desktop from whatsapp web",
			meta:       domain.RequestMeta{UserAgent: uaDesktopChrome, Referer: "https://web.whatsapp.com/"},
			want:       domain.CategoryLikelyHuman,
			wantReason: ReasonChannelReferrer,
		},
		{
			name:       "desktop with channel origin",
			meta:       domain.RequestMeta{UserAgent: uaDesktopChrome, Origin: "https://wa.me"},
			want:       domain.CategoryLikelyHuman,
			wantReason: ReasonChannelReferrer,
		},
		{
			name:       "desktop copy-paste",
			meta:       domain.RequestMeta{UserAgent: uaDesktopChrome},
			want:       domain.CategoryAmbiguous,
			wantReason: ReasonNoReferrer,
		},
		{
			name:       "desktop with foreign referrer",
			meta:       domain.RequestMeta{UserAgent: uaDesktopChrome, Referer: "https://evil-whatsapp.com.example.org/"},
			want:       domain.CategoryAmbiguous,
			wantReason: ReasonNoReferrer,
		},
		{
			name:       "empty user agent",
			meta:       domain.RequestMeta{},
			want:       domain.CategoryAmbiguous,
			wantReason: ReasonEmptyAgent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.meta)
			if got.Category != tt.want {
				t.Errorf("Classify().Category = %q, want %q", got.Category, tt.want)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Classify().Reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestClassifier_CustomSignatures(t *testing.T) {
	c := NewClassifier(Signatures{
		AutomatedAgents:  []string{"  AcmePreview  "},
		ChannelReferrers: []string{"chat.example.com"},
	})

	if got := c.Classify(domain.RequestMeta{UserAgent: "acmepreview/1.0"}); got.Category != domain.CategoryAutomatedFetch {
		t.Errorf("custom agent category = %q, want %q", got.Category, domain.CategoryAutomatedFetch)
	}

	// Replaced list: the default whatsapp signature no longer applies.
	if got := c.Classify(domain.RequestMeta{UserAgent: uaWhatsApp}); got.Category == domain.CategoryAutomatedFetch {
		t.Errorf("replaced list still matched default signature")
	}

	// Mobile list was empty and falls back to the defaults.
	if got := c.Classify(domain.RequestMeta{UserAgent: uaIPhoneSafari}); got.Category != domain.CategoryLikelyHuman {
		t.Errorf("default mobile fallback category = %q, want %q", got.Category, domain.CategoryLikelyHuman)
	}

	meta := domain.RequestMeta{UserAgent: uaDesktopChrome, Referer: "https://chat.example.com/inbox"}
	if got := c.Classify(meta); got.Category != domain.CategoryLikelyHuman {
		t.Errorf("custom channel category = %q, want %q", got.Category, domain.CategoryLikelyHuman)
	}
}

func TestClassifier_Pure(t *testing.T) {
	c := NewClassifier(DefaultSignatures())
	meta := domain.RequestMeta{UserAgent: uaDesktopChrome}

	first := c.Classify(meta)
	for i := 0; i < 10; i++ {
		if got := c.Classify(meta); got != first {
			t.Fatalf("Classify() = %+v on call %d, want %+v", got, i, first)
		}
	}
}
