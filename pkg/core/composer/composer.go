// Package composer builds the platform-specific redirect plan for a deep link.
package composer

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
)

// Compose returns the redirect plan for spec on platform. Unknown clients get
// the desktop plan.
func Compose(spec *domain.DeepLinkSpec, platform domain.Platform) (domain.RedirectPlan, error) {
	if spec == nil || spec.FallbackURL == "" {
		return nil, errors.Wrap(domain.ErrMalformedSpec, "fallback url is required")
	}

	switch platform {
	case domain.PlatformAndroid:
		intentURI, err := IntentURI(spec)
		if err != nil {
			return nil, err
		}
		return domain.AndroidIntentPage{IntentURI: intentURI, FallbackURL: spec.FallbackURL}, nil
	case domain.PlatformIOS:
		appURI, err := AppURI(spec)
		if err != nil {
			return nil, err
		}
		return domain.IOSRacePage{AppURI: appURI, FallbackURL: spec.FallbackURL}, nil
	default:
		return domain.DirectRedirect{URL: spec.FallbackURL}, nil
	}
}

// IntentURI builds the Chromium intent URI:
//
//	intent://<path>#Intent;scheme=<scheme>;package=<package>;S.browser_fallback_url=<encoded fallback>;end
func IntentURI(spec *domain.DeepLinkSpec) (string, error) {
	if spec.AppScheme == "" || spec.AppPackage == "" {
		return "", errors.Wrap(domain.ErrMalformedSpec, "app scheme and package are required for an intent")
	}

	var b strings.Builder
	b.WriteString("intent://")
	b.WriteString(escapeComponent(NormalizePath(spec.CustomPath)))
	b.WriteString("#Intent;scheme=")
	b.WriteString(escapeComponent(spec.AppScheme))
	b.WriteString(";package=")
	b.WriteString(escapeComponent(spec.AppPackage))
	b.WriteString(";S.browser_fallback_url=")
	b.WriteString(EscapeFallbackURL(spec.FallbackURL))
	b.WriteString(";end")
	return b.String(), nil
}

// AppURI builds the custom-scheme URI (scheme://path?query) tried by the iOS page.
func AppURI(spec *domain.DeepLinkSpec) (string, error) {
	if spec.AppScheme == "" {
		return "", errors.Wrap(domain.ErrMalformedSpec, "app scheme is required")
	}
	return escapeComponent(spec.AppScheme) + "://" + escapeComponent(NormalizePath(spec.CustomPath)), nil
}

// NormalizePath strips any leading scheme:// prefixes and leading slashes, so
// "myapp://profile/123" and "profile/123" normalize to the same path.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	for {
		i := strings.Index(p, "://")
		if i <= 0 || !isScheme(p[:i]) {
			break
		}
		p = p[i+3:]
	}
	return strings.TrimLeft(p, "/")
}

// EscapeFallbackURL percent-encodes a whole URL so that it can sit inside an
// intent extra. Reserved characters (: / ? & = ; #) are all encoded and spaces
// become %20.
func EscapeFallbackURL(raw string) string {
	return strings.ReplaceAll(url.QueryEscape(raw), "+", "%20")
}

// isScheme reports whether s is a valid URI scheme (RFC 3986 §3.1).
func isScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return s != ""
}

// escapeComponent percent-encodes every byte that can break intent or
// custom-scheme URI syntax. Path and query separators are kept; ';', '#',
// whitespace, control and non-ASCII bytes are encoded.
func escapeComponent(s string) string {
	const upperhex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keepByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func keepByte(c byte) bool {
	if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' {
		return true
	}
	return strings.IndexByte("-._~/:@?&=+!$'()*,%", c) >= 0
}
