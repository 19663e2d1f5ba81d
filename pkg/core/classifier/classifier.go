// Package classifier maps a User-Agent header to the Platform a redirect is built for.
package classifier

import (
	"strings"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
)

// iOS device tokens. iPadOS 13+ in desktop mode reports as Macintosh and is
// classified as desktop.
var iosTokens = []string{"iphone", "ipad", "ipod"}

// Classify returns the platform for a User-Agent string. Matching is ordered,
// most specific first: Android, then iOS devices, then empty input (Unknown),
// then everything else (Desktop).
func Classify(userAgent string) domain.Platform {
	ua := strings.ToLower(userAgent)

	if strings.Contains(ua, "android") {
		return domain.PlatformAndroid
	}
	for _, token := range iosTokens {
		if strings.Contains(ua, token) {
			return domain.PlatformIOS
		}
	}
	if strings.TrimSpace(ua) == "" {
		return domain.PlatformUnknown
	}
	return domain.PlatformDesktop
}
