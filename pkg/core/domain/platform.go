package domain

// Platform is the client family a resolution request came from.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformDesktop Platform = "desktop"
	PlatformUnknown Platform = "unknown"
)

// Platforms lists every platform in reporting order.
var Platforms = []Platform{PlatformAndroid, PlatformIOS, PlatformDesktop, PlatformUnknown}

// Outcome is the best-known result of a resolution.
type Outcome string

const (
	OutcomeAppOpened         Outcome = "app_opened"
	OutcomeFallbackTriggered Outcome = "fallback_triggered"
	OutcomeRedirectedDesktop Outcome = "redirected_desktop"
	OutcomeUnknown           Outcome = "unknown"
)

// Outcomes lists every outcome in reporting order.
var Outcomes = []Outcome{OutcomeAppOpened, OutcomeFallbackTriggered, OutcomeRedirectedDesktop, OutcomeUnknown}
