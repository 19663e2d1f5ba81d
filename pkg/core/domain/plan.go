package domain

// RedirectPlan describes what the resolution endpoint returns for one request.
// It is one of DirectRedirect, AndroidIntentPage or IOSRacePage.
type RedirectPlan interface {
	// Kind is a stable label for logs and metrics.
	Kind() string
	// Outcome is what can be recorded at dispatch time.
	Outcome() Outcome
}

// DirectRedirect sends the client straight to URL. Used for desktop and unknown clients.
type DirectRedirect struct {
	URL string
}

func (DirectRedirect) Kind() string     { return "direct" }
func (DirectRedirect) Outcome() Outcome { return OutcomeRedirectedDesktop }

// AndroidIntentPage hands an intent URI to the browser. The OS performs the
// fallback itself when no app handles the intent.
type AndroidIntentPage struct {
	IntentURI   string
	FallbackURL string
}

func (AndroidIntentPage) Kind() string     { return "android_intent" }
func (AndroidIntentPage) Outcome() Outcome { return OutcomeRedirectedDesktop }

// IOSRacePage tries AppURI on the client and falls back to FallbackURL if the
// page is still visible when the race window closes.
type IOSRacePage struct {
	AppURI      string
	FallbackURL string
}

func (IOSRacePage) Kind() string     { return "ios_race" }
func (IOSRacePage) Outcome() Outcome { return OutcomeUnknown }

// ResolveRequest carries what the resolution endpoint knows about a scan.
type ResolveRequest struct {
	LinkID     string
	UserAgent  string
	Referrer   string
	RemoteAddr string
	Track      bool // false skips analytics
}

// Resolution is the outcome of resolving a link for one client.
type Resolution struct {
	Spec     *DeepLinkSpec
	Platform Platform
	Plan     RedirectPlan
}
