// Package render writes the HTTP response for a redirect plan.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/race"
)

type raceStates struct {
	Pending           int32
	AppOpened         int32
	FallbackTriggered int32
	Abandoned         int32
}

type racePageData struct {
	AppURI       template.URL // composed and escaped by the composer
	AppURIScript string
	FallbackURL  string
	WindowMS     int64
	States       raceStates
	StateNames   []string
}

// Renderer turns redirect plans into responses.
type Renderer struct {
	window time.Duration
}

// New returns a renderer whose iOS race uses window, clamped to the supported range.
func New(window time.Duration) *Renderer {
	return &Renderer{window: race.ClampWindow(window)}
}

func (rd *Renderer) Window() time.Duration {
	return rd.window
}

// Render writes plan to w. DirectRedirect and AndroidIntentPage become 302
// redirects; IOSRacePage becomes the race page.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, plan domain.RedirectPlan) error {
	// The body depends on the client, never cache it.
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Add("Vary", "User-Agent")

	switch p := plan.(type) {
	case domain.DirectRedirect:
		http.Redirect(w, r, p.URL, http.StatusFound)
		return nil
	case domain.AndroidIntentPage:
		http.Redirect(w, r, p.IntentURI, http.StatusFound)
		return nil
	case domain.IOSRacePage:
		return rd.renderRace(w, p)
	default:
		return fmt.Errorf("render: unsupported plan %T", plan)
	}
}

func (rd *Renderer) renderRace(w http.ResponseWriter, p domain.IOSRacePage) error {
	data := racePageData{
		AppURI:       template.URL(p.AppURI),
		AppURIScript: p.AppURI,
		FallbackURL:  p.FallbackURL,
		WindowMS:     rd.window.Milliseconds(),
		States: raceStates{
			Pending:           int32(race.Pending),
			AppOpened:         int32(race.AppOpened),
			FallbackTriggered: int32(race.FallbackTriggered),
			Abandoned:         int32(race.Abandoned),
		},
	}
	for _, st := range race.States {
		data.StateNames = append(data.StateNames, st.String())
	}

	var buf bytes.Buffer
	if err := racePage.Execute(&buf, data); err != nil {
		return fmt.Errorf("render race page: %w", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(buf.Bytes())
	return err
}

// NotFound writes the generic "link not found" page.
func NotFound(w http.ResponseWriter) {
	writeMessage(w, http.StatusNotFound, "Link not found", "This link does not exist or has been removed.")
}

// Unavailable writes the generic error page used when the destination cannot
// be confirmed.
func Unavailable(w http.ResponseWriter, status int) {
	writeMessage(w, status, "Something went wrong", "We could not open this link right now. Please try again later.")
}

func writeMessage(w http.ResponseWriter, status int, title, message string) {
	var buf bytes.Buffer
	_ = messagePage.Execute(&buf, struct{ Title, Message string }{title, message})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
