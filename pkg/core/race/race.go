// Package race holds the shared vocabulary of the open-app-or-fall-back race
// served to iOS browsers. The race itself runs in the rendered page script.
//
// A race starts Pending and settles exactly once. Two independent signals
// compete: the page becoming hidden (the app launched) and the window timer
// expiring (it did not). Page teardown abandons the race. Whichever signal is
// observed first settles it; every later signal is ignored.
package race

import "time"

type State int32

const (
	Pending State = iota
	AppOpened
	FallbackTriggered
	Abandoned
)

// States lists every state in script order.
var States = []State{Pending, AppOpened, FallbackTriggered, Abandoned}

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case AppOpened:
		return "app_opened"
	case FallbackTriggered:
		return "fallback_triggered"
	case Abandoned:
		return "abandoned"
	default:
		return "invalid"
	}
}

// Terminal reports whether s ends the race.
func (s State) Terminal() bool {
	return s == AppOpened || s == FallbackTriggered || s == Abandoned
}

const (
	MinWindow     = 1500 * time.Millisecond
	MaxWindow     = 2500 * time.Millisecond
	DefaultWindow = 2000 * time.Millisecond
)

// ClampWindow keeps a configured window inside [MinWindow, MaxWindow].
// Zero or negative selects DefaultWindow.
func ClampWindow(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultWindow
	case d < MinWindow:
		return MinWindow
	case d > MaxWindow:
		return MaxWindow
	}
	return d
}
