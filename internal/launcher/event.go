package launcher

import (
	"github.com/miyamgo/tmod-launcher/internal/locator"
	"github.com/miyamgo/tmod-launcher/internal/updater"
)

// EventKind says which field of an Event is meaningful.
type EventKind int

const (
	// EventStatus carries a status line in Text and the phase in Progress.
	EventStatus EventKind = iota
	// EventProgress carries Progress.
	EventProgress
	// EventAvailability carries fresh scan Resolutions.
	EventAvailability
	// EventUpdateBusy toggles the update action; Busy is true while running.
	EventUpdateBusy
	// EventNotice asks the UI for a blocking informational prompt.
	EventNotice
	// EventError asks the UI for a blocking error prompt; Err is the cause.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "status"
	case EventProgress:
		return "progress"
	case EventAvailability:
		return "availability"
	case EventUpdateBusy:
		return "update-busy"
	case EventNotice:
		return "notice"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event is one message from the controller to the UI.
type Event struct {
	Kind        EventKind
	Title       string
	Text        string
	Progress    updater.Progress
	Resolutions []locator.Resolution
	Busy        bool
	Err         error
}
