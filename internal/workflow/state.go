package workflow

import (
	"time"

	"github.com/lobatera/asistencia/internal/calendar"
	"github.com/lobatera/asistencia/internal/models"
)

// State is the user-facing step computed for one inbound identifier.
type State int

const (
	// StateFailed marks a turn cut short by a store failure.
	StateFailed State = iota
	StateAwaitingValidID
	StatePersonNotFound
	StateRecordShown
	StateNoActiveEvent
	StateAlreadyAttended
	StateConfirmedNotYetAttended
	StateConfirmedDeclined
	StateAwaitingConfirmation
	StateConfirmationWindowClosed
)

var stateNames = map[State]string{
	StateFailed:                   "failed",
	StateAwaitingValidID:          "awaiting_valid_id",
	StatePersonNotFound:           "person_not_found",
	StateRecordShown:              "record_shown",
	StateNoActiveEvent:            "no_active_event",
	StateAlreadyAttended:          "already_attended",
	StateConfirmedNotYetAttended:  "confirmed_not_yet_attended",
	StateConfirmedDeclined:        "confirmed_declined",
	StateAwaitingConfirmation:     "awaiting_confirmation",
	StateConfirmationWindowClosed: "confirmation_window_closed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Snapshot is everything state selection depends on, read once per turn.
type Snapshot struct {
	Today        time.Time
	Event        *models.Event
	Confirmation *models.Confirmation
	Attendance   *models.AttendanceRecord
}

// Select picks the state that follows RecordShown. It is a pure function of the snapshot.
func Select(s Snapshot) State {
	switch {
	case s.Attendance != nil:
		return StateAlreadyAttended
	case s.Event == nil:
		return StateNoActiveEvent
	case s.Confirmation != nil && s.Confirmation.WillAttend:
		return StateConfirmedNotYetAttended
	case s.Confirmation != nil:
		return StateConfirmedDeclined
	case inConfirmationWindow(s.Today, s.Event):
		return StateAwaitingConfirmation
	default:
		return StateConfirmationWindowClosed
	}
}

// inConfirmationWindow reports open <= today < attendance.
func inConfirmationWindow(today time.Time, ev *models.Event) bool {
	return !today.Before(ev.ConfirmationOpenDate) && today.Before(ev.AttendanceDate)
}

// isAttendanceDay reports whether today is the event's attendance date.
func isAttendanceDay(today time.Time, ev *models.Event) bool {
	return calendar.Normalize(today).Equal(calendar.Normalize(ev.AttendanceDate))
}
