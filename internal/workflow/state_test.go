package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lobatera/asistencia/internal/calendar"
	"github.com/lobatera/asistencia/internal/models"
)

func TestSelect(t *testing.T) {
	ev := &models.Event{
		ID:                   7,
		Title:                "Jornada",
		Active:               true,
		StartDate:            calendar.Day(2026, 10, 1),
		EndDate:              calendar.Day(2026, 10, 31),
		ConfirmationOpenDate: calendar.Day(2026, 10, 10),
		AttendanceDate:       calendar.Day(2026, 10, 20),
	}
	yes := &models.Confirmation{EventID: 7, WillAttend: true}
	no := &models.Confirmation{EventID: 7}
	attended := &models.AttendanceRecord{Reason: "Reunión Pedagógica"}

	tests := []struct {
		name string
		snap Snapshot
		want State
	}{
		{name: "attended without event", snap: Snapshot{Today: calendar.Day(2026, 10, 15), Attendance: attended}, want: StateAlreadyAttended},
		{name: "attended wins over confirmation", snap: Snapshot{Today: calendar.Day(2026, 10, 20), Event: ev, Confirmation: yes, Attendance: attended}, want: StateAlreadyAttended},
		{name: "no event", snap: Snapshot{Today: calendar.Day(2026, 10, 15)}, want: StateNoActiveEvent},
		{name: "confirmed yes", snap: Snapshot{Today: calendar.Day(2026, 10, 15), Event: ev, Confirmation: yes}, want: StateConfirmedNotYetAttended},
		{name: "confirmed yes outside window", snap: Snapshot{Today: calendar.Day(2026, 10, 25), Event: ev, Confirmation: yes}, want: StateConfirmedNotYetAttended},
		{name: "declined", snap: Snapshot{Today: calendar.Day(2026, 10, 15), Event: ev, Confirmation: no}, want: StateConfirmedDeclined},
		{name: "window opens", snap: Snapshot{Today: calendar.Day(2026, 10, 10), Event: ev}, want: StateAwaitingConfirmation},
		{name: "last day of window", snap: Snapshot{Today: calendar.Day(2026, 10, 19), Event: ev}, want: StateAwaitingConfirmation},
		{name: "before window", snap: Snapshot{Today: calendar.Day(2026, 10, 9), Event: ev}, want: StateConfirmationWindowClosed},
		{name: "attendance day is outside window", snap: Snapshot{Today: calendar.Day(2026, 10, 20), Event: ev}, want: StateConfirmationWindowClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Select(tt.snap)
			assert.Equal(t, tt.want, first, "got %s", first)
			assert.Equal(t, first, Select(tt.snap))
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "awaiting_confirmation", StateAwaitingConfirmation.String())
	assert.Equal(t, "unknown", State(99).String())
}
