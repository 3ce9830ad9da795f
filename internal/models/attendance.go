package models

import (
	"fmt"
	"time"
)

// AttendanceReasonEvent is the reason stored when attendance comes from a confirmed event.
const AttendanceReasonEvent = "Asistencia Confirmada"

// ConfirmationPolicy decides what happens when a person confirms the same event again.
type ConfirmationPolicy string

const (
	// ConfirmationUpsert overwrites the latest decision.
	ConfirmationUpsert ConfirmationPolicy = "upsert"
	// ConfirmationAppend inserts a new row; the most recent one is current.
	ConfirmationAppend ConfirmationPolicy = "append"
	// ConfirmationReject keeps the first decision and reports ErrAlreadyConfirmed.
	ConfirmationReject ConfirmationPolicy = "reject"
)

// Confirmation is a person's yes/no intent for an event (confirmaciones).
type Confirmation struct {
	ID          int64     `json:"id"`
	Cedula      string    `json:"cedula"`
	EventID     int64     `json:"event_id"`
	WillAttend  bool      `json:"will_attend"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// AttendanceKey addresses the single attendance slot a record may occupy.
type AttendanceKey struct {
	Cedula   string
	Day      time.Time
	ScopeKey string
}

// AttendanceRecord is the durable proof of presence on a day (asistencia).
type AttendanceRecord struct {
	ID           int64     `json:"id"`
	Cedula       string    `json:"cedula"`
	Day          time.Time `json:"day"`
	Reason       string    `json:"reason"`
	EventID      *int64    `json:"event_id,omitempty"`
	ScopeKey     string    `json:"scope_key"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Key returns the slot this record occupies.
func (r *AttendanceRecord) Key() AttendanceKey {
	return AttendanceKey{Cedula: r.Cedula, Day: r.Day, ScopeKey: r.ScopeKey}
}

// AttendanceScope decides which records share an attendance slot.
type AttendanceScope string

const (
	// ScopeDay puts every record of a day in one slot.
	ScopeDay AttendanceScope = "day"
	// ScopeDayEvent gives each event its own slot and reason-only records a shared one.
	ScopeDayEvent AttendanceScope = "day_event"
)

// ScopeKey returns the slot for a record tied to eventID (nil for reason-only records).
func (s AttendanceScope) ScopeKey(eventID *int64) string {
	if s != ScopeDayEvent {
		return "day"
	}
	if eventID == nil {
		return "general"
	}
	return fmt.Sprintf("event:%d", *eventID)
}
