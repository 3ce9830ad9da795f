package models

import "time"

// Event is a convocatoria. All dates are civil dates stored as midnight UTC.
type Event struct {
	ID                   int64     `json:"id"`
	Title                string    `json:"title"`
	Active               bool      `json:"active"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	ConfirmationOpenDate time.Time `json:"confirmation_open_date"`
	AttendanceDate       time.Time `json:"attendance_date"`
}
