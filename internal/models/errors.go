package models

import "errors"

var (
	// ErrInvalidCedula is returned for identifiers that do not match V + 7-8 digits.
	ErrInvalidCedula = errors.New("invalid cedula")
	// ErrPersonNotFound is returned when the registry has no row for a cedula.
	ErrPersonNotFound = errors.New("person not found")
	// ErrEventNotFound is returned when a convocatoria id does not exist.
	ErrEventNotFound = errors.New("event not found")
	// ErrAlreadyRegistered is returned when the attendance slot for the day is taken.
	ErrAlreadyRegistered = errors.New("attendance already registered")
	// ErrAlreadyConfirmed is returned under the reject policy when a decision exists.
	ErrAlreadyConfirmed = errors.New("confirmation already recorded")
)
