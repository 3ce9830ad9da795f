package models

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// cedulaPattern is the accepted identifier format: V followed by 7 or 8 digits.
var cedulaPattern = regexp.MustCompile(`^V\d{7,8}$`)

// Staff types stored in tipopbd.
const (
	StaffTeacher        = "D"
	StaffAdministrative = "A"
	StaffSupport        = "O"
	StaffCook           = "C"
)

// Person is one row of the personnel registry (raclobatera). Read-only for this system.
type Person struct {
	Cedula              string     `json:"cedula"`
	FullName            string     `json:"full_name"`
	Sex                 string     `json:"sex"`
	PositionCode        string     `json:"position_code"`
	Position            string     `json:"position"`
	StaffType           string     `json:"staff_type"`
	HiredOn             *time.Time `json:"hired_on,omitempty"`
	DEACode             string     `json:"dea_code"`
	DependencyCode      string     `json:"dependency_code"`
	SchoolName          string     `json:"school_name"`
	EmploymentStatus    string     `json:"employment_status"`
	AcademicHours       string     `json:"academic_hours"`
	AdministrativeHours string     `json:"administrative_hours"`
	Remarks             string     `json:"remarks"`
	VotingCenterCode    string     `json:"voting_center_code"`
	VotingCenter        string     `json:"voting_center"`
}

// NormalizeCedula uppercases the input and strips every whitespace rune.
func NormalizeCedula(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, raw)
}

// ValidCedula reports whether an already normalized identifier matches the registry format.
func ValidCedula(cedula string) bool {
	return cedulaPattern.MatchString(cedula)
}

// ParseCedula normalizes raw input and validates it.
func ParseCedula(raw string) (string, error) {
	c := NormalizeCedula(raw)
	if !ValidCedula(c) {
		return "", ErrInvalidCedula
	}
	return c, nil
}
