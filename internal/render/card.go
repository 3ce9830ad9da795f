// Package render produces the user-facing Spanish texts of the bot.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/lobatera/asistencia/internal/calendar"
	"github.com/lobatera/asistencia/internal/models"
)

const notSpecified = "NO ESPECIFICADO"

var staffTypes = map[string]string{
	models.StaffTeacher:        "DOCENTE",
	models.StaffAdministrative: "ADMINISTRATIVO",
	models.StaffSupport:        "APOYO",
	models.StaffCook:           "COCINERA",
}

// Gender maps the registry sex code to its display label.
func Gender(sex string) string {
	switch strings.ToUpper(strings.TrimSpace(sex)) {
	case "F":
		return "FEMENINO"
	case "M":
		return "MASCULINO"
	default:
		return notSpecified
	}
}

// StaffType maps tipopbd to its display label.
func StaffType(code string) string {
	if label, ok := staffTypes[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return label
	}
	return notSpecified
}

// Card formats the personnel record in its fixed field order. today is used
// for the service time.
func Card(p *models.Person, today time.Time) string {
	hired := "NA"
	service := "NA"
	if p.HiredOn != nil {
		hired = calendar.Display(*p.HiredOn)
		years, months := calendar.ServiceTime(*p.HiredOn, today)
		service = fmt.Sprintf("%d años, %d meses", years, months)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🆔 Cédula: %s\n", p.Cedula)
	fmt.Fprintf(&b, "👤 Nombre: %s\n", p.FullName)
	fmt.Fprintf(&b, "👫 Género: %s\n\n", Gender(p.Sex))
	fmt.Fprintf(&b, "🔢 Código de Cargo: %s\n", p.PositionCode)
	fmt.Fprintf(&b, "💼 Cargo: %s | Tipo de Personal: %s\n\n", p.Position, StaffType(p.StaffType))
	fmt.Fprintf(&b, "🗓️ Fecha de Ingreso: %s\n", hired)
	fmt.Fprintf(&b, "⏳ Tiempo de Servicio: %s\n\n", service)
	fmt.Fprintf(&b, "📌 Código DEA: %s\n", p.DEACode)
	fmt.Fprintf(&b, "🏢 Dependencia: %s\n", p.DependencyCode)
	fmt.Fprintf(&b, "🏫 Plantel donde labora: %s\n\n", p.SchoolName)
	fmt.Fprintf(&b, "📌 Situación Laboral: %s\n\n", p.EmploymentStatus)
	fmt.Fprintf(&b, "🕰️ Horas Académicas: %s\n", p.AcademicHours)
	fmt.Fprintf(&b, "⏱️ Horas Administrativas: %s\n\n", p.AdministrativeHours)
	fmt.Fprintf(&b, "📝 Observación: %s\n\n", p.Remarks)
	fmt.Fprintf(&b, "🔖 Código Centro de Votación: %s\n", p.VotingCenterCode)
	fmt.Fprintf(&b, "🗳️ Ejerce el voto en: %s", p.VotingCenter)
	return b.String()
}
