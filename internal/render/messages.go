package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/lobatera/asistencia/internal/calendar"
)

// Static texts.
const (
	Alive              = "📡 Bot de asistencia activo y escuchando"
	InvalidCedula      = "⚠️ Cédula inválida. Ejemplo válido: V12345678"
	PersonNotFound     = "🧐 No encontré datos asociados a esa cédula."
	StoreFailure       = "🚫 Ocurrió un problema al consultar el registro. Intenta de nuevo en unos minutos."
	SaveFailure        = "🚫 Ocurrió un error al guardar tu registro. Intenta de nuevo en unos minutos."
	InvalidOption      = "⚠️ Esta opción ya no es válida. Envía tu cédula para comenzar de nuevo."
	NoActiveEvent      = "📌 No hay convocatorias activas.\nPuedes registrar tu participación institucional eligiendo un motivo:"
	OtherActivity      = "Si deseas registrar otra actividad institucional hoy, selecciona un motivo:"
	Meanwhile          = "Mientras tanto, puedes consultar tu ficha o registrar otra actividad institucional:"
	RegisterNowPrompt  = "📍 ¿Deseas registrar tu asistencia ahora?"
	ConfirmedYes       = "✅ Confirmación registrada. ¡Nos vemos en la actividad!"
	ConfirmedNo        = "📝 Has indicado que no podrás asistir. Gracias por notificar."
	AlreadyConfirmed   = "🔁 Ya habías respondido a esta convocatoria. Se mantiene tu respuesta anterior."
	EventNotFound      = "⚠️ No se encontró información de la convocatoria."
	AlreadyAttendedDay = "🔁 Ya habías registrado tu asistencia hoy."
	AttendanceSaved    = "✅ Asistencia registrada. ¡Gracias por participar!"
	NoneToday          = "📌 Entendido, no se registrará participación hoy."
	ViewOnlyHeader     = "👁️ Consulta realizada. No se ha registrado asistencia hoy."
)

// Button captions.
const (
	ButtonViewOnly    = "👁️ Solo consultar ficha"
	ButtonRegisterNow = "✅ Registrar asistencia ahora"
	ButtonYes         = "✅ Sí, asistiré"
	ButtonNo          = "❌ No podré"
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown escapes user data for Telegram's legacy Markdown mode.
func EscapeMarkdown(s string) string { return markdownEscaper.Replace(s) }

// AlreadyAttendedEvent acknowledges attendance to the active event.
func AlreadyAttendedEvent(title string) string {
	return fmt.Sprintf("✅ Ya registraste tu asistencia para *%s*.\n\nGracias por participar 👏", EscapeMarkdown(title))
}

// AlreadyAttendedReason acknowledges a reason registered earlier today.
func AlreadyAttendedReason(reason string) string {
	return fmt.Sprintf("🔁 Ya registraste hoy con el motivo: *%s*", EscapeMarkdown(reason))
}

// Declined acknowledges a "no" confirmation.
func Declined(title string) string {
	return fmt.Sprintf("📌 Has indicado que NO asistirás a *%s*", EscapeMarkdown(title))
}

// ComeBackOn tells a confirmed person when attendance opens.
func ComeBackOn(title string, attendance time.Time) string {
	return fmt.Sprintf("📌 Ya confirmaste para *%s*.\n📅 Podrás registrar tu asistencia el *%s*",
		EscapeMarkdown(title), calendar.Display(attendance))
}

// ConfirmationPrompt asks for a yes/no decision.
func ConfirmationPrompt(title string) string {
	return fmt.Sprintf("📢 *%s*\n¿Confirmas tu participación?", EscapeMarkdown(title))
}

// WindowClosed explains the confirmation window.
func WindowClosed(open, attendance time.Time) string {
	return fmt.Sprintf("📅 Puedes confirmar tu participación entre el *%s* y antes del *%s*.\nHoy no está habilitado para confirmar.",
		calendar.Display(open), calendar.Display(attendance))
}

// OnlyOnAttendanceDay rejects a mark-attendance press on the wrong day.
func OnlyOnAttendanceDay(attendance time.Time) string {
	return fmt.Sprintf("📅 Solo puedes registrar tu asistencia el *%s*.", calendar.Display(attendance))
}

// ReasonSaved confirms a reason-only record.
func ReasonSaved(reason string) string {
	return fmt.Sprintf("✅ Participación registrada con motivo: *%s*", EscapeMarkdown(reason))
}

// ViewOnly prefixes the record card for a consult-only action.
func ViewOnly(card string) string {
	return ViewOnlyHeader + "\n\n" + card
}
