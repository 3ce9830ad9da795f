package models

// ReasonCode identifies an institutional reason in button payloads.
type ReasonCode string

const (
	ReasonPedagogicalMeeting ReasonCode = "reunion"
	ReasonSectionCouncil     ReasonCode = "consejo"
	ReasonCertificate        ReasonCode = "constancia"
	ReasonContactOffice      ReasonCode = "contacto"
	ReasonGeneral            ReasonCode = "general"
	ReasonNone               ReasonCode = "ninguno"
)

// Reason is one entry of the closed institutional reason menu.
type Reason struct {
	Code ReasonCode
	// Label is the value stored in asistencia.motivo.
	Label string
	// Button is the menu caption.
	Button string
}

// Reasons is the menu in display order. ReasonNone is last and never recorded.
var Reasons = []Reason{
	{Code: ReasonPedagogicalMeeting, Label: "Reunión Pedagógica", Button: "📌 Reunión Pedagógica"},
	{Code: ReasonSectionCouncil, Label: "Consejo de Sección", Button: "📚 Consejo de Sección"},
	{Code: ReasonCertificate, Label: "Solicitud de Constancia", Button: "✍️ Solicitar Constancia"},
	{Code: ReasonContactOffice, Label: "Contacto con CDCE", Button: "📞 Contactar CDCE Lobatera"},
	{Code: ReasonGeneral, Label: "Asistencia General", Button: "✅ Solo marcar asistencia"},
	{Code: ReasonNone, Label: "nulo", Button: "❌ Ninguno hoy"},
}

// LookupReason returns the reason for a code.
func LookupReason(code ReasonCode) (Reason, bool) {
	for _, r := range Reasons {
		if r.Code == code {
			return r, true
		}
	}
	return Reason{}, false
}

// ReasonByLabel returns the reason whose stored label matches exactly.
func ReasonByLabel(label string) (Reason, bool) {
	for _, r := range Reasons {
		if r.Label == label {
			return r, true
		}
	}
	return Reason{}, false
}

// RecordableReasons returns the menu without the "none" entry.
func RecordableReasons() []Reason {
	out := make([]Reason, 0, len(Reasons)-1)
	for _, r := range Reasons {
		if r.Code != ReasonNone {
			out = append(out, r)
		}
	}
	return out
}
