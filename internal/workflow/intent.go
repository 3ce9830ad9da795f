package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lobatera/asistencia/internal/models"
)

// MaxPayloadBytes is Telegram's limit for callback_data.
const MaxPayloadBytes = 64

// ErrInvalidIntent is returned for payloads that cannot be decoded into a usable intent.
var ErrInvalidIntent = errors.New("invalid intent")

// Kind tags the intent variant.
type Kind string

const (
	KindConfirm        Kind = "c"
	KindMarkAttendance Kind = "a"
	KindSelectReason   Kind = "r"
	KindViewOnly       Kind = "v"
)

// String returns a readable name for logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindConfirm:
		return "confirm"
	case KindMarkAttendance:
		return "mark_attendance"
	case KindSelectReason:
		return "select_reason"
	case KindViewOnly:
		return "view_only"
	default:
		return "unknown"
	}
}

// Intent is a decoded button press. Which fields are meaningful depends on Kind:
//
//	Confirm        EventID, Cedula, WillAttend
//	MarkAttendance EventID, Cedula
//	SelectReason   Reason, Cedula
//	ViewOnly       Cedula
type Intent struct {
	Kind       Kind              `json:"k"`
	EventID    int64             `json:"e,omitempty"`
	Cedula     string            `json:"p"`
	WillAttend bool              `json:"y,omitempty"`
	Reason     models.ReasonCode `json:"r,omitempty"`
}

func Confirm(eventID int64, cedula string, willAttend bool) Intent {
	return Intent{Kind: KindConfirm, EventID: eventID, Cedula: cedula, WillAttend: willAttend}
}

func MarkAttendance(eventID int64, cedula string) Intent {
	return Intent{Kind: KindMarkAttendance, EventID: eventID, Cedula: cedula}
}

func SelectReason(reason models.ReasonCode, cedula string) Intent {
	return Intent{Kind: KindSelectReason, Reason: reason, Cedula: cedula}
}

func ViewOnly(cedula string) Intent {
	return Intent{Kind: KindViewOnly, Cedula: cedula}
}

// Validate checks that the fields required by Kind are present and well formed.
func (i Intent) Validate() error {
	if !models.ValidCedula(i.Cedula) {
		return fmt.Errorf("%w: cedula %q", ErrInvalidIntent, i.Cedula)
	}
	switch i.Kind {
	case KindConfirm, KindMarkAttendance:
		if i.EventID <= 0 {
			return fmt.Errorf("%w: event id %d", ErrInvalidIntent, i.EventID)
		}
	case KindSelectReason:
		if _, ok := models.LookupReason(i.Reason); !ok {
			return fmt.Errorf("%w: reason %q", ErrInvalidIntent, i.Reason)
		}
	case KindViewOnly:
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidIntent, i.Kind)
	}
	return nil
}

// Encode returns the callback payload for the intent.
func (i Intent) Encode() (string, error) {
	if err := i.Validate(); err != nil {
		return "", err
	}
	b, err := json.Marshal(i)
	if err != nil {
		return "", fmt.Errorf("encode intent: %w", err)
	}
	if len(b) > MaxPayloadBytes {
		return "", fmt.Errorf("%w: payload is %d bytes", ErrInvalidIntent, len(b))
	}
	return string(b), nil
}

// Decode parses a callback payload. JSON payloads are the current format;
// underscore tokens sent by the previous bot are still accepted.
func Decode(data string) (Intent, error) {
	var in Intent
	if strings.HasPrefix(data, "{") {
		if err := json.Unmarshal([]byte(data), &in); err != nil {
			return Intent{}, fmt.Errorf("%w: %v", ErrInvalidIntent, err)
		}
	} else {
		var err error
		if in, err = decodeLegacy(data); err != nil {
			return Intent{}, err
		}
	}
	if err := in.Validate(); err != nil {
		return Intent{}, err
	}
	return in, nil
}

// decodeLegacy reads confirmar_si|no_<event>_<cedula>, asistir_<event>_<cedula>,
// motivo_<label>_<cedula> and solo_<cedula>. A label that is not one of the
// known reasons, or that contains the delimiter, is rejected.
func decodeLegacy(data string) (Intent, error) {
	parts := strings.Split(data, "_")
	bad := fmt.Errorf("%w: legacy token %q", ErrInvalidIntent, data)

	switch parts[0] {
	case "confirmar":
		if len(parts) != 4 || (parts[1] != "si" && parts[1] != "no") {
			return Intent{}, bad
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Intent{}, bad
		}
		return Confirm(id, parts[3], parts[1] == "si"), nil
	case "asistir":
		if len(parts) != 3 {
			return Intent{}, bad
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Intent{}, bad
		}
		return MarkAttendance(id, parts[2]), nil
	case "motivo":
		if len(parts) != 3 {
			return Intent{}, bad
		}
		r, ok := models.ReasonByLabel(parts[1])
		if !ok {
			return Intent{}, bad
		}
		return SelectReason(r.Code, parts[2]), nil
	case "solo":
		if len(parts) != 2 {
			return Intent{}, bad
		}
		return ViewOnly(parts[1]), nil
	}
	return Intent{}, bad
}
