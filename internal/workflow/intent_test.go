package workflow

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobatera/asistencia/internal/models"
)

func TestIntent_EncodeDecode(t *testing.T) {
	intents := []Intent{
		Confirm(12, "V12345678", true),
		Confirm(12, "V12345678", false),
		MarkAttendance(math.MaxInt64, "V12345678"),
		SelectReason(models.ReasonCertificate, "V1234567"),
		SelectReason(models.ReasonNone, "V1234567"),
		ViewOnly("V1234567"),
	}
	for _, in := range intents {
		t.Run(in.Kind.String(), func(t *testing.T) {
			payload, err := in.Encode()
			require.NoError(t, err)
			assert.LessOrEqual(t, len(payload), MaxPayloadBytes)

			got, err := Decode(payload)
			require.NoError(t, err)
			assert.Equal(t, in, got)
		})
	}
}

func TestIntent_EncodeFormat(t *testing.T) {
	payload, err := Confirm(12, "V12345678", true).Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"k":"c","e":12,"p":"V12345678","y":true}`, payload)
}

func TestIntent_Validate(t *testing.T) {
	tests := []struct {
		name string
		in   Intent
	}{
		{name: "bad cedula", in: ViewOnly("12345678")},
		{name: "missing event", in: MarkAttendance(0, "V1234567")},
		{name: "unknown reason", in: SelectReason("otro", "V1234567")},
		{name: "unknown kind", in: Intent{Kind: "x", Cedula: "V1234567"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.in.Validate(), ErrInvalidIntent)
			_, err := tt.in.Encode()
			assert.ErrorIs(t, err, ErrInvalidIntent)
		})
	}
}

func TestDecode_Legacy(t *testing.T) {
	tests := []struct {
		data string
		want Intent
	}{
		{data: "confirmar_si_3_V1234567", want: Confirm(3, "V1234567", true)},
		{data: "confirmar_no_3_V1234567", want: Confirm(3, "V1234567", false)},
		{data: "asistir_3_V12345678", want: MarkAttendance(3, "V12345678")},
		{data: "motivo_Consejo de Sección_V1234567", want: SelectReason(models.ReasonSectionCouncil, "V1234567")},
		{data: "motivo_nulo_V1234567", want: SelectReason(models.ReasonNone, "V1234567")},
		{data: "solo_V1234567", want: ViewOnly("V1234567")},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := Decode(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Rejects(t *testing.T) {
	for _, data := range []string{
		"",
		"{not json",
		`{"k":"a","p":"V1234567"}`,
		"confirmar_quizas_3_V1234567",
		"confirmar_si_x_V1234567",
		"asistir_3",
		"motivo_Otra cosa_V1234567",
		"motivo_Asistencia_General_V1234567",
		"solo_V12",
		"borrar_V1234567",
	} {
		t.Run(data, func(t *testing.T) {
			_, err := Decode(data)
			assert.ErrorIs(t, err, ErrInvalidIntent)
		})
	}
}
