package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobatera/asistencia/internal/calendar"
	"github.com/lobatera/asistencia/internal/models"
)

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
		assert.NotEmpty(t, c.Short, c.Name())
	}
	for _, want := range []string{"migrate", "webhook", "event", "lookup", "report"} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestResolveDay(t *testing.T) {
	clock := calendar.NewClockFunc(time.UTC, func() time.Time { return time.Date(2026, 10, 20, 3, 0, 0, 0, time.UTC) })

	day, err := resolveDay("", clock)
	require.NoError(t, err)
	assert.Equal(t, calendar.Day(2026, 10, 20), day)

	day, err = resolveDay("2026-01-05", clock)
	require.NoError(t, err)
	assert.Equal(t, calendar.Day(2026, 1, 5), day)

	_, err = resolveDay("05/01/2026", clock)
	assert.Error(t, err)
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	printEvent(&buf, calendar.Day(2026, 10, 20), nil)
	assert.Equal(t, "no active convocatoria on 2026-10-20\n", buf.String())

	buf.Reset()
	printEvent(&buf, calendar.Day(2026, 10, 20), &models.Event{
		ID: 3, Title: "Jornada", AttendanceDate: calendar.Day(2026, 10, 25),
	})
	assert.Contains(t, buf.String(), "id:            3")
	assert.Contains(t, buf.String(), "attendance:    2026-10-25")
}
