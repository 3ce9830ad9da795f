package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lobatera/asistencia/internal/calendar"
	"github.com/lobatera/asistencia/internal/events"
	"github.com/lobatera/asistencia/internal/models"
	"github.com/lobatera/asistencia/internal/registry"
	"github.com/lobatera/asistencia/internal/render"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Inspect convocatorias",
}

var eventActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "Show the convocatoria the bot treats as active",
	Long: `Show the convocatoria the bot would resolve for a day. When several
overlap, the one chosen is printed and the conflict is logged (use -v).

Examples:
  registryctl event active
  registryctl event active --day 2026-10-20 -v`,
	Args: cobra.NoArgs,
	RunE: runEventActive,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <cedula>",
	Short: "Print the record card for a cédula",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	eventActiveCmd.Flags().StringVar(&dayFlag, "day", "", "day to resolve (YYYY-MM-DD, default today)")
	eventCmd.AddCommand(eventActiveCmd)
}

func runEventActive(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	day, err := resolveDay(dayFlag, e.clock)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool, err := e.connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	ev, err := events.NewRepository(pool, e.logger).ActiveEventFor(ctx, day)
	if err != nil {
		return err
	}
	printEvent(cmd.OutOrStdout(), day, ev)
	return nil
}

func printEvent(out io.Writer, day time.Time, ev *models.Event) {
	if ev == nil {
		fmt.Fprintf(out, "no active convocatoria on %s\n", calendar.ISO(day))
		return
	}
	fmt.Fprintf(out, "id:            %d\n", ev.ID)
	fmt.Fprintf(out, "title:         %s\n", ev.Title)
	fmt.Fprintf(out, "valid:         %s .. %s\n", calendar.ISO(ev.StartDate), calendar.ISO(ev.EndDate))
	fmt.Fprintf(out, "confirmations: from %s\n", calendar.ISO(ev.ConfirmationOpenDate))
	fmt.Fprintf(out, "attendance:    %s\n", calendar.ISO(ev.AttendanceDate))
}

func runLookup(cmd *cobra.Command, args []string) error {
	cedula, err := models.ParseCedula(args[0])
	if err != nil {
		return err
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool, err := e.connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	p, err := registry.NewRepository(pool).FindPerson(ctx, cedula)
	if errors.Is(err, models.ErrPersonNotFound) {
		return fmt.Errorf("%s: %w", cedula, err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.Card(p, e.clock.Today()))
	return nil
}
