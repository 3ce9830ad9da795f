package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lobatera/asistencia/internal/attendance"
	"github.com/lobatera/asistencia/internal/calendar"
	"github.com/lobatera/asistencia/internal/reports"
	"github.com/lobatera/asistencia/pkg/queue"
	"github.com/lobatera/asistencia/pkg/redis"
	"github.com/lobatera/asistencia/pkg/storage"
)

var (
	reportDay     string
	reportOut     string
	reportUpload  bool
	reportEnqueue bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a day's attendance as CSV",
	Long: `Export the attendance ledger of one day as CSV
(cedula,nombre,fecha,motivo,convocatoria_id,registrado_en).

By default the CSV is written to stdout. --upload stores it in the reports
bucket and prints a pre-signed link; --enqueue hands the export to the worker.

Examples:
  registryctl report --day 2026-10-20 > asistencia.csv
  registryctl report --day 2026-10-20 --upload
  registryctl report --enqueue`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDay, "day", "", "day to export (YYYY-MM-DD, default today)")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "write the CSV to a file instead of stdout")
	reportCmd.Flags().BoolVar(&reportUpload, "upload", false, "upload to S3 and print a pre-signed link")
	reportCmd.Flags().BoolVar(&reportEnqueue, "enqueue", false, "queue the export for the worker")
	reportCmd.MarkFlagsMutuallyExclusive("upload", "enqueue", "out")
}

func runReport(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	day, err := resolveDay(reportDay, e.clock)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	out := cmd.OutOrStdout()

	if reportEnqueue {
		if !e.cfg.Redis.Enabled() {
			return errors.New("--enqueue needs REDIS_ADDR")
		}
		rdb, err := redis.NewClient(ctx, e.cfg.Redis.Addr, e.cfg.Redis.Password, e.cfg.Redis.DB, e.logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
		id, err := queue.NewQueue(rdb.Client, e.logger).EnqueueReportExport(ctx, queue.ReportExportPayload{Day: calendar.ISO(day)})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "queued report for %s (job %s)\n", calendar.ISO(day), id)
		return nil
	}

	pool, err := e.connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	ledger := attendance.NewRepository(pool)

	if reportUpload {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               e.cfg.AWS.Region,
			AccessKeyID:          e.cfg.AWS.AccessKeyID,
			SecretAccessKey:      e.cfg.AWS.SecretAccessKey,
			ReportsBucket:        e.cfg.AWS.ReportsBucket,
			PresignExpireMinutes: e.cfg.AWS.PresignExpireMinutes,
		}, e.logger)
		if err != nil {
			return err
		}
		url, err := reports.NewExporter(ledger, s3Client, e.clock.Location(), e.logger).Export(ctx, day)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, url)
		return nil
	}

	exporter := reports.NewExporter(ledger, nil, e.clock.Location(), e.logger)
	if reportOut == "" {
		_, err = exporter.Write(ctx, day, out)
		return err
	}
	f, err := os.Create(reportOut)
	if err != nil {
		return err
	}
	n, err := exporter.Write(ctx, day, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d rows written to %s\n", n, reportOut)
	return nil
}
