package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lobatera/asistencia/internal/calendar"
	"github.com/lobatera/asistencia/pkg/queue"
)

// Exporter publishes a day's attendance report.
type Exporter interface {
	Export(ctx context.Context, day time.Time) (string, error)
}

// JobSource is the queue the processor drains.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// ReportProcessor processes report export jobs: build the CSV, upload to S3, log the link.
type ReportProcessor struct {
	exporter Exporter
	queue    JobSource
	backoff  time.Duration
	logger   *zap.Logger
}

// NewReportProcessor creates a report export processor.
func NewReportProcessor(exporter Exporter, q JobSource, logger *zap.Logger) *ReportProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportProcessor{exporter: exporter, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one report export job.
func (p *ReportProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeReportExport {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ReportExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	day, err := calendar.Parse(payload.Day)
	if err != nil {
		return fmt.Errorf("parse day: %w", err)
	}

	url, err := p.exporter.Export(ctx, day)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	p.logger.Info("report export completed", zap.String("job_id", job.ID), zap.String("day", payload.Day), zap.String("url", url))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ReportProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("report worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *ReportProcessor) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(p.backoff):
	}
}
