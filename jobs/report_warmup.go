package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-ops/meridian-ops/internal/jobs"
	"github.com/meridian-ops/meridian-ops/internal/report"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReportBuilder is the subset of the report builder used by warmup.
type ReportBuilder interface {
	Build(ctx context.Context, req report.Request) (*report.Report, error)
}

// QuarterWarmupJob pre-populates the quarterly report cache.
type QuarterWarmupJob struct {
	Builder ReportBuilder
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewQuarterWarmupJob wires dependencies for the warmup handler.
func NewQuarterWarmupJob(builder ReportBuilder, logger *slog.Logger, metrics *jobmetrics.Metrics) *QuarterWarmupJob {
	return &QuarterWarmupJob{
		Builder: builder,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes quarter warmup tasks.
func (j *QuarterWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Builder == nil {
		return errors.New("quarter warmup: handler not configured")
	}
	var payload QuarterWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	now := j.now()
	if payload.Year == 0 {
		payload.Year = now.Year()
	}
	if payload.Quarter == 0 {
		payload.Quarter = (int(now.Month())-1)/3 + 1
	}

	tracker := j.metrics().Track(TaskReportQuarterWarmup)
	var resultErr error
	defer func() {
		_ = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("year", payload.Year), slog.Int("quarter", payload.Quarter))
	logger.Info("starting quarter report warmup")

	// Long builds get their own timeout so a stuck upstream cannot wedge the
	// worker queue.
	warmCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	rep, err := j.Builder.Build(warmCtx, report.Request{
		Unit:    report.UnitQuarter,
		Year:    payload.Year,
		Quarter: payload.Quarter,
	})
	if err != nil {
		resultErr = err
		logger.Error("quarter report warmup", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed quarter report warmup",
		slog.Bool("cached", rep.Cached),
		slog.Duration("duration", time.Since(now)),
	)
	return resultErr
}

func (j *QuarterWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportQuarterWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportQuarterWarmup))
}

func (j *QuarterWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *QuarterWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
