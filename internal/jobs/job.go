package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/maheshrc27/postscheduler/internal/jobs"

// Clock returns the current time. Jobs read time only through it.
type Clock func() time.Time

// Job is one periodic unit of work. Run must be safe to call while a
// previous run of the same job is still in progress.
type Job interface {
	Name() string
	Run(ctx context.Context, now Clock) error
}

// Runner triggers jobs on cron schedules and bounds each run.
type Runner struct {
	cron        *cron.Cron
	clock       Clock
	maxDuration time.Duration
	logger      *slog.Logger
	tracer      trace.Tracer
	runs        metric.Int64Counter
}

func NewRunner(maxDuration time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	runs, err := otel.Meter(instrumentationName).Int64Counter("jobs.runs",
		metric.WithDescription("Completed job runs by outcome"))
	if err != nil {
		logger.Info(err.Error())
	}

	return &Runner{
		cron:        cron.New(),
		clock:       time.Now,
		maxDuration: maxDuration,
		logger:      logger,
		tracer:      otel.Tracer(instrumentationName),
		runs:        runs,
	}
}

// Schedule registers j under a six-field cron spec (seconds first) or an
// @every descriptor.
func (r *Runner) Schedule(spec string, j Job) error {
	return r.cron.AddFunc(spec, func() {
		r.RunOnce(context.Background(), j)
	})
}

// RunOnce runs j under the configured time limit. Failures are logged and
// returned; the next tick simply runs the job again.
func (r *Runner) RunOnce(ctx context.Context, j Job) error {
	if r.maxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.maxDuration)
		defer cancel()
	}

	ctx, span := r.tracer.Start(ctx, "job."+j.Name())
	defer span.End()

	start := r.clock()
	err := j.Run(ctx, r.clock)

	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("job failed", "job", j.Name(), "error", err, "elapsed", time.Since(start))
	} else {
		r.logger.Info("job finished", "job", j.Name(), "elapsed", time.Since(start))
	}

	if r.runs != nil {
		r.runs.Add(ctx, 1, metric.WithAttributes(
			attribute.String("job", j.Name()),
			attribute.String("outcome", outcome),
		))
	}
	return err
}

func (r *Runner) Start() {
	r.cron.Start()
}

func (r *Runner) Stop() {
	r.cron.Stop()
}
