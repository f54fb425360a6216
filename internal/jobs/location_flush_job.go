package jobs

import (
	"context"
	"log/slog"

	"turbodelivery/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// DefaultLocationFlushSchedule matches the default presence persist interval.
const DefaultLocationFlushSchedule = "*/30 * * * * *"

type LocationFlusher interface {
	Handle(ctx context.Context, cmd commands.FlushCourierLocationsCommand) error
}

// LocationFlushJob writes out courier positions the presence registry held back.
type LocationFlushJob struct {
	handler  LocationFlusher
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewLocationFlushJob(handler LocationFlusher, schedule string, logger *slog.Logger) *LocationFlushJob {
	if schedule == "" {
		schedule = DefaultLocationFlushSchedule
	}
	return &LocationFlushJob{
		handler:  handler,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "location_flush_job"),
	}
}

func (j *LocationFlushJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx := context.Background()
		if err := j.handler.Handle(ctx, commands.NewFlushCourierLocationsCommand()); err != nil {
			j.logger.ErrorContext(ctx, "Location flush job failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Location flush job started", "schedule", j.schedule)
	return nil
}

// Stop runs one last flush after the schedule has stopped, so positions cached since the
// previous run are not lost on shutdown.
func (j *LocationFlushJob) Stop() {
	<-j.cron.Stop().Done()
	ctx := context.Background()
	if err := j.handler.Handle(ctx, commands.NewFlushCourierLocationsCommand()); err != nil {
		j.logger.ErrorContext(ctx, "Final location flush failed", "error", err)
	}
	j.logger.InfoContext(ctx, "Location flush job stopped")
}
