package jobs

import (
	"context"
	"log/slog"

	"turbodelivery/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// DefaultReofferSchedule runs the re-offer sweep every ten seconds.
const DefaultReofferSchedule = "*/10 * * * * *"

type OrderReofferer interface {
	Handle(ctx context.Context, cmd commands.ReofferPendingOrdersCommand) (int, error)
}

// ReofferJob expires stale offers and offers waiting orders again.
type ReofferJob struct {
	handler  OrderReofferer
	schedule string
	batch    int
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewReofferJob(handler OrderReofferer, schedule string, batch int, logger *slog.Logger) *ReofferJob {
	if schedule == "" {
		schedule = DefaultReofferSchedule
	}
	if batch <= 0 {
		batch = commands.DefaultReofferBatch
	}
	return &ReofferJob{
		handler:  handler,
		schedule: schedule,
		batch:    batch,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "reoffer_job"),
	}
}

func (j *ReofferJob) Start() error {
	cmd, err := commands.NewReofferPendingOrdersCommand(j.batch)
	if err != nil {
		return err
	}

	_, err = j.cron.AddFunc(j.schedule, func() {
		ctx := context.Background()
		offered, handleErr := j.handler.Handle(ctx, cmd)
		if handleErr != nil {
			j.logger.ErrorContext(ctx, "Reoffer job failed", "error", handleErr)
			return
		}
		if offered > 0 {
			j.logger.InfoContext(ctx, "Orders re-offered", "count", offered)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Reoffer job started", "schedule", j.schedule)
	return nil
}

// Stop waits for a running sweep to finish.
func (j *ReofferJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Reoffer job stopped")
}
