package jobs

import (
	"fmt"
	"log/slog"
)

type Schedules struct {
	Reoffer       string
	ReofferBatch  int
	LocationFlush string
}

// JobManager starts and stops the background jobs together.
type JobManager struct {
	reofferJob       *ReofferJob
	locationFlushJob *LocationFlushJob
}

func NewJobManager(
	reofferHandler OrderReofferer,
	flushHandler LocationFlusher,
	schedules Schedules,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		reofferJob:       NewReofferJob(reofferHandler, schedules.Reoffer, schedules.ReofferBatch, logger),
		locationFlushJob: NewLocationFlushJob(flushHandler, schedules.LocationFlush, logger),
	}
}

// StartAll starts every job. If one fails to start, the ones already running are stopped.
func (jm *JobManager) StartAll() error {
	if err := jm.reofferJob.Start(); err != nil {
		return fmt.Errorf("failed to start reoffer job: %w", err)
	}

	if err := jm.locationFlushJob.Start(); err != nil {
		jm.reofferJob.Stop()
		return fmt.Errorf("failed to start location flush job: %w", err)
	}

	return nil
}

func (jm *JobManager) StopAll() {
	jm.reofferJob.Stop()
	jm.locationFlushJob.Stop()
}
