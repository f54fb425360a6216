// Package jobs runs the periodic work of the dispatch service on github.com/robfig/cron/v3
// schedules with a seconds field.
//
// # Available Jobs
//
//  1. ReofferJob - expires offers nobody accepted within the offer TTL and offers waiting
//     orders to the couriers that are eligible now (default every 10 seconds)
//  2. LocationFlushJob - persists courier positions the presence registry throttled
//     (default every 30 seconds, plus once on shutdown)
//
// # Usage
//
//	jobManager := jobs.NewJobManager(reofferHandler, flushHandler, jobs.Schedules{}, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// Job failures are logged and never stop the schedule.
package jobs
