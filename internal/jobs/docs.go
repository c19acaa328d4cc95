// Package jobs provides background work for the order pipeline.
//
// It carries two kinds of components:
//
// 1. The job handler surface of the asynchronous queue. HandlerRegistry maps
// job type names to ports.JobHandler implementations; the composition root
// registers every handler explicitly at startup. ProcessOrderJobHandler is
// the only handler this service registers and wraps the processing command
// handler, translating its result into the transport's ack/retry/fail
// decision.
//
// 2. Scheduled jobs built on github.com/robfig/cron/v3, managed through
// JobManager:
//
//	jobManager := jobs.NewJobManager(uowFactory, queue, time.Minute, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// EnqueueSweepJob runs every 30 seconds and re-enqueues orders stuck in
// Pending, recovering processing jobs lost between intake commit and queue
// handoff. Re-enqueueing is idempotent under at-least-once delivery, so the
// sweep never needs to know whether the original job truly vanished.
package jobs
