// Package scheduler runs optional recurring jobs alongside the
// request-driven analysis pipeline: periodic archive compaction and a
// batch re-analysis sweep over recently archived windows, mirroring the
// reference deployment's cron-triggered reprocessing job.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/NetCockpit/nc-analyzer/pkg/log"
)

// Scheduler wraps a gocron scheduler with the two recurring jobs this
// service needs: archive compaction and batch reprocessing. Reprocessing
// is skipped when its interval is zero; compaction is always registered.
type Scheduler struct {
	s gocron.Scheduler
}

// New creates a Scheduler but does not start it.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("scheduler: creating gocron scheduler: %w", err)
	}
	return &Scheduler{s: s}, nil
}

// RegisterReprocessing schedules fn to run every interval, passing it a
// background context; Shutdown does not cancel that context and instead
// waits for a run in progress to finish. An interval of zero disables
// the job.
func (sched *Scheduler) RegisterReprocessing(interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		log.Info("scheduler: reprocessing interval is zero, job disabled")
		return nil
	}
	_, err := sched.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := fn(context.Background()); err != nil {
				log.Errorf("scheduler: reprocessing run failed: %v", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("scheduler: registering reprocessing job: %w", err)
	}
	log.Infof("scheduler: reprocessing job registered, interval %s", interval)
	return nil
}

// RegisterArchiveCompaction schedules fn (typically a merge of small
// per-request archive files into daily rollups) to run once per day at
// the given hour, UTC.
func (sched *Scheduler) RegisterArchiveCompaction(hourUTC int, fn func(ctx context.Context) error) error {
	_, err := sched.s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hourUTC), 0, 0))),
		gocron.NewTask(func() {
			if err := fn(context.Background()); err != nil {
				log.Errorf("scheduler: archive compaction failed: %v", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("scheduler: registering archive compaction job: %w", err)
	}
	log.Infof("scheduler: archive compaction job registered for %02d:00 UTC", hourUTC)
	return nil
}

// Start begins running registered jobs.
func (sched *Scheduler) Start() {
	sched.s.Start()
}

// Shutdown stops the scheduler and waits for in-flight jobs to finish.
func (sched *Scheduler) Shutdown() error {
	return sched.s.Shutdown()
}
