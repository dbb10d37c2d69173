// Package schedule repeats a maintenance job on a cron schedule
package schedule

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Didstopia/forgeops/internal/logging"
)

// JobFunc is one run of a scheduled job
type JobFunc func(ctx context.Context) error

// Scheduler manages cron-based job execution
type Scheduler struct {
	spec string
	name string
	job  JobFunc
	log  logrus.FieldLogger
}

func newParser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// ValidateSpec validates a cron expression
func ValidateSpec(spec string) error {
	if _, err := newParser().Parse(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

// New creates a new Scheduler. Returns an error if the cron spec is invalid.
// A nil logger discards output.
func New(spec, name string, job JobFunc, log logrus.FieldLogger) (*Scheduler, error) {
	if err := ValidateSpec(spec); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Scheduler{
		spec: spec,
		name: name,
		job:  job,
		log:  log.WithField("job", name),
	}, nil
}

// Run executes the job immediately, then starts the cron loop.
// It blocks until the context is cancelled.
// Job errors are logged but do not stop the scheduler.
// Overlapping runs are skipped via cron.SkipIfStillRunning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.runOnce(ctx, "immediate")

	if ctx.Err() != nil {
		return nil
	}

	c := cron.New(
		cron.WithParser(newParser()),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(s.log))),
	)

	if _, err := c.AddFunc(s.spec, func() { s.runOnce(ctx, "scheduled") }); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	c.Start()
	logging.Event(s.log, "schedule_started", logrus.Fields{"schedule": s.spec}, logrus.InfoLevel)

	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()

	logging.Event(s.log, "schedule_stopped", nil, logrus.InfoLevel)
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context, trigger string) {
	s.log.WithField("trigger", trigger).Info("Running job")
	if err := s.job(ctx); err != nil {
		s.log.WithError(err).Error("Job failed")
	}
}
