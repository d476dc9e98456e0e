// Package scheduler runs the bond price update on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"statement-importer/internal/importer"
	"statement-importer/internal/quotes"
	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// Job is one scheduled run; it is satisfied by importer.BondPriceUpdater
type Job interface {
	Run(ctx context.Context, status importer.StatusFunc, progress quotes.ProgressFunc) (*importer.UpdateResult, error)
}

// RunRecord describes the outcome of the last run
type RunRecord struct {
	Started  time.Time              `json:"started"`
	Finished time.Time              `json:"finished"`
	Result   *importer.UpdateResult `json:"result,omitempty"`
	Err      error                  `json:"-"`
}

var _ Job = (*importer.BondPriceUpdater)(nil)

// Scheduler manages the cron entry of the bond price update. Runs never
// overlap; a tick that fires while a run is in progress is skipped.
type Scheduler struct {
	cron    *cron.Cron
	job     Job
	ctx     context.Context
	timeout time.Duration
	logger  logger.Logger

	mu      sync.Mutex
	running bool
	last    *RunRecord
	runs    int
}

// New creates a scheduler whose runs derive from ctx. A positive timeout
// bounds each run.
func New(ctx context.Context, job Job, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		job:     job,
		ctx:     ctx,
		timeout: timeout,
		logger:  logger.GetGlobalLogger().WithComponent("scheduler"),
	}
}

// Register adds the update on a standard five-field cron expression
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunNow); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "schedule.cron", spec,
			fmt.Errorf("register bond price update: %w", err))
	}
	s.logger.WithField("cron", spec).Info("Bond price update scheduled")
	return nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop stops the scheduler and waits for a running update to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Next returns the time of the next scheduled run, zero when none is
// registered or the scheduler is not started
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunNow executes the update immediately. Failures, panics included, are
// logged and recorded; the scheduler keeps running.
func (s *Scheduler) RunNow() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("Previous bond price update still running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	record := &RunRecord{Started: time.Now()}
	defer s.finish(record)

	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info("Running bond price update")

	record.Result, record.Err = s.job.Run(ctx, func(step importer.Step, status importer.StepStatus, err error) {
		if status == importer.StatusError {
			s.logger.WithError(err).WithField("step", step).Error("Bond price update step failed")
		}
	}, nil)

	if record.Err != nil {
		s.logger.WithError(record.Err).Error("Bond price update failed")
	} else if record.Result != nil && record.Result.Quotes != nil {
		s.logger.WithFields(logger.Fields{
			"symbols": len(record.Result.Symbols),
			"stored":  record.Result.Quotes.Emitted,
		}).Info("Bond price update finished")
	}
}

// finish records the run and clears the running flag. It must be deferred so
// a panicking job does not block every later tick.
func (s *Scheduler) finish(record *RunRecord) {
	if r := recover(); r != nil {
		record.Result = nil
		record.Err = errors.InternalError(errors.CodeUnexpectedError, "bond price update", fmt.Errorf("panic: %v", r))
		s.logger.WithError(record.Err).Error("Bond price update panicked")
	}
	record.Finished = time.Now()

	s.mu.Lock()
	s.running = false
	s.last = record
	s.runs++
	s.mu.Unlock()
}

// LastRun returns the record of the most recent run, nil before the first
func (s *Scheduler) LastRun() *RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Runs returns the number of completed runs
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}
