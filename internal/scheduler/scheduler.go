// Package scheduler runs periodic maintenance jobs on gocron.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Job is one unit of periodic work
type Job func(ctx context.Context) error

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a new scheduler instance
func New(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Every registers job to run at interval, starting as soon as the scheduler
// starts. A run that is still going when the next one is due is not overlapped.
func (s *Scheduler) Every(interval time.Duration, name string, job Job) error {
	_, err := s.scheduler.Every(interval).SingletonMode().Tag(name).Do(func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Debug("scheduled job finished", zap.String("job", name), zap.Duration("duration", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	return nil
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop cancels running jobs and waits for the scheduler to halt
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}
