package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"classroom_sync/internal/app"
	"classroom_sync/internal/domain/classroom"
)

// SyncRunner runs one reconciliation with a credential.
type SyncRunner interface {
	Sync(ctx context.Context, cred classroom.Credential) (*app.SyncResult, error)
}

// Reporter receives the outcome of every scheduled run. result may be nil
// when the run failed before it started.
type Reporter interface {
	Report(ctx context.Context, result *app.SyncResult, err error)
}

type SyncScheduler struct {
	cronEngine *cron.Cron
	runner     SyncRunner
	cred       classroom.Credential
	spec       string
	timeout    time.Duration
	reporters  []Reporter
	logger     *logrus.Entry
	running    atomic.Bool

	// ctx bounds scheduled runs; Stop cancels it.
	ctx    context.Context
	cancel context.CancelFunc
}

func NewSyncScheduler(
	runner SyncRunner,
	cred classroom.Credential,
	spec string, // e.g., "0 */6 * * *" (every 6 hours)
	timeout time.Duration,
	logger *logrus.Entry,
	reporters ...Reporter,
) *SyncScheduler {
	logger = logger.WithField("component", "scheduler")
	ctx, cancel := context.WithCancel(context.Background())
	return &SyncScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.Local),
			cron.WithLogger(cron.PrintfLogger(logger)),
		),
		runner:    runner,
		cred:      cred,
		spec:      spec,
		timeout:   timeout,
		reporters: reporters,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start registers the periodic sync job. Without a configured credential
// nothing is scheduled.
func (s *SyncScheduler) Start() error {
	if s.cred.Empty() {
		s.logger.Warn("No Google credential configured, periodic sync disabled")
		return nil
	}
	if _, err := s.cronEngine.AddFunc(s.spec, s.runScheduled); err != nil {
		return err
	}
	s.cronEngine.Start()
	s.logger.WithField("spec", s.spec).Info("Sync scheduler started")
	return nil
}

func (s *SyncScheduler) runScheduled() {
	s.RunOnce(s.ctx)
}

// RunOnce performs one bounded sync run and reports it. A run that starts
// while another is still going is skipped.
func (s *SyncScheduler) RunOnce(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Previous sync still running, skipping")
		return
	}
	defer s.running.Store(false)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info("Scheduled sync triggered")
	result, err := s.runner.Sync(ctx, s.cred)
	if err != nil {
		s.logger.WithError(err).Error("Scheduled sync failed")
	}
	for _, r := range s.reporters {
		r.Report(context.WithoutCancel(ctx), result, err)
	}
}

// Stop cancels a running sync, which stops fetching but finishes the writes
// it has started, and waits for it to return.
func (s *SyncScheduler) Stop() {
	s.logger.Info("Stopping sync scheduler...")
	s.cancel()
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Sync scheduler gracefully stopped.")
}
