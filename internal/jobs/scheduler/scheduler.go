package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/review-digest/internal/platform/logger"
)

// SweepFunc runs one pass over all reviewed modules.
type SweepFunc func(ctx context.Context) error

// Scheduler triggers a sweep on a cron expression. Overlapping runs are
// skipped, never queued.
type Scheduler struct {
	log     *logger.Logger
	cron    *cron.Cron
	spec    string
	timeout time.Duration

	mu      sync.Mutex
	entryID cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

type Config struct {
	// Spec is a standard 5-field cron expression or a descriptor like "@hourly".
	Spec string
	// Timeout bounds a single sweep; zero means no bound.
	Timeout  time.Duration
	Location *time.Location
}

func New(log *logger.Logger, cfg Config) (*Scheduler, error) {
	spec := strings.TrimSpace(cfg.Spec)
	if spec == "" {
		return nil, fmt.Errorf("missing cron spec")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	scoped := log.With("service", "SweepScheduler")
	cl := cronLogger{log: scoped}
	return &Scheduler{
		log: scoped,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		spec:    spec,
		timeout: cfg.Timeout,
	}, nil
}

// Schedule registers fn, replacing any previous registration.
func (s *Scheduler) Schedule(fn SweepFunc) error {
	if fn == nil {
		return fmt.Errorf("sweep func required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}
	id, err := s.cron.AddFunc(s.spec, func() { s.run(fn) })
	if err != nil {
		return fmt.Errorf("adding cron entry: %w", err)
	}
	s.entryID = id
	s.log.Info("sweep scheduled", "cron", s.spec)
	return nil
}

func (s *Scheduler) run(fn SweepFunc) {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()
	if parent == nil {
		parent = context.Background()
	}
	ctx := parent
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.timeout)
		defer cancel()
	}
	start := time.Now()
	if err := fn(ctx); err != nil {
		s.log.Warn("scheduled sweep failed", "error", err, "elapsed", time.Since(start).String())
		return
	}
	s.log.Debug("scheduled sweep done", "elapsed", time.Since(start).String())
}

// Start begins firing; runs in flight are cancelled when ctx ends or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running sweep to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()
}

// Next reports the next fire time, or zero when nothing is scheduled.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
