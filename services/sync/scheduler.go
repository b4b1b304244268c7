package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"tutorhive/models"
	"tutorhive/services/calendar"
)

// RunReason reports why a scheduled run did or did not reconcile. The
// short-circuit reasons are expected outcomes, not errors.
type RunReason string

const (
	RunCompleted      RunReason = "completed"
	RunAlreadyRunning RunReason = "already_running"
	RunTooFrequent    RunReason = "too_frequent"
	RunNotConnected   RunReason = "not_connected"
)

// initialRunDelay spaces the first automatic run away from connection setup
// so the connect request returns before the first background pass.
const initialRunDelay = 5 * time.Second

// Scheduler drives periodic reconciliation for one tutor. Each instance
// owns its own single-flight state; schedulers are constructed when a tutor
// connects their calendar and stopped when they disconnect.
type Scheduler struct {
	engine      *Engine
	tutorID     string
	interval    time.Duration
	minInterval time.Duration
	windowDays  int
	logger      *zap.Logger

	mu         sync.Mutex
	inProgress bool
	lastRunAt  time.Time
	started    bool
	stopChan   chan struct{}
}

// NewScheduler builds a stopped scheduler for the tutor.
func NewScheduler(engine *Engine, tutorID string, interval, minInterval time.Duration, windowDays int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		engine:      engine,
		tutorID:     tutorID,
		interval:    interval,
		minInterval: minInterval,
		windowDays:  windowDays,
		logger:      logger,
	}
}

// Start launches the recurring timer plus one delayed initial run. Calling
// Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.stopChan = make(chan struct{})
	stopChan := s.stopChan
	s.mu.Unlock()

	s.logger.Info("starting calendar sync scheduler",
		zap.String("tutorId", s.tutorID),
		zap.Duration("interval", s.interval))

	go s.loop(ctx, stopChan)
}

// Stop cancels the timer. Safe to call from any state; an in-flight
// reconcile pass is allowed to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	close(s.stopChan)
	s.logger.Info("stopped calendar sync scheduler", zap.String("tutorId", s.tutorID))
}

func (s *Scheduler) loop(ctx context.Context, stopChan chan struct{}) {
	initial := time.NewTimer(initialRunDelay)
	defer initial.Stop()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-initial.C:
			s.runLogged(ctx)
		case <-ticker.C:
			s.runLogged(ctx)
		case <-stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runLogged(ctx context.Context) {
	reason, result, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Warn("scheduled sync run failed",
			zap.String("tutorId", s.tutorID),
			zap.String("reason", string(reason)),
			zap.Error(err))
		return
	}
	if reason != RunCompleted {
		s.logger.Debug("scheduled sync run skipped",
			zap.String("tutorId", s.tutorID),
			zap.String("reason", string(reason)))
		return
	}
	s.logger.Debug("scheduled sync run completed",
		zap.String("tutorId", s.tutorID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated))
}

// RunOnce performs one guarded reconcile pass. The single-flight and
// minimum-interval guards are checked and set under one lock, so concurrent
// callers cannot both pass.
func (s *Scheduler) RunOnce(ctx context.Context) (RunReason, models.SyncResult, error) {
	s.mu.Lock()
	if s.inProgress {
		s.mu.Unlock()
		return RunAlreadyRunning, models.SyncResult{}, nil
	}
	if !s.lastRunAt.IsZero() && time.Since(s.lastRunAt) < s.minInterval {
		s.mu.Unlock()
		return RunTooFrequent, models.SyncResult{}, nil
	}
	s.inProgress = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inProgress = false
		s.lastRunAt = time.Now()
		s.mu.Unlock()
	}()

	from := time.Now()
	to := from.AddDate(0, 0, s.windowDays)

	result, err := s.engine.Reconcile(ctx, s.tutorID, from, to)
	if err != nil {
		var notConnected *calendar.NotConnectedError
		if errors.As(err, &notConnected) {
			return RunNotConnected, models.SyncResult{}, nil
		}
		return RunCompleted, result, err
	}
	return RunCompleted, result, nil
}

// Registry tracks one scheduler per connected tutor, tied to the calendar
// connection lifecycle.
type Registry struct {
	mu         sync.Mutex
	schedulers map[string]*Scheduler
	build      func(tutorID string) *Scheduler
}

// NewRegistry builds a registry constructing schedulers with the given
// factory.
func NewRegistry(build func(tutorID string) *Scheduler) *Registry {
	return &Registry{
		schedulers: make(map[string]*Scheduler),
		build:      build,
	}
}

// Ensure starts (or returns the already-running) scheduler for the tutor.
func (r *Registry) Ensure(ctx context.Context, tutorID string) *Scheduler {
	r.mu.Lock()
	s, ok := r.schedulers[tutorID]
	if !ok {
		s = r.build(tutorID)
		r.schedulers[tutorID] = s
	}
	r.mu.Unlock()

	s.Start(ctx)
	return s
}

// Get returns the tutor's scheduler, if one is registered.
func (r *Registry) Get(tutorID string) (*Scheduler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedulers[tutorID]
	return s, ok
}

// Remove stops and forgets the tutor's scheduler.
func (r *Registry) Remove(tutorID string) {
	r.mu.Lock()
	s, ok := r.schedulers[tutorID]
	delete(r.schedulers, tutorID)
	r.mu.Unlock()

	if ok {
		s.Stop()
	}
}

// StopAll stops every registered scheduler (process shutdown).
func (r *Registry) StopAll() {
	r.mu.Lock()
	schedulers := make([]*Scheduler, 0, len(r.schedulers))
	for _, s := range r.schedulers {
		schedulers = append(schedulers, s)
	}
	r.schedulers = make(map[string]*Scheduler)
	r.mu.Unlock()

	for _, s := range schedulers {
		s.Stop()
	}
}
