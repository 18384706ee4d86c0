// Package scheduler runs the periodic housekeeping of the gateway.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Replayer retries applications whose second saga step failed.
type Replayer interface {
	ReplayPending(ctx context.Context, limit int) (int, error)
}

// Pruner forgets finished sessions.
type Pruner interface {
	Prune(before time.Time) int
}

type Sweeper struct {
	sched    *gocron.Scheduler
	replayer Replayer
	pruner   Pruner

	ttl     time.Duration
	batch   int
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*Sweeper)

// WithSessionTTL sets how long finished sessions are kept.
func WithSessionTTL(d time.Duration) Option { return func(s *Sweeper) { s.ttl = d } }

func WithBatch(n int) Option { return func(s *Sweeper) { s.batch = n } }

func WithLogger(l *zap.Logger) Option { return func(s *Sweeper) { s.log = l } }

func WithClock(now func() time.Time) Option { return func(s *Sweeper) { s.now = now } }

// New builds a sweeper; either dependency may be nil.
func New(r Replayer, p Pruner, opts ...Option) *Sweeper {
	s := &Sweeper{
		sched:    gocron.NewScheduler(time.UTC),
		replayer: r,
		pruner:   p,
		ttl:      2 * time.Hour,
		batch:    50,
		timeout:  30 * time.Second,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start runs the sweep every interval, never two at once.
func (s *Sweeper) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler: interval must be positive, got %v", interval)
	}
	_, err := s.sched.Every(interval).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, _, err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.sched.StartAsync()
	return nil
}

func (s *Sweeper) Stop() { s.sched.Stop() }

// RunOnce replays due pending applications and prunes old sessions.
func (s *Sweeper) RunOnce(ctx context.Context) (replayed, pruned int, err error) {
	if s.replayer != nil {
		replayed, err = s.replayer.ReplayPending(ctx, s.batch)
	}
	if s.pruner != nil {
		pruned = s.pruner.Prune(s.now().Add(-s.ttl))
	}
	if replayed > 0 || pruned > 0 {
		s.log.Info("sweep", zap.Int("replayed", replayed), zap.Int("pruned", pruned))
	}
	return replayed, pruned, err
}
