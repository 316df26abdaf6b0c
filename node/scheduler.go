package node

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/andydunstall/primegossip/pkg/log"
)

var ErrSchedulerRunning = errors.New("scheduler already running")

type task struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

// Scheduler runs the node's periodic tasks: probing peers, evicting stale
// peers and propagating new values.
//
// Each task runs on its own ticker, after a random initial delay so nodes
// started together don't synchronise. A task does nothing while the node is
// asleep. A failed or panicking task run is logged and the task continues on
// the next tick.
type Scheduler struct {
	node      *Node
	generator Generator
	conf      *SchedulerConfig

	running *atomic.Bool

	logger log.Logger
}

func NewScheduler(
	node *Node,
	generator Generator,
	conf *SchedulerConfig,
	logger log.Logger,
) *Scheduler {
	return &Scheduler{
		node:      node,
		generator: generator,
		conf:      conf,
		running:   atomic.NewBool(false),
		logger:    logger.WithSubsystem("scheduler"),
	}
}

// Run runs the tasks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSchedulerRunning
	}
	defer s.running.Store(false)

	s.logger.Info(
		"starting scheduler",
		zap.Duration("probe-interval", s.conf.ProbeInterval),
		zap.Duration("evict-interval", s.conf.EvictInterval),
		zap.Duration("propagate-interval", s.conf.PropagateInterval),
	)

	var wg sync.WaitGroup
	for _, t := range s.tasks() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.schedule(ctx, t)
		}()
	}
	wg.Wait()

	return nil
}

// Probe sends a probe to every known peer.
func (s *Scheduler) Probe(ctx context.Context) error {
	probe := Message{
		Header: Header{TTL: 0},
		Body:   Probe{},
	}
	if err := s.node.Broadcast(ctx, probe, false); err != nil {
		return fmt.Errorf("broadcast probe: %w", err)
	}
	return nil
}

// Evict removes peers that haven't been heard from within the stale
// threshold.
func (s *Scheduler) Evict(_ context.Context) error {
	evicted := s.node.EvictStale(s.conf.StaleThreshold)
	for _, id := range evicted {
		s.logger.Info("evicted stale peer", zap.Int("peer", int(id)))
	}
	return nil
}

// Propagate generates the next value from the best known value, adopts it and
// sends it to every known peer.
func (s *Scheduler) Propagate(ctx context.Context) error {
	current := s.node.BestValue()
	next := s.generator.Next(current)
	if !s.node.Adopt(next) {
		// Either the generator didn't produce a larger value, or a larger
		// value was received while generating.
		s.logger.Debug(
			"skipping propagate; generated value not larger than best value",
			zap.Stringer("value", next),
		)
		return nil
	}

	s.logger.Debug("propagating value", zap.Stringer("value", next))

	update := Message{
		Header: Header{TTL: s.conf.PropagateTTL},
		Body:   ValueUpdate{Value: next},
	}
	if err := s.node.Broadcast(ctx, update, false); err != nil {
		return fmt.Errorf("broadcast value: %w", err)
	}
	return nil
}

func (s *Scheduler) tasks() []task {
	return []task{
		{name: "probe", interval: s.conf.ProbeInterval, run: s.Probe},
		{name: "evict", interval: s.conf.EvictInterval, run: s.Evict},
		{name: "propagate", interval: s.conf.PropagateInterval, run: s.Propagate},
	}
}

func (s *Scheduler) schedule(ctx context.Context, t task) {
	select {
	case <-time.After(s.jitter()):
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx, t)
		case <-ctx.Done():
			return
		}
	}
}

// jitter returns a random delay in [0, MaxJitter).
func (s *Scheduler) jitter() time.Duration {
	if s.conf.MaxJitter <= 0 {
		return 0
	}
	return rand.N(s.conf.MaxJitter)
}

// tick runs the task once if the node is awake.
func (s *Scheduler) tick(ctx context.Context, t task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(
				"task panic",
				zap.String("task", t.name),
				zap.Any("err", r),
			)
			s.node.Events().Append(errorEvent(fmt.Errorf("%s: panic: %v", t.name, r)))
			s.node.Metrics().TaskFailures.WithLabelValues(t.name).Inc()
		}
	}()

	if !s.node.Awake() {
		return
	}

	if err := t.run(ctx); err != nil {
		s.logger.Error(
			"task failed",
			zap.String("task", t.name),
			zap.Error(err),
		)
		s.node.Events().Append(errorEvent(fmt.Errorf("%s: %w", t.name, err)))
		s.node.Metrics().TaskFailures.WithLabelValues(t.name).Inc()
	}
}
