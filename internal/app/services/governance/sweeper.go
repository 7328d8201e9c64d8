package governance

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/xrpl_service_layer/pkg/logger"
)

// DefaultSweepSchedule runs the cooldown sweep hourly.
const DefaultSweepSchedule = "@every 1h"

// Sweeper periodically drops expired cooldowns from a Service.
type Sweeper struct {
	svc      *Service
	schedule string
	log      *logger.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewSweeper creates a sweeper; an empty schedule uses DefaultSweepSchedule.
func NewSweeper(svc *Service, schedule string, log *logger.Logger) *Sweeper {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if log == nil {
		log = logger.NewDefault("governance-sweeper")
	}
	return &Sweeper{svc: svc, schedule: schedule, log: log}
}

func (s *Sweeper) Name() string { return "governance-sweeper" }

// Start validates the schedule and launches the cron runner.
func (s *Sweeper) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.svc.Sweep() }); err != nil {
		return fmt.Errorf("governance sweep schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	s.log.WithField("schedule", s.schedule).Info("governance sweeper started")
	return nil
}

// Stop halts the runner and waits for a running sweep, bounded by ctx.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	done := c.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
