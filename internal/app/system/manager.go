package system

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/R3E-Network/xrpl_service_layer/pkg/logger"
)

// Manager starts registered services in order and stops them in reverse.
type Manager struct {
	mu       sync.Mutex
	services []Service
	started  []Service
	log      *logger.Logger
}

// NewManager creates an empty manager.
func NewManager(log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDefault("system")
	}
	return &Manager{log: log}
}

// Register adds a service. Registration after Start is rejected.
func (m *Manager) Register(svc Service) error {
	if svc == nil {
		return fmt.Errorf("system: nil service")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.started) > 0 {
		return fmt.Errorf("system: cannot register %s after start", svc.Name())
	}
	for _, existing := range m.services {
		if existing.Name() == svc.Name() {
			return fmt.Errorf("system: service %s already registered", svc.Name())
		}
	}
	m.services = append(m.services, svc)
	return nil
}

// Start starts every service in registration order. On failure the services
// already started are stopped again.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, svc := range m.services {
		if err := svc.Start(ctx); err != nil {
			m.log.WithError(err).WithField("service", svc.Name()).Error("service failed to start")
			stopErr := m.stopLocked(ctx)
			return errors.Join(fmt.Errorf("start %s: %w", svc.Name(), err), stopErr)
		}
		m.started = append(m.started, svc)
		m.log.WithField("service", svc.Name()).Info("service started")
	}
	return nil
}

// Stop stops started services in reverse order and returns every error.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked(ctx)
}

func (m *Manager) stopLocked(ctx context.Context) error {
	var errs []error
	for i := len(m.started) - 1; i >= 0; i-- {
		svc := m.started[i]
		if err := svc.Stop(ctx); err != nil {
			m.log.WithError(err).WithField("service", svc.Name()).Warn("service failed to stop")
			errs = append(errs, fmt.Errorf("stop %s: %w", svc.Name(), err))
			continue
		}
		m.log.WithField("service", svc.Name()).Info("service stopped")
	}
	m.started = nil
	return errors.Join(errs...)
}

// Services lists registered service names.
func (m *Manager) Services() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.services))
	for i, svc := range m.services {
		names[i] = svc.Name()
	}
	return names
}
