// Package health aggregates component availability checks for the
// health endpoint.
package health

import "context"

// Status is the aggregated service status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "healthy"
	// Degraded indicates at least one component is failing.
	Degraded Status = "degraded"
)

// CheckFunc probes a single component.
type CheckFunc func(ctx context.Context) error

// Report maps component names to "ok" or "error" plus the overall status.
type Report struct {
	Status Status
	Checks map[string]string
}

// Service runs named component checks.
type Service struct {
	names  []string
	checks map[string]CheckFunc
}

// New creates an empty health service.
func New() *Service {
	return &Service{checks: make(map[string]CheckFunc)}
}

// Register adds a component check under name. Later registrations with
// the same name replace earlier ones.
func (s *Service) Register(name string, check CheckFunc) *Service {
	if _, exists := s.checks[name]; !exists {
		s.names = append(s.names, name)
	}
	s.checks[name] = check
	return s
}

// Check probes every registered component. The service is degraded as
// soon as any check fails.
func (s *Service) Check(ctx context.Context) Report {
	report := Report{
		Status: Healthy,
		Checks: make(map[string]string, len(s.names)),
	}

	for _, name := range s.names {
		if err := s.checks[name](ctx); err != nil {
			report.Checks[name] = "error"
			report.Status = Degraded
		} else {
			report.Checks[name] = "ok"
		}
	}
	return report
}
