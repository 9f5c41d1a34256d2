package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the database answers but an index is missing.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckMissing indicates an index that has not been provisioned.
	CheckMissing CheckResult = "missing"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db      DBPinger
	indexes IndexChecker
	names   []string
}

// New creates a Service. indexes can be nil, in which case only the database is checked.
func New(db DBPinger, indexes IndexChecker, indexNames ...string) *Service {
	return &Service{db: db, indexes: indexes, names: indexNames}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks["database"] = CheckOK

	status := Healthy
	if s.indexes != nil {
		for _, name := range s.names {
			exists, err := s.indexes.IndexExists(ctx, name)
			switch {
			case err != nil:
				checks[name] = CheckError
			case !exists:
				checks[name] = CheckMissing
			default:
				checks[name] = CheckOK
				continue
			}
			status = Degraded
		}
	}

	return Report{Status: status, Checks: checks}
}
