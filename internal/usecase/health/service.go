package health

import (
	"context"
	"errors"

	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/domain/titleclean"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckUnconfigured marks an optional component without credentials. It does not degrade the status.
	CheckUnconfigured CheckResult = "unconfigured"
)

// Report aggregates health check results.
type Report struct {
	Status   Status
	Checks   map[string]CheckResult
	SelfTest []titleclean.Result
}

// Service coordinates health checks.
type Service struct {
	db       DBPinger
	llm      LLMChecker
	selfTest SelfTester
}

// New creates a Service. llm and selfTest can be nil.
func New(db DBPinger, llm LLMChecker, selfTest SelfTester) *Service {
	return &Service{db: db, llm: llm, selfTest: selfTest}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	var report Report

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.llm != nil {
		err := s.llm.HealthCheck(ctx)
		switch {
		case err == nil:
			checks["llm"] = CheckOK
		case errors.Is(err, domain.ErrMissingAPIKey):
			checks["llm"] = CheckUnconfigured
		default:
			checks["llm"] = CheckError
		}
	}

	if s.selfTest != nil {
		report.SelfTest = s.selfTest()
		if titleclean.AllPassed(report.SelfTest) {
			checks["title_cleanup"] = CheckOK
		} else {
			checks["title_cleanup"] = CheckError
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	report.Status = status
	report.Checks = checks
	return report
}
