package katalog

import (
	"context"

	healthuc "github.com/kailas-cloud/katalog/internal/usecase/health"
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
	// FailedCleanups lists title cleanup cases whose output differed from the expected value.
	FailedCleanups []string
}

// Health checks the store and runs the title cleanup self-test.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	var failed []string
	for _, r := range report.SelfTest {
		if !r.Passed {
			failed = append(failed, r.Title)
		}
	}
	return HealthStatus{
		Status:         string(report.Status),
		Checks:         checks,
		FailedCleanups: failed,
	}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
