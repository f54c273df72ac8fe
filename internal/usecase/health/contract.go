package health

import (
	"context"

	"github.com/kailas-cloud/katalog/internal/domain/titleclean"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// LLMChecker checks LLM provider availability.
type LLMChecker interface {
	HealthCheck(ctx context.Context) error
}

// SelfTester runs the title cleanup table.
type SelfTester func() []titleclean.Result
