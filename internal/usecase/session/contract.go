package session

import (
	"context"

	"github.com/kailas-cloud/katalog/internal/domain/item"
	"github.com/kailas-cloud/katalog/internal/domain/query"
	"github.com/kailas-cloud/katalog/internal/usecase/searchterms"
)

// Repository persists snapshots across restarts and evictions.
type Repository interface {
	Save(ctx context.Context, snap query.Snapshot) error
	Load(ctx context.Context, id string) (query.Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// TermGenerator produces the initial candidate terms for an item.
type TermGenerator interface {
	Generate(ctx context.Context, it item.Item) (searchterms.Result, error)
}
