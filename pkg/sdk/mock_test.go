package katalog

import (
	"context"

	"github.com/kailas-cloud/katalog/internal/domain/item"
	"github.com/kailas-cloud/katalog/internal/domain/market"
	"github.com/kailas-cloud/katalog/internal/domain/query"
	sessionuc "github.com/kailas-cloud/katalog/internal/usecase/session"
)

// --- sessionUseCase mock ---

type mockSessionUC struct {
	startFn      func(ctx context.Context, it item.Item) (sessionuc.Started, error)
	getFn        func(ctx context.Context, id string) (query.Snapshot, error)
	isSelectedFn func(ctx context.Context, id, t string) (bool, error)
	updateFn     func(ctx context.Context, id string, selected []string, opts query.UpdateOptions) (query.Snapshot, error)
	reinitFn     func(ctx context.Context, id string, it item.Item, q string) (query.Snapshot, error)
	deleteFn     func(ctx context.Context, id string) error
}

func (m *mockSessionUC) Start(ctx context.Context, it item.Item) (sessionuc.Started, error) {
	return m.startFn(ctx, it)
}

func (m *mockSessionUC) Get(ctx context.Context, id string) (query.Snapshot, error) {
	return m.getFn(ctx, id)
}

func (m *mockSessionUC) IsTermSelected(ctx context.Context, id, t string) (bool, error) {
	return m.isSelectedFn(ctx, id, t)
}

func (m *mockSessionUC) UpdateSelections(
	ctx context.Context, id string, selected []string, opts query.UpdateOptions,
) (query.Snapshot, error) {
	return m.updateFn(ctx, id, selected, opts)
}

func (m *mockSessionUC) Reinitialize(ctx context.Context, id string, it item.Item, q string) (query.Snapshot, error) {
	return m.reinitFn(ctx, id, it, q)
}

func (m *mockSessionUC) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// --- marketUseCase mock ---

type mockMarketUC struct {
	analyzeFn func(ctx context.Context, q string) (*market.Data, error)
}

func (m *mockMarketUC) Analyze(ctx context.Context, q string) (*market.Data, error) {
	return m.analyzeFn(ctx, q)
}

// --- Completer mock ---

type mockCompleter struct {
	called bool
	fn     func(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

func (m *mockCompleter) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	m.called = true
	return m.fn(ctx, req)
}
