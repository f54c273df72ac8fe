package katalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	enhanceuc "github.com/kailas-cloud/katalog/internal/usecase/enhance"
)

// MarketService analyzes Auctionet sales for a query.
type MarketService struct {
	svc marketUseCase
	obs *observer
}

// Analyze returns price range, confidence, trend and exceptional sales.
// Data.HasData is false when nothing comparable was sold.
func (m *MarketService) Analyze(ctx context.Context, query string) (_ *MarketData, err error) {
	start := time.Now()
	defer func() { m.obs.observe("market_analyze", start, err, "query", query) }()

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("analyze: empty query: %w", ErrInvalidInput)
	}
	d, err := m.svc.Analyze(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("analyze %q: %w", query, err)
	}
	return d, nil
}

// Enhance asks the configured completer to improve one field of an item, or
// all of them when field is "" or "all". Other fields: title, description,
// condition, keywords, title-correct.
func (c *Client) Enhance(ctx context.Context, it Item, field string) (_ Enhancement, err error) {
	start := time.Now()
	defer func() { c.obs.observe("enhance", start, err, "field", field) }()

	f, err := enhanceuc.ParseField(field)
	if err != nil {
		return Enhancement{}, err
	}
	r, err := c.enhanceSvc.Enhance(ctx, toItem(it), f)
	if err != nil {
		return Enhancement{}, fmt.Errorf("enhance %s: %w", f, err)
	}
	return Enhancement{
		Title:       r.Title,
		Description: r.Description,
		Condition:   r.Condition,
		Keywords:    r.Keywords,
	}, nil
}
