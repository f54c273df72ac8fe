// Package market analyzes comparable auction results for a search query.
package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/domain/market"
)

const maxLiveListings = 5

// Service fetches and analyzes market data.
type Service struct {
	source AuctionSource
	cache  Cache
	opts   AnalyzeOptions
	logger *zap.Logger
	now    func() time.Time
}

// New creates a market service. cache can be nil.
func New(source AuctionSource, cache Cache, opts AnalyzeOptions, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source: source,
		cache:  cache,
		opts:   opts,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Analyze returns the market analysis for a query. Historical data is required;
// live auctions are best effort.
func (s *Service) Analyze(ctx context.Context, query string) (*market.Data, error) {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}

	if s.cache != nil {
		if d, ok := s.cache.Get(ctx, query); ok {
			return d, nil
		}
	}

	var (
		ended   market.SalesPage
		live    market.ListingsPage
		liveErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ended, err = s.source.Ended(gctx, query)
		if err != nil {
			return fmt.Errorf("historical: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		live, liveErr = s.source.Live(gctx, query)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if liveErr != nil {
		s.logger.Warn("Live auctions unavailable, continuing without",
			zap.String("query", query),
			zap.Error(liveErr),
		)
	}

	d := AnalyzeSales(ended.Sales, s.opts, s.now())
	d.Query = query
	s.attachSources(&d, query, ended, live, liveErr == nil)

	if s.cache != nil && d.HasData {
		s.cache.Put(ctx, query, &d)
	}
	return &d, nil
}

func (s *Service) attachSources(d *market.Data, query string, ended market.SalesPage, live market.ListingsPage, liveOK bool) {
	endedURL := s.source.SearchURL(query, true)
	if d.Historical == nil {
		d.Historical = &market.Historical{}
	}
	d.Historical.Count = ended.Total
	d.Historical.SearchURL = endedURL
	d.DataSources = append(d.DataSources, market.Source{
		Label: "Auctionet: avslutade auktioner",
		URL:   endedURL,
		Count: ended.Total,
	})

	if !liveOK {
		return
	}
	liveURL := s.source.SearchURL(query, false)
	listings := live.Listings
	if len(listings) > maxLiveListings {
		listings = listings[:maxLiveListings]
	}
	d.Live = &market.Live{
		Count:      live.Total,
		AverageBid: averageBid(live.Listings),
		SearchURL:  liveURL,
		Listings:   listings,
	}
	d.DataSources = append(d.DataSources, market.Source{
		Label: "Auctionet: pågående auktioner",
		URL:   liveURL,
		Count: live.Total,
	})
}
