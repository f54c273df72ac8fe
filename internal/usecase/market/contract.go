package market

import (
	"context"

	"github.com/kailas-cloud/katalog/internal/domain/market"
)

// AuctionSource fetches ended and running auctions.
type AuctionSource interface {
	Ended(ctx context.Context, q string) (market.SalesPage, error)
	Live(ctx context.Context, q string) (market.ListingsPage, error)
	SearchURL(q string, ended bool) string
}

// Cache stores finished analyses by query.
type Cache interface {
	Get(ctx context.Context, query string) (*market.Data, bool)
	Put(ctx context.Context, query string, d *market.Data)
}
