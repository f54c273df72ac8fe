// Package market holds the read-only market analysis aggregate.
package market

import (
	"sort"
	"time"
)

// TrendDirection of prices over time.
type TrendDirection string

const (
	TrendUp           TrendDirection = "up"
	TrendDown         TrendDirection = "down"
	TrendStable       TrendDirection = "stable"
	TrendInsufficient TrendDirection = "insufficient"
)

// ConfidenceLabel buckets Confidence for display.
type ConfidenceLabel string

const (
	ConfidenceHigh   ConfidenceLabel = "high"
	ConfidenceMedium ConfidenceLabel = "medium"
	ConfidenceLow    ConfidenceLabel = "low"
)

// LabelFor maps a 0..1 confidence to its label.
func LabelFor(c float64) ConfidenceLabel {
	switch {
	case c >= 0.7:
		return ConfidenceHigh
	case c >= 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Sale is a single historical auction result.
type Sale struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Price    int       `json:"price"`
	Currency string    `json:"currency"`
	SoldAt   time.Time `json:"soldAt"`
	URL      string    `json:"url"`
	House    string    `json:"house,omitempty"`
}

// Listing is a currently running auction.
type Listing struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CurrentBid int       `json:"currentBid"`
	Estimate   int       `json:"estimate"`
	Currency   string    `json:"currency"`
	EndsAt     time.Time `json:"endsAt"`
	URL        string    `json:"url"`
}

// PriceRange is the normal price band for comparable items.
type PriceRange struct {
	Low      int    `json:"low"`
	High     int    `json:"high"`
	Currency string `json:"currency"`
}

// Historical summarizes ended auctions.
type Historical struct {
	Count       int    `json:"count"`
	Sold        int    `json:"sold"`
	MedianPrice int    `json:"medianPrice"`
	SearchURL   string `json:"searchUrl"`
}

// Live summarizes running auctions.
type Live struct {
	Count      int       `json:"count"`
	AverageBid int       `json:"averageBid"`
	SearchURL  string    `json:"searchUrl"`
	Listings   []Listing `json:"listings,omitempty"`
}

// Trend compares recent sales to older ones.
type Trend struct {
	Direction     TrendDirection `json:"direction"`
	ChangePercent float64        `json:"changePercent"`
	Description   string         `json:"description"`
}

// Source is a link to the data an analysis was built from.
type Source struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// Data is the market analysis for one query.
type Data struct {
	Query            string          `json:"query"`
	HasData          bool            `json:"hasData"`
	PriceRange       *PriceRange     `json:"priceRange,omitempty"`
	Confidence       float64         `json:"confidence"`
	ConfidenceLabel  ConfidenceLabel `json:"confidenceLabel"`
	Historical       *Historical     `json:"historical,omitempty"`
	Live             *Live           `json:"live,omitempty"`
	Trend            *Trend          `json:"trend,omitempty"`
	ExceptionalSales []Sale          `json:"exceptionalSales,omitempty"`
	DataSources      []Source        `json:"dataSources,omitempty"`
	AnalyzedAt       time.Time       `json:"analyzedAt"`
}

// SalesPage is one page of ended auctions plus the total hit count.
type SalesPage struct {
	Total int
	Sales []Sale
}

// ListingsPage is one page of running auctions plus the total hit count.
type ListingsPage struct {
	Total    int
	Listings []Listing
}

// TopByPrice returns up to n sales, highest price first. The input is not modified.
func TopByPrice(sales []Sale, n int) []Sale {
	out := append([]Sale(nil), sales...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
