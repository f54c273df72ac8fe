package market

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kailas-cloud/katalog/internal/domain/market"
)

// AnalyzeOptions tunes the pure analysis step.
type AnalyzeOptions struct {
	// ExceptionalFactor marks sales above PriceRange.High × factor.
	ExceptionalFactor float64
	// FullConfidenceSales is the sample size at which size stops limiting confidence.
	FullConfidenceSales int
	// TrendWindow is the lookback for trend; it is split in two equal halves.
	TrendWindow time.Duration
	// StableBand is the absolute change percent still reported as stable.
	StableBand float64
}

// DefaultAnalyzeOptions returns the production tuning.
func DefaultAnalyzeOptions() AnalyzeOptions {
	return AnalyzeOptions{
		ExceptionalFactor:   1.5,
		FullConfidenceSales: 20,
		TrendWindow:         365 * 24 * time.Hour,
		StableBand:          10,
	}
}

const minTrendSalesPerHalf = 2

// AnalyzeSales builds the historical part of an analysis from sold items.
// Returns a Data with HasData=false when there are no sales.
func AnalyzeSales(sales []market.Sale, opts AnalyzeOptions, now time.Time) market.Data {
	d := market.Data{AnalyzedAt: now, ConfidenceLabel: market.ConfidenceLow}
	if len(sales) == 0 {
		return d
	}

	prices := make([]float64, 0, len(sales))
	for _, s := range sales {
		prices = append(prices, float64(s.Price))
	}
	sort.Float64s(prices)

	q1, med, q3 := quartiles(prices)
	low, high := q1, q3
	if len(prices) < 4 {
		low, high = prices[0], prices[len(prices)-1]
	}

	cur := sales[0].Currency
	d.HasData = true
	d.PriceRange = &market.PriceRange{
		Low:      roundDown(low),
		High:     roundUp(high),
		Currency: cur,
	}
	d.Confidence = confidence(len(prices), q1, med, q3, opts)
	d.ConfidenceLabel = market.LabelFor(d.Confidence)
	d.Trend = trend(sales, opts, now)

	threshold := float64(d.PriceRange.High) * opts.ExceptionalFactor
	var exceptional []market.Sale
	for _, s := range sales {
		if float64(s.Price) > threshold {
			exceptional = append(exceptional, s)
		}
	}
	d.ExceptionalSales = market.TopByPrice(exceptional, -1)

	d.Historical = &market.Historical{Sold: len(sales), MedianPrice: int(math.Round(med))}
	return d
}

// quartiles uses linear interpolation between closest ranks. prices must be sorted.
func quartiles(prices []float64) (q1, median, q3 float64) {
	return percentile(prices, 0.25), percentile(prices, 0.5), percentile(prices, 0.75)
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// confidence blends sample size (60%) and price consistency (40%).
// Fewer than three sales never rise above 0.3.
func confidence(n int, q1, median, q3 float64, opts AnalyzeOptions) float64 {
	full := opts.FullConfidenceSales
	if full <= 0 {
		full = 20
	}
	size := math.Min(1, float64(n)/float64(full))

	consistency := 0.0
	if median > 0 {
		consistency = 1 / (1 + (q3-q1)/median)
	}

	c := 0.6*size + 0.4*consistency
	if n < 3 {
		c = math.Min(c, 0.3)
	}
	return math.Round(c*100) / 100
}

// trend compares the median of the recent half of the window with the older half.
func trend(sales []market.Sale, opts AnalyzeOptions, now time.Time) *market.Trend {
	window := opts.TrendWindow
	if window <= 0 {
		window = 365 * 24 * time.Hour
	}
	start := now.Add(-window)
	mid := now.Add(-window / 2)

	var older, recent []float64
	for _, s := range sales {
		switch {
		case s.SoldAt.Before(start) || s.SoldAt.After(now):
		case s.SoldAt.Before(mid):
			older = append(older, float64(s.Price))
		default:
			recent = append(recent, float64(s.Price))
		}
	}
	if len(older) < minTrendSalesPerHalf || len(recent) < minTrendSalesPerHalf {
		return &market.Trend{
			Direction:   market.TrendInsufficient,
			Description: "För få försäljningar för att bedöma trend",
		}
	}

	sort.Float64s(older)
	sort.Float64s(recent)
	before := percentile(older, 0.5)
	after := percentile(recent, 0.5)
	change := math.Round((after-before)/before*1000) / 10

	t := &market.Trend{ChangePercent: change}
	switch {
	case math.Abs(change) < opts.StableBand:
		t.Direction = market.TrendStable
		t.Description = "Stabila priser senaste året"
	case change > 0:
		t.Direction = market.TrendUp
		t.Description = fmt.Sprintf("Priserna har stigit %.0f%% senaste halvåret", change)
	default:
		t.Direction = market.TrendDown
		t.Description = fmt.Sprintf("Priserna har sjunkit %.0f%% senaste halvåret", -change)
	}
	return t
}

// step picks a rounding granularity that keeps price ranges readable.
func step(v float64) float64 {
	switch {
	case v >= 10000:
		return 500
	case v >= 1000:
		return 100
	case v >= 100:
		return 50
	default:
		return 10
	}
}

func roundDown(v float64) int {
	s := step(v)
	return int(math.Floor(v/s) * s)
}

func roundUp(v float64) int {
	s := step(v)
	return int(math.Ceil(v/s) * s)
}

// averageBid returns the mean current bid of listings with at least one bid.
func averageBid(listings []market.Listing) int {
	var sum, n int
	for _, l := range listings {
		if l.CurrentBid > 0 {
			sum += l.CurrentBid
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}
