package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/katalog/internal/domain/market"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) time.Time { return now.AddDate(0, 0, -d) }

func sale(id string, price, age int) market.Sale {
	return market.Sale{ID: id, Price: price, Currency: "SEK", SoldAt: daysAgo(age)}
}

func TestAnalyzeSales(t *testing.T) {
	sales := []market.Sale{
		sale("a", 1000, 300),
		sale("b", 1200, 250),
		sale("c", 1500, 400),
		sale("d", 1800, 400),
		sale("e", 2000, 30),
		sale("f", 2200, 60),
		sale("g", 9000, 400),
	}

	d := AnalyzeSales(sales, DefaultAnalyzeOptions(), now)

	require.True(t, d.HasData)
	require.NotNil(t, d.PriceRange)
	assert.Equal(t, market.PriceRange{Low: 1300, High: 2100, Currency: "SEK"}, *d.PriceRange)
	assert.InDelta(t, 0.49, d.Confidence, 1e-9)
	assert.Equal(t, market.ConfidenceMedium, d.ConfidenceLabel)
	assert.Equal(t, 1800, d.Historical.MedianPrice)
	assert.Equal(t, 7, d.Historical.Sold)

	require.Len(t, d.ExceptionalSales, 1)
	assert.Equal(t, "g", d.ExceptionalSales[0].ID)

	require.NotNil(t, d.Trend)
	assert.Equal(t, market.TrendUp, d.Trend.Direction)
	assert.InDelta(t, 90.9, d.Trend.ChangePercent, 1e-9)
	assert.Equal(t, "Priserna har stigit 91% senaste halvåret", d.Trend.Description)
}

func TestAnalyzeSales_SmallSample(t *testing.T) {
	d := AnalyzeSales([]market.Sale{
		{ID: "a", Price: 500, Currency: "SEK"},
		{ID: "b", Price: 700, Currency: "SEK"},
	}, DefaultAnalyzeOptions(), now)

	assert.Equal(t, 500, d.PriceRange.Low)
	assert.Equal(t, 700, d.PriceRange.High)
	assert.InDelta(t, 0.3, d.Confidence, 1e-9, "capped below three sales")
	assert.Equal(t, market.ConfidenceLow, d.ConfidenceLabel)
	assert.Equal(t, market.TrendInsufficient, d.Trend.Direction)
	assert.Empty(t, d.ExceptionalSales)
}

func TestAnalyzeSales_Empty(t *testing.T) {
	d := AnalyzeSales(nil, DefaultAnalyzeOptions(), now)
	assert.False(t, d.HasData)
	assert.Nil(t, d.PriceRange)
	assert.Equal(t, market.ConfidenceLow, d.ConfidenceLabel)
	assert.Equal(t, now, d.AnalyzedAt)
}

func TestTrend(t *testing.T) {
	opts := DefaultAnalyzeOptions()
	tests := []struct {
		name   string
		sales  []market.Sale
		want   market.TrendDirection
		change float64
	}{
		{"stable", []market.Sale{sale("a", 1000, 300), sale("b", 1000, 250), sale("c", 1050, 30), sale("d", 1050, 60)}, market.TrendStable, 5},
		{"down", []market.Sale{sale("a", 2000, 300), sale("b", 2000, 250), sale("c", 1000, 30), sale("d", 1000, 60)}, market.TrendDown, -50},
		{"one recent", []market.Sale{sale("a", 2000, 300), sale("b", 2000, 250), sale("c", 1000, 30)}, market.TrendInsufficient, 0},
		{"outside window", []market.Sale{sale("a", 1, 500), sale("b", 1, 600), sale("c", 1, 30), sale("d", 1, 60)}, market.TrendInsufficient, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trend(tt.sales, opts, now)
			assert.Equal(t, tt.want, got.Direction)
			assert.InDelta(t, tt.change, got.ChangePercent, 1e-9)
			assert.NotEmpty(t, got.Description)
		})
	}
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 5.0, percentile([]float64{5}, 0.25))
	assert.Equal(t, 2.5, percentile([]float64{1, 2, 3, 4}, 0.5))
	assert.Equal(t, 3.0, percentile([]float64{1, 2, 3, 4, 5}, 0.5))
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 12000, roundDown(12345))
	assert.Equal(t, 12500, roundUp(12345))
	assert.Equal(t, 1300, roundDown(1350))
	assert.Equal(t, 150, roundUp(120))
	assert.Equal(t, 90, roundDown(95))
}

func TestAverageBid(t *testing.T) {
	assert.Equal(t, 0, averageBid(nil))
	assert.Equal(t, 200, averageBid([]market.Listing{{CurrentBid: 100}, {CurrentBid: 300}, {CurrentBid: 0}}))
}
