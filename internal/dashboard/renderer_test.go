package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/katalog/internal/domain/market"
	"github.com/kailas-cloud/katalog/internal/domain/query"
	"github.com/kailas-cloud/katalog/internal/domain/term"
)

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func snapshot() query.Snapshot {
	artist := term.New(`"Lisa Larson"`, term.Artist, term.PriorityArtist, term.SourceRules)
	artist.Selected = true
	obj := term.New("skulptur", term.ObjectType, term.PriorityObjectType, term.SourceRules)
	obj.Description = "Objekttyp"
	return query.Snapshot{
		SessionID:    "s",
		CurrentQuery: `"Lisa Larson"`,
		Terms:        []term.Term{artist, obj},
		Version:      3,
	}
}

func fullData() *market.Data {
	sold := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	return &market.Data{
		HasData:         true,
		PriceRange:      &market.PriceRange{Low: 1200, High: 12500, Currency: "SEK"},
		Confidence:      0.734,
		ConfidenceLabel: market.ConfidenceHigh,
		Historical:      &market.Historical{Count: 80, Sold: 42, MedianPrice: 4800},
		Trend:           &market.Trend{Direction: market.TrendUp, ChangePercent: 15, Description: "Priserna har stigit 15% senaste halvåret"},
		DataSources: []market.Source{
			{Label: "Auctionet: avslutade auktioner", URL: "https://auctionet.com/sv/search?is=ended&q=x", Count: 1234},
		},
		ExceptionalSales: []market.Sale{
			{ID: "1", Title: "Skulptur <Kalle>", Price: 30000, Currency: "SEK", URL: "https://auctionet.com/1", SoldAt: sold},
			{ID: "2", Title: "B", Price: 90000, Currency: "SEK", URL: "https://auctionet.com/2"},
			{ID: "3", Title: "C", Price: 20000, Currency: "SEK"},
			{ID: "4", Title: "D", Price: 50000, Currency: "SEK"},
			{ID: "5", Title: "E", Price: 19000, Currency: "SEK"},
		},
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "12 500", FormatPrice(12500))
	assert.Equal(t, "950", FormatPrice(950))
	assert.Equal(t, "1 234 567", FormatPrice(1234567))
	assert.Equal(t, "0", FormatPrice(0))
}

func TestRender_Full(t *testing.T) {
	f, err := MustNewRenderer().Render(fullData(), snapshot())
	require.NoError(t, err)

	price := doc(t, f.PriceRange)
	assert.Equal(t, "1 200–12 500 SEK", price.Find(".market-value").Text())
	assert.Equal(t, "73% säkerhet", price.Find(".market-confidence").Text())
	assert.True(t, price.Find(".market-confidence").HasClass("confidence-high"))
	assert.Equal(t, "Median 4 800 SEK", price.Find(".market-median").Text())

	trend := doc(t, f.Trend)
	assert.True(t, trend.Find(".market-trend").HasClass("trend-up"))
	assert.Equal(t, "↑ Priserna har stigit 15% senaste halvåret", trend.Find(".market-value").Text())

	src := doc(t, f.DataSources)
	link := src.Find("a")
	href, _ := link.Attr("href")
	assert.Equal(t, "https://auctionet.com/sv/search?is=ended&q=x", href)
	assert.Equal(t, "(1 234)", src.Find(".market-count").Text())

	exc := doc(t, f.ExceptionalSales)
	items := exc.Find("li")
	require.Equal(t, MaxExceptionalSales, items.Length())
	var titles []string
	items.Each(func(_ int, s *goquery.Selection) { titles = append(titles, s.Find("a").Text()) })
	assert.Equal(t, []string{"B", "D", "Skulptur <Kalle>", "C"}, titles)
	assert.Contains(t, f.ExceptionalSales, "Skulptur &lt;Kalle&gt;", "titles are escaped")
	assert.Equal(t, "2026-03-14", items.Eq(2).Find(".market-date").Text())
	assert.Equal(t, 0, items.Eq(0).Find(".market-date").Length())
}

func TestRender_Pills(t *testing.T) {
	f, err := MustNewRenderer().Render(nil, snapshot())
	require.NoError(t, err)

	d := doc(t, f.Pills)
	wrap := d.Find(".search-terms")
	q, _ := wrap.Attr("data-query")
	assert.Equal(t, `"Lisa Larson"`, q)

	pills := d.Find("label.term-pill")
	require.Equal(t, 2, pills.Length())
	assert.True(t, pills.Eq(0).HasClass("selected"))
	assert.True(t, pills.Eq(0).HasClass("core"))
	_, checked := pills.Eq(0).Find("input").Attr("checked")
	assert.True(t, checked)

	assert.False(t, pills.Eq(1).HasClass("selected"))
	_, checked = pills.Eq(1).Find("input").Attr("checked")
	assert.False(t, checked)
	title, _ := pills.Eq(1).Attr("title")
	assert.Equal(t, "Objekttyp", title)
}

func TestRender_AbsentParts(t *testing.T) {
	f, err := MustNewRenderer().Render(&market.Data{HasData: false}, snapshot())
	require.NoError(t, err)

	assert.Empty(t, f.PriceRange)
	assert.Empty(t, f.Trend)
	assert.Empty(t, f.DataSources)
	assert.Empty(t, f.ExceptionalSales)
	assert.NotEmpty(t, f.Pills)
}
