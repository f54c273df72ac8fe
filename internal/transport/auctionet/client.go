// Package auctionet fetches ended and running auctions from the Auctionet JSON API.
package auctionet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/domain/market"
	"github.com/kailas-cloud/katalog/internal/metrics"
)

const (
	kindHistorical = "historical"
	kindLive       = "live"
)

// Config holds the client settings.
type Config struct {
	BaseURL   string // JSON API, e.g. https://auctionet.com
	PublicURL string // human-facing site, e.g. https://auctionet.com/sv
	PerPage   int
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Client talks to GET {base}/api/v2/items.json.
type Client struct {
	baseURL   string
	publicURL string
	perPage   int
	http      *http.Client
	logger    *zap.Logger
}

// NewClient creates an Auctionet client.
func NewClient(cfg *Config) *Client {
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 200
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		perPage:   perPage,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type bid struct {
	Amount    int   `json:"amount"`
	Timestamp int64 `json:"timestamp"`
}

type apiItem struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Currency      string `json:"currency"`
	Estimate      int    `json:"estimate"`
	UpperEstimate int    `json:"upper_estimate"`
	Bids          []bid  `json:"bids"`
	EndsAt        int64  `json:"ends_at"`
	URL           string `json:"url"`
	House         struct {
		Name string `json:"name"`
	} `json:"house"`
}

type apiPage struct {
	Pagination struct {
		TotalEntries int `json:"total_entries"`
	} `json:"pagination"`
	Items []apiItem `json:"items"`
}

// highestBid returns the winning amount and when it was placed.
func (it apiItem) highestBid() (int, time.Time) {
	var best bid
	for _, b := range it.Bids {
		if b.Amount > best.Amount {
			best = b
		}
	}
	if best.Timestamp == 0 {
		return best.Amount, time.Unix(it.EndsAt, 0).UTC()
	}
	return best.Amount, time.Unix(best.Timestamp, 0).UTC()
}

// Ended returns ended auctions matching q. Only items with a winning bid count as sales.
func (c *Client) Ended(ctx context.Context, q string) (market.SalesPage, error) {
	raw, err := c.fetch(ctx, kindHistorical, q, true)
	if err != nil {
		return market.SalesPage{}, err
	}
	out := market.SalesPage{Total: raw.Pagination.TotalEntries}
	for _, it := range raw.Items {
		price, at := it.highestBid()
		if price <= 0 {
			continue
		}
		out.Sales = append(out.Sales, market.Sale{
			ID:       strconv.Itoa(it.ID),
			Title:    PlainText(it.Title),
			Price:    price,
			Currency: currency(it.Currency),
			SoldAt:   at,
			URL:      it.URL,
			House:    it.House.Name,
		})
	}
	if out.Total < len(raw.Items) {
		out.Total = len(raw.Items)
	}
	return out, nil
}

// Live returns running auctions matching q.
func (c *Client) Live(ctx context.Context, q string) (market.ListingsPage, error) {
	raw, err := c.fetch(ctx, kindLive, q, false)
	if err != nil {
		return market.ListingsPage{}, err
	}
	out := market.ListingsPage{Total: raw.Pagination.TotalEntries}
	for _, it := range raw.Items {
		price, _ := it.highestBid()
		out.Listings = append(out.Listings, market.Listing{
			ID:         strconv.Itoa(it.ID),
			Title:      PlainText(it.Title),
			CurrentBid: price,
			Estimate:   it.Estimate,
			Currency:   currency(it.Currency),
			EndsAt:     time.Unix(it.EndsAt, 0).UTC(),
			URL:        it.URL,
		})
	}
	if out.Total < len(raw.Items) {
		out.Total = len(raw.Items)
	}
	return out, nil
}

// SearchURL is the public search page a user can open to verify the numbers.
func (c *Client) SearchURL(q string, ended bool) string {
	v := url.Values{}
	if ended {
		v.Set("is", "ended")
	}
	v.Set("q", q)
	return c.publicURL + "/search?" + v.Encode()
}

func (c *Client) fetch(ctx context.Context, kind, q string, ended bool) (apiPage, error) {
	v := url.Values{}
	v.Set("q", q)
	if ended {
		v.Set("is", "ended")
	}
	v.Set("per_page", strconv.Itoa(c.perPage))
	endpoint := c.baseURL + "/api/v2/items.json?" + v.Encode()

	start := time.Now()
	page, err := c.get(ctx, endpoint)
	metrics.MarketFetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MarketFetchTotal.WithLabelValues(kind, "error").Inc()
		c.logger.Warn("Auctionet fetch failed",
			zap.String("kind", kind),
			zap.String("query", q),
			zap.Error(err),
		)
		return apiPage{}, err
	}
	metrics.MarketFetchTotal.WithLabelValues(kind, "success").Inc()
	c.logger.Debug("Auctionet fetch",
		zap.String("kind", kind),
		zap.String("query", q),
		zap.Int("items", len(page.Items)),
		zap.Int("total", page.Pagination.TotalEntries),
	)
	return page, nil
}

func (c *Client) get(ctx context.Context, endpoint string) (apiPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apiPage{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apiPage{}, fmt.Errorf("auctionet request: %v: %w", err, domain.ErrMarketDataUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return apiPage{}, fmt.Errorf("auctionet returned %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(body)), domain.ErrMarketDataUnavailable)
	}

	var page apiPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return apiPage{}, fmt.Errorf("decode auctionet response: %v: %w", err, domain.ErrMarketDataUnavailable)
	}
	return page, nil
}

// PlainText strips markup and collapses whitespace. Auctionet titles and
// descriptions may carry HTML emphasis and entities.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func currency(c string) string {
	if c == "" {
		return "SEK"
	}
	return strings.ToUpper(c)
}
