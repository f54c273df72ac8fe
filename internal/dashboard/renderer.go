// Package dashboard renders the market analysis panel as HTML fragments the
// extension drops into the cataloging page.
package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kailas-cloud/katalog/internal/domain/market"
	"github.com/kailas-cloud/katalog/internal/domain/query"
)

// MaxExceptionalSales is how many exceptional sales the panel shows.
const MaxExceptionalSales = 4

// Fragments are independent HTML snippets. Missing data renders as "".
type Fragments struct {
	PriceRange       string `json:"priceRange"`
	Trend            string `json:"trend"`
	DataSources      string `json:"dataSources"`
	ExceptionalSales string `json:"exceptionalSales"`
	Pills            string `json:"pills"`
}

// Renderer holds the parsed templates. Safe for concurrent use.
type Renderer struct {
	priceRange  *template.Template
	trend       *template.Template
	dataSources *template.Template
	exceptional *template.Template
	pills       *template.Template
}

var funcs = template.FuncMap{
	"price": FormatPrice,
	"date":  func(t time.Time) string { return t.Format("2006-01-02") },
	"arrow": func(d market.TrendDirection) string {
		switch d {
		case market.TrendUp:
			return "↑"
		case market.TrendDown:
			return "↓"
		case market.TrendStable:
			return "→"
		default:
			return "·"
		}
	},
}

// NewRenderer parses the built-in templates.
func NewRenderer() (*Renderer, error) {
	parse := func(name, body string) (*template.Template, error) {
		t, err := template.New(name).Funcs(funcs).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		return t, nil
	}
	r := &Renderer{}
	var err error
	if r.priceRange, err = parse("price_range", priceRangeTmpl); err != nil {
		return nil, err
	}
	if r.trend, err = parse("trend", trendTmpl); err != nil {
		return nil, err
	}
	if r.dataSources, err = parse("data_sources", dataSourcesTmpl); err != nil {
		return nil, err
	}
	if r.exceptional, err = parse("exceptional", exceptionalTmpl); err != nil {
		return nil, err
	}
	if r.pills, err = parse("pills", pillsTmpl); err != nil {
		return nil, err
	}
	return r, nil
}

// MustNewRenderer is NewRenderer for package-level setup and tests.
func MustNewRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

type priceRangeView struct {
	Range   market.PriceRange
	Label   market.ConfidenceLabel
	Percent int
	Sold    int
	Median  int
}

// Render builds all fragments. data may be nil when the analysis is not ready.
func (r *Renderer) Render(data *market.Data, snap query.Snapshot) (Fragments, error) {
	var (
		f   Fragments
		err error
	)
	if f.Pills, err = exec(r.pills, struct {
		Query   string
		Version int
		Terms   any
	}{snap.CurrentQuery, snap.Version, snap.Terms}); err != nil {
		return Fragments{}, err
	}
	if data == nil {
		return f, nil
	}

	if data.PriceRange != nil {
		v := priceRangeView{
			Range:   *data.PriceRange,
			Label:   data.ConfidenceLabel,
			Percent: int(math.Round(data.Confidence * 100)),
		}
		if data.Historical != nil {
			v.Sold = data.Historical.Sold
			v.Median = data.Historical.MedianPrice
		}
		if f.PriceRange, err = exec(r.priceRange, v); err != nil {
			return Fragments{}, err
		}
	}
	if data.Trend != nil {
		if f.Trend, err = exec(r.trend, data.Trend); err != nil {
			return Fragments{}, err
		}
	}
	if len(data.DataSources) > 0 {
		if f.DataSources, err = exec(r.dataSources, data.DataSources); err != nil {
			return Fragments{}, err
		}
	}
	if len(data.ExceptionalSales) > 0 {
		top := market.TopByPrice(data.ExceptionalSales, MaxExceptionalSales)
		if f.ExceptionalSales, err = exec(r.exceptional, top); err != nil {
			return Fragments{}, err
		}
	}
	return f, nil
}

func exec(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// FormatPrice groups thousands with a space: 12500 → "12 500".
func FormatPrice(n int) string {
	return humanize.FormatInteger("# ###.", n)
}
