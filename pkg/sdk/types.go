package katalog

import (
	"time"

	"github.com/kailas-cloud/katalog/internal/domain/item"
	"github.com/kailas-cloud/katalog/internal/domain/market"
	"github.com/kailas-cloud/katalog/internal/domain/query"
	"github.com/kailas-cloud/katalog/internal/domain/term"
)

// Item is the cataloging form being edited.
type Item struct {
	Title          string
	Description    string
	Condition      string
	Artist         string
	AIArtist       string // artist detected by AI, used when Artist is empty
	ExcludedArtist string // AI artist the cataloger rejected
	Keywords       string
	Category       string
}

// TermType classifies a search term.
type TermType string

// Term type constants.
const (
	TermArtist     TermType = "artist"
	TermBrand      TermType = "brand"
	TermObjectType TermType = "object_type"
	TermModel      TermType = "model"
	TermPeriod     TermType = "period"
	TermMaterial   TermType = "material"
	TermKeyword    TermType = "keyword"
)

// Term is one candidate search term.
type Term struct {
	Text     string
	Type     TermType
	Priority int
	Selected bool
	Core     bool // artist and brand terms; never dropped implicitly
	Source   string
}

// Session is a snapshot of a cataloging page's query state.
type Session struct {
	ID             string
	Query          string
	Source         string // "system", "user" or "ai"
	Terms          []Term
	Version        int
	UpdatedAt      time.Time
	Fallback       bool   // set by Start when AI terms were unavailable
	FallbackReason string // disabled, missing_api_key, quota, timeout, provider_error, malformed
}

// Selected returns the selected terms in priority order.
func (s Session) Selected() []Term {
	out := make([]Term, 0, len(s.Terms))
	for _, t := range s.Terms {
		if t.Selected {
			out = append(out, t)
		}
	}
	return out
}

// Enhancement holds AI-improved catalog texts. Only requested fields are set.
type Enhancement struct {
	Title       string
	Description string
	Condition   string
	Keywords    string
}

// MarketData is the market analysis for a query.
type MarketData = market.Data

func toItem(it Item) item.Item {
	return item.Item{
		Title:          it.Title,
		Description:    it.Description,
		Condition:      it.Condition,
		Artist:         it.Artist,
		AIArtist:       it.AIArtist,
		ExcludedArtist: it.ExcludedArtist,
		Keywords:       it.Keywords,
		Category:       it.Category,
	}
}

func fromTerms(ts []term.Term) []Term {
	out := make([]Term, len(ts))
	for i, t := range ts {
		out[i] = Term{
			Text:     t.Term,
			Type:     TermType(t.Type),
			Priority: t.Priority,
			Selected: t.Selected,
			Core:     t.Core,
			Source:   t.Source,
		}
	}
	return out
}

func fromSnapshot(s query.Snapshot) Session {
	return Session{
		ID:        s.SessionID,
		Query:     s.CurrentQuery,
		Source:    string(s.Source),
		Terms:     fromTerms(s.Terms),
		Version:   s.Version,
		UpdatedAt: s.UpdatedAt,
	}
}
