// Package searchterms asks an LLM for market search terms and falls back to
// the rule engine when the answer is unusable.
package searchterms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/domain/item"
	"github.com/kailas-cloud/katalog/internal/domain/query"
	"github.com/kailas-cloud/katalog/internal/domain/rules"
	"github.com/kailas-cloud/katalog/internal/domain/term"
	"github.com/kailas-cloud/katalog/internal/metrics"
)

const systemPrompt = `Du hjälper en katalogiserare att hitta jämförbara objekt på Auctionet.
Svara endast med giltig JSON.`

// Result is a ranked candidate set ready for query.Store.Initialize.
type Result struct {
	Terms          []term.Term  `json:"terms"`
	Source         query.Source `json:"source"`
	Fallback       bool         `json:"fallback"`
	FallbackReason string       `json:"fallbackReason,omitempty"`
}

// Service generates search terms for an item.
type Service struct {
	llm    Completer
	cfg    rules.Config
	logger *zap.Logger
}

// New creates a search term service. llm can be nil to always use rules.
func New(llm Completer, cfg rules.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{llm: llm, cfg: cfg, logger: logger}
}

// Generate never fails on LLM problems: any error degrades to rule terms plus
// title keywords. It fails only on an empty item.
func (s *Service) Generate(ctx context.Context, it item.Item) (Result, error) {
	if it.IsEmpty() {
		return Result{}, fmt.Errorf("nothing to analyze: %w", domain.ErrInvalidInput)
	}

	base := rules.Apply(s.cfg, it.RuleInput())
	if s.llm == nil {
		return s.fallback(it, base, "disabled"), nil
	}

	res, err := s.llm.Complete(ctx, domain.UserPrompt(systemPrompt, buildPrompt(it)))
	if err != nil {
		s.logger.Warn("AI search terms failed, using rules", zap.Error(err))
		return s.fallback(it, base, reason(err)), nil
	}

	ai, err := parseTerms(res.Text)
	if err != nil {
		s.logger.Warn("AI search terms unparseable, using rules",
			zap.Int("answer_len", len(res.Text)),
			zap.Error(err),
		)
		return s.fallback(it, base, "malformed"), nil
	}

	merged := make([]term.Term, 0, len(base)+len(ai))
	for _, t := range base {
		if t.Core {
			merged = append(merged, t)
		}
	}
	merged = append(merged, screen(ai, it.ExcludedArtist)...)
	for _, t := range base {
		if !t.Core {
			merged = append(merged, t)
		}
	}
	return Result{Terms: rules.Rank(s.cfg, merged), Source: query.SourceAI}, nil
}

// screen drops the artist the cataloger rejected. An artist the model came up
// with on its own is a suggestion, not a core term.
func screen(ai []term.Term, excluded string) []term.Term {
	ex := term.Key(excluded)
	out := make([]term.Term, 0, len(ai))
	for _, t := range ai {
		if ex != "" && t.Key() == ex {
			continue
		}
		if t.Type == term.Artist {
			t.Core = false
		}
		out = append(out, t)
	}
	return out
}

func (s *Service) fallback(it item.Item, base []term.Term, why string) Result {
	metrics.TermFallbackTotal.WithLabelValues(why).Inc()
	all := append(append([]term.Term(nil), base...), rules.FallbackKeywords(s.cfg, it.Title)...)
	return Result{
		Terms:          rules.Rank(s.cfg, all),
		Source:         query.SourceSystem,
		Fallback:       true,
		FallbackReason: why,
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingAPIKey):
		return "missing_api_key"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "provider_error"
	}
}

func buildPrompt(it item.Item) string {
	var b strings.Builder
	b.WriteString("Föreslå sökord för att hitta jämförbara sålda objekt.\n\n")
	fmt.Fprintf(&b, "Titel: %s\n", strings.TrimSpace(it.Title))
	fmt.Fprintf(&b, "Beskrivning: %s\n", strings.TrimSpace(it.Description))
	if a := strings.TrimSpace(it.Artist); a != "" {
		fmt.Fprintf(&b, "Konstnär: %s\n", a)
	}
	if ex := strings.TrimSpace(it.ExcludedArtist); ex != "" {
		fmt.Fprintf(&b, "Föreslå inte konstnären: %s\n", ex)
	}
	b.WriteString(`
Regler:
- Högst 8 termer, viktigast först.
- Använd bara ord som finns i texten. Hitta inte på märken eller konstnärer.
- type är en av: artist, brand, object_type, model, period, material, keyword.
- Flerordsnamn skrivs inom citattecken.

Svara med JSON:
{"searchTerms": [{"term": "...", "type": "...", "description": "..."}]}
`)
	return b.String()
}

type aiTerm struct {
	Term        string `json:"term"`
	Type        string `json:"type"`
	Priority    int    `json:"priority"`
	Description string `json:"description"`
}

type aiAnswer struct {
	SearchTerms []aiTerm `json:"searchTerms"`
	Terms       []aiTerm `json:"terms"`
}

var defaultPriority = map[term.Type]int{
	term.Artist:     term.PriorityAIArtist,
	term.Brand:      term.PriorityBrand,
	term.ObjectType: term.PriorityObjectType,
	term.Model:      term.PriorityModel,
	term.Period:     term.PriorityPeriod,
	term.Material:   term.PriorityMaterial,
	term.Keyword:    term.PriorityKeyword,
}

// parseTerms decodes the JSON answer. Unknown types become keywords and
// priorities are capped below the cataloged artist.
func parseTerms(text string) ([]term.Term, error) {
	body := strings.TrimSpace(domain.StripCodeFence(text))
	if i := strings.IndexByte(body, '{'); i > 0 {
		body = body[i:]
	}
	var a aiAnswer
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		return nil, fmt.Errorf("decode terms: %v: %w", err, domain.ErrMalformedResponse)
	}
	raw := a.SearchTerms
	if len(raw) == 0 {
		raw = a.Terms
	}

	out := make([]term.Term, 0, len(raw))
	for _, r := range raw {
		if term.Key(r.Term) == "" {
			continue
		}
		typ, err := term.ParseType(r.Type)
		if err != nil {
			typ = term.Keyword
		}
		prio := defaultPriority[typ]
		if r.Priority > 0 && r.Priority < term.PriorityArtist {
			prio = r.Priority
		}
		text := r.Term
		if typ == term.Artist || typ == term.Brand || typ == term.Model {
			text = term.Quote(text)
		}
		t := term.New(text, typ, prio, term.SourceAI)
		t.Description = r.Description
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no terms: %w", domain.ErrMalformedResponse)
	}
	return out, nil
}
