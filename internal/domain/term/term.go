package term

import (
	"fmt"
	"strings"
	"unicode"
)

// Type classifies where a search term came from.
type Type string

const (
	// Artist is the cataloged artist or maker.
	Artist Type = "artist"
	// Brand is a manufacturer from the brand list.
	Brand Type = "brand"
	// ObjectType is a kind of object (vas, skulptur, armbandsur).
	ObjectType Type = "object_type"
	// Model is a model number or named model.
	Model Type = "model"
	// Period is a dating expression (1950-tal).
	Period Type = "period"
	// Material is a material word (brons, teak).
	Material Type = "material"
	// Keyword is any other significant word.
	Keyword Type = "keyword"
)

// Fixed priorities. Higher sorts first.
const (
	PriorityArtist     = 100
	PriorityAIArtist   = 95
	PriorityBrand      = 90
	PriorityObjectType = 80
	PriorityModel      = 75
	PriorityPeriod     = 60
	PriorityMaterial   = 50
	PriorityUser       = 45
	PriorityKeyword    = 30
)

// Source values for Term.Source.
const (
	SourceRules    = "rules"
	SourceAI       = "ai"
	SourceUser     = "user"
	SourceFallback = "fallback"
)

// ParseType validates a term type string.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case Artist, Brand, ObjectType, Model, Period, Material, Keyword:
		return t, nil
	default:
		return "", fmt.Errorf("unknown term type %q", s)
	}
}

// IsCoreType reports whether terms of this type are core (never silently dropped).
func IsCoreType(t Type) bool {
	return t == Artist || t == Brand
}

// Term is a single candidate search term.
type Term struct {
	Term        string `json:"term"`
	Type        Type   `json:"type"`
	Priority    int    `json:"priority"`
	Selected    bool   `json:"isSelected"`
	Core        bool   `json:"isCore"`
	Source      string `json:"source"`
	Description string `json:"description,omitempty"`
}

// New builds a term. Core is derived from the type.
func New(text string, t Type, priority int, source string) Term {
	return Term{
		Term:     strings.TrimSpace(text),
		Type:     t,
		Priority: priority,
		Core:     IsCoreType(t),
		Source:   source,
	}
}

// Key returns the identity of a term: surrounding quotes stripped,
// whitespace collapsed, lower-cased.
func (t Term) Key() string { return Key(t.Term) }

// Matches reports whether s names the same term.
func (t Term) Matches(s string) bool { return Key(s) == t.Key() }

// Key normalizes free text to a term identity.
func Key(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(Unquote(s)), " "))
}

// Unquote strips any number of matching or mixed surrounding quote characters.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	for len(s) > 0 {
		trimmed := strings.TrimFunc(s, isQuote)
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == s {
			break
		}
		s = trimmed
	}
	return s
}

// Quote wraps multi-word text in double quotes for exact-phrase search.
// Single words and already quoted text are returned unchanged.
func Quote(s string) string {
	u := Unquote(s)
	if !strings.ContainsFunc(u, unicode.IsSpace) {
		return u
	}
	return `"` + u + `"`
}

func isQuote(r rune) bool {
	switch r {
	case '"', '\'', '“', '”', '„', '«', '»', '‘', '’':
		return true
	}
	return false
}

// Join renders terms as a query string, in slice order.
func Join(terms []Term) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		if t.Term != "" {
			parts = append(parts, t.Term)
		}
	}
	return strings.Join(parts, " ")
}

// SplitQuery tokenizes a query string, keeping double-quoted phrases whole
// (quotes retained).
func SplitQuery(q string) []string {
	var (
		out     []string
		buf     strings.Builder
		inQuote bool
	)
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" && s != `""` {
			out = append(out, s)
		}
		buf.Reset()
	}
	for _, r := range q {
		switch {
		case r == '"' || r == '“' || r == '”':
			if inQuote {
				buf.WriteRune('"')
				flush()
				inQuote = false
			} else {
				flush()
				buf.WriteRune('"')
				inQuote = true
			}
		case unicode.IsSpace(r) && !inQuote:
			flush()
		default:
			buf.WriteRune(r)
		}
	}
	if inQuote {
		// Unterminated quote: close it.
		buf.WriteRune('"')
	}
	flush()
	return out
}
