// Package rules turns cataloging fields into weighted search terms.
//
// Apply is a pure function of its Config and Input: no I/O, no shared state.
package rules

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/kailas-cloud/katalog/internal/domain/term"
)

// Input holds the cataloging fields the rules look at.
type Input struct {
	Title       string
	Description string
	Artist      string
	// AIArtist is an artist detected by the AI in title/description.
	// Used only when Artist is empty.
	AIArtist string
	// ExcludedArtist is an AI suggestion the cataloger flagged as wrong.
	ExcludedArtist string
}

var periodRe = regexp.MustCompile(`(?i)\b((?:1[0-9]|20)\d0)-tal(?:et|ets)?\b`)

// Apply runs the rule table over in and returns the ranked terms.
func Apply(cfg Config, in Input) []term.Term {
	c := newCollector()

	artist := strings.TrimSpace(in.Artist)
	switch {
	case artist != "":
		t := term.New(term.Quote(artist), term.Artist, term.PriorityArtist, term.SourceRules)
		t.Description = "Konstnär/formgivare från artistfältet"
		c.add(t)
	case strings.TrimSpace(in.AIArtist) != "" && term.Key(in.AIArtist) != term.Key(in.ExcludedArtist):
		t := term.New(term.Quote(in.AIArtist), term.Artist, term.PriorityAIArtist, term.SourceAI)
		t.Description = "Konstnär identifierad av AI"
		c.add(t)
	}

	titleWords := words(in.Title)
	lowerTitle := lowerAll(titleWords)

	for _, b := range matchBrands(cfg.Brands, in.Title+"\n"+in.Description) {
		t := term.New(term.Quote(b), term.Brand, term.PriorityBrand, term.SourceRules)
		t.Description = "Märke"
		c.add(t)
	}

	for _, o := range matchDictionary(cfg.ObjectTypes, lowerTitle) {
		t := term.New(o, term.ObjectType, term.PriorityObjectType, term.SourceRules)
		t.Description = "Objekttyp"
		c.add(t)
	}

	for _, m := range matchModels(cfg, titleWords, lowerTitle) {
		t := term.New(term.Quote(m), term.Model, term.PriorityModel, term.SourceRules)
		t.Description = "Modell"
		c.add(t)
	}

	for _, m := range periodRe.FindAllStringSubmatch(in.Title, -1) {
		t := term.New(m[1]+"-tal", term.Period, term.PriorityPeriod, term.SourceRules)
		t.Description = "Period"
		c.add(t)
	}

	for _, m := range matchDictionary(cfg.Materials, lowerTitle) {
		t := term.New(m, term.Material, term.PriorityMaterial, term.SourceRules)
		t.Description = "Material"
		c.add(t)
	}

	return Rank(cfg, c.terms)
}

// Rank de-duplicates, sorts by priority (stable) and truncates to cfg.MaxTerms.
// The first cfg.PreselectLimit terms and every core term come back selected.
func Rank(cfg Config, terms []term.Term) []term.Term {
	c := newCollector()
	for _, t := range terms {
		c.add(t)
	}
	out := c.terms
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	if cfg.MaxTerms > 0 && len(out) > cfg.MaxTerms {
		out = out[:cfg.MaxTerms]
	}
	for i := range out {
		out[i].Selected = out[i].Core || i < cfg.PreselectLimit
	}
	return out
}

// FallbackKeywords extracts significant title words for when nothing smarter
// is available.
func FallbackKeywords(cfg Config, title string) []term.Term {
	stop := make(map[string]struct{}, len(cfg.StopWords))
	for _, s := range cfg.StopWords {
		stop[strings.ToLower(s)] = struct{}{}
	}
	c := newCollector()
	for _, w := range words(title) {
		lw := strings.ToLower(w)
		if _, ok := stop[lw]; ok {
			continue
		}
		if len([]rune(lw)) < 4 || isNumeric(lw) {
			continue
		}
		c.add(term.New(lw, term.Keyword, term.PriorityKeyword, term.SourceFallback))
	}
	return c.terms
}

// IsModelNumber reports whether s looks like a model number under cfg.
func IsModelNumber(cfg Config, s string) bool {
	s = strings.ReplaceAll(strings.TrimSpace(s), "-", "")
	if s == "" {
		return false
	}
	return cfg.pattern().MatchString(s)
}

type collector struct {
	terms []term.Term
	seen  map[string]int
}

func newCollector() *collector {
	return &collector{seen: make(map[string]int)}
}

// add keeps the first occurrence of a key, upgrading its priority when a
// later duplicate ranks higher.
func (c *collector) add(t term.Term) {
	k := t.Key()
	if k == "" {
		return
	}
	if i, ok := c.seen[k]; ok {
		if t.Priority > c.terms[i].Priority {
			c.terms[i] = t
		}
		return
	}
	c.seen[k] = len(c.terms)
	c.terms = append(c.terms, t)
}

func matchBrands(brands []string, text string) []string {
	lower := strings.ToLower(text)
	lowerWords := lowerAll(words(text))

	var found []string
	for _, b := range brands {
		lb := strings.ToLower(b)
		var hit bool
		if len([]rune(lb)) <= 3 {
			hit = containsPhrase(lowerWords, lowerAll(words(lb)))
		} else {
			hit = strings.Contains(lower, lb)
		}
		if hit {
			found = append(found, b)
		}
	}

	// Drop brands contained in a longer matched brand (Kosta vs Kosta Boda).
	out := make([]string, 0, len(found))
	for i, b := range found {
		shadowed := false
		for j, other := range found {
			if i != j && len(other) > len(b) && strings.Contains(strings.ToLower(other), strings.ToLower(b)) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			out = append(out, b)
		}
	}
	return out
}

func matchDictionary(dict []string, lowerWords []string) []string {
	var out []string
	for _, d := range dict {
		if containsPhrase(lowerWords, lowerAll(words(d))) {
			out = append(out, strings.ToLower(d))
		}
	}
	return out
}

func matchModels(cfg Config, raw, lower []string) []string {
	var out []string
	for _, name := range cfg.ModelNames {
		if containsPhrase(lower, lowerAll(words(name))) {
			out = append(out, name)
		}
	}
	for _, w := range raw {
		if IsModelNumber(cfg, w) {
			out = append(out, w)
		}
	}
	return out
}

// words splits on anything that is not a letter, digit, hyphen or ampersand.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '&'
	})
}

func lowerAll(ws []string) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = strings.ToLower(strings.Trim(w, "-"))
	}
	return out
}

func containsPhrase(haystack, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(haystack) {
		return false
	}
	for i := 0; i+len(phrase) <= len(haystack); i++ {
		match := true
		for j, p := range phrase {
			if haystack[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}
