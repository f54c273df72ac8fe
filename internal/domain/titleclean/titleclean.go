// Package titleclean removes an artist name from an auction title and repairs
// what is left.
package titleclean

import (
	"regexp"
	"strings"
	"unicode"
)

// Fallback is returned when nothing usable remains and no object keyword is found.
const Fallback = "Objekt"

// DefaultObjectKeywords are tried, in order, when the cleaned title is empty.
var DefaultObjectKeywords = []string{
	"skulptur", "figurin", "vas", "skål", "fat", "tallrik", "servis", "kanna",
	"ljusstake", "lampa", "målning", "oljemålning", "akvarell", "litografi",
	"teckning", "grafik", "affisch", "armbandsur", "klocka", "ring", "halsband",
	"armband", "brosch", "byrå", "skåp", "stol", "fåtölj", "soffa", "bord",
	"spegel", "matta", "tavla",
}

// sep is the punctuation a title uses between segments.
const sep = `,.;:\-–—`

var (
	reDupComma     = regexp.MustCompile(`,(\s*,)+`)
	reSpaceBefore  = regexp.MustCompile(`\s+([,.;:])`)
	reNoSpaceAfter = regexp.MustCompile(`,(\S)`)
	reMultiSpace   = regexp.MustCompile(`\s{2,}`)
	reLeading      = regexp.MustCompile(`^[\s` + sep + `]+`)
	reTrailing     = regexp.MustCompile(`[\s,;:\-–—]+$`)
	reOrphanSep    = regexp.MustCompile(`\s[\-–—]\s*([,.;:])`)
	reDupDash      = regexp.MustCompile(`([\-–—])(\s*[\-–—])+`)
)

// Cleaner holds the object keyword list used by the fallback.
type Cleaner struct {
	keywords []string
}

// New creates a Cleaner. A nil list means DefaultObjectKeywords.
func New(keywords []string) *Cleaner {
	if keywords == nil {
		keywords = DefaultObjectKeywords
	}
	return &Cleaner{keywords: keywords}
}

var std = New(nil)

// CleanAfterArtistRemoval uses the default keyword list.
func CleanAfterArtistRemoval(title, artist string) string {
	return std.Clean(title, artist)
}

// Clean strips artist from title.
func (c *Cleaner) Clean(title, artist string) string {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	if artist == "" {
		return title
	}

	out := title
	for _, p := range passes(artist) {
		out = p.re.ReplaceAllString(out, p.repl)
	}
	out = repair(out)

	if !hasAlnum(out) {
		return c.fallback(title)
	}
	return capitalize(out)
}

type pass struct {
	re   *regexp.Regexp
	repl string
}

// passes builds the five removal patterns for one artist, in application order:
// prefix with punctuation, bare prefix, mid-string whole word, comma-delimited,
// suffix.
func passes(artist string) []pass {
	name := artistPattern(artist)
	// A name boundary that also works for å, ä, ö (RE2 \b is ASCII-only).
	notWord := `[^\p{L}\p{N}]`
	return []pass{
		{regexp.MustCompile(`(?i)^\s*` + name + `\s*[` + sep + `]+\s*`), ""},
		{regexp.MustCompile(`(?i)^\s*` + name + `\s+`), ""},
		{regexp.MustCompile(`(?i)(\s)` + name + `\s+`), "$1"},
		{regexp.MustCompile(`(?i),\s*` + name + `\s*,`), ","},
		{regexp.MustCompile(`(?i)(^|` + notWord + `)\s*` + name + `\s*[.,;:]*\s*$`), "$1"},
	}
}

// artistPattern quotes the name and lets any run of whitespace separate words.
func artistPattern(artist string) string {
	parts := strings.Fields(artist)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return `(?:` + strings.Join(parts, `\s+`) + `)`
}

func repair(s string) string {
	s = reDupComma.ReplaceAllString(s, ",")
	s = reDupDash.ReplaceAllString(s, "$1")
	s = reOrphanSep.ReplaceAllString(s, "$1")
	s = reSpaceBefore.ReplaceAllString(s, "$1")
	s = reNoSpaceAfter.ReplaceAllString(s, ", $1")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reLeading.ReplaceAllString(s, "")
	s = reTrailing.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func (c *Cleaner) fallback(title string) string {
	lower := strings.ToLower(title)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, k := range c.keywords {
		for _, w := range words {
			if w == k {
				return capitalize(k)
			}
		}
	}
	return Fallback
}

// capitalize upper-cases the first letter unless the title opens with a quote,
// in which case the quoted text is kept as written.
func capitalize(s string) string {
	r := []rune(s)
	for i, ch := range r {
		if unicode.IsLetter(ch) {
			if i > 0 && isQuote(r[i-1]) {
				return s
			}
			r[i] = unicode.ToUpper(ch)
			return string(r)
		}
		if unicode.IsDigit(ch) {
			return s
		}
	}
	return s
}

func isQuote(r rune) bool {
	return strings.ContainsRune(`"'“”„«»`, r)
}

func hasAlnum(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	})
}
