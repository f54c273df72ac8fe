package enhance

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/katalog/internal/domain"
)

var labelRe = regexp.MustCompile(`(?i)^\s*\**\s*(TITEL|BESKRIVNING|KONDITION|SÖKORD|SOKORD)\s*\**\s*:\s*\**\s*(.*?)\s*$`)

// flexText accepts a JSON string or an array of strings.
type flexText string

func (t *flexText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = flexText(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*t = flexText(strings.Join(list, " "))
	return nil
}

type jsonAnswer struct {
	Title       flexText `json:"title"`
	Titel       flexText `json:"titel"`
	Description flexText `json:"description"`
	Beskrivning flexText `json:"beskrivning"`
	Condition   flexText `json:"condition"`
	Kondition   flexText `json:"kondition"`
	Keywords    flexText `json:"keywords"`
	Sokord      flexText `json:"sokord"`
}

func firstNonEmpty(vals ...flexText) string {
	for _, v := range vals {
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return ""
}

// Parse reads an AI answer as labeled lines or JSON (optionally fenced).
func Parse(text string, f Field) (Result, error) {
	text = domain.StripCodeFence(text)
	if strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("empty answer: %w", domain.ErrMalformedResponse)
	}

	var (
		r   Result
		err error
	)
	if strings.HasPrefix(strings.TrimSpace(text), "{") {
		r, err = parseJSON(text)
		if err != nil {
			return Result{}, err
		}
	} else {
		var found bool
		r, found = parseLabeled(text)
		if !found && f != FieldAll {
			*f.target(&r) = strings.TrimSpace(text)
		}
	}

	return pick(r, f)
}

func parseJSON(text string) (Result, error) {
	var a jsonAnswer
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &a); err != nil {
		return Result{}, fmt.Errorf("decode json answer: %v: %w", err, domain.ErrMalformedResponse)
	}
	return Result{
		Title:       firstNonEmpty(a.Title, a.Titel),
		Description: firstNonEmpty(a.Description, a.Beskrivning),
		Condition:   firstNonEmpty(a.Condition, a.Kondition),
		Keywords:    firstNonEmpty(a.Keywords, a.Sokord),
	}, nil
}

// parseLabeled fills fields from "LABEL: value" lines. Lines without a label
// continue the previous field.
func parseLabeled(text string) (Result, bool) {
	var (
		r       Result
		current *string
		found   bool
	)
	for _, line := range strings.Split(text, "\n") {
		if m := labelRe.FindStringSubmatch(line); m != nil {
			current = slotFor(&r, m[1])
			*current = m[2]
			found = true
			continue
		}
		line = strings.TrimSpace(line)
		if current == nil || line == "" {
			continue
		}
		if *current == "" {
			*current = line
		} else {
			*current += "\n" + line
		}
	}
	return r, found
}

func slotFor(r *Result, label string) *string {
	switch strings.ToUpper(label) {
	case "TITEL":
		return &r.Title
	case "BESKRIVNING":
		return &r.Description
	case "KONDITION":
		return &r.Condition
	default:
		return &r.Keywords
	}
}

// pick keeps only the requested fields and checks that they are present.
func pick(r Result, f Field) (Result, error) {
	if f == FieldAll {
		if r.Title == "" || r.Description == "" {
			return Result{}, fmt.Errorf("answer lacks title or description: %w", domain.ErrMalformedResponse)
		}
		return r, nil
	}
	var out Result
	slot := f.target(&out)
	*slot = *f.target(&r)
	if *slot == "" {
		return Result{}, fmt.Errorf("answer lacks %s: %w", f, domain.ErrMalformedResponse)
	}
	return out, nil
}
