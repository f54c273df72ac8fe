package enhance

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/katalog/internal/domain"
)

// Field selects what to improve.
type Field string

// Supported fields.
const (
	FieldAll          Field = "all"
	FieldTitle        Field = "title"
	FieldDescription  Field = "description"
	FieldCondition    Field = "condition"
	FieldKeywords     Field = "keywords"
	FieldTitleCorrect Field = "title-correct"
)

// ParseField validates a field name. Empty means all.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FieldAll, nil
	case FieldAll, FieldTitle, FieldDescription, FieldCondition, FieldKeywords, FieldTitleCorrect:
		return f, nil
	default:
		return "", fmt.Errorf("unknown field %q: %w", s, domain.ErrInvalidInput)
	}
}

// Result holds the improved texts. Only requested fields are set.
type Result struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Condition   string `json:"condition,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
}

// target maps a single-field request to the Result slot it fills.
func (f Field) target(r *Result) *string {
	switch f {
	case FieldTitle, FieldTitleCorrect:
		return &r.Title
	case FieldDescription:
		return &r.Description
	case FieldCondition:
		return &r.Condition
	case FieldKeywords:
		return &r.Keywords
	default:
		return nil
	}
}
