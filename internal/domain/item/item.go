// Package item holds the cataloging form fields sent by the extension.
package item

import (
	"strings"

	"github.com/kailas-cloud/katalog/internal/domain/rules"
)

// Item mirrors the cataloging form (item_title_sv, item_description_sv, ...).
type Item struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Condition      string `json:"condition"`
	Artist         string `json:"artist"`
	AIArtist       string `json:"aiArtist,omitempty"`
	ExcludedArtist string `json:"excludedArtist,omitempty"`
	Keywords       string `json:"keywords"`
	Category       string `json:"category,omitempty"`
}

// IsEmpty reports whether there is nothing to analyze.
func (i Item) IsEmpty() bool {
	return strings.TrimSpace(i.Title) == "" &&
		strings.TrimSpace(i.Description) == "" &&
		strings.TrimSpace(i.Artist) == ""
}

// RuleInput projects the item onto the rule engine input.
func (i Item) RuleInput() rules.Input {
	return rules.Input{
		Title:          i.Title,
		Description:    i.Description,
		Artist:         i.Artist,
		AIArtist:       i.AIArtist,
		ExcludedArtist: i.ExcludedArtist,
	}
}
