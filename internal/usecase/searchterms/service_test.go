package searchterms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/domain/item"
	"github.com/kailas-cloud/katalog/internal/domain/query"
	"github.com/kailas-cloud/katalog/internal/domain/rules"
	"github.com/kailas-cloud/katalog/internal/domain/term"
)

type fakeCompleter struct {
	text string
	err  error
}

func (f *fakeCompleter) Complete(_ context.Context, _ domain.CompletionRequest) (domain.CompletionResult, error) {
	if f.err != nil {
		return domain.CompletionResult{}, f.err
	}
	return domain.CompletionResult{Text: f.text}, nil
}

var vase = item.Item{
	Title:  "VAS, glas, Orrefors, graverad dekor",
	Artist: "Simon Gate",
}

func keys(terms []term.Term) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, t.Key())
	}
	return out
}

func find(terms []term.Term, s string) (term.Term, bool) {
	for _, t := range terms {
		if t.Matches(s) {
			return t, true
		}
	}
	return term.Term{}, false
}

func TestGenerate_AI(t *testing.T) {
	llm := &fakeCompleter{text: "```json\n" + `{"searchTerms": [
		{"term": "graverad", "type": "keyword", "description": "Dekor"},
		{"term": "vas", "type": "object_type"},
		{"term": "Simon Gate", "type": "artist"},
		{"term": "x", "type": "weird", "priority": 200}
	]}` + "\n```"}
	svc := New(llm, rules.DefaultConfig(), nil)

	res, err := svc.Generate(context.Background(), vase)
	require.NoError(t, err)

	assert.False(t, res.Fallback)
	assert.Equal(t, query.SourceAI, res.Source)
	assert.Equal(t, []string{"simon gate", "orrefors", "vas", "glas", "graverad", "x"}, keys(res.Terms))

	artist, _ := find(res.Terms, "Simon Gate")
	assert.Equal(t, term.PriorityArtist, artist.Priority, "cataloged artist outranks the AI duplicate")
	assert.True(t, artist.Selected)

	vas, _ := find(res.Terms, "vas")
	assert.Equal(t, term.SourceAI, vas.Source)

	x, _ := find(res.Terms, "x")
	assert.Equal(t, term.Keyword, x.Type)
	assert.Equal(t, term.PriorityKeyword, x.Priority, "out of range priority ignored")
	assert.False(t, x.Selected)
}

func TestGenerate_ExcludedArtistNotSuggested(t *testing.T) {
	llm := &fakeCompleter{text: `{"searchTerms": [
		{"term": "Carl Larsson", "type": "artist"},
		{"term": "vas", "type": "object_type"}
	]}`}
	it := item.Item{Title: "Vas, glas", ExcludedArtist: "Carl Larsson"}

	res, err := New(llm, rules.DefaultConfig(), nil).Generate(context.Background(), it)
	require.NoError(t, err)

	_, ok := find(res.Terms, "Carl Larsson")
	assert.False(t, ok, "rejected artist must not come back from the model")
	_, ok = find(res.Terms, "vas")
	assert.True(t, ok)
}

func TestGenerate_AIArtistIsNotCore(t *testing.T) {
	llm := &fakeCompleter{text: `{"searchTerms": [{"term": "Edward Hald", "type": "artist"}]}`}
	it := item.Item{Title: "Vas, glas, Orrefors"}

	res, err := New(llm, rules.DefaultConfig(), nil).Generate(context.Background(), it)
	require.NoError(t, err)

	hald, ok := find(res.Terms, "Edward Hald")
	require.True(t, ok)
	assert.False(t, hald.Core)
	assert.Equal(t, term.PriorityAIArtist, hald.Priority)
}

func TestGenerate_Fallback(t *testing.T) {
	tests := []struct {
		name   string
		llm    Completer
		reason string
	}{
		{"no llm", nil, "disabled"},
		{"missing key", &fakeCompleter{err: domain.ErrMissingAPIKey}, "missing_api_key"},
		{"quota", &fakeCompleter{err: domain.ErrQuotaExceeded}, "quota"},
		{"provider", &fakeCompleter{err: errors.New("boom")}, "provider_error"},
		{"malformed", &fakeCompleter{text: "Jag föreslår: vas"}, "malformed"},
		{"no terms", &fakeCompleter{text: `{"searchTerms": []}`}, "malformed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(tt.llm, rules.DefaultConfig(), nil).Generate(context.Background(), vase)
			require.NoError(t, err)

			assert.True(t, res.Fallback)
			assert.Equal(t, tt.reason, res.FallbackReason)
			assert.Equal(t, query.SourceSystem, res.Source)

			artist, ok := find(res.Terms, "Simon Gate")
			require.True(t, ok)
			assert.Equal(t, term.PriorityArtist, artist.Priority)

			dekor, ok := find(res.Terms, "dekor")
			require.True(t, ok, "title keywords are added")
			assert.Equal(t, term.SourceFallback, dekor.Source)
		})
	}
}

func TestGenerate_EmptyItem(t *testing.T) {
	_, err := New(nil, rules.DefaultConfig(), nil).Generate(context.Background(), item.Item{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseTerms_AltKeyAndPreamble(t *testing.T) {
	got, err := parseTerms(`Här: {"terms": [{"term": "Rolex", "type": "brand", "priority": 88}]}`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rolex", got[0].Term)
	assert.Equal(t, 88, got[0].Priority)
	assert.True(t, got[0].Core)
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt(vase)
	assert.Contains(t, p, "Titel: VAS, glas, Orrefors, graverad dekor")
	assert.Contains(t, p, "Konstnär: Simon Gate")
	assert.Contains(t, p, `"searchTerms"`)
	assert.NotContains(t, p, "Föreslå inte")

	p = buildPrompt(item.Item{Title: "Vas", ExcludedArtist: "Carl Larsson"})
	assert.Contains(t, p, "Föreslå inte konstnären: Carl Larsson")
}
