package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_IgnoresQuotesAndCase(t *testing.T) {
	cases := map[string]string{
		`Niels Thorsson`:       "niels thorsson",
		`"Niels Thorsson"`:     "niels thorsson",
		`  "Niels   Thorsson" `: "niels thorsson",
		`'Royal Copenhagen'`:   "royal copenhagen",
		`“Royal Copenhagen”`:   "royal copenhagen",
		`ROLEX`:                "rolex",
	}
	for in, want := range cases {
		assert.Equal(t, want, Key(in), "Key(%q)", in)
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"Niels Thorsson"`, Quote("Niels Thorsson"))
	assert.Equal(t, `"Niels Thorsson"`, Quote(`"Niels Thorsson"`))
	assert.Equal(t, "Rolex", Quote("Rolex"))
	assert.Equal(t, "", Quote("   "))
}

func TestMatches(t *testing.T) {
	tm := New(`"Royal Copenhagen"`, Brand, PriorityBrand, SourceRules)
	assert.True(t, tm.Matches("Royal Copenhagen"))
	assert.True(t, tm.Matches("royal copenhagen"))
	assert.False(t, tm.Matches("Royal"))
	assert.True(t, tm.Core)
}

func TestParseType(t *testing.T) {
	typ, err := ParseType(" Object_Type ")
	require.NoError(t, err)
	assert.Equal(t, ObjectType, typ)

	_, err = ParseType("colour")
	assert.Error(t, err)
}

func TestSplitQuery(t *testing.T) {
	got := SplitQuery(`"Niels Thorsson" fat Royal  "Bing & Grøndahl"`)
	assert.Equal(t, []string{`"Niels Thorsson"`, "fat", "Royal", `"Bing & Grøndahl"`}, got)

	assert.Equal(t, []string{`"open ended"`}, SplitQuery(`"open ended`))
	assert.Empty(t, SplitQuery(`  "" `))
}

func TestJoin(t *testing.T) {
	terms := []Term{
		New(`"Lisa Larson"`, Artist, PriorityArtist, SourceRules),
		New("skulptur", ObjectType, PriorityObjectType, SourceRules),
	}
	assert.Equal(t, `"Lisa Larson" skulptur`, Join(terms))
}
