package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbpanel/internal/domain/ticker"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		name   string
		clean  string
		tokens []string
	}{
		{"Apple Inc.", "APPLE", []string{"APPLE"}},
		{"Alphabet Inc. Class A", "ALPHABET", []string{"ALPHABET"}},
		{"AT&T Inc", "ATT", []string{"ATT"}},
		{"Coca-Cola Co", "COCACOLA", []string{"COCACOLA"}},
		{"Goldman Sachs Group, Inc.", "GOLDMAN SACHS", []string{"GOLDMAN", "SACHS"}},
		{"Comcast Corp", "COMCAST", []string{"COMCAST"}},
		{"  Inc  ", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, tokens := CleanName(tt.name)
			assert.Equal(t, tt.clean, clean)
			assert.Equal(t, tt.tokens, tokens)
		})
	}
}

func TestBuildTickers_FiltersShortAndDuplicateSymbols(t *testing.T) {
	got := BuildTickers([]ticker.Company{
		{Symbol: "F", Name: "Ford Motor Co"},
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "MSFT", Name: "Microsoft Corp"},
		{Symbol: "AAPL", Name: "Apple Computer Inc."},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.Equal(t, []string{"APPLE", "COMPUTER"}, got[0].NameTokens)
	assert.Equal(t, "MSFT", got[1].Symbol)
}

func newTestMatcher() *Matcher {
	return NewMatcherFromCompanies([]ticker.Company{
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "APLE", Name: "Apple Hospitality REIT Inc."},
		{Symbol: "IT", Name: "Gartner Inc."},
		{Symbol: "GS", Name: "Goldman Sachs Group Inc."},
		{Symbol: "XYZ", Name: "Inc."},
	})
}

func TestMatch_Symbol(t *testing.T) {
	m := newTestMatcher()
	assert.Contains(t, m.Match("I love AAPL"), "AAPL")
}

func TestMatch_SymbolNeedsWordBoundary(t *testing.T) {
	m := newTestMatcher()
	assert.NotContains(t, m.Match("AAPLE is not a ticker"), "AAPL")
}

func TestMatch_BoundariesAreUnicodeAware(t *testing.T) {
	m := NewMatcherFromCompanies([]ticker.Company{{Symbol: "AAPL", Name: "Apple Inc."}})

	tests := []struct {
		text  string
		found bool
	}{
		{"AAPLé", false},
		{"éapple", false},
		{"ÉAAPL", false},
		{"AAPL٣", false},
		{"apple_pie", false},
		{"AAPL é", true},
		{"(AAPL)", true},
		{"é apple", true},
		{"AAPL", true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if tt.found {
				assert.Equal(t, []string{"AAPL"}, m.Match(tt.text))
			} else {
				assert.Empty(t, m.Match(tt.text))
			}
		})
	}
}

func TestMatch_PartialNameDoesNotMatch(t *testing.T) {
	m := newTestMatcher()

	got := m.Match("I love apple pie")
	assert.NotContains(t, got, "APLE")
	// single token names match on that token alone
	assert.Contains(t, got, "AAPL")

	assert.Contains(t, m.Match("Apple Hospitality REIT raised its dividend"), "APLE")
}

func TestMatch_SymbolIsCaseSensitive(t *testing.T) {
	m := newTestMatcher()
	assert.NotContains(t, m.Match("it is what it is"), "IT")
	assert.Contains(t, m.Match("IT earnings beat"), "IT")
}

func TestMatch_AllNameTokensRequired(t *testing.T) {
	m := newTestMatcher()
	assert.NotContains(t, m.Match("goldman is hiring"), "GS")
	assert.Contains(t, m.Match("sachs and goldman"), "GS")
}

func TestMatch_TokenlessTickerIsSymbolOnly(t *testing.T) {
	m := newTestMatcher()
	assert.Empty(t, m.Match("nothing to see here"))
	assert.Equal(t, []string{"XYZ"}, m.Match("XYZ to the moon"))
}

func TestMatch_UniverseOrderNoDuplicates(t *testing.T) {
	m := newTestMatcher()
	assert.Equal(t, []string{"AAPL", "GS"}, m.Match("GS and AAPL and Apple and GS"))
}

func TestMatchAll_UnionsTexts(t *testing.T) {
	m := newTestMatcher()

	got := m.MatchAll("GS puts", "loading up on AAPL", "")
	assert.Equal(t, []string{"AAPL", "GS"}, got)

	// tokens split across title and body do not combine
	assert.NotContains(t, m.MatchAll("goldman", "sachs"), "GS")
}

func TestSymbols(t *testing.T) {
	m := newTestMatcher()
	syms := m.Symbols()
	assert.Len(t, syms, 5)
	assert.Contains(t, syms, "GS")
}
