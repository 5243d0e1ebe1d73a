// Package entity maps free text to tickers of a fixed universe.
package entity

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"wsbpanel/internal/domain/ticker"
	"wsbpanel/pkg/logger"
)

// MinSymbolLength drops single letter symbols, which match too much prose
const MinSymbolLength = 2

type compiledTicker struct {
	symbol   string
	tokens   []*regexp.Regexp
	symbolRe *regexp.Regexp
}

// Matcher tests text against every ticker of the universe. All patterns are
// compiled once in NewMatcher; a Matcher is safe for concurrent use.
type Matcher struct {
	tickers  []ticker.Ticker
	compiled []compiledTicker
}

// BuildTickers cleans company names and filters short symbols. Duplicate
// symbols keep their first position and their last name.
func BuildTickers(companies []ticker.Company) []ticker.Ticker {
	index := make(map[string]int, len(companies))
	out := make([]ticker.Ticker, 0, len(companies))

	for _, c := range companies {
		symbol := strings.TrimSpace(c.Symbol)
		if len(symbol) < MinSymbolLength {
			continue
		}
		_, tokens := CleanName(c.Name)
		t := ticker.Ticker{Symbol: symbol, CompanyName: c.Name, NameTokens: tokens}

		if i, ok := index[symbol]; ok {
			out[i] = t
			continue
		}
		index[symbol] = len(out)
		out = append(out, t)
	}
	return out
}

// NewMatcher compiles the universe. Token patterns are shared between tickers.
func NewMatcher(tickers []ticker.Ticker) *Matcher {
	tokenCache := make(map[string]*regexp.Regexp)
	compiled := make([]compiledTicker, 0, len(tickers))

	for _, t := range tickers {
		ct := compiledTicker{
			symbol:   t.Symbol,
			symbolRe: wordPattern(t.Symbol),
			tokens:   make([]*regexp.Regexp, 0, len(t.NameTokens)),
		}
		for _, tok := range t.NameTokens {
			re, ok := tokenCache[tok]
			if !ok {
				re = wordPattern(tok)
				tokenCache[tok] = re
			}
			ct.tokens = append(ct.tokens, re)
		}
		compiled = append(compiled, ct)
	}

	logger.Get().Debugw("Entity matcher compiled",
		"tickers", len(compiled),
		"distinct_tokens", len(tokenCache),
	)

	return &Matcher{tickers: tickers, compiled: compiled}
}

// NewMatcherFromCompanies is BuildTickers followed by NewMatcher
func NewMatcherFromCompanies(companies []ticker.Company) *Matcher {
	return NewMatcher(BuildTickers(companies))
}

// Tickers returns the compiled universe in matching order
func (m *Matcher) Tickers() []ticker.Ticker {
	return m.tickers
}

// Symbols returns the set of universe symbols
func (m *Matcher) Symbols() map[string]struct{} {
	set := make(map[string]struct{}, len(m.compiled))
	for _, ct := range m.compiled {
		set[ct.symbol] = struct{}{}
	}
	return set
}

// Match returns the tickers mentioned in text, in universe order.
// A ticker is found when all of its name tokens occur as whole words in the
// uppercased text, or when its symbol occurs as a whole word in the raw text.
// Tickers without name tokens are matched by symbol only.
func (m *Matcher) Match(text string) []string {
	if text == "" {
		return nil
	}
	upper := strings.ToUpper(text)

	var found []string
	for i := range m.compiled {
		if m.compiled[i].matches(text, upper) {
			found = append(found, m.compiled[i].symbol)
		}
	}
	return found
}

// MatchAll matches each text separately and returns the union in universe order
func (m *Matcher) MatchAll(texts ...string) []string {
	uppers := make([]string, len(texts))
	for i, t := range texts {
		uppers[i] = strings.ToUpper(t)
	}

	var found []string
	for i := range m.compiled {
		for j, t := range texts {
			if t != "" && m.compiled[i].matches(t, uppers[j]) {
				found = append(found, m.compiled[i].symbol)
				break
			}
		}
	}
	return found
}

func (ct *compiledTicker) matches(raw, upper string) bool {
	if ct.symbolRe.MatchString(raw) {
		return true
	}
	if len(ct.tokens) == 0 {
		return false
	}
	for _, re := range ct.tokens {
		if !re.MatchString(upper) {
			return false
		}
	}
	return true
}

// Word characters are Unicode letters, digits and underscore. RE2's \b is
// ASCII only, so the boundaries are spelled out; a word that starts or ends
// with a non-word rune needs a word rune on that side instead.
const (
	wordRune    = `[\p{L}\p{N}_]`
	nonWordRune = `[^\p{L}\p{N}_]`
)

func wordPattern(word string) *regexp.Regexp {
	left, right := `(?:^|`+nonWordRune+`)`, `(?:$|`+nonWordRune+`)`

	if first, _ := utf8.DecodeRuneInString(word); !isWordRune(first) {
		left = wordRune
	}
	if last, _ := utf8.DecodeLastRuneInString(word); !isWordRune(last) {
		right = wordRune
	}
	return regexp.MustCompile(left + regexp.QuoteMeta(word) + right)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
