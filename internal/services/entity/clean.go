package entity

import (
	"regexp"
	"strings"
)

// BoilerplateWords are stripped from company names before tokenizing
var BoilerplateWords = []string{
	"INC", "CORP", "CO", "COM", "LTD", "PLC", "COMPANY", "INCORPORATED",
	"HOLDINGS", "GROUP", "CLASS A", "CLASS B", "CLASS C", "CVR",
}

var (
	boilerplateRe = regexp.MustCompile(`\b(?:` + strings.Join(BoilerplateWords, "|") + `)\b`)
	nonTokenRe    = regexp.MustCompile(`[^A-Z0-9 ]`)
)

// CleanName uppercases a legal company name, removes boilerplate words and
// special characters, and returns the cleaned name with its tokens.
// "Apple Inc." gives ("APPLE", ["APPLE"]).
func CleanName(name string) (string, []string) {
	s := boilerplateRe.ReplaceAllString(strings.ToUpper(name), "")
	s = nonTokenRe.ReplaceAllString(s, "")
	tokens := strings.Fields(s)
	return strings.Join(tokens, " "), tokens
}
