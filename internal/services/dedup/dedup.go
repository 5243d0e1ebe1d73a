// Package dedup removes duplicate records and caps the number of comments
// kept per parent post.
package dedup

import (
	"slices"
	"strings"
)

// Keyed is a record with a natural id
type Keyed interface {
	Key() string
}

// Ranked is a child record that can be grouped by parent, filtered by text and ranked
type Ranked interface {
	Keyed
	ParentKey() string
	Text() string
	Rank() int
}

// Default quality filter
var (
	DefaultSkipPrefixes   = []string{"Thanks for your submission!"}
	DefaultSkipSubstrings = []string{"**User Report**", "I am bot"}
)

// DefaultTopK is the number of children kept per parent
const DefaultTopK = 200

// Unique keeps the first occurrence of every key, preserving arrival order
func Unique[T Keyed](records []T) []T {
	seen := make(map[string]struct{}, len(records))
	out := make([]T, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.Key()]; ok {
			continue
		}
		seen[r.Key()] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Reducer filters bot and moderator boilerplate and keeps the TopK highest
// ranked children per parent
type Reducer struct {
	SkipPrefixes   []string
	SkipSubstrings []string
	TopK           int
}

// NewReducer creates a reducer with the default filters
func NewReducer(topK int) *Reducer {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Reducer{
		SkipPrefixes:   DefaultSkipPrefixes,
		SkipSubstrings: DefaultSkipSubstrings,
		TopK:           topK,
	}
}

// Skip reports whether the text is boilerplate
func (r *Reducer) Skip(text string) bool {
	for _, p := range r.SkipPrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	for _, s := range r.SkipSubstrings {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// Reduce deduplicates, then per parent (in order of first appearance) drops
// boilerplate, stable-sorts by rank descending and keeps the top K
func Reduce[T Ranked](r *Reducer, records []T) []T {
	unique := Unique(records)

	var order []string
	groups := make(map[string][]T)
	for _, rec := range unique {
		parent := rec.ParentKey()
		if _, ok := groups[parent]; !ok {
			order = append(order, parent)
			groups[parent] = nil
		}
		if r.Skip(rec.Text()) {
			continue
		}
		groups[parent] = append(groups[parent], rec)
	}

	out := make([]T, 0, len(unique))
	for _, parent := range order {
		children := groups[parent]
		slices.SortStableFunc(children, func(a, b T) int {
			return b.Rank() - a.Rank()
		})
		if len(children) > r.TopK {
			children = children[:r.TopK]
		}
		out = append(out, children...)
	}
	return out
}
