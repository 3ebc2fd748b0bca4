package classifier

import (
	"strings"
	"unicode"
)

const minSpecificWords = 5

var qualifierTerms = map[string]struct{}{
	// style
	"minimalist": {}, "modern": {}, "vintage": {}, "retro": {}, "leather": {}, "wooden": {}, "wood": {},
	"luxury": {}, "boho": {}, "rustic": {}, "industrial": {}, "scandinavian": {}, "cyberpunk": {},
	"cottagecore": {}, "elegant": {}, "casual": {}, "professional": {}, "techwear": {}, "sleek": {},
	"aesthetic": {}, "cozy": {},
	// features
	"waterproof": {}, "wireless": {}, "compact": {}, "portable": {}, "ergonomic": {}, "foldable": {},
	"rechargeable": {}, "lightweight": {}, "durable": {}, "mechanical": {}, "handmade": {}, "insulated": {},
	"adjustable": {}, "bluetooth": {}, "rolltop": {}, "organic": {}, "silent": {},
	// use case
	"work": {}, "office": {}, "travel": {}, "gym": {}, "hiking": {}, "commuting": {}, "camping": {},
	"gaming": {}, "kids": {}, "wedding": {}, "running": {}, "school": {},
	// budget
	"under": {}, "below": {}, "budget": {}, "cheaper": {}, "affordable": {},
}

// NeedsClarification reports whether a query is too short and too vague to
// search: fewer than five words and no style, use case, budget or feature.
func NeedsClarification(query string) bool {
	words := strings.Fields(query)
	if len(words) == 0 || len(words) >= minSpecificWords {
		return false
	}
	return !HasQualifier(query)
}

// HasQualifier reports whether the query names a style, use case, budget or feature.
func HasQualifier(query string) bool {
	lower := strings.ToLower(query)
	if strings.ContainsAny(lower, "$€£") {
		return true
	}
	for _, w := range strings.Fields(lower) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w == "" {
			continue
		}
		if _, ok := qualifierTerms[w]; ok {
			return true
		}
		if w == "for" {
			// "a gift for my dad" names a recipient
			return true
		}
		if strings.IndexFunc(w, unicode.IsDigit) >= 0 {
			return true
		}
	}
	return false
}
