package service

import (
	"sort"
	"strings"
)

// stopwords excluded from canonical keys and keyword similarity. Dropping
// them keeps the key stable across phrasings of the same assertion.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "must": true, "shall": true, "can": true,
	"to": true, "of": true, "in": true, "for": true, "on": true, "with": true,
	"at": true, "by": true, "from": true, "up": true, "about": true, "into": true,
	"through": true, "during": true, "before": true, "after": true, "above": true,
	"below": true, "between": true, "under": true, "again": true, "further": true,
	"then": true, "once": true, "here": true, "there": true, "when": true,
	"where": true, "why": true, "how": true, "all": true, "each": true,
	"few": true, "more": true, "most": true, "other": true, "some": true,
	"such": true, "no": true, "nor": true, "only": true,
	"own": true, "same": true, "so": true, "than": true, "too": true,
	"very": true, "just": true, "and": true, "but": true, "if": true,
	"or": true, "because": true, "as": true, "until": true, "while": true,
	"this": true, "that": true, "these": true, "those": true, "am": true,
	"its": true, "it": true, "i": true, "me": true, "my": true, "you": true,
	"your": true, "he": true, "she": true, "we": true, "they": true,
	"what": true, "which": true, "who": true, "whom": true,
}

// SalientTokens lowercases, strips punctuation, and drops stopwords and
// tokens shorter than three characters. "not" survives on purpose: negation
// is load-bearing for contradiction detection.
func SalientTokens(content string) []string {
	words := strings.Fields(strings.ToLower(content))
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,?!:;\"'()[]{}")
		if w == "not" {
			tokens = append(tokens, w)
			continue
		}
		if len(w) < 3 || stopwords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// CanonicalKey derives the dedup key for a claim. It is a pure function of
// the content: identical semantic claims from different sources must land on
// the same key, and the key must be stable across process restarts, so the
// salient tokens are deduplicated and sorted rather than hashed with any
// per-process seed.
func CanonicalKey(content string) string {
	tokens := SalientTokens(content)
	seen := make(map[string]bool, len(tokens))
	uniq := tokens[:0]
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			uniq = append(uniq, t)
		}
	}
	sort.Strings(uniq)
	return strings.Join(uniq, "|")
}

// KeywordJaccard computes token-set Jaccard similarity between two texts.
func KeywordJaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	matches := 0
	for t := range setA {
		if setB[t] {
			matches++
		}
	}

	union := len(setA) + len(setB) - matches
	if union == 0 {
		return 0
	}
	return float64(matches) / float64(union)
}

func tokenSet(content string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range SalientTokens(content) {
		set[t] = true
	}
	return set
}

// keyPrefixOverlap reports whether two canonical keys share a leading run of
// tokens, which marks them as talking about the same subject.
func keyPrefixOverlap(keyA, keyB string, minTokens int) bool {
	if keyA == "" || keyB == "" {
		return false
	}
	tokensA := strings.Split(keyA, "|")
	tokensB := strings.Split(keyB, "|")
	n := 0
	for n < len(tokensA) && n < len(tokensB) && tokensA[n] == tokensB[n] {
		n++
	}
	return n >= minTokens
}
