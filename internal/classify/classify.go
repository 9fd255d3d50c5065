// Package classify maps free text to niches and an editorial content type.
package classify

import (
	"strings"

	"TopicScanner/internal/domain"
)

// Category is a keyword family used for niche detection.
type Category string

const (
	CategoryAI     Category = "ai"
	CategoryCrypto Category = "crypto"
	CategoryGrowth Category = "growth"
)

// Keywords holds the vocabulary per category. Matching is a case-insensitive
// substring test, so short keywords like "ai" also hit inside longer words.
type Keywords struct {
	AI     []string
	Crypto []string
	Growth []string
}

// Result is the outcome of classifying one piece of text.
type Result struct {
	AI          bool
	Crypto      bool
	Growth      bool
	Niches      domain.NicheSet
	ContentType domain.ContentType
}

// Matched reports whether at least one category hit. Unmatched items are discarded.
func (r Result) Matched() bool {
	return r.AI || r.Crypto || r.Growth
}

// Classifier is safe for concurrent use; it never mutates its vocabulary.
type Classifier struct {
	ai     []string
	crypto []string
	growth []string
}

// New lowercases the vocabulary once so Classify only lowercases the input.
func New(kw Keywords) *Classifier {
	return &Classifier{
		ai:     lowerAll(kw.AI),
		crypto: lowerAll(kw.Crypto),
		growth: lowerAll(kw.Growth),
	}
}

// Classify detects niches and picks the content type.
func (c *Classifier) Classify(text string) Result {
	lower := strings.ToLower(text)
	r := Result{
		AI:     containsAny(lower, c.ai),
		Crypto: containsAny(lower, c.crypto),
		Growth: containsAny(lower, c.growth),
	}
	r.Niches = niches(r)
	r.ContentType = contentType(r)
	return r
}

func niches(r Result) domain.NicheSet {
	var set domain.NicheSet
	if r.AI {
		set = set.With(domain.NicheAIMarketing)
	}
	if r.Crypto {
		set = set.With(domain.NicheCrypto)
	}
	if r.Growth {
		set = set.With(domain.NicheGrowth)
	}
	if len(set) >= 2 {
		set = set.With(domain.NicheGTM)
	}
	return set
}

// contentType applies the priority growth > crypto > ai.
func contentType(r Result) domain.ContentType {
	switch {
	case r.Growth:
		return domain.ContentExpert
	case r.Crypto:
		return domain.ContentViral
	case r.AI:
		return domain.ContentTools
	default:
		return domain.ContentEducational
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, strings.ToLower(strings.TrimSpace(w)))
	}
	return out
}
