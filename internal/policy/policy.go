// Package policy implements the content-policy check applied to the last user
// message before any adapter is invoked.
package policy

import "strings"

// Checker inspects user text and returns human-readable violation reasons.
// An empty slice means the text passes.
type Checker interface {
	Check(text string) []string
}

// AllowAll is a Checker that never flags anything.
type AllowAll struct{}

// Check implements Checker.
func (AllowAll) Check(string) []string { return nil }

// Keyword is a deny-list Checker: it flags text containing any configured
// blocked term. Matching is substring-based and, by default, case-insensitive.
type Keyword struct {
	terms         []string
	caseSensitive bool
}

// NewKeyword builds a Keyword checker from a list of blocked terms.
func NewKeyword(terms []string, caseSensitive bool) *Keyword {
	k := &Keyword{caseSensitive: caseSensitive}
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !caseSensitive {
			t = strings.ToLower(t)
		}
		k.terms = append(k.terms, t)
	}
	return k
}

// Check implements Checker. Every matched term produces one reason so the
// caller can report all violations at once.
func (k *Keyword) Check(text string) []string {
	if len(k.terms) == 0 {
		return nil
	}
	haystack := text
	if !k.caseSensitive {
		haystack = strings.ToLower(text)
	}
	var reasons []string
	for _, term := range k.terms {
		if strings.Contains(haystack, term) {
			reasons = append(reasons, "blocked term detected: "+term)
		}
	}
	return reasons
}
