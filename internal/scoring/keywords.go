package scoring

import (
	"sort"
	"strings"
	"unicode"
)

// stopWords filters common English words that add noise to keyword matching.
var stopWords = map[string]bool{
	"a": true, "an": true, "as": true, "at": true, "be": true, "by": true,
	"do": true, "if": true, "in": true, "is": true, "it": true, "of": true,
	"on": true, "or": true, "so": true, "to": true, "up": true, "we": true,
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"work": true, "team": true, "role": true, "job": true, "join": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "new": true,
	"use": true, "using": true, "used": true, "well": true, "high": true,
	"good": true, "able": true, "get": true, "set": true, "such": true,
	"company": true, "inc": true, "llc": true, "corp": true, "across": true,
	"over": true, "most": true, "other": true, "some": true, "any": true,
}

// tokenAliases maps common variants of a token to its canonical form.
var tokenAliases = map[string]string{
	"golang":      "go",
	"js":          "javascript",
	"ts":          "typescript",
	"k8s":         "kubernetes",
	"reactjs":     "react",
	"react.js":    "react",
	"vuejs":       "vue",
	"vue.js":      "vue",
	"nodejs":      "node.js",
	"postgres":    "postgresql",
	"py":          "python",
	"ml":          "machine-learning",
	"ai":          "artificial-intelligence",
	"internship":  "intern",
	"interns":     "intern",
	"internships": "intern",
	"fulltime":    "full-time",
	"h1b":         "h-1b",
	"f1":          "f-1",
	"j1":          "j-1",
	"co-ops":      "co-op",
}

// tokenize splits text into lowercase tokens in order. The characters + # . - are
// kept inside tokens so "c++", "c#", "node.js" and "h-1b" survive; trailing dots
// and dangling hyphens are dropped.
func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		w := strings.Trim(strings.TrimRight(word.String(), "."), "-")
		word.Reset()
		if w == "" {
			return
		}
		if alias, ok := tokenAliases[w]; ok {
			w = alias
		}
		tokens = append(tokens, w)
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' || r == '-' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// keywords returns the set of meaningful tokens in text.
func keywords(text string) map[string]bool {
	kw := make(map[string]bool)
	for _, t := range tokenize(text) {
		if len([]rune(t)) >= 2 && !stopWords[t] {
			kw[t] = true
		}
	}
	return kw
}

// containsPhrase reports whether phrase occurs as a contiguous token run in tokens.
func containsPhrase(tokens, phrase []string) bool {
	return len(phraseIndexes(tokens, phrase)) > 0
}

// phraseIndexes returns the start index of every occurrence of phrase in tokens.
func phraseIndexes(tokens, phrase []string) []int {
	if len(phrase) == 0 {
		return nil
	}
	var out []int
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j, p := range phrase {
			if tokens[i+j] != p {
				match = false
				break
			}
		}
		if match {
			out = append(out, i)
		}
	}
	return out
}

// hasPhrase is containsPhrase for a raw phrase string.
func hasPhrase(tokens []string, phrase string) bool {
	return containsPhrase(tokens, tokenize(phrase))
}

// intersect returns the sorted keys present in both sets.
func intersect(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// sortedKeys returns the keys of a set in sorted order.
func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// listTerms renders up to max terms for a reason string.
func listTerms(terms []string, max int) string {
	if len(terms) > max {
		return strings.Join(terms[:max], ", ") + ", ..."
	}
	return strings.Join(terms, ", ")
}
