package engine

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lazypower/keepsake/internal/store"
)

// DefaultTopK is the default number of memories retrieved per question.
const DefaultTopK = 5

// Per-field weights, by descending priority. Tags are the strongest
// relevance signal, free-text reasoning the weakest.
const (
	weightTags      = 4
	weightGoal      = 3
	weightSummary   = 2
	weightReasoning = 1
)

// Retrieve ranks decisions by keyword overlap with the query and
// returns at most k, best first. Scoring is deterministic: per-field
// token overlap combined with the weights above, ties broken by pinned
// then by recency. Zero-score records are excluded; if every record
// scores zero, the k most recent are returned instead so a non-empty
// memory set always grounds something.
func Retrieve(query string, decisions []store.Decision, k int) []store.Decision {
	if k <= 0 {
		k = DefaultTopK
	}
	qTokens := tokenize(query)

	type scored struct {
		d     store.Decision
		score int
	}
	var ranked []scored
	for _, d := range decisions {
		score := weightTags*overlap(qTokens, tokenize(strings.Join(d.Tags, " "))) +
			weightGoal*overlap(qTokens, tokenize(d.Goal)) +
			weightSummary*overlap(qTokens, tokenize(d.Summary)) +
			weightReasoning*overlap(qTokens, tokenize(d.Reasoning))
		if score > 0 {
			ranked = append(ranked, scored{d: d, score: score})
		}
	}

	// Weak-context fallback: nothing matched, return the most recent
	if len(ranked) == 0 {
		recent := append([]store.Decision(nil), decisions...)
		sort.SliceStable(recent, func(i, j int) bool {
			return recent[i].CreatedAt > recent[j].CreatedAt
		})
		if len(recent) > k {
			recent = recent[:k]
		}
		return recent
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].d.Pinned != ranked[j].d.Pinned {
			return ranked[i].d.Pinned
		}
		return ranked[i].d.CreatedAt > ranked[j].d.CreatedAt
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]store.Decision, len(ranked))
	for i, r := range ranked {
		out[i] = r.d
	}
	return out
}

// overlap counts how many distinct query tokens appear in the field.
func overlap(query, field []string) int {
	if len(query) == 0 || len(field) == 0 {
		return 0
	}
	set := make(map[string]bool, len(field))
	for _, t := range field {
		set[t] = true
	}
	seen := make(map[string]bool, len(query))
	count := 0
	for _, t := range query {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			count++
		}
	}
	return count
}

// tokenize lowercases and splits on non-alphanumeric runes, dropping
// tokens of length <= 2 as a cheap stop-word filter.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []string
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}
