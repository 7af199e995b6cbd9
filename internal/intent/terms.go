package intent

import (
	"sort"
	"strings"
)

// term is a normalized vocabulary phrase matched on whole tokens.
type term[T any] struct {
	tokens []string
	size   int
	order  int
	value  T
}

func compileTerms[T any](phrases []string, value T, order *int) []term[T] {
	out := make([]term[T], 0, len(phrases))
	for _, phrase := range phrases {
		normalized := Normalize(phrase)
		if normalized == "" {
			continue
		}
		out = append(out, term[T]{
			tokens: strings.Fields(normalized),
			size:   len(normalized),
			order:  *order,
			value:  value,
		})
		*order++
	}
	return out
}

// longestFirst orders terms by normalized length, keeping table order for ties.
func longestFirst[T any](terms []term[T]) {
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].size > terms[j].size
	})
}

// at reports whether the term occurs at token position index.
func (t term[T]) at(tokens []string, index int) bool {
	if index < 0 || index+len(t.tokens) > len(tokens) {
		return false
	}
	for offset, token := range t.tokens {
		if tokens[index+offset] != token {
			return false
		}
	}
	return true
}

// find returns the first token position of the term at or after from, or -1.
func (t term[T]) find(tokens []string, from int) int {
	for index := from; index+len(t.tokens) <= len(tokens); index++ {
		if t.at(tokens, index) {
			return index
		}
	}
	return -1
}

// earliest picks the term occurring first in tokens. Terms starting at the
// same position resolve to the longer one, then to table order.
func earliest[T any](terms []term[T], tokens []string) (term[T], int, bool) {
	var (
		best      term[T]
		bestIndex = -1
	)
	for _, candidate := range terms {
		index := candidate.find(tokens, 0)
		if index < 0 {
			continue
		}
		if bestIndex < 0 || index < bestIndex ||
			(index == bestIndex && candidate.size > best.size) ||
			(index == bestIndex && candidate.size == best.size && candidate.order < best.order) {
			best, bestIndex = candidate, index
		}
	}
	return best, bestIndex, bestIndex >= 0
}

// longestMatch picks the longest term present in tokens. Equal lengths
// resolve to the earliest occurrence, then to table order.
func longestMatch[T any](terms []term[T], tokens []string) (term[T], int, bool) {
	var (
		best      term[T]
		bestIndex = -1
	)
	for _, candidate := range terms {
		index := candidate.find(tokens, 0)
		if index < 0 {
			continue
		}
		if bestIndex < 0 || candidate.size > best.size ||
			(candidate.size == best.size && index < bestIndex) ||
			(candidate.size == best.size && index == bestIndex && candidate.order < best.order) {
			best, bestIndex = candidate, index
		}
	}
	return best, bestIndex, bestIndex >= 0
}

// matchAt returns the first term, in slice order, occurring at index.
func matchAt[T any](terms []term[T], tokens []string, index int) (term[T], bool) {
	for _, candidate := range terms {
		if candidate.at(tokens, index) {
			return candidate, true
		}
	}
	var zero term[T]
	return zero, false
}
