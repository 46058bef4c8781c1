// Package resolve maps a parsed line of input to one of the generated
// actions.
package resolve

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/nathoo/heartweek/engine/actions"
	"github.com/nathoo/heartweek/engine/parser"
)

// MinDigestPrefix is the shortest digest prefix accepted as a handle.
const MinDigestPrefix = 4

// AmbiguityError indicates several actions matched the input.
type AmbiguityError struct {
	Input      string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("which one? (%s)", strings.Join(e.Candidates, ", "))
}

// NoMatchError indicates no action matched the input.
type NoMatchError struct {
	Input string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("you can't %q right now", e.Input)
}

// Resolve picks the action named by in: by digest, by menu number, by
// description and finally by edit distance.
func Resolve(in parser.Input, list []actions.Action) (actions.Action, error) {
	if in.Kind != parser.Number && in.Kind != parser.Text {
		return actions.Action{}, &NoMatchError{Input: in.Raw}
	}

	// 1. Digest or unique digest prefix. Digests may be all digits.
	if a, ok := byDigest(strings.ToLower(in.Raw), list); ok {
		return a, nil
	}

	// 2. Menu number.
	if in.Kind == parser.Number {
		if in.N < 1 || in.N > len(list) {
			return actions.Action{}, &NoMatchError{Input: in.Raw}
		}
		return list[in.N-1], nil
	}

	query := in.Text()
	descs := make([]string, len(list))
	for i, a := range list {
		descs[i] = strings.Join(parser.Normalize(a.Description), " ")
	}

	// 3. Exact description.
	for i, d := range descs {
		if d == query {
			return list[i], nil
		}
	}

	// 4. Every query word appears in the description.
	var matches []int
	for i, d := range descs {
		if containsWords(d, in.Words) {
			matches = append(matches, i)
		}
	}
	if len(matches) > 0 {
		return pick(in.Raw, list, matches)
	}

	// 5. Closest description within a tolerance.
	best, bestDist := []int(nil), maxDistance(query)+1
	for i, d := range descs {
		dist := levenshtein.ComputeDistance(query, d)
		switch {
		case dist < bestDist:
			best, bestDist = []int{i}, dist
		case dist == bestDist:
			best = append(best, i)
		}
	}
	if len(best) == 0 {
		return actions.Action{}, &NoMatchError{Input: in.Raw}
	}
	return pick(in.Raw, list, best)
}

func byDigest(s string, list []actions.Action) (actions.Action, bool) {
	if len(s) < MinDigestPrefix {
		return actions.Action{}, false
	}
	var found []actions.Action
	for _, a := range list {
		if a.Digest == s {
			return a, true
		}
		if strings.HasPrefix(a.Digest, s) {
			found = append(found, a)
		}
	}
	if len(found) == 1 {
		return found[0], true
	}
	return actions.Action{}, false
}

func pick(raw string, list []actions.Action, idx []int) (actions.Action, error) {
	if len(idx) == 1 {
		return list[idx[0]], nil
	}
	// Identical descriptions (two turnips) are interchangeable.
	same := true
	for _, i := range idx[1:] {
		if list[i].Description != list[idx[0]].Description || list[i].Kind != list[idx[0]].Kind {
			same = false
			break
		}
	}
	if same {
		return list[idx[0]], nil
	}
	names := make([]string, 0, len(idx))
	for _, i := range idx {
		names = append(names, list[i].Description)
	}
	return actions.Action{}, &AmbiguityError{Input: raw, Candidates: names}
}

func containsWords(desc string, words []string) bool {
	have := make(map[string]bool)
	for _, w := range strings.Fields(desc) {
		have[w] = true
	}
	for _, w := range words {
		if !have[w] {
			return false
		}
	}
	return len(words) > 0
}

// maxDistance scales the typo tolerance with the query length.
func maxDistance(query string) int {
	d := len(query) / 4
	if d < 2 {
		d = 2
	}
	return d
}
