package main

import (
	"fmt"
	"strings"
)

// operations lists the operation names Dispatch accepts, in help order.
var operations = []string{"list", "tree", "stats", "find"}

// operationSynonyms maps names agents commonly guess to the real operation.
var operationSynonyms = map[string]string{
	"ls":     "list",
	"dir":    "list",
	"search": "find",
	"glob":   "find",
	"locate": "find",
	"du":     "stats",
	"info":   "stats",
	"count":  "stats",
	"walk":   "tree",
	"show":   "tree",
}

// maxSuggestRunes bounds the edit distance input so the quadratic table
// stays small on hostile names.
const maxSuggestRunes = 64

// suggestOperation returns the operation most likely meant by name, or ""
// when nothing is close enough to be useful.
func suggestOperation(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return ""
	}
	if op, ok := operationSynonyms[key]; ok {
		return op
	}

	runes := []rune(key)
	if len(runes) > maxSuggestRunes {
		runes = runes[:maxSuggestRunes]
	}

	best, bestDist := "", -1
	for _, op := range operations {
		d := levenshtein(runes, []rune(op))
		if bestDist < 0 || d < bestDist {
			best, bestDist = op, d
		}
	}
	// Anything farther than half the candidate is noise, not a typo.
	if bestDist > (len(best)+1)/2 {
		return ""
	}
	return best
}

// unknownOperationError builds the usage error for an unrecognised operation.
func unknownOperationError(name string) *ToolError {
	suggestion := fmt.Sprintf("Valid operations are: %s", strings.Join(operations, ", "))
	if op := suggestOperation(name); op != "" {
		suggestion = fmt.Sprintf("Did you mean %q? %s", op, suggestion)
	}
	err := newUsageError("dispatch",
		fmt.Sprintf("unknown operation %q", name),
		suggestion,
		map[string]any{"operation": name})
	err.Alternatives = append(err.Alternatives, operations...)
	return err
}

// levenshtein computes the edit distance with a single rolling row.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur := min(row[j]+1, row[j-1]+1, prev+cost)
			prev = row[j]
			row[j] = cur
		}
	}
	return row[len(b)]
}
