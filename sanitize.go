package main

import (
	"fmt"
	"strings"
)

const matchAllPattern = "**/*"

var bareWildcards = map[string]bool{"*": true, "**": true, "?": true, "??": true}

var braceBreakers = strings.NewReplacer("{", "", "}", "", ",", "")

// SanitizePattern turns a raw, possibly '|'-separated search pattern into a
// bounded list of glob patterns that are cheap to expand. Patterns that
// cannot be made safe are rejected with a usage error that carries a
// concrete alternative. It never touches the filesystem.
func SanitizePattern(raw string, limits Limits) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || bareWildcards[trimmed] {
		return []string{matchAllPattern}, nil
	}

	var alternatives []string
	for _, alt := range strings.Split(trimmed, "|") {
		if alt = strings.TrimSpace(alt); alt != "" {
			alternatives = append(alternatives, alt)
		}
	}
	if len(alternatives) == 0 {
		return []string{matchAllPattern}, nil
	}
	if len(alternatives) > limits.MaxPatternAlternatives {
		return nil, newUsageError("find",
			fmt.Sprintf("too many pattern alternatives (%d), the maximum is %d", len(alternatives), limits.MaxPatternAlternatives),
			"Split the search into several find calls with fewer '|' alternatives",
			map[string]any{"pattern": raw, "alternatives": len(alternatives)})
	}

	seen := make(map[string]bool, len(alternatives))
	patterns := make([]string, 0, len(alternatives))
	for _, alt := range alternatives {
		p, err := sanitizeOne(alt, limits)
		if err != nil {
			return nil, err
		}
		if !seen[p] {
			seen[p] = true
			patterns = append(patterns, p)
		}
	}
	return patterns, nil
}

func sanitizeOne(pattern string, limits Limits) (string, error) {
	if bareWildcards[pattern] {
		return matchAllPattern, nil
	}
	if len(pattern) > limits.MaxPatternLength {
		return "", newUsageError("find",
			fmt.Sprintf("pattern is too long (%d characters), the maximum is %d", len(pattern), limits.MaxPatternLength),
			simplifiedPattern(literalSegments(pattern)),
			map[string]any{"pattern": pattern, "length": len(pattern)})
	}

	segments := literalSegments(pattern)
	if score := complexityScore(pattern); score > limits.MaxPatternComplexity {
		return "", newUsageError("find",
			fmt.Sprintf("pattern is too complex (score %d, maximum %d)", score, limits.MaxPatternComplexity),
			simplifiedPattern(segments),
			map[string]any{"pattern": pattern, "complexity": score})
	}
	if len(segments) > limits.MaxPatternSegments {
		err := newUsageError("find",
			fmt.Sprintf("pattern has too many wildcard segments (%d, maximum %d)", len(segments), limits.MaxPatternSegments),
			simplifiedPattern(segments),
			map[string]any{"pattern": pattern, "segments": len(segments)})
		for _, seg := range segments {
			err.Alternatives = append(err.Alternatives, "**/*"+seg+"*")
		}
		return "", err
	}
	return rewritePattern(pattern, segments), nil
}

// rewritePattern forces recursive matching and collapses many-segment
// patterns into a single brace alternation.
func rewritePattern(pattern string, segments []string) string {
	switch {
	case len(segments) == 0:
		return ensureRecursive(pattern)
	case len(segments) == 1:
		if !hasGlobMeta(pattern) {
			return "**/*" + segments[0] + "*"
		}
		return ensureRecursive(pattern)
	case len(segments) <= 3:
		return ensureRecursive(pattern)
	case len(segments) <= 5:
		return braceAlternation(segments)
	default:
		return rewritePattern(segments[0], segments[:1])
	}
}

// complexityScore weighs '*' twice as heavily as '?'.
func complexityScore(pattern string) int {
	return 2*strings.Count(pattern, "*") + strings.Count(pattern, "?")
}

// wildcardCount counts runs of '*' and single '?' as one wildcard each.
func wildcardCount(pattern string) int {
	n := 0
	inStar := false
	for _, r := range pattern {
		switch r {
		case '*':
			if !inStar {
				n++
			}
			inStar = true
			continue
		case '?':
			n++
		}
		inStar = false
	}
	return n
}

// literalSegments splits pattern on '*' and keeps the non-empty literal parts.
func literalSegments(pattern string) []string {
	var segments []string
	for _, part := range strings.Split(pattern, "*") {
		if part = strings.Trim(part, "/"); part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

func simplifiedPattern(segments []string) string {
	if len(segments) == 0 {
		return matchAllPattern
	}
	return braceAlternation(firstN(segments, 3))
}

func braceAlternation(segments []string) string {
	var clean []string
	for _, seg := range segments {
		if seg = braceBreakers.Replace(seg); seg != "" {
			clean = append(clean, seg)
		}
	}
	switch len(clean) {
	case 0:
		return matchAllPattern
	case 1:
		return "**/*" + clean[0] + "*"
	}
	return "**/*{" + strings.Join(clean, ",") + "}*"
}

func ensureRecursive(pattern string) string {
	switch {
	case pattern == "**" || strings.HasPrefix(pattern, "**/"):
		return pattern
	case strings.HasPrefix(pattern, "/"):
		return strings.TrimLeft(pattern, "/")
	}
	return "**/" + pattern
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
