package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
)

// defaultFindExclusions prune tool metadata, dependency caches, version
// control and common build output from every search.
var defaultFindExclusions = []string{
	"!**/.chara/**",
	"!**/node_modules/**",
	"!**/.git/**",
	"!**/dist/**",
	"!**/build/**",
	"!**/coverage/**",
	"!**/.next/**",
	"!**/target/**",
}

// hiddenCatchAll excludes dotfiles when hidden entries are not requested.
// Important hidden files are still reported.
const hiddenCatchAll = "!**/.*"

type FindOptions struct {
	Path             string
	Pattern          string
	ExcludePatterns  []string
	IncludeHidden    bool
	RespectGitignore bool
}

type globMatch struct {
	rel   string
	isDir bool
}

// Find expands a sanitized pattern below opts.Path. The expansion runs under
// a deadline; when the deadline wins, the search result is discarded and a
// timeout error naming the pattern is returned.
func (e *Explorer) Find(ctx context.Context, opts FindOptions) (*FindResult, error) {
	const op = "find"
	patterns, err := SanitizePattern(opts.Pattern, e.limits)
	if err != nil {
		return nil, err
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, newUsageError(op,
				fmt.Sprintf("pattern %q is not a valid glob", p),
				"Check for unbalanced '[' or '{' characters",
				map[string]any{"pattern": opts.Pattern})
		}
	}

	exclusions := buildExclusions(opts.ExcludePatterns, opts.IncludeHidden)
	if n := len(patterns) + len(exclusions); n > e.limits.MaxFindPatterns {
		return nil, newUsageError(op,
			fmt.Sprintf("too many patterns (%d including exclusions), the maximum is %d", n, e.limits.MaxFindPatterns),
			"Pass fewer exclude patterns or fewer '|' alternatives",
			map[string]any{"pattern": opts.Pattern, "excludePatterns": opts.ExcludePatterns})
	}

	root, err := resolveRoot(op, opts.Path)
	if err != nil {
		return nil, err
	}
	log := e.callLog(op, root)

	timeout := e.limits.FindComplexTimeout
	if len(patterns) == 1 && wildcardCount(patterns[0]) <= 2 {
		timeout = e.limits.FindTimeout
	}

	// Nested .gitignore files met during expansion are added to rules, so the
	// filter below sees them.
	var rules *IgnoreRuleSet
	if opts.RespectGitignore {
		rules = LoadIgnoreRuleSet(root, e.limits, log)
	}

	g := &globber{
		root:          root,
		patterns:      lowerAll(patterns),
		exclusions:    stripExclusions(exclusions),
		includeHidden: opts.IncludeHidden,
		maxDepth:      e.limits.FindMaxDepth,
		rules:         rules,
		log:           log,
	}

	started := time.Now()
	searchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		matches []globMatch
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		m, err := g.expand(searchCtx)
		done <- outcome{matches: m, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-searchCtx.Done():
		out.err = searchCtx.Err()
	}
	if out.err != nil {
		if errors.Is(out.err, context.DeadlineExceeded) {
			log.Warnf("search timed out after %s", timeout)
			return nil, newTimeoutError(op, opts.Pattern, timeout, out.err)
		}
		if errors.Is(out.err, context.Canceled) {
			return nil, out.err
		}
		return nil, newIOError(op, root, out.err)
	}

	if !opts.IncludeHidden {
		out.matches = appendImportantHidden(root, out.matches)
	}

	results := make([]FindResultEntry, 0, len(out.matches))
	for _, m := range out.matches {
		if rules != nil && !isImportantHiddenFile(path.Base(m.rel)) && rules.IsIgnored(m.rel, m.isDir) {
			continue
		}
		entry := FindResultEntry{
			Path:         m.rel,
			Type:         TypeFile,
			RelativePath: filepath.FromSlash(m.rel),
			AbsolutePath: filepath.Join(root, filepath.FromSlash(m.rel)),
		}
		if m.isDir {
			entry.Type = TypeDirectory
		}
		results = append(results, entry)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	log.WithFields(logrus.Fields{
		"patterns":   patterns,
		"totalFound": len(out.matches),
		"count":      len(results),
		"elapsed":    time.Since(started),
	}).Debug("search finished")

	return &FindResult{
		Count:      len(results),
		TotalFound: len(out.matches),
		Results:    results,
		Formatted:  formatFind(results, len(out.matches)),
	}, nil
}

// appendImportantHidden adds the important hidden files present directly in
// root that the expansion did not already report. The dotfile catch-all keeps
// them out of the walk unless the pattern names them.
func appendImportantHidden(root string, matches []globMatch) []globMatch {
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		seen[m.rel] = true
	}
	for _, name := range importantHiddenFiles {
		if seen[name] {
			continue
		}
		info, err := os.Lstat(filepath.Join(root, name))
		if err != nil {
			continue
		}
		matches = append(matches, globMatch{rel: name, isDir: info.IsDir()})
	}
	return matches
}

// buildExclusions assembles the defaults, the caller's patterns coerced to
// "!pattern" form and, unless hidden entries are wanted, the dotfile catch-all.
func buildExclusions(extra []string, includeHidden bool) []string {
	exclusions := append([]string{}, defaultFindExclusions...)
	for _, p := range extra {
		p = strings.TrimSpace(p)
		if p == "" || p == "!" {
			continue
		}
		if !strings.HasPrefix(p, "!") {
			p = "!" + p
		}
		exclusions = append(exclusions, p)
	}
	if !includeHidden {
		exclusions = append(exclusions, hiddenCatchAll)
	}
	return exclusions
}

// stripExclusions drops the "!" prefix and the dotfile catch-all, which the
// globber enforces through the hidden file policy instead.
func stripExclusions(exclusions []string) []string {
	out := make([]string, 0, len(exclusions))
	for _, x := range exclusions {
		if x == hiddenCatchAll {
			continue
		}
		out = append(out, strings.ToLower(strings.TrimPrefix(x, "!")))
	}
	return out
}

func lowerAll(patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = strings.ToLower(p)
	}
	return out
}

// globber is a case-insensitive, depth bounded glob expansion that never
// follows symlinks and reports both files and directories.
type globber struct {
	root          string
	patterns      []string
	exclusions    []string
	includeHidden bool
	maxDepth      int
	rules         *IgnoreRuleSet
	log           *logrus.Entry
}

func (g *globber) expand(ctx context.Context) ([]globMatch, error) {
	var matches []globMatch
	err := filepath.WalkDir(g.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == g.root {
				return err
			}
			g.log.WithError(err).Debugf("skipping %s", path)
			return nil
		}
		if path == g.root {
			return nil
		}

		rel, err := filepath.Rel(g.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()
		isDir := d.IsDir()

		if isAlwaysIgnored(name) ||
			(!g.includeHidden && isHidden(name) && !isImportantHiddenFile(name)) ||
			g.excluded(strings.ToLower(rel), strings.ToLower(name), isDir) {
			if isDir {
				return fs.SkipDir
			}
			return nil
		}

		if g.matches(strings.ToLower(rel)) {
			matches = append(matches, globMatch{rel: rel, isDir: isDir})
		}
		if isDir {
			if g.rules != nil {
				g.rules.LoadNested(rel)
			}
			if strings.Count(rel, "/")+1 >= g.maxDepth {
				return fs.SkipDir
			}
		}
		return nil
	})
	return matches, err
}

func (g *globber) matches(rel string) bool {
	for _, p := range g.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// excluded reports whether an exclusion covers rel. Exclusions without a
// slash also match the bare name, and "dir/**" also prunes dir itself.
func (g *globber) excluded(rel, name string, isDir bool) bool {
	for _, x := range g.exclusions {
		if ok, _ := doublestar.Match(x, rel); ok {
			return true
		}
		if !strings.Contains(x, "/") {
			if ok, _ := doublestar.Match(x, name); ok {
				return true
			}
		}
		if isDir && strings.HasSuffix(x, "/**") {
			if ok, _ := doublestar.Match(strings.TrimSuffix(x, "/**"), rel); ok {
				return true
			}
		}
	}
	return false
}
