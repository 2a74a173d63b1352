package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	sgitignore "github.com/sabhiram/go-gitignore"
	"github.com/sirupsen/logrus"
)

const gitignoreName = ".gitignore"

// defaultRules matches the always-ignored names and everything below them.
// It is compiled once and never modified.
var defaultRules = sgitignore.CompileIgnoreLines(defaultRuleLines()...)

func defaultRuleLines() []string {
	lines := make([]string, 0, 3*len(alwaysIgnoredNames))
	for _, name := range alwaysIgnoredNames {
		lines = append(lines, name, name+"/", name+"/**")
	}
	return lines
}

// IsDefaultIgnored reports whether path falls under one of the always-ignored names.
func IsDefaultIgnored(path string) bool {
	p, isDir := normalizeRulePath(path)
	if p == "" {
		return false
	}
	return matchDefault(p, isDir)
}

func matchDefault(p string, isDir bool) bool {
	if isDir {
		return defaultRules.MatchesPath(p + "/")
	}
	return defaultRules.MatchesPath(p)
}

// IgnoreRuleSet combines the default exclusions with the gitignore rules that
// apply to one operation root. It is built per call and discarded afterwards.
//
// In scoped mode every rule keeps the directory of the file it came from, so
// a rule only applies below that directory. Paths are matched relative to the
// farthest loaded ancestor, which prefix locates the root in. In flat mode all
// rules are concatenated and matched against root-relative paths.
type IgnoreRuleSet struct {
	root     string
	scoped   bool
	prefix   []string
	patterns []gitignore.Pattern
	sources  []string
	nested   map[string]bool
	log      *logrus.Entry
}

// NewIgnoreRuleSet builds a rule set from in-memory gitignore texts, all
// applying at root, in order.
func NewIgnoreRuleSet(root string, texts ...string) *IgnoreRuleSet {
	rs := &IgnoreRuleSet{
		root:   root,
		scoped: true,
		nested: map[string]bool{},
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, text := range texts {
		rs.addText(text, nil)
	}
	return rs
}

// LoadIgnoreRuleSet collects the .gitignore files of root and up to
// limits.GitignoreLevels-1 ancestors, stopping at the enclosing git worktree.
// Unreadable or malformed files never fail the call.
func LoadIgnoreRuleSet(root string, limits Limits, log *logrus.Entry) *IgnoreRuleSet {
	rs := &IgnoreRuleSet{
		root:   root,
		scoped: limits.NestedGitignore,
		nested: map[string]bool{},
		log:    log,
	}

	worktree, inRepo := findWorktreeRoot(root)
	dirs := ancestorDirs(root, limits.GitignoreLevels, worktree)
	base := dirs[0]
	if rs.scoped {
		rs.prefix = splitRel(base, root)
	}

	if inRepo && samePath(base, worktree) {
		rs.addFile(filepath.Join(worktree, ".git", "info", "exclude"), rs.domainFor(base, worktree))
	}
	for _, dir := range dirs {
		rs.addFile(filepath.Join(dir, gitignoreName), rs.domainFor(base, dir))
	}
	return rs
}

// LoadNested adds the .gitignore of a directory below the root, scoped to that
// directory. It is a no-op in flat mode and for directories already loaded.
func (rs *IgnoreRuleSet) LoadNested(dirRel string) {
	dirRel = filepath.ToSlash(dirRel)
	if !rs.scoped || dirRel == "" || dirRel == "." || rs.nested[dirRel] {
		return
	}
	rs.nested[dirRel] = true
	domain := append(append([]string{}, rs.prefix...), strings.Split(dirRel, "/")...)
	rs.addFile(filepath.Join(rs.root, filepath.FromSlash(dirRel), gitignoreName), domain)
}

// Sources lists the files the rules were read from, in load order.
func (rs *IgnoreRuleSet) Sources() []string {
	return rs.sources
}

// IsIgnored reports whether path (absolute, or relative to the root) is
// excluded. A trailing slash marks a directory, as does isDir.
func (rs *IgnoreRuleSet) IsIgnored(path string, isDir bool) bool {
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(rs.root, path)
		if err != nil {
			return false
		}
		path = rel
	}
	p, dirSuffix := normalizeRulePath(path)
	isDir = isDir || dirSuffix
	if p == "" || p == ".." || strings.HasPrefix(p, "../") {
		return false
	}
	if p == gitignoreName || strings.HasSuffix(p, "/"+gitignoreName) {
		return false
	}
	if matchDefault(p, isDir) {
		return true
	}

	parts := strings.Split(p, "/")
	if len(rs.prefix) > 0 {
		parts = append(append(make([]string, 0, len(rs.prefix)+len(parts)), rs.prefix...), parts...)
	}
	for i := len(rs.patterns) - 1; i >= 0; i-- {
		switch rs.patterns[i].Match(parts, isDir) {
		case gitignore.Exclude:
			return true
		case gitignore.Include:
			return false
		}
	}
	return false
}

func (rs *IgnoreRuleSet) addFile(path string, domain []string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			rs.log.WithError(err).Debugf("skipping unreadable ignore file %s", path)
		}
		return
	}
	rs.sources = append(rs.sources, path)
	rs.addText(string(data), domain)
}

func (rs *IgnoreRuleSet) addText(text string, domain []string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") || hasControlChars(line) {
			continue
		}
		rs.patterns = append(rs.patterns, gitignore.ParsePattern(line, domain))
	}
}

func (rs *IgnoreRuleSet) domainFor(base, dir string) []string {
	if !rs.scoped {
		return nil
	}
	return splitRel(base, dir)
}

// normalizeRulePath converts path to slash form without "./" or trailing slashes.
func normalizeRulePath(path string) (string, bool) {
	p := filepath.ToSlash(path)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	isDir := strings.HasSuffix(p, "/")
	p = strings.TrimRight(p, "/")
	if p == "." {
		p = ""
	}
	return p, isDir
}

func hasControlChars(line string) bool {
	for _, r := range line {
		if (r < 0x20 && r != '\t') || r == 0x7f {
			return true
		}
	}
	return false
}

// ancestorDirs returns root and its ancestors, farthest first, visiting at
// most levels directories and not climbing past stop.
func ancestorDirs(root string, levels int, stop string) []string {
	var dirs []string
	dir := root
	for i := 0; i < levels; i++ {
		dirs = append(dirs, dir)
		if stop != "" && samePath(dir, stop) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	for i, j := 0, len(dirs)-1; i < j; i, j = i+1, j-1 {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
	return dirs
}

// splitRel returns the path components of target relative to base.
func splitRel(base, target string) []string {
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." {
		return nil
	}
	return strings.Split(filepath.ToSlash(rel), "/")
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
