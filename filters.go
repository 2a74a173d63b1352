package main

import "path/filepath"

// alwaysIgnoredNames never appear in any result, whatever the flags say:
// tool metadata, dependency cache and version control directories.
var alwaysIgnoredNames = [...]string{".chara", "node_modules", ".git"}

// importantHiddenFiles are dotfiles surfaced even when hidden entries are excluded.
var importantHiddenFiles = [...]string{".gitignore", ".chara.json"}

// isAlwaysIgnored checks a bare entry name against the fixed exclusions.
func isAlwaysIgnored(name string) bool {
	for _, n := range alwaysIgnoredNames {
		if name == n {
			return true
		}
	}
	return false
}

// isHidden checks if a file path is hidden (starts with '.').
func isHidden(path string) bool {
	if path == "." || path == ".." {
		return false
	}
	baseName := filepath.Base(path)
	return len(baseName) > 0 && baseName[0] == '.'
}

func isImportantHiddenFile(name string) bool {
	for _, n := range importantHiddenFiles {
		if name == n {
			return true
		}
	}
	return false
}

type verdict int

const (
	verdictAdmit verdict = iota
	verdictAlwaysIgnored
	verdictHidden
	verdictIgnored
)

// admission applies the shared admission order to walk candidates:
// always-ignored names, then the hidden file policy, then the ignore rules.
type admission struct {
	includeHidden    bool
	respectGitignore bool
	rules            *IgnoreRuleSet // nil disables gitignore evaluation
}

// check returns the verdict for one entry. hidden and ignored report what was
// observed even when the flags let the entry through, so callers can annotate.
// Important hidden files are admitted whatever the rules say.
func (a admission) check(rel, name string, isDir bool) (v verdict, hidden, ignored bool) {
	if isAlwaysIgnored(name) {
		return verdictAlwaysIgnored, false, false
	}
	hidden = isHidden(name)
	if hidden && !a.includeHidden && !isImportantHiddenFile(name) {
		return verdictHidden, true, false
	}
	if a.rules != nil {
		ignored = a.rules.IsIgnored(rel, isDir)
	}
	if ignored && a.respectGitignore && !isImportantHiddenFile(name) {
		return verdictIgnored, hidden, true
	}
	return verdictAdmit, hidden, ignored
}
