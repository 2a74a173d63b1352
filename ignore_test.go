package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreRuleSetMatching(t *testing.T) {
	rs := NewIgnoreRuleSet("/project", "*.js\n!important.js\nfoo/\nbuild/**\n# comment\n\n/rooted.txt\n")

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"app.js", false, true},
		{"src/deep/app.js", false, true},
		{"important.js", false, false},
		{"foo", true, true},
		{"foo", false, false},
		{"foo.txt", false, false},
		{"foo/", false, true},
		{"foo/bar.txt", false, true},
		{"build/out.bin", false, true},
		{"rooted.txt", false, true},
		{"sub/rooted.txt", false, false},
		{"# comment", false, false},
		{"readme.md", false, false},
		{"./app.js", false, true},
		{"/project/app.js", false, true},
		{"../outside.js", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, rs.IsIgnored(tt.path, tt.isDir))
		})
	}
}

func TestIgnoreRuleSetNeverIgnoresGitignore(t *testing.T) {
	rs := NewIgnoreRuleSet("/project", "**\n*\n.gitignore\n")
	assert.False(t, rs.IsIgnored(".gitignore", false))
	assert.False(t, rs.IsIgnored("sub/.gitignore", false))
	assert.True(t, rs.IsIgnored("anything.txt", false))
}

func TestIgnoreRuleSetDefaultRulesWin(t *testing.T) {
	rs := NewIgnoreRuleSet("/project", "!node_modules\n!.git/\n!.chara/**\n")
	for _, p := range []string{"node_modules", ".git", ".chara"} {
		assert.True(t, rs.IsIgnored(p, true), p)
		assert.True(t, rs.IsIgnored(p+"/inner/file", false), p)
	}
	assert.True(t, rs.IsIgnored("pkg/node_modules/x.js", false))
}

func TestIsDefaultIgnored(t *testing.T) {
	assert.True(t, IsDefaultIgnored("node_modules/"))
	assert.True(t, IsDefaultIgnored(".git/HEAD"))
	assert.True(t, IsDefaultIgnored("a/b/.chara/state.json"))
	assert.False(t, IsDefaultIgnored("src/main.go"))
	assert.False(t, IsDefaultIgnored("node_modules_backup"))
	assert.False(t, IsDefaultIgnored(""))
}

func TestIgnoreRuleSetMalformedLinesAreInert(t *testing.T) {
	rs := NewIgnoreRuleSet("/project", "[unclosed\n\x00binary\x01\n*.tmp\n")
	assert.True(t, rs.IsIgnored("a.tmp", false))
	assert.False(t, rs.IsIgnored("binary", false))
}

func TestLoadIgnoreRuleSetNearerFileWins(t *testing.T) {
	parent := t.TempDir()
	writeTree(t, parent, map[string]string{
		".gitignore":          "*.gen\n",
		"child/.gitignore":    "!keep.gen\n",
		"child/keep.gen":      "",
		"child/drop.gen":      "",
		"sibling/.gitignore":  "*.txt\n",
		"child/notes.txt":     "",
		"sibling/ignored.txt": "",
	})
	root := filepath.Join(parent, "child")

	rs := LoadIgnoreRuleSet(root, DefaultLimits(), quietLog())
	assert.False(t, rs.IsIgnored("keep.gen", false))
	assert.True(t, rs.IsIgnored("drop.gen", false))
	// The sibling's rules are not an ancestor of child and never apply.
	assert.False(t, rs.IsIgnored("notes.txt", false))
	assert.Contains(t, rs.Sources(), filepath.Join(parent, ".gitignore"))
	assert.Contains(t, rs.Sources(), filepath.Join(root, ".gitignore"))
}

func TestLoadIgnoreRuleSetLevels(t *testing.T) {
	parent := t.TempDir()
	writeTree(t, parent, map[string]string{
		".gitignore":  "*.gen\n",
		"a/b/c/x.gen": "",
	})
	root := filepath.Join(parent, "a", "b", "c")

	limits := DefaultLimits()
	limits.GitignoreLevels = 3 // c, b, a
	assert.False(t, LoadIgnoreRuleSet(root, limits, quietLog()).IsIgnored("x.gen", false))

	limits.GitignoreLevels = 4 // reaches parent
	assert.True(t, LoadIgnoreRuleSet(root, limits, quietLog()).IsIgnored("x.gen", false))
}

func TestNestedGitignoreScoping(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"web/.gitignore": "*.out\n",
		"web/app.out":    "",
		"api/app.out":    "",
	})

	t.Run("scoped", func(t *testing.T) {
		rs := LoadIgnoreRuleSet(root, DefaultLimits(), quietLog())
		rs.LoadNested("web")
		rs.LoadNested("api")
		assert.True(t, rs.IsIgnored("web/app.out", false))
		assert.False(t, rs.IsIgnored("api/app.out", false))
	})

	t.Run("flat", func(t *testing.T) {
		limits := DefaultLimits()
		limits.NestedGitignore = false
		rs := LoadIgnoreRuleSet(root, limits, quietLog())
		rs.LoadNested("web")
		assert.False(t, rs.IsIgnored("web/app.out", false))
		assert.NotContains(t, rs.Sources(), filepath.Join(root, "web", ".gitignore"))
	})
}

func TestLoadIgnoreRuleSetStopsAtWorktree(t *testing.T) {
	parent := t.TempDir()
	writeTree(t, parent, map[string]string{
		".gitignore":     "*.gen\n",
		"repo/src/x.gen": "",
	})
	initRepo(t, filepath.Join(parent, "repo"))
	writeTree(t, parent, map[string]string{"repo/.git/info/exclude": "*.secret\n"})
	root := filepath.Join(parent, "repo", "src")

	rs := LoadIgnoreRuleSet(root, DefaultLimits(), quietLog())
	// parent/.gitignore lies outside the worktree.
	assert.False(t, rs.IsIgnored("x.gen", false))
	assert.True(t, rs.IsIgnored("key.secret", false))
}

func TestAncestorDirs(t *testing.T) {
	root := filepath.FromSlash("/a/b/c/d")
	got := ancestorDirs(root, 3, "")
	require.Len(t, got, 3)
	assert.Equal(t, filepath.FromSlash("/a/b"), got[0])
	assert.Equal(t, root, got[2])

	got = ancestorDirs(root, 10, filepath.FromSlash("/a/b/c"))
	assert.Equal(t, []string{filepath.FromSlash("/a/b/c"), root}, got)
}
