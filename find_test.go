package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.js":              "",
		"readme.md":         "",
		"src/b.js":          "",
		"src/b.test.js":     "",
		"src/deep/C.JS":     "",
		"src/.gitignore":    "gen.js\n",
		"src/gen.js":        "",
		"node_modules/x.js": "",
		"dist/d.js":         "",
		".hidden/e.js":      "",
		".chara/state.js":   "",
	})
	return root
}

func paths(res *FindResult) []string {
	out := make([]string, len(res.Results))
	for i, r := range res.Results {
		out[i] = r.Path
	}
	return out
}

func TestFindRecursiveGlob(t *testing.T) {
	root := findTree(t)
	e := newTestExplorer(DefaultLimits())

	res, err := e.Find(context.Background(), FindOptions{Path: root, Pattern: "**/*.js", RespectGitignore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js", "src/b.js", "src/b.test.js", "src/deep/C.JS"}, paths(res))
	assert.Equal(t, 4, res.Count)
	assert.Equal(t, 5, res.TotalFound)
	assert.GreaterOrEqual(t, res.TotalFound, res.Count)
	assert.Contains(t, res.Formatted, "[FILE] src/deep/C.JS")
	assert.Contains(t, res.Formatted, "(1 more filtered by .gitignore)")

	first := res.Results[0]
	assert.Equal(t, TypeFile, first.Type)
	assert.Equal(t, "a.js", first.RelativePath)
	assert.Equal(t, filepath.Join(root, "a.js"), first.AbsolutePath)
}

func TestFindWithoutGitignore(t *testing.T) {
	root := findTree(t)
	e := newTestExplorer(DefaultLimits())

	res, err := e.Find(context.Background(), FindOptions{Path: root, Pattern: "*.js"})
	require.NoError(t, err)
	assert.Contains(t, paths(res), "src/gen.js")
	assert.Equal(t, res.TotalFound, res.Count)
	assert.NotContains(t, paths(res), "node_modules/x.js")
	assert.NotContains(t, paths(res), "dist/d.js")
	assert.NotContains(t, paths(res), ".chara/state.js")
}

func TestFindHidden(t *testing.T) {
	root := findTree(t)
	e := newTestExplorer(DefaultLimits())

	res, err := e.Find(context.Background(), FindOptions{Path: root, Pattern: "e.js", RespectGitignore: true})
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Equal(t, noMatchesText, res.Formatted)

	res, err = e.Find(context.Background(), FindOptions{Path: root, Pattern: "e.js", IncludeHidden: true, RespectGitignore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{".hidden/e.js"}, paths(res))
}

func TestFindImportantHiddenFiles(t *testing.T) {
	root := scenarioTree(t)
	e := newTestExplorer(DefaultLimits())

	res, err := e.Find(context.Background(), FindOptions{Path: root, Pattern: "*", RespectGitignore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{".gitignore", "app.js", "included.txt"}, paths(res))
	assert.Equal(t, 7, res.TotalFound)
	assert.Contains(t, res.Formatted, "(4 more filtered by .gitignore)")
}

func TestFindAddsBackImportantHiddenFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":  ".*\n",
		".chara.json": "{}",
		".env":        "",
		"a.js":        "",
	})
	e := newTestExplorer(DefaultLimits())

	res, err := e.Find(context.Background(), FindOptions{Path: root, Pattern: "**/*.js", RespectGitignore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{".chara.json", ".gitignore", "a.js"}, paths(res))
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, 3, res.TotalFound)

	res, err = e.Find(context.Background(), FindOptions{Path: root, Pattern: "**/*.js", IncludeHidden: true, RespectGitignore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js"}, paths(res))
}

func TestFindReportsDirectories(t *testing.T) {
	root := findTree(t)
	e := newTestExplorer(DefaultLimits())

	res, err := e.Find(context.Background(), FindOptions{Path: root, Pattern: "deep", RespectGitignore: true})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "src/deep", res.Results[0].Path)
	assert.Equal(t, TypeDirectory, res.Results[0].Type)
	assert.Equal(t, "[DIR] src/deep", res.Formatted)
}

func TestFindExcludePatterns(t *testing.T) {
	root := findTree(t)
	e := newTestExplorer(DefaultLimits())

	res, err := e.Find(context.Background(), FindOptions{
		Path:             root,
		Pattern:          "*.js",
		ExcludePatterns:  []string{"**/*.test.js", "!deep"},
		RespectGitignore: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js", "src/b.js"}, paths(res))
}

func TestFindAllFilteredByGitignore(t *testing.T) {
	root := findTree(t)
	e := newTestExplorer(DefaultLimits())

	res, err := e.Find(context.Background(), FindOptions{Path: root, Pattern: "gen.js", RespectGitignore: true})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.Equal(t, 1, res.TotalFound)
	assert.Equal(t, "No matches found (1 filtered by .gitignore)", res.Formatted)
}

func TestFindDepthLimit(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a/x.js":     "",
		"a/b/c/y.js": "",
	})
	limits := DefaultLimits()
	limits.FindMaxDepth = 2
	e := newTestExplorer(limits)

	res, err := e.Find(context.Background(), FindOptions{Path: root, Pattern: "*.js"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/x.js"}, paths(res))
}

func TestFindComplexPatternIsBounded(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"tictactoe.txt": "",
		"monkey.go":     "",
		"other.txt":     "",
	})
	e := newTestExplorer(DefaultLimits())

	start := time.Now()
	res, err := e.Find(context.Background(), FindOptions{Path: root, Pattern: "*tic*toe*tac*mon*key*"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{"monkey.go", "tictactoe.txt"}, paths(res))
}

func TestFindRejections(t *testing.T) {
	root := findTree(t)
	e := newTestExplorer(DefaultLimits())

	t.Run("invalid glob", func(t *testing.T) {
		_, err := e.Find(context.Background(), FindOptions{Path: root, Pattern: "[abc"})
		assert.True(t, IsKind(err, KindUsage))
	})

	t.Run("too many patterns", func(t *testing.T) {
		excludes := make([]string, 100)
		for i := range excludes {
			excludes[i] = fmt.Sprintf("x%d", i)
		}
		_, err := e.Find(context.Background(), FindOptions{Path: root, Pattern: "*.js", ExcludePatterns: excludes})
		te, ok := AsToolError(err)
		require.True(t, ok)
		assert.Equal(t, KindUsage, te.Kind)
		assert.Contains(t, te.Message, "maximum is 100")
	})

	t.Run("too many segments", func(t *testing.T) {
		_, err := e.Find(context.Background(), FindOptions{Path: root, Pattern: "*a*b*c*d*e*f*g*"})
		te, ok := AsToolError(err)
		require.True(t, ok)
		assert.NotEmpty(t, te.Alternatives)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := e.Find(context.Background(), FindOptions{Path: filepath.Join(root, "nope"), Pattern: "*"})
		assert.True(t, IsKind(err, KindIO))
	})
}

func TestFindTimeout(t *testing.T) {
	root := findTree(t)
	e := newTestExplorer(DefaultLimits())

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := e.Find(ctx, FindOptions{Path: root, Pattern: "*.js"})
	te, ok := AsToolError(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, te.Kind)
	assert.Contains(t, te.Message, "*.js")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestFindCanceled(t *testing.T) {
	root := findTree(t)
	e := newTestExplorer(DefaultLimits())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Find(ctx, FindOptions{Path: root, Pattern: "*.js"})
	assert.ErrorIs(t, err, context.Canceled)
	_, isTool := AsToolError(err)
	assert.False(t, isTool)
}

func TestBuildExclusions(t *testing.T) {
	got := buildExclusions([]string{"vendor/**", "!*.min.js", " ", "!"}, false)
	assert.Equal(t, len(defaultFindExclusions)+3, len(got))
	assert.Contains(t, got, "!vendor/**")
	assert.Contains(t, got, "!*.min.js")
	assert.Equal(t, hiddenCatchAll, got[len(got)-1])

	got = buildExclusions(nil, true)
	assert.Equal(t, defaultFindExclusions, got)
	for _, x := range got {
		assert.True(t, strings.HasPrefix(x, "!"), x)
	}
}
