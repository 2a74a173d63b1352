package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// writeTree creates files below root. Keys ending in "/" become directories.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			require.NoError(t, os.MkdirAll(p, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// scenarioTree is the gitignore fixture shared by the walker and find tests.
func scenarioTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":        "*.tmp\nignored/\n*.log\n",
		"temp.tmp":          "tmp",
		"app.log":           "log",
		"ignored/file.txt":  "ignored",
		"included.txt":      "included",
		"app.js":            "console.log(1)",
		".env":              "SECRET=1",
		"node_modules/x.js": "module.exports = 1",
	})
	return root
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestExplorer(limits Limits) *Explorer {
	return NewExplorer(limits, quietLog())
}

func names(items []DirectoryEntry) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func boolPtr(b bool) *bool {
	return &b
}

func initRepo(t *testing.T, dir string) {
	t.Helper()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
}
