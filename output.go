package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	units "github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

const (
	emptyDirectoryText = "Directory is empty"
	noMatchesText      = "No matches found"
)

// MarshalJSON always emits "children" for directories, even when empty, and
// never for files.
func (n TreeNode) MarshalJSON() ([]byte, error) {
	if n.Type != TypeDirectory {
		return json.Marshal(n.DirectoryEntry)
	}
	children := n.Children
	if children == nil {
		children = []*TreeNode{}
	}
	return json.Marshal(struct {
		DirectoryEntry
		Children []*TreeNode `json:"children"`
	}{n.DirectoryEntry, children})
}

// entryLine renders "[TYPE] name (size) (hidden) (ignored)".
func entryLine(e DirectoryEntry) string {
	var b strings.Builder
	if e.Type == TypeDirectory {
		b.WriteString("[DIR] ")
	} else {
		b.WriteString("[FILE] ")
	}
	b.WriteString(e.Name)
	if e.Size != nil {
		fmt.Fprintf(&b, " (%s)", units.HumanSize(float64(*e.Size)))
	}
	if e.Hidden {
		b.WriteString(" (hidden)")
	}
	if e.Ignored {
		b.WriteString(" (ignored)")
	}
	return b.String()
}

func formatList(items []DirectoryEntry, warning string) string {
	if len(items) == 0 {
		return withWarning(emptyDirectoryText, warning)
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = entryLine(item)
	}
	return withWarning(strings.Join(lines, "\n"), warning)
}

// formatTree generates the string representation of the tree.
func formatTree(rootName string, nodes []*TreeNode, warning string) string {
	if len(nodes) == 0 {
		return withWarning(emptyDirectoryText, warning)
	}
	var builder strings.Builder
	builder.WriteString(rootName)
	builder.WriteString("\n")
	printNode(&builder, nodes, "")
	return withWarning(strings.TrimRight(builder.String(), "\n"), warning)
}

// printNode is a helper function for recursively printing tree nodes.
func printNode(builder *strings.Builder, children []*TreeNode, prefix string) {
	for i, node := range children {
		connector := "├── "
		newPrefix := prefix + "│   "
		if i == len(children)-1 {
			connector = "└── "
			newPrefix = prefix + "    "
		}

		builder.WriteString(prefix)
		builder.WriteString(connector)
		builder.WriteString(entryLine(node.DirectoryEntry))
		builder.WriteString("\n")

		if len(node.Children) > 0 {
			printNode(builder, node.Children, newPrefix)
		}
	}
}

func formatStats(s Stats, warning string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Files: %d\n", s.TotalFiles)
	fmt.Fprintf(&b, "Directories: %d\n", s.TotalDirectories)
	fmt.Fprintf(&b, "Total size: %s\n", units.HumanSize(float64(s.TotalSize)))
	fmt.Fprintf(&b, "Hidden items: %d\n", s.HiddenItems)
	fmt.Fprintf(&b, "Ignored items: %d", s.IgnoredItems)
	return withWarning(b.String(), warning)
}

func formatFind(results []FindResultEntry, totalFound int) string {
	if len(results) == 0 {
		if totalFound > 0 {
			return fmt.Sprintf("%s (%d filtered by .gitignore)", noMatchesText, totalFound)
		}
		return noMatchesText
	}
	lines := make([]string, 0, len(results)+1)
	for _, r := range results {
		if r.Type == TypeDirectory {
			lines = append(lines, "[DIR] "+r.Path)
		} else {
			lines = append(lines, "[FILE] "+r.Path)
		}
	}
	if filtered := totalFound - len(results); filtered > 0 {
		lines = append(lines, fmt.Sprintf("(%d more filtered by .gitignore)", filtered))
	}
	return strings.Join(lines, "\n")
}

func withWarning(text, warning string) string {
	if warning == "" {
		return text
	}
	return text + "\n\nWarning: " + warning
}

// writeResult prints res in the requested format: the formatted text, or the
// whole result as indented JSON or YAML.
func writeResult(w io.Writer, res any, format string) error {
	switch strings.ToLower(format) {
	case "text", "":
		_, err := fmt.Fprintln(w, formattedText(res))
		return err
	case "json":
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result as json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode result as yaml: %w", err)
		}
		return enc.Close()
	}
	return newUsageError("output",
		fmt.Sprintf("unknown output format %q", format),
		"Use one of text, json or yaml",
		map[string]any{"output": format})
}
