package main

// EntryType distinguishes files from directories in every result.
type EntryType string

const (
	TypeFile      EntryType = "file"
	TypeDirectory EntryType = "directory"
)

// DirectoryEntry holds information about a single admitted entry.
type DirectoryEntry struct {
	Name    string    `json:"name" yaml:"name"`
	Type    EntryType `json:"type" yaml:"type"`
	Size    *int64    `json:"size,omitempty" yaml:"size,omitempty"`
	Hidden  bool      `json:"hidden" yaml:"hidden"`
	Ignored bool      `json:"ignored,omitempty" yaml:"ignored,omitempty"`
}

// TreeNode is a DirectoryEntry with children. Children is nil for files and
// non-nil (possibly empty) for directories.
type TreeNode struct {
	DirectoryEntry `yaml:",inline"`
	Children       []*TreeNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// FindResultEntry is one match of a find call. Path never has a trailing separator.
type FindResultEntry struct {
	Path         string    `json:"path" yaml:"path"`
	Type         EntryType `json:"type" yaml:"type"`
	RelativePath string    `json:"relativePath" yaml:"relativePath"`
	AbsolutePath string    `json:"absolutePath" yaml:"absolutePath"`
}

// Stats holds aggregated counts for a stats call.
// HiddenItems and IgnoredItems do not depend on the includeHidden and
// respectGitignore flags; the totals do.
type Stats struct {
	TotalFiles       int   `json:"totalFiles" yaml:"totalFiles"`
	TotalDirectories int   `json:"totalDirectories" yaml:"totalDirectories"`
	TotalSize        int64 `json:"totalSize" yaml:"totalSize"`
	HiddenItems      int   `json:"hiddenItems" yaml:"hiddenItems"`
	IgnoredItems     int   `json:"ignoredItems" yaml:"ignoredItems"`
}

type ListResult struct {
	Count     int              `json:"count" yaml:"count"`
	Items     []DirectoryEntry `json:"items" yaml:"items"`
	Formatted string           `json:"formatted" yaml:"formatted"`
	Warning   string           `json:"warning,omitempty" yaml:"warning,omitempty"`
}

type TreeResult struct {
	MaxDepth  int         `json:"maxDepth" yaml:"maxDepth"`
	Tree      []*TreeNode `json:"tree" yaml:"tree"`
	Formatted string      `json:"formatted" yaml:"formatted"`
	Warning   string      `json:"warning,omitempty" yaml:"warning,omitempty"`
}

type StatsResult struct {
	Stats     Stats  `json:"stats" yaml:"stats"`
	Formatted string `json:"formatted" yaml:"formatted"`
	Warning   string `json:"warning,omitempty" yaml:"warning,omitempty"`
}

type FindResult struct {
	Count      int               `json:"count" yaml:"count"`
	TotalFound int               `json:"totalFound" yaml:"totalFound"`
	Results    []FindResultEntry `json:"results" yaml:"results"`
	Formatted  string            `json:"formatted" yaml:"formatted"`
}

// ErrorResult is returned instead of an error when the caller opted into
// structured error results.
type ErrorResult struct {
	Error *ToolError `json:"error" yaml:"error"`
}
