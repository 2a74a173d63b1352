package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
)

type ListOptions struct {
	Path             string
	IncludeHidden    bool
	IncludeSize      bool
	RespectGitignore bool
}

type TreeOptions struct {
	Path             string
	MaxDepth         int // 0 selects the configured default
	IncludeHidden    bool
	IncludeSize      bool
	RespectGitignore bool
}

type StatsOptions struct {
	Path             string
	IncludeHidden    bool
	RespectGitignore bool
}

// List reads a single directory level.
func (e *Explorer) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	const op = "list"
	root, err := resolveRoot(op, opts.Path)
	if err != nil {
		return nil, err
	}
	log := e.callLog(op, root)
	log.Debug("listing directory")

	adm := admission{
		includeHidden:    opts.IncludeHidden,
		respectGitignore: opts.RespectGitignore,
		rules:            LoadIgnoreRuleSet(root, e.limits, log),
	}

	entries, total, err := readDirCapped(root, e.limits.ListEntryLimit)
	if err != nil {
		return nil, newIOError(op, root, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]DirectoryEntry, 0, len(entries))
	for _, d := range entries {
		name := d.Name()
		v, hidden, ignored := adm.check(name, name, d.IsDir())
		if v != verdictAdmit {
			continue
		}
		items = append(items, newDirectoryEntry(d, hidden, ignored, opts.IncludeSize))
	}
	sortEntries(items)

	res := &ListResult{Count: len(items), Items: items}
	if total > len(entries) {
		warn := newResourceLimit(op,
			fmt.Sprintf("directory contains %d entries, only the first %d were read", total, len(entries)),
			map[string]any{"path": root, "entries": total, "limit": e.limits.ListEntryLimit})
		res.Warning = warn.Message
		log.Warn(res.Warning)
	}
	res.Formatted = formatList(items, res.Warning)
	return res, nil
}

// Tree descends recursively up to min(opts.MaxDepth, limits.MaxTreeDepth).
// A subdirectory that cannot be read gets empty children; its siblings are
// not affected.
func (e *Explorer) Tree(ctx context.Context, opts TreeOptions) (*TreeResult, error) {
	const op = "tree"
	if opts.MaxDepth < 0 {
		return nil, newUsageError(op,
			fmt.Sprintf("maxDepth must be positive, got %d", opts.MaxDepth),
			fmt.Sprintf("Use a maxDepth between 1 and %d", e.limits.MaxTreeDepth),
			map[string]any{"maxDepth": opts.MaxDepth})
	}
	root, err := resolveRoot(op, opts.Path)
	if err != nil {
		return nil, err
	}
	log := e.callLog(op, root)

	depth := opts.MaxDepth
	if depth == 0 {
		depth = e.limits.DefaultTreeDepth
	}
	if depth > e.limits.MaxTreeDepth {
		log.Debugf("clamping tree depth %d to %d", depth, e.limits.MaxTreeDepth)
		depth = e.limits.MaxTreeDepth
	}

	rules := LoadIgnoreRuleSet(root, e.limits, log)
	tw := &treeWalker{
		ctx:         ctx,
		log:         log,
		maxDepth:    depth,
		entryLimit:  e.limits.TreeEntryLimit,
		includeSize: opts.IncludeSize,
		rules:       rules,
		adm: admission{
			includeHidden:    opts.IncludeHidden,
			respectGitignore: opts.RespectGitignore,
			rules:            rules,
		},
	}

	entries, total, err := readDirCapped(root, tw.entryLimit)
	if err != nil {
		return nil, newIOError(op, root, err)
	}
	if total > len(entries) {
		tw.truncated = append(tw.truncated, ".")
	}
	nodes := tw.nodes(root, "", entries, 1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &TreeResult{MaxDepth: depth, Tree: nodes}
	if len(tw.truncated) > 0 {
		warn := newResourceLimit(op,
			fmt.Sprintf("%d director(ies) had more than %d entries and were truncated", len(tw.truncated), tw.entryLimit),
			map[string]any{"directories": tw.truncated, "limit": tw.entryLimit})
		res.Warning = warn.Message
		log.Warn(res.Warning)
	}
	res.Formatted = formatTree(filepath.Base(root), nodes, res.Warning)
	return res, nil
}

type treeWalker struct {
	ctx         context.Context
	log         *logrus.Entry
	maxDepth    int
	entryLimit  int
	includeSize bool
	rules       *IgnoreRuleSet
	adm         admission
	truncated   []string
}

// nodes converts the entries of one directory, found at depth, into tree nodes.
func (tw *treeWalker) nodes(abs, rel string, entries []fs.DirEntry, depth int) []*TreeNode {
	nodes := make([]*TreeNode, 0, len(entries))
	for _, d := range entries {
		name := d.Name()
		childRel := path.Join(rel, name)
		v, hidden, ignored := tw.adm.check(childRel, name, d.IsDir())
		if v != verdictAdmit {
			continue
		}
		node := &TreeNode{DirectoryEntry: newDirectoryEntry(d, hidden, ignored, tw.includeSize)}
		if d.IsDir() {
			node.Children = tw.children(filepath.Join(abs, name), childRel, depth)
		}
		nodes = append(nodes, node)
	}
	sortNodes(nodes)
	return nodes
}

// children reads the directory at depth and returns its nodes, or an empty
// slice when the depth budget is spent or the directory is unreadable.
func (tw *treeWalker) children(abs, rel string, depth int) []*TreeNode {
	if depth >= tw.maxDepth || tw.ctx.Err() != nil {
		return []*TreeNode{}
	}
	tw.rules.LoadNested(rel)
	entries, total, err := readDirCapped(abs, tw.entryLimit)
	if err != nil {
		tw.log.WithError(err).Debugf("skipping unreadable directory %s", rel)
		return []*TreeNode{}
	}
	if total > len(entries) {
		tw.truncated = append(tw.truncated, rel)
	}
	return tw.nodes(abs, rel, entries, depth+1)
}

// Stats walks the whole subtree, bounded by limits.StatsDirectoryLimit
// directory visits. The ignore rules are always evaluated so that
// IgnoredItems means "would be filtered" even when they are not applied.
func (e *Explorer) Stats(ctx context.Context, opts StatsOptions) (*StatsResult, error) {
	const op = "stats"
	root, err := resolveRoot(op, opts.Path)
	if err != nil {
		return nil, err
	}
	log := e.callLog(op, root)

	sw := &statsWalker{
		ctx:              ctx,
		log:              log,
		limit:            e.limits.StatsDirectoryLimit,
		includeHidden:    opts.IncludeHidden,
		respectGitignore: opts.RespectGitignore,
		rules:            LoadIgnoreRuleSet(root, e.limits, log),
	}
	entries, _, err := readDirCapped(root, -1)
	if err != nil {
		return nil, newIOError(op, root, err)
	}
	sw.visited = 1
	sw.walkEntries(root, "", entries, false)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &StatsResult{Stats: sw.stats}
	if sw.capped {
		warn := newResourceLimit(op,
			fmt.Sprintf("stopped after visiting %d directories, statistics are partial", sw.limit),
			map[string]any{"path": root, "limit": sw.limit})
		res.Warning = warn.Message
		log.Warn(res.Warning)
	}
	res.Formatted = formatStats(res.Stats, res.Warning)
	return res, nil
}

type statsWalker struct {
	ctx              context.Context
	log              *logrus.Entry
	limit            int
	includeHidden    bool
	respectGitignore bool
	rules            *IgnoreRuleSet
	stats            Stats
	visited          int
	capped           bool
}

// walkEntries accumulates one directory. filtered is true below a hidden or
// ignored ancestor; such entries are not counted as hidden or ignored again,
// which keeps those counts independent of the flags.
func (sw *statsWalker) walkEntries(abs, rel string, entries []fs.DirEntry, filtered bool) {
	for _, d := range entries {
		name := d.Name()
		if isAlwaysIgnored(name) {
			continue
		}
		isDir := d.IsDir()
		childRel := path.Join(rel, name)
		hidden := isHidden(name)
		ignored := sw.rules.IsIgnored(childRel, isDir)
		if !filtered {
			if hidden {
				sw.stats.HiddenItems++
			}
			if ignored {
				sw.stats.IgnoredItems++
			}
		}
		if hidden && !sw.includeHidden && !isImportantHiddenFile(name) {
			continue
		}
		if ignored && sw.respectGitignore && !isImportantHiddenFile(name) {
			continue
		}

		if !isDir {
			sw.stats.TotalFiles++
			if info, err := d.Info(); err == nil {
				sw.stats.TotalSize += info.Size()
			}
			continue
		}
		sw.stats.TotalDirectories++
		sw.descend(filepath.Join(abs, name), childRel, filtered || hidden || ignored)
	}
}

func (sw *statsWalker) descend(abs, rel string, filtered bool) {
	if sw.capped || sw.ctx.Err() != nil {
		return
	}
	if sw.visited >= sw.limit {
		sw.capped = true
		return
	}
	sw.visited++
	sw.rules.LoadNested(rel)
	entries, _, err := readDirCapped(abs, -1)
	if err != nil {
		sw.log.WithError(err).Debugf("skipping unreadable directory %s", rel)
		return
	}
	sw.walkEntries(abs, rel, entries, filtered)
}

// readDirCapped reads at most limit entries of dir (all of them when limit
// is negative), sorted by name, and reports how many entries dir really has.
func readDirCapped(dir string, limit int) ([]fs.DirEntry, int, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var kept []fs.DirEntry
	total := 0
	for {
		batch, err := f.ReadDir(256)
		total += len(batch)
		room := len(batch)
		if limit >= 0 && len(kept)+room > limit {
			room = max(limit-len(kept), 0)
		}
		kept = append(kept, batch[:room]...)
		if errors.Is(err, io.EOF) || (err == nil && len(batch) == 0) {
			break
		}
		if err != nil {
			return nil, total, err
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		return kept[i].Name() < kept[j].Name()
	})
	return kept, total, nil
}

func newDirectoryEntry(d fs.DirEntry, hidden, ignored, withSize bool) DirectoryEntry {
	entry := DirectoryEntry{
		Name:    d.Name(),
		Type:    TypeFile,
		Hidden:  hidden,
		Ignored: ignored,
	}
	if d.IsDir() {
		entry.Type = TypeDirectory
		return entry
	}
	if withSize {
		// Stat failures only cost the size, never the entry.
		if info, err := d.Info(); err == nil {
			size := info.Size()
			entry.Size = &size
		}
	}
	return entry
}

// sortEntries puts directories first, then orders by name.
func sortEntries(items []DirectoryEntry) {
	sort.SliceStable(items, func(i, j int) bool {
		return lessEntry(items[i], items[j])
	})
}

func sortNodes(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return lessEntry(nodes[i].DirectoryEntry, nodes[j].DirectoryEntry)
	})
}

func lessEntry(a, b DirectoryEntry) bool {
	if a.Type != b.Type {
		return a.Type == TypeDirectory
	}
	return a.Name < b.Name
}
