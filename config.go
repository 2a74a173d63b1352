package main

import (
	"time"

	"github.com/spf13/viper"
)

// Limits is the walk budget and the pattern limits. The values are defaults,
// every one of them can be overridden from the config file or CHARA_* env vars.
type Limits struct {
	ListEntryLimit      int
	TreeEntryLimit      int
	StatsDirectoryLimit int
	MaxTreeDepth        int
	DefaultTreeDepth    int

	GitignoreLevels int
	NestedGitignore bool

	MaxPatternAlternatives int
	MaxPatternLength       int
	MaxPatternComplexity   int
	MaxPatternSegments     int
	MaxFindPatterns        int

	FindMaxDepth       int
	FindTimeout        time.Duration
	FindComplexTimeout time.Duration
}

// DefaultLimits returns the built-in walk budget.
func DefaultLimits() Limits {
	return Limits{
		ListEntryLimit:      2000,
		TreeEntryLimit:      1000,
		StatsDirectoryLimit: 5000,
		MaxTreeDepth:        10,
		DefaultTreeDepth:    3,

		GitignoreLevels: 5,
		NestedGitignore: true,

		MaxPatternAlternatives: 50,
		MaxPatternLength:       300,
		MaxPatternComplexity:   25,
		MaxPatternSegments:     6,
		MaxFindPatterns:        100,

		FindMaxDepth:       20,
		FindTimeout:        5 * time.Second,
		FindComplexTimeout: 10 * time.Second,
	}
}

// setLimitDefaults registers the built-in budget as viper defaults so that
// config files only need to mention the keys they change.
func setLimitDefaults(v *viper.Viper) {
	d := DefaultLimits()
	v.SetDefault("list_entry_limit", d.ListEntryLimit)
	v.SetDefault("tree_entry_limit", d.TreeEntryLimit)
	v.SetDefault("stats_directory_limit", d.StatsDirectoryLimit)
	v.SetDefault("max_tree_depth", d.MaxTreeDepth)
	v.SetDefault("default_tree_depth", d.DefaultTreeDepth)
	v.SetDefault("gitignore_levels", d.GitignoreLevels)
	v.SetDefault("nested_gitignore", d.NestedGitignore)
	v.SetDefault("max_pattern_alternatives", d.MaxPatternAlternatives)
	v.SetDefault("max_pattern_length", d.MaxPatternLength)
	v.SetDefault("max_pattern_complexity", d.MaxPatternComplexity)
	v.SetDefault("max_pattern_segments", d.MaxPatternSegments)
	v.SetDefault("max_find_patterns", d.MaxFindPatterns)
	v.SetDefault("find_max_depth", d.FindMaxDepth)
	v.SetDefault("find_timeout", d.FindTimeout)
	v.SetDefault("find_complex_timeout", d.FindComplexTimeout)
}

// limitsFromViper reads the budget back out of v. Non-positive values fall
// back to the defaults so a broken config cannot disable a ceiling.
func limitsFromViper(v *viper.Viper) Limits {
	d := DefaultLimits()
	return Limits{
		ListEntryLimit:      positiveOr(v.GetInt("list_entry_limit"), d.ListEntryLimit),
		TreeEntryLimit:      positiveOr(v.GetInt("tree_entry_limit"), d.TreeEntryLimit),
		StatsDirectoryLimit: positiveOr(v.GetInt("stats_directory_limit"), d.StatsDirectoryLimit),
		MaxTreeDepth:        positiveOr(v.GetInt("max_tree_depth"), d.MaxTreeDepth),
		DefaultTreeDepth:    positiveOr(v.GetInt("default_tree_depth"), d.DefaultTreeDepth),

		GitignoreLevels: positiveOr(v.GetInt("gitignore_levels"), d.GitignoreLevels),
		NestedGitignore: v.GetBool("nested_gitignore"),

		MaxPatternAlternatives: positiveOr(v.GetInt("max_pattern_alternatives"), d.MaxPatternAlternatives),
		MaxPatternLength:       positiveOr(v.GetInt("max_pattern_length"), d.MaxPatternLength),
		MaxPatternComplexity:   positiveOr(v.GetInt("max_pattern_complexity"), d.MaxPatternComplexity),
		MaxPatternSegments:     positiveOr(v.GetInt("max_pattern_segments"), d.MaxPatternSegments),
		MaxFindPatterns:        positiveOr(v.GetInt("max_find_patterns"), d.MaxFindPatterns),

		FindMaxDepth:       positiveOr(v.GetInt("find_max_depth"), d.FindMaxDepth),
		FindTimeout:        positiveDurationOr(v.GetDuration("find_timeout"), d.FindTimeout),
		FindComplexTimeout: positiveDurationOr(v.GetDuration("find_complex_timeout"), d.FindComplexTimeout),
	}
}

func positiveOr(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}

func positiveDurationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
