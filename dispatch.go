package main

import (
	"context"
	"strings"
)

// Request is the flat parameter set of the generic filesystem tool. Fields
// that an operation does not use are ignored.
type Request struct {
	Operation        string   `json:"operation" jsonschema:"one of list, tree, stats, find"`
	Path             string   `json:"path,omitempty" jsonschema:"directory to explore, defaults to the working directory"`
	IncludeHidden    bool     `json:"includeHidden,omitempty" jsonschema:"include dotfiles and dot directories"`
	IncludeSize      bool     `json:"includeSize,omitempty" jsonschema:"report file sizes (list and tree)"`
	RespectGitignore *bool    `json:"respectGitignore,omitempty" jsonschema:"filter entries matched by .gitignore rules, defaults to true"`
	MaxDepth         int      `json:"maxDepth,omitempty" jsonschema:"tree depth, defaults to 3 and is capped at 10"`
	Pattern          string   `json:"pattern,omitempty" jsonschema:"glob pattern for find, '|' separates alternatives"`
	ExcludePatterns  []string `json:"excludePatterns,omitempty" jsonschema:"extra glob patterns excluded from find"`
	ReturnErrors     bool     `json:"returnErrors,omitempty" jsonschema:"return failures as an error object instead of failing the call"`
}

func (r Request) respectGitignore() bool {
	return r.RespectGitignore == nil || *r.RespectGitignore
}

// Dispatch routes req to the named operation. Unknown operations fail with a
// usage error that suggests the closest valid name. With ReturnErrors set,
// structured failures come back as an *ErrorResult and a nil error.
func (e *Explorer) Dispatch(ctx context.Context, req Request) (any, error) {
	res, err := e.dispatch(ctx, req)
	if err == nil {
		return res, nil
	}
	if te, ok := AsToolError(err); ok && req.ReturnErrors {
		e.log.WithField("op", te.Operation).Debugf("returning error as result: %v", te)
		return &ErrorResult{Error: te}, nil
	}
	return nil, err
}

func (e *Explorer) dispatch(ctx context.Context, req Request) (any, error) {
	switch strings.ToLower(strings.TrimSpace(req.Operation)) {
	case "list":
		return e.List(ctx, ListOptions{
			Path:             req.Path,
			IncludeHidden:    req.IncludeHidden,
			IncludeSize:      req.IncludeSize,
			RespectGitignore: req.respectGitignore(),
		})
	case "tree":
		return e.Tree(ctx, TreeOptions{
			Path:             req.Path,
			MaxDepth:         req.MaxDepth,
			IncludeHidden:    req.IncludeHidden,
			IncludeSize:      req.IncludeSize,
			RespectGitignore: req.respectGitignore(),
		})
	case "stats":
		return e.Stats(ctx, StatsOptions{
			Path:             req.Path,
			IncludeHidden:    req.IncludeHidden,
			RespectGitignore: req.respectGitignore(),
		})
	case "find":
		return e.Find(ctx, FindOptions{
			Path:             req.Path,
			Pattern:          req.Pattern,
			ExcludePatterns:  req.ExcludePatterns,
			IncludeHidden:    req.IncludeHidden,
			RespectGitignore: req.respectGitignore(),
		})
	}
	return nil, unknownOperationError(req.Operation)
}

// formattedText returns the human rendering carried by any dispatch result.
func formattedText(res any) string {
	switch r := res.(type) {
	case *ListResult:
		return r.Formatted
	case *TreeResult:
		return r.Formatted
	case *StatsResult:
		return r.Formatted
	case *FindResult:
		return r.Formatted
	case *ErrorResult:
		return r.Error.Render()
	}
	return ""
}
