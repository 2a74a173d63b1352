package main

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	listDirectoryTool = &mcp.Tool{
		Name: "list_directory",
		Description: `Lists the files and subdirectories directly inside a directory.
Entries matched by .gitignore are left out unless respectGitignore is false, in which case they are marked (ignored).
.git, node_modules and .chara are never listed.`,
	}
	directoryTreeTool = &mcp.Tool{
		Name: "directory_tree",
		Description: `Returns a recursive tree of a directory, 3 levels deep by default and never deeper than 10.
Directories at the depth limit are returned with empty children.`,
	}
	directoryStatsTool = &mcp.Tool{
		Name:        "directory_stats",
		Description: `Counts files, directories, total size, hidden and ignored items below a directory.`,
	}
	findFilesTool = &mcp.Tool{
		Name: "find_files",
		Description: `Finds files and directories whose path matches a glob pattern, case-insensitively.
Separate alternatives with '|'. A bare word such as "config" finds every path containing it.
Overly complex patterns are rejected with a simpler suggestion.`,
	}
	filesystemTool = &mcp.Tool{
		Name: "filesystem",
		Description: `Read-only filesystem exploration. Set operation to list, tree, stats or find
and pass the parameters of that operation alongside it.`,
	}
)

type listParams struct {
	Path             string `json:"path,omitempty" jsonschema:"directory to list, defaults to the working directory"`
	IncludeHidden    bool   `json:"includeHidden,omitempty" jsonschema:"include dotfiles and dot directories"`
	IncludeSize      bool   `json:"includeSize,omitempty" jsonschema:"report file sizes"`
	RespectGitignore *bool  `json:"respectGitignore,omitempty" jsonschema:"filter entries matched by .gitignore rules, defaults to true"`
	ReturnErrors     bool   `json:"returnErrors,omitempty" jsonschema:"return failures as an error object instead of failing the call"`
}

type treeParams struct {
	Path             string `json:"path,omitempty" jsonschema:"root of the tree, defaults to the working directory"`
	MaxDepth         int    `json:"maxDepth,omitempty" jsonschema:"depth of the tree, defaults to 3 and is capped at 10"`
	IncludeHidden    bool   `json:"includeHidden,omitempty" jsonschema:"include dotfiles and dot directories"`
	IncludeSize      bool   `json:"includeSize,omitempty" jsonschema:"report file sizes"`
	RespectGitignore *bool  `json:"respectGitignore,omitempty" jsonschema:"filter entries matched by .gitignore rules, defaults to true"`
	ReturnErrors     bool   `json:"returnErrors,omitempty" jsonschema:"return failures as an error object instead of failing the call"`
}

type statsParams struct {
	Path             string `json:"path,omitempty" jsonschema:"directory to summarise, defaults to the working directory"`
	IncludeHidden    bool   `json:"includeHidden,omitempty" jsonschema:"count dotfiles in the totals"`
	RespectGitignore *bool  `json:"respectGitignore,omitempty" jsonschema:"leave entries matched by .gitignore out of the totals, defaults to true"`
	ReturnErrors     bool   `json:"returnErrors,omitempty" jsonschema:"return failures as an error object instead of failing the call"`
}

type findParams struct {
	Path             string   `json:"path,omitempty" jsonschema:"directory to search, defaults to the working directory"`
	Pattern          string   `json:"pattern" jsonschema:"glob pattern, '|' separates alternatives"`
	ExcludePatterns  []string `json:"excludePatterns,omitempty" jsonschema:"extra glob patterns to exclude"`
	IncludeHidden    bool     `json:"includeHidden,omitempty" jsonschema:"search inside dotfiles and dot directories"`
	RespectGitignore *bool    `json:"respectGitignore,omitempty" jsonschema:"drop matches covered by .gitignore rules, defaults to true"`
	ReturnErrors     bool     `json:"returnErrors,omitempty" jsonschema:"return failures as an error object instead of failing the call"`
}

// newMCPServer exposes the Explorer operations as MCP tools.
func newMCPServer(e *Explorer) *mcp.Server {
	impl := &mcp.Implementation{
		Name:    "chara-fs",
		Title:   "Gitignore-aware, read-only filesystem exploration",
		Version: version,
	}
	server := mcp.NewServer(impl, &mcp.ServerOptions{
		Instructions: `This MCP server explores a project directory without modifying it.
Prefer find_files to locate files by name and directory_tree for an overview.
Every result carries a "formatted" text rendering as well as structured data.`,
	})

	mcp.AddTool(server, listDirectoryTool, func(ctx context.Context, _ *mcp.CallToolRequest, p listParams) (*mcp.CallToolResult, any, error) {
		return toolResult(e.Dispatch(ctx, Request{
			Operation:        "list",
			Path:             p.Path,
			IncludeHidden:    p.IncludeHidden,
			IncludeSize:      p.IncludeSize,
			RespectGitignore: p.RespectGitignore,
			ReturnErrors:     p.ReturnErrors,
		}))
	})
	mcp.AddTool(server, directoryTreeTool, func(ctx context.Context, _ *mcp.CallToolRequest, p treeParams) (*mcp.CallToolResult, any, error) {
		return toolResult(e.Dispatch(ctx, Request{
			Operation:        "tree",
			Path:             p.Path,
			MaxDepth:         p.MaxDepth,
			IncludeHidden:    p.IncludeHidden,
			IncludeSize:      p.IncludeSize,
			RespectGitignore: p.RespectGitignore,
			ReturnErrors:     p.ReturnErrors,
		}))
	})
	mcp.AddTool(server, directoryStatsTool, func(ctx context.Context, _ *mcp.CallToolRequest, p statsParams) (*mcp.CallToolResult, any, error) {
		return toolResult(e.Dispatch(ctx, Request{
			Operation:        "stats",
			Path:             p.Path,
			IncludeHidden:    p.IncludeHidden,
			RespectGitignore: p.RespectGitignore,
			ReturnErrors:     p.ReturnErrors,
		}))
	})
	mcp.AddTool(server, findFilesTool, func(ctx context.Context, _ *mcp.CallToolRequest, p findParams) (*mcp.CallToolResult, any, error) {
		return toolResult(e.Dispatch(ctx, Request{
			Operation:        "find",
			Path:             p.Path,
			Pattern:          p.Pattern,
			ExcludePatterns:  p.ExcludePatterns,
			IncludeHidden:    p.IncludeHidden,
			RespectGitignore: p.RespectGitignore,
			ReturnErrors:     p.ReturnErrors,
		}))
	})
	mcp.AddTool(server, filesystemTool, func(ctx context.Context, _ *mcp.CallToolRequest, req Request) (*mcp.CallToolResult, any, error) {
		return toolResult(e.Dispatch(ctx, req))
	})
	return server
}

// toolResult puts the formatted rendering in the text content and the result
// itself in the structured content. Failures become tool errors, which the
// SDK reports to the client with IsError set.
func toolResult(res any, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		if te, ok := AsToolError(err); ok {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: te.Render()}},
			}, nil, nil
		}
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: formattedText(res)}},
		StructuredContent: res,
	}, nil, nil
}

// serveMCP runs the MCP server on stdin/stdout until the client disconnects.
func serveMCP(ctx context.Context, e *Explorer) error {
	e.log.Info("serving MCP over stdio")
	return newMCPServer(e).Run(ctx, &mcp.StdioTransport{})
}
