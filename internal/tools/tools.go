// Package tools exposes the engine over MCP. Handlers are thin: argument
// parsing, store and queue calls, JSON results. Long-running work (indexing,
// detection, flow generation) is enqueued and polled through job status.
package tools

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/voyantlabs/codegraph/internal/config"
	"github.com/voyantlabs/codegraph/internal/pipeline"
	"github.com/voyantlabs/codegraph/internal/store"
)

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp      *mcp.Server
	store    *store.Store
	settings *config.Settings
}

// NewServer creates an MCP server with all tools registered.
func NewServer(s *store.Store, settings *config.Settings) *Server {
	if settings == nil {
		settings = config.Defaults()
	}
	srv := &Server{
		store:    s,
		settings: settings,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "codegraph-mcp",
				Version: "0.1.0",
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	// 1. index_repository
	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_repository",
		Description: "Index a repository into the code graph. Enqueues a parse job that extracts symbols, resolves call/usage/import references across files, and stores the graph. Reindexing the same path is incremental: unchanged files are skipped by content hash. Poll get_job_status with the returned job_id.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repo_path": {
					"type": "string",
					"description": "Absolute path to the repository to index"
				}
			},
			"required": ["repo_path"]
		}`),
	}, s.handleIndexRepository)

	// 2. get_job_status
	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_job_status",
		Description: "Return the status of a queued job: pending, in_progress, completed, or failed, with attempts and the last error if any.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"job_id": {
					"type": "integer",
					"description": "Job id returned by index_repository, detect_entry_points, or generate_flow"
				}
			},
			"required": ["job_id"]
		}`),
	}, s.handleGetJobStatus)

	// 3. list_repositories
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_repositories",
		Description: "List all registered repositories with status, file counts, parse progress, and detected languages.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListRepositories)

	// 4. get_repository_status
	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_repository_status",
		Description: "Return one repository's indexing status: parse progress, failure counts, languages, and job counts by status.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repository": {
					"type": "string",
					"description": "Repository name, or the absolute path it was indexed from"
				}
			},
			"required": ["repository"]
		}`),
	}, s.handleGetRepositoryStatus)

	// 5. delete_repository
	s.mcp.AddTool(&mcp.Tool{
		Name:        "delete_repository",
		Description: "Delete a repository and all of its graph data (files, symbols, references, entry points, flows, jobs). Irreversible.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repository": {
					"type": "string",
					"description": "Repository name, or the absolute path it was indexed from"
				}
			},
			"required": ["repository"]
		}`),
	}, s.handleDeleteRepository)

	// 6. search_symbols
	s.mcp.AddTool(&mcp.Tool{
		Name:        "search_symbols",
		Description: "Search symbols by name substring, optionally narrowed by kind (function, method, class, module). An empty query lists all symbols, paginated. Returns matches with qualified names, file paths, and signatures, plus the total match count.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repository": {
					"type": "string",
					"description": "Repository name or indexed path"
				},
				"query": {
					"type": "string",
					"description": "Name substring to match (case-insensitive); empty lists everything"
				},
				"kind": {
					"type": "string",
					"description": "Optional symbol kind filter: function, method, class, module"
				},
				"limit": {
					"type": "integer",
					"description": "Max results (default 50)"
				},
				"offset": {
					"type": "integer",
					"description": "Pagination offset"
				}
			},
			"required": ["repository"]
		}`),
	}, s.handleSearchSymbols)

	// 7. get_symbol
	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_symbol",
		Description: "Return one symbol by id: qualified name, kind, signature, file path, line span, and stored source.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repository": {
					"type": "string",
					"description": "Repository name or indexed path"
				},
				"symbol_id": {
					"type": "integer",
					"description": "Symbol id from search_symbols or traversal results"
				}
			},
			"required": ["repository", "symbol_id"]
		}`),
	}, s.handleGetSymbol)

	// 8. trace_downstream
	s.mcp.AddTool(&mcp.Tool{
		Name:        "trace_downstream",
		Description: "Walk the call graph downstream from a symbol: everything it calls, uses, or imports, breadth-first with depth tags. Unresolved targets appear as external leaf nodes. Default depth 5, max 12.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repository": {
					"type": "string",
					"description": "Repository name or indexed path"
				},
				"qualified_name": {
					"type": "string",
					"description": "Fully qualified symbol name (e.g. 'services.order.OrderService.create')"
				},
				"depth": {
					"type": "integer",
					"description": "Maximum BFS depth (default 5, max 12)"
				},
				"max_results": {
					"type": "integer",
					"description": "Maximum nodes returned (default 200)"
				}
			},
			"required": ["repository", "qualified_name"]
		}`),
	}, s.handleTraceDownstream)

	// 9. trace_upstream
	s.mcp.AddTool(&mcp.Tool{
		Name:        "trace_upstream",
		Description: "Walk the call graph upstream from a symbol: everything that calls or uses it, breadth-first with depth tags. Default depth 5, max 12.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repository": {
					"type": "string",
					"description": "Repository name or indexed path"
				},
				"qualified_name": {
					"type": "string",
					"description": "Fully qualified symbol name"
				},
				"depth": {
					"type": "integer",
					"description": "Maximum BFS depth (default 5, max 12)"
				},
				"max_results": {
					"type": "integer",
					"description": "Maximum nodes returned (default 200)"
				}
			},
			"required": ["repository", "qualified_name"]
		}`),
	}, s.handleTraceUpstream)

	// 10. lookup_qualified_path
	s.mcp.AddTool(&mcp.Tool{
		Name:        "lookup_qualified_path",
		Description: "Find every symbol with a bare name under a dotted path prefix, each returned with its own upstream and downstream context. Bare names are not unique; all matches come back rather than an arbitrary winner.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repository": {
					"type": "string",
					"description": "Repository name or indexed path"
				},
				"path": {
					"type": "string",
					"description": "Dotted path prefix to search under (e.g. 'services.api'); empty matches anywhere"
				},
				"name": {
					"type": "string",
					"description": "Bare symbol name (e.g. 'handle')"
				},
				"depth": {
					"type": "integer",
					"description": "Traversal depth for each match's context (default 2)"
				}
			},
			"required": ["repository", "name"]
		}`),
	}, s.handleLookupQualifiedPath)

	// 11. get_code_snippet
	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_code_snippet",
		Description: "Retrieve the stored source of a symbol by qualified name, with line numbers.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repository": {
					"type": "string",
					"description": "Repository name or indexed path"
				},
				"qualified_name": {
					"type": "string",
					"description": "Fully qualified symbol name"
				}
			},
			"required": ["repository", "qualified_name"]
		}`),
	}, s.handleGetCodeSnippet)

	// 12. get_stats
	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_stats",
		Description: "Return graph statistics for a repository: file/symbol/reference counts, symbols by kind, references by type, entry points by type and framework.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repository": {
					"type": "string",
					"description": "Repository name or indexed path"
				}
			},
			"required": ["repository"]
		}`),
	}, s.handleGetStats)

	// 13. detect_entry_points
	s.mcp.AddTool(&mcp.Tool{
		Name:        "detect_entry_points",
		Description: "Enqueue entry-point detection for an indexed repository: framework detection from imports, pattern matching over symbols, and collaborator confirmation. With force=true, prior entry points and candidates are replaced. Poll get_job_status, then list_entry_points.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repository": {
					"type": "string",
					"description": "Repository name or indexed path"
				},
				"force": {
					"type": "boolean",
					"description": "Redetect from scratch, replacing previous results"
				}
			},
			"required": ["repository"]
		}`),
	}, s.handleDetectEntryPoints)

	// 14. list_entry_points
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_entry_points",
		Description: "List confirmed entry points of a repository, optionally filtered by type (http, event, scheduler) or framework.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repository": {
					"type": "string",
					"description": "Repository name or indexed path"
				},
				"type": {
					"type": "string",
					"description": "Optional type filter: http, event, scheduler"
				},
				"framework": {
					"type": "string",
					"description": "Optional framework filter (e.g. flask, spring)"
				}
			},
			"required": ["repository"]
		}`),
	}, s.handleListEntryPoints)

	// 15. list_entry_point_candidates
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_entry_point_candidates",
		Description: "List raw entry-point candidates from the last detection run, before confirmation: detection pattern, framework, type, and pattern confidence.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repository": {
					"type": "string",
					"description": "Repository name or indexed path"
				}
			},
			"required": ["repository"]
		}`),
	}, s.handleListEntryPointCandidates)

	// 16. generate_flow
	s.mcp.AddTool(&mcp.Tool{
		Name:        "generate_flow",
		Description: "Enqueue flow generation for a confirmed entry point: banded downstream traversal with collaborator narration. Poll get_flow until ready.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"entry_point_id": {
					"type": "integer",
					"description": "Entry point id from list_entry_points"
				}
			},
			"required": ["entry_point_id"]
		}`),
	}, s.handleGenerateFlow)

	// 17. get_flow
	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_flow",
		Description: "Return the generated flow for an entry point: narrated steps with snippets and log lines. Returns ready=false while generation is still queued or running.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"entry_point_id": {
					"type": "integer",
					"description": "Entry point id from list_entry_points"
				}
			},
			"required": ["entry_point_id"]
		}`),
	}, s.handleGetFlow)
}

// jsonResult marshals data to JSON and returns it as the tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params.Arguments == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

// getBoolArg extracts a boolean argument from parsed args.
func getBoolArg(args map[string]any, key string) bool {
	v, ok := args[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		return false
	}
	return b
}

// resolveRepo finds a repository by name, falling back to treating the
// argument as an indexed path.
func (s *Server) resolveRepo(arg string) (*store.Repository, error) {
	if arg == "" {
		return nil, fmt.Errorf("repository is required")
	}
	repo, err := s.store.GetRepositoryByName(arg)
	if err != nil {
		return nil, err
	}
	if repo != nil {
		return repo, nil
	}
	if filepath.IsAbs(arg) {
		repo, err = s.store.GetRepositoryByName(pipeline.RepoNameFromPath(arg))
		if err != nil {
			return nil, err
		}
		if repo != nil {
			return repo, nil
		}
	}
	return nil, fmt.Errorf("repository not found: %s", arg)
}
