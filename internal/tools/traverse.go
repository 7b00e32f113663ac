package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/voyantlabs/codegraph/internal/store"
)

func (s *Server) handleTraceDownstream(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleTrace(req, "downstream")
}

func (s *Server) handleTraceUpstream(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleTrace(req, "upstream")
}

func (s *Server) handleTrace(req *mcp.CallToolRequest, direction string) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	repo, err := s.resolveRepo(getStringArg(args, "repository"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	qn := getStringArg(args, "qualified_name")
	if qn == "" {
		return errResult("qualified_name is required"), nil
	}
	sym, err := s.store.FindSymbolByQN(repo.ID, qn)
	if err != nil {
		return errResult(fmt.Sprintf("find symbol: %v", err)), nil
	}
	if sym == nil {
		return errResult(fmt.Sprintf("symbol not found: %s", qn)), nil
	}

	depth := getIntArg(args, "depth", s.settings.DefaultTraversalDepth)
	maxResults := getIntArg(args, "max_results", 0)

	var result *store.TraverseResult
	if direction == "downstream" {
		result, err = s.store.Downstream(sym.ID, depth, maxResults)
	} else {
		result, err = s.store.Upstream(sym.ID, depth, maxResults)
	}
	if err != nil {
		return errResult(fmt.Sprintf("traverse: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"repository": repo.Name,
		"direction":  direction,
		"root": map[string]any{
			"name":           result.Root.Name,
			"qualified_name": result.Root.QualifiedName,
			"kind":           result.Root.Kind,
			"file_path":      result.RootPath,
		},
		"total": result.TotalCount,
		"nodes": nodePayloads(result.Nodes),
	}), nil
}
