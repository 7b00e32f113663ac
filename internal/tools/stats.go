package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleGetStats(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	repo, err := s.resolveRepo(getStringArg(args, "repository"))
	if err != nil {
		return errResult(err.Error()), nil
	}

	stats, err := s.store.Stats(repo.ID)
	if err != nil {
		return errResult(fmt.Sprintf("stats: %v", err)), nil
	}
	epByType, epByFramework, err := s.store.EntryPointStats(repo.ID)
	if err != nil {
		return errResult(fmt.Sprintf("entry point stats: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"repository":                repo.Name,
		"status":                    repo.Status,
		"files":                     stats.Files,
		"symbols":                   stats.Symbols,
		"references":                stats.Refs,
		"symbols_by_kind":           stats.SymbolsByKind,
		"references_by_type":        stats.RefsByType,
		"entry_points_by_type":      epByType,
		"entry_points_by_framework": epByFramework,
	}), nil
}
