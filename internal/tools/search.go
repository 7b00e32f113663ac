package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/voyantlabs/codegraph/internal/store"
)

func (s *Server) handleSearchSymbols(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	repo, err := s.resolveRepo(getStringArg(args, "repository"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	// An empty query lists all symbols: the LIKE filter matches everything.
	query := getStringArg(args, "query")

	hits, total, err := s.store.SearchSymbols(repo.ID, query,
		getStringArg(args, "kind"),
		getIntArg(args, "limit", 50),
		getIntArg(args, "offset", 0))
	if err != nil {
		return errResult(fmt.Sprintf("search: %v", err)), nil
	}

	payload := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		payload = append(payload, map[string]any{
			"name":           h.Symbol.Name,
			"qualified_name": h.Symbol.QualifiedName,
			"kind":           h.Symbol.Kind,
			"file_path":      h.FilePath,
			"signature":      h.Symbol.Signature,
			"start_line":     h.Symbol.StartLine,
			"end_line":       h.Symbol.EndLine,
		})
	}
	return jsonResult(map[string]any{
		"repository": repo.Name,
		"query":      query,
		"total":      total,
		"symbols":    payload,
	}), nil
}

func (s *Server) handleLookupQualifiedPath(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	repo, err := s.resolveRepo(getStringArg(args, "repository"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	name := getStringArg(args, "name")
	if name == "" {
		return errResult("name is required"), nil
	}

	result, err := s.store.LookupByQualifiedPath(repo.ID,
		getStringArg(args, "path"), name, getIntArg(args, "depth", 2))
	if err != nil {
		return errResult(fmt.Sprintf("lookup: %v", err)), nil
	}

	matches := make([]map[string]any, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, map[string]any{
			"name":           m.Symbol.Name,
			"qualified_name": m.Symbol.QualifiedName,
			"kind":           m.Symbol.Kind,
			"file_path":      m.FilePath,
			"signature":      m.Symbol.Signature,
			"upstream":       nodePayloads(m.Upstream),
			"downstream":     nodePayloads(m.Downstream),
		})
	}
	return jsonResult(map[string]any{
		"repository":    repo.Name,
		"path":          result.PathPrefix,
		"name":          result.Name,
		"total_matches": result.TotalMatches,
		"matches":       matches,
	}), nil
}

func (s *Server) handleGetSymbol(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	repo, err := s.resolveRepo(getStringArg(args, "repository"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	symbolID := int64(getIntArg(args, "symbol_id", 0))
	if symbolID == 0 {
		return errResult("symbol_id is required"), nil
	}

	payload, err := symbolPayload(s.store, repo.ID, symbolID)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(payload), nil
}

// symbolPayload builds the get_symbol response.
func symbolPayload(s *store.Store, repoID, symbolID int64) (map[string]any, error) {
	sym, err := s.GetSymbol(symbolID)
	if err != nil {
		return nil, fmt.Errorf("get symbol: %w", err)
	}
	if sym == nil || sym.RepoID != repoID {
		return nil, fmt.Errorf("symbol not found: %d", symbolID)
	}
	filePath, err := s.SymbolFilePath(sym.ID)
	if err != nil {
		return nil, fmt.Errorf("symbol file: %w", err)
	}

	payload := map[string]any{
		"symbol_id":      sym.ID,
		"name":           sym.Name,
		"qualified_name": sym.QualifiedName,
		"kind":           sym.Kind,
		"file_path":      filePath,
		"start_line":     sym.StartLine,
		"end_line":       sym.EndLine,
	}
	if sym.Signature != "" {
		payload["signature"] = sym.Signature
	}
	if sym.SourceCode != "" {
		payload["source"] = sym.SourceCode
	}
	if sym.ParentID != 0 {
		if parent, err := s.GetSymbol(sym.ParentID); err == nil && parent != nil {
			payload["parent"] = parent.QualifiedName
		}
	}
	return payload, nil
}

// nodePayloads converts traversal nodes for JSON output. External leaves keep
// only their name and reference type.
func nodePayloads(nodes []*store.GraphNode) []map[string]any {
	out := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		if n.IsExternal {
			out = append(out, map[string]any{
				"name":           n.Name,
				"depth":          n.Depth,
				"reference_type": n.ReferenceType,
				"external":       true,
			})
			continue
		}
		out = append(out, map[string]any{
			"name":           n.Name,
			"qualified_name": n.QualifiedName,
			"kind":           n.Kind,
			"file_path":      n.FilePath,
			"depth":          n.Depth,
			"reference_type": n.ReferenceType,
		})
	}
	return out
}
