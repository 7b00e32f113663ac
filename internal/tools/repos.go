package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/voyantlabs/codegraph/internal/store"
)

func (s *Server) handleListRepositories(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repos, err := s.store.ListRepositories()
	if err != nil {
		return errResult(fmt.Sprintf("list repositories: %v", err)), nil
	}
	payload := make([]map[string]any, 0, len(repos))
	for _, r := range repos {
		payload = append(payload, repoPayload(r))
	}
	return jsonResult(map[string]any{"repositories": payload, "total": len(repos)}), nil
}

func (s *Server) handleGetRepositoryStatus(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	repo, err := s.resolveRepo(getStringArg(args, "repository"))
	if err != nil {
		return errResult(err.Error()), nil
	}

	jobCounts, err := s.store.CountJobsByStatus(repo.ID, "")
	if err != nil {
		return errResult(fmt.Sprintf("count jobs: %v", err)), nil
	}
	payload := repoPayload(repo)
	payload["jobs_by_status"] = jobCounts
	return jsonResult(payload), nil
}

func (s *Server) handleDeleteRepository(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	repo, err := s.resolveRepo(getStringArg(args, "repository"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	if err := s.store.DeleteRepository(repo.ID); err != nil {
		return errResult(fmt.Sprintf("delete repository: %v", err)), nil
	}
	return jsonResult(map[string]any{"deleted": repo.Name}), nil
}

func repoPayload(r *store.Repository) map[string]any {
	payload := map[string]any{
		"name":         r.Name,
		"repo_id":      r.ID,
		"root_path":    r.RootPath,
		"status":       r.Status,
		"total_files":  r.TotalFiles,
		"parsed_files": r.ParsedFiles,
		"failed_files": r.FailedFiles,
		"updated_at":   r.UpdatedAt,
	}
	if len(r.Languages) > 0 {
		payload["languages"] = r.Languages
	}
	if r.LastError != "" {
		payload["last_error"] = r.LastError
	}
	return payload
}
