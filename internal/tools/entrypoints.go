package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/voyantlabs/codegraph/internal/store"
)

func (s *Server) handleDetectEntryPoints(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	repo, err := s.resolveRepo(getStringArg(args, "repository"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	if repo.Status != store.RepoCompleted {
		return errResult(fmt.Sprintf("repository %s is %s; index it first", repo.Name, repo.Status)), nil
	}

	job, err := s.store.EnqueueJob(repo.ID, store.JobDetectEntryPoints,
		map[string]any{"repo_id": repo.ID, "force": getBoolArg(args, "force")},
		s.settings.JobMaxAttempts)
	if err != nil {
		return errResult(fmt.Sprintf("enqueue detection job: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"repository": repo.Name,
		"job_id":     job.ID,
		"status":     job.Status,
	}), nil
}

func (s *Server) handleListEntryPointCandidates(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	repo, err := s.resolveRepo(getStringArg(args, "repository"))
	if err != nil {
		return errResult(err.Error()), nil
	}

	candidates, err := s.store.ListCandidates(repo.ID)
	if err != nil {
		return errResult(fmt.Sprintf("list candidates: %v", err)), nil
	}

	payload := make([]map[string]any, 0, len(candidates))
	for _, c := range candidates {
		item := map[string]any{
			"candidate_id":      c.ID,
			"symbol_id":         c.SymbolID,
			"detection_pattern": c.DetectionPattern,
			"framework":         c.Framework,
			"type":              c.Type,
			"confidence":        c.Confidence,
		}
		if filePath, ok := c.Metadata["file_path"].(string); ok && filePath != "" {
			item["file_path"] = filePath
		}
		payload = append(payload, item)
	}
	return jsonResult(map[string]any{
		"repository": repo.Name,
		"total":      len(candidates),
		"candidates": payload,
	}), nil
}

func (s *Server) handleListEntryPoints(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	repo, err := s.resolveRepo(getStringArg(args, "repository"))
	if err != nil {
		return errResult(err.Error()), nil
	}

	eps, err := s.store.ListEntryPoints(repo.ID,
		getStringArg(args, "type"), getStringArg(args, "framework"))
	if err != nil {
		return errResult(fmt.Sprintf("list entry points: %v", err)), nil
	}

	payload := make([]map[string]any, 0, len(eps))
	for _, ep := range eps {
		item := map[string]any{
			"entry_point_id": ep.ID,
			"symbol_id":      ep.SymbolID,
			"name":           ep.Name,
			"description":    ep.Description,
			"type":           ep.Type,
			"framework":      ep.Framework,
			"confidence":     ep.Confidence,
		}
		if ep.Reasoning != "" {
			item["reasoning"] = ep.Reasoning
		}
		if filePath, ok := ep.Metadata["file_path"].(string); ok && filePath != "" {
			item["file_path"] = filePath
		}
		payload = append(payload, item)
	}
	return jsonResult(map[string]any{
		"repository":   repo.Name,
		"total":        len(eps),
		"entry_points": payload,
	}), nil
}
