package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/voyantlabs/codegraph/internal/store"
)

func (s *Server) handleGenerateFlow(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	epID := int64(getIntArg(args, "entry_point_id", 0))
	if epID == 0 {
		return errResult("entry_point_id is required"), nil
	}
	ep, err := s.store.GetEntryPoint(epID)
	if err != nil {
		return errResult(fmt.Sprintf("get entry point: %v", err)), nil
	}
	if ep == nil {
		return errResult(fmt.Sprintf("entry point not found: %d", epID)), nil
	}

	job, err := s.store.EnqueueJob(ep.RepoID, store.JobGenerateFlow,
		map[string]any{"entry_point_id": epID}, s.settings.JobMaxAttempts)
	if err != nil {
		return errResult(fmt.Sprintf("enqueue flow job: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"entry_point_id": epID,
		"entry_point":    ep.Name,
		"job_id":         job.ID,
		"status":         job.Status,
	}), nil
}

func (s *Server) handleGetFlow(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	epID := int64(getIntArg(args, "entry_point_id", 0))
	if epID == 0 {
		return errResult("entry_point_id is required"), nil
	}

	payload, err := flowPayload(s.store, epID)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(payload), nil
}

// flowPayload builds the get_flow response. A missing flow is not an error:
// generation is asynchronous and callers poll until ready.
func flowPayload(s *store.Store, entryPointID int64) (map[string]any, error) {
	ep, err := s.GetEntryPoint(entryPointID)
	if err != nil {
		return nil, fmt.Errorf("get entry point: %w", err)
	}
	if ep == nil {
		return nil, fmt.Errorf("entry point not found: %d", entryPointID)
	}

	flow, err := s.GetFlowByEntryPoint(entryPointID)
	if err != nil {
		return nil, fmt.Errorf("get flow: %w", err)
	}
	if flow == nil {
		return map[string]any{
			"entry_point_id": entryPointID,
			"entry_point":    ep.Name,
			"ready":          false,
		}, nil
	}

	steps := make([]map[string]any, 0, len(flow.Steps))
	for _, step := range flow.Steps {
		item := map[string]any{
			"title":       step.Title,
			"description": step.Description,
			"file_path":   step.FilePath,
		}
		if len(step.Snippets) > 0 {
			item["snippets"] = step.Snippets
		}
		if len(step.LogLines) > 0 {
			item["log_lines"] = step.LogLines
		}
		steps = append(steps, item)
	}
	return map[string]any{
		"entry_point_id":       entryPointID,
		"entry_point":          ep.Name,
		"ready":                true,
		"name":                 flow.Name,
		"summary":              flow.Summary,
		"steps":                steps,
		"iterations_completed": flow.IterationsCompleted,
		"max_depth_analyzed":   flow.MaxDepthAnalyzed,
		"files_involved":       flow.FilePaths,
		"generated_at":         flow.CreatedAt,
	}, nil
}
