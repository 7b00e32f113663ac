package tools

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/voyantlabs/codegraph/internal/pipeline"
	"github.com/voyantlabs/codegraph/internal/store"
)

func (s *Server) handleIndexRepository(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	repoPath := getStringArg(args, "repo_path")
	if repoPath == "" {
		return errResult("repo_path is required"), nil
	}
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return errResult(fmt.Sprintf("invalid path: %v", err)), nil
	}

	repo, err := s.store.CreateRepository(pipeline.RepoNameFromPath(absPath), absPath)
	if err != nil {
		return errResult(fmt.Sprintf("register repository: %v", err)), nil
	}
	job, err := s.store.EnqueueJob(repo.ID, store.JobParse,
		map[string]any{"repo_path": absPath}, s.settings.JobMaxAttempts)
	if err != nil {
		return errResult(fmt.Sprintf("enqueue parse job: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"repository": repo.Name,
		"repo_id":    repo.ID,
		"job_id":     job.ID,
		"status":     job.Status,
	}), nil
}

func (s *Server) handleGetJobStatus(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	jobID := int64(getIntArg(args, "job_id", 0))
	if jobID == 0 {
		return errResult("job_id is required"), nil
	}

	job, err := s.store.GetJob(jobID)
	if err != nil {
		return errResult(fmt.Sprintf("get job: %v", err)), nil
	}
	if job == nil {
		return errResult(fmt.Sprintf("job not found: %d", jobID)), nil
	}
	return jsonResult(jobPayload(job)), nil
}

func jobPayload(job *store.Job) map[string]any {
	payload := map[string]any{
		"job_id":       job.ID,
		"repo_id":      job.RepoID,
		"type":         job.Type,
		"status":       job.Status,
		"attempts":     job.Attempts,
		"max_attempts": job.MaxAttempts,
		"created_at":   job.CreatedAt,
	}
	if job.LastError != "" {
		payload["last_error"] = job.LastError
	}
	if job.CompletedAt != "" {
		payload["completed_at"] = job.CompletedAt
	}
	return payload
}
