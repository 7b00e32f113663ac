package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const confirmSystemPrompt = `You review static-analysis candidates for externally triggered code paths (HTTP handlers, event consumers, scheduled tasks). For each candidate decide whether it is a real production entry point, and return a JSON object {"verdicts":[{"symbol_id":...,"confirmed":true|false,"name":"...","description":"...","confidence":0.0-1.0,"reasoning":"..."}]}. Reject test harnesses, examples and internal helpers.`

const narrateSystemPrompt = `You document execution flows from call-graph evidence. Given an entry point, previously narrated steps and a batch of visited symbols with source snippets and log lines, continue the step-by-step description. Return a JSON object {"steps":[{"title":"...","description":"...","file_path":"..."}]}. Do not repeat previous steps.`

// OpenAI is a Collaborator backed by the OpenAI chat completion API, or any
// compatible endpoint when a base URL is configured.
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI builds an OpenAI collaborator. baseURL may be empty for the
// hosted API.
func NewOpenAI(apiKey, baseURL, model string, timeout time.Duration) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai collaborator requires an api key")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	var client *openai.Client
	if baseURL != "" {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = baseURL
		client = openai.NewClientWithConfig(cfg)
	} else {
		client = openai.NewClient(apiKey)
	}
	slog.Info("initializing AI collaborator", "model", model, "base_url", baseURL)
	return &OpenAI{client: client, model: model, timeout: timeout}, nil
}

func (o *OpenAI) ConfirmEntryPoints(ctx context.Context, repoName string, candidates []Candidate) ([]Verdict, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(map[string]any{
		"repository": repoName,
		"candidates": candidates,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal candidates: %w", err)
	}

	raw, err := o.complete(ctx, confirmSystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}
	verdicts, err := ParseVerdicts(raw)
	if err != nil {
		return nil, fmt.Errorf("parse confirmation response: %w", err)
	}
	slog.Debug("entry point confirmation complete",
		"candidates", len(candidates), "verdicts", len(verdicts))
	return verdicts, nil
}

func (o *OpenAI) NarrateFlowSegment(ctx context.Context, segment FlowSegment) ([]StepNarration, error) {
	if len(segment.Evidence) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(segment)
	if err != nil {
		return nil, fmt.Errorf("marshal flow segment: %w", err)
	}

	raw, err := o.complete(ctx, narrateSystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}
	steps, err := ParseSteps(raw)
	if err != nil {
		return nil, fmt.Errorf("parse narration response: %w", err)
	}
	return steps, nil
}

func (o *OpenAI) complete(ctx context.Context, system, user string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ParseVerdicts decodes a confirmation response. It tolerates a bare array,
// a {"verdicts": [...]} wrapper, and markdown code fences.
func ParseVerdicts(raw string) ([]Verdict, error) {
	raw = stripFence(raw)
	var wrapped struct {
		Verdicts []Verdict `json:"verdicts"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.Verdicts != nil {
		return wrapped.Verdicts, nil
	}
	var list []Verdict
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("unrecognized verdict payload: %w", err)
	}
	return list, nil
}

// ParseSteps decodes a narration response with the same tolerance as
// ParseVerdicts.
func ParseSteps(raw string) ([]StepNarration, error) {
	raw = stripFence(raw)
	var wrapped struct {
		Steps []StepNarration `json:"steps"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.Steps != nil {
		return wrapped.Steps, nil
	}
	var list []StepNarration
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("unrecognized steps payload: %w", err)
	}
	return list, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
