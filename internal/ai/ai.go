// Package ai defines the collaborator boundary for entry-point confirmation
// and flow narration. The engine assembles structured evidence and consumes
// structured verdicts; prompt construction and model calls live behind the
// Collaborator interface so the pipelines never depend on a vendor directly.
package ai

import "context"

// Candidate is the evidence bundle for one detected entry-point candidate.
type Candidate struct {
	SymbolID         int64          `json:"symbol_id"`
	Name             string         `json:"name"`
	QualifiedName    string         `json:"qualified_name"`
	FilePath         string         `json:"file_path"`
	SourceCode       string         `json:"source_code,omitempty"`
	Framework        string         `json:"framework"`
	DetectionPattern string         `json:"detection_pattern"`
	Type             string         `json:"type"`
	Confidence       float64        `json:"confidence"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	FolderStructure  []string       `json:"folder_structure,omitempty"`
}

// Verdict is the collaborator's decision on one candidate.
type Verdict struct {
	SymbolID    int64   `json:"symbol_id"`
	Confirmed   bool    `json:"confirmed"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

// SymbolEvidence is one visited symbol's contribution to a flow segment.
type SymbolEvidence struct {
	QualifiedName string   `json:"qualified_name"`
	FilePath      string   `json:"file_path"`
	Snippet       string   `json:"snippet,omitempty"`
	LogLines      []string `json:"log_lines,omitempty"`
	Depth         int      `json:"depth"`
}

// StepNarration is one narrated step of a flow.
type StepNarration struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	FilePath    string `json:"file_path,omitempty"`
}

// FlowSegment carries one traversal iteration's evidence plus the steps
// narrated so far, so the collaborator can continue the story rather than
// restart it.
type FlowSegment struct {
	EntryPointName        string          `json:"entry_point_name"`
	EntryPointDescription string          `json:"entry_point_description,omitempty"`
	Iteration             int             `json:"iteration"`
	DepthFrom             int             `json:"depth_from"`
	DepthTo               int             `json:"depth_to"`
	PreviousSteps         []StepNarration `json:"previous_steps,omitempty"`
	Evidence              []SymbolEvidence `json:"evidence"`
}

// Collaborator confirms entry-point candidates and narrates flow evidence.
// Implementations must honor ctx deadlines; enrichment jobs treat a timeout
// as failed-retryable.
type Collaborator interface {
	ConfirmEntryPoints(ctx context.Context, repoName string, candidates []Candidate) ([]Verdict, error)
	NarrateFlowSegment(ctx context.Context, segment FlowSegment) ([]StepNarration, error)
}
