package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// CodeSnippet is a source excerpt attached to a flow step.
type CodeSnippet struct {
	QualifiedName string `json:"qualified_name"`
	FilePath      string `json:"file_path"`
	StartLine     int    `json:"start_line"`
	EndLine       int    `json:"end_line"`
	Code          string `json:"code"`
}

// FlowStep is one narrated step of an entry-point flow.
type FlowStep struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	FilePath    string        `json:"file_path"`
	Snippets    []CodeSnippet `json:"snippets,omitempty"`
	LogLines    []string      `json:"log_lines,omitempty"`
}

// Flow is the persisted result of flow generation for one entry point.
// Immutable once written; regeneration replaces the whole row.
type Flow struct {
	ID                  int64
	RepoID              int64
	EntryPointID        int64
	Name                string
	Summary             string
	Steps               []FlowStep
	MaxDepthAnalyzed    int
	IterationsCompleted int
	SymbolIDsAnalyzed   []int64
	FilePaths           []string
	CreatedAt           string
}

// SaveFlow writes a flow, replacing any previous flow for the entry point.
func (s *Store) SaveFlow(f *Flow) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO flows (repo_id, entry_point_id, name, summary, steps,
			max_depth_analyzed, iterations_completed, symbol_ids_analyzed, file_paths, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entry_point_id) DO UPDATE SET
			name=excluded.name, summary=excluded.summary, steps=excluded.steps,
			max_depth_analyzed=excluded.max_depth_analyzed,
			iterations_completed=excluded.iterations_completed,
			symbol_ids_analyzed=excluded.symbol_ids_analyzed,
			file_paths=excluded.file_paths, created_at=excluded.created_at`,
		f.RepoID, f.EntryPointID, f.Name, f.Summary, marshalJSON(f.Steps, "[]"),
		f.MaxDepthAnalyzed, f.IterationsCompleted,
		marshalJSON(f.SymbolIDsAnalyzed, "[]"), marshalJSON(f.FilePaths, "[]"), Now())
	if err != nil {
		return 0, fmt.Errorf("save flow: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		err = s.q.QueryRow("SELECT id FROM flows WHERE entry_point_id=?", f.EntryPointID).Scan(&id)
		if err != nil {
			return 0, err
		}
	}
	f.ID = id
	return id, nil
}

// GetFlowByEntryPoint returns the flow for an entry point, or nil when no
// flow has been generated yet (callers poll until ready).
func (s *Store) GetFlowByEntryPoint(entryPointID int64) (*Flow, error) {
	row := s.q.QueryRow(`
		SELECT id, repo_id, entry_point_id, name, summary, steps, max_depth_analyzed,
		       iterations_completed, symbol_ids_analyzed, file_paths, created_at
		FROM flows WHERE entry_point_id=?`, entryPointID)

	var f Flow
	var steps, symbolIDs, filePaths string
	err := row.Scan(&f.ID, &f.RepoID, &f.EntryPointID, &f.Name, &f.Summary, &steps,
		&f.MaxDepthAnalyzed, &f.IterationsCompleted, &symbolIDs, &filePaths, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(steps), &f.Steps)
	_ = json.Unmarshal([]byte(symbolIDs), &f.SymbolIDsAnalyzed)
	_ = json.Unmarshal([]byte(filePaths), &f.FilePaths)
	return &f, nil
}

// DeleteFlow removes the flow for an entry point.
func (s *Store) DeleteFlow(entryPointID int64) error {
	_, err := s.q.Exec("DELETE FROM flows WHERE entry_point_id=?", entryPointID)
	return err
}
