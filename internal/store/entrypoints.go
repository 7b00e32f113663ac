package store

import (
	"database/sql"
	"fmt"
)

// Entry point types.
const (
	EntryPointHTTP      = "http"
	EntryPointEvent     = "event"
	EntryPointScheduler = "scheduler"
)

// EntryPointCandidate is a pattern-matched symbol that may be an externally
// triggered entry point. Candidates are kept regardless of the confirmation
// outcome; they are the audit trail of detection.
type EntryPointCandidate struct {
	ID               int64
	RepoID           int64
	SymbolID         int64
	DetectionPattern string
	Framework        string
	Type             string
	Metadata         map[string]any
	Confidence       float64
	CreatedAt        string
}

// EntryPoint is a confirmed candidate with the collaborator's verdict fields.
type EntryPoint struct {
	ID          int64
	RepoID      int64
	CandidateID int64
	SymbolID    int64
	Name        string
	Description string
	Type        string
	Framework   string
	Confidence  float64
	Reasoning   string
	Metadata    map[string]any
	CreatedAt   string
}

// InsertCandidate stores one entry-point candidate.
func (s *Store) InsertCandidate(c *EntryPointCandidate) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO entry_point_candidates
			(repo_id, symbol_id, detection_pattern, framework, ep_type, metadata, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.RepoID, c.SymbolID, c.DetectionPattern, c.Framework, c.Type,
		marshalJSON(c.Metadata, "{}"), c.Confidence, Now())
	if err != nil {
		return 0, fmt.Errorf("insert candidate: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

// ListCandidates returns all candidates for a repository.
func (s *Store) ListCandidates(repoID int64) ([]*EntryPointCandidate, error) {
	rows, err := s.q.Query(`
		SELECT id, repo_id, symbol_id, detection_pattern, framework, ep_type,
		       metadata, confidence, created_at
		FROM entry_point_candidates WHERE repo_id=? ORDER BY confidence DESC, id`, repoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*EntryPointCandidate
	for rows.Next() {
		var c EntryPointCandidate
		var meta string
		err := rows.Scan(&c.ID, &c.RepoID, &c.SymbolID, &c.DetectionPattern,
			&c.Framework, &c.Type, &meta, &c.Confidence, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		c.Metadata = unmarshalMap(meta)
		result = append(result, &c)
	}
	return result, rows.Err()
}

// DeleteCandidates removes all candidates for a repository (force redetect).
func (s *Store) DeleteCandidates(repoID int64) error {
	_, err := s.q.Exec("DELETE FROM entry_point_candidates WHERE repo_id=?", repoID)
	return err
}

// InsertEntryPoint stores one confirmed entry point.
func (s *Store) InsertEntryPoint(ep *EntryPoint) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO entry_points
			(repo_id, candidate_id, symbol_id, name, description, ep_type, framework,
			 confidence, reasoning, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ep.RepoID, nullableID(ep.CandidateID), ep.SymbolID, ep.Name, ep.Description,
		ep.Type, ep.Framework, ep.Confidence, ep.Reasoning,
		marshalJSON(ep.Metadata, "{}"), Now())
	if err != nil {
		return 0, fmt.Errorf("insert entry point: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	ep.ID = id
	return id, nil
}

// GetEntryPoint returns an entry point by id, or nil if absent.
func (s *Store) GetEntryPoint(id int64) (*EntryPoint, error) {
	ep, err := scanEntryPointRow(s.q.QueryRow(entryPointSelect+" WHERE id=?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ep, err
}

// ListEntryPoints returns confirmed entry points, optionally filtered by type
// and framework.
func (s *Store) ListEntryPoints(repoID int64, epType, framework string) ([]*EntryPoint, error) {
	query := entryPointSelect + " WHERE repo_id=?"
	args := []any{repoID}
	if epType != "" {
		query += " AND ep_type=?"
		args = append(args, epType)
	}
	if framework != "" {
		query += " AND framework=?"
		args = append(args, framework)
	}
	query += " ORDER BY confidence DESC, id"
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*EntryPoint
	for rows.Next() {
		ep, err := scanEntryPointRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ep)
	}
	return result, rows.Err()
}

// DeleteEntryPoints removes all entry points for a repository. Flows cascade.
func (s *Store) DeleteEntryPoints(repoID int64) error {
	_, err := s.q.Exec("DELETE FROM entry_points WHERE repo_id=?", repoID)
	return err
}

// EntryPointStats returns counts grouped by type and by framework.
func (s *Store) EntryPointStats(repoID int64) (byType, byFramework map[string]int, err error) {
	byType, err = s.groupCount("SELECT ep_type, COUNT(*) FROM entry_points WHERE repo_id=? GROUP BY ep_type", repoID)
	if err != nil {
		return nil, nil, err
	}
	byFramework, err = s.groupCount("SELECT framework, COUNT(*) FROM entry_points WHERE repo_id=? GROUP BY framework", repoID)
	if err != nil {
		return nil, nil, err
	}
	return byType, byFramework, nil
}

const entryPointSelect = `
	SELECT id, repo_id, candidate_id, symbol_id, name, description, ep_type,
	       framework, confidence, reasoning, metadata, created_at
	FROM entry_points`

func scanEntryPointRow(row rowScanner) (*EntryPoint, error) {
	var ep EntryPoint
	var candidate sql.NullInt64
	var meta string
	err := row.Scan(&ep.ID, &ep.RepoID, &candidate, &ep.SymbolID, &ep.Name,
		&ep.Description, &ep.Type, &ep.Framework, &ep.Confidence, &ep.Reasoning,
		&meta, &ep.CreatedAt)
	if err != nil {
		return nil, err
	}
	ep.CandidateID = candidate.Int64
	ep.Metadata = unmarshalMap(meta)
	return &ep, nil
}

func (s *Store) groupCount(query string, args ...any) (map[string]int, error) {
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		result[key] = n
	}
	return result, rows.Err()
}
