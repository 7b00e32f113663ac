package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// Reference types.
const (
	RefCall   = "CALL"
	RefUsage  = "USAGE"
	RefImport = "IMPORT"
)

// Ref is a directed edge from a source symbol to a call/usage/import target.
// TargetID is 0 for unresolved targets; TargetName always holds the bare
// target name so external references stay queryable.
type Ref struct {
	ID             int64
	RepoID         int64
	SourceID       int64
	TargetID       int64  // 0 = unresolved
	TargetName     string // bare name of the target
	TargetFilePath string // dotted module path hint, "" when unknown
	Type           string
	IsExternal     bool
	Line           int
}

// refsBatchSize keeps multi-row inserts under the 999 bind-var limit
// (8 bind vars per row).
const refsBatchSize = 999 / 8

// InsertRef stores one reference edge.
func (s *Store) InsertRef(r *Ref) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO refs (repo_id, source_id, target_id, target_name, target_file_path,
			type, is_external, line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RepoID, r.SourceID, nullableID(r.TargetID), r.TargetName, r.TargetFilePath,
		r.Type, boolToInt(r.IsExternal), r.Line)
	if err != nil {
		return 0, fmt.Errorf("insert ref %s: %w", r.TargetName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	r.ID = id
	return id, nil
}

// InsertRefBatch writes references in multi-row statements.
func (s *Store) InsertRefBatch(refs []*Ref) error {
	for start := 0; start < len(refs); start += refsBatchSize {
		end := start + refsBatchSize
		if end > len(refs) {
			end = len(refs)
		}
		batch := refs[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO refs (repo_id, source_id, target_id, target_name,
			target_file_path, type, is_external, line) VALUES `)
		args := make([]any, 0, len(batch)*8)
		for i, r := range batch {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, r.RepoID, r.SourceID, nullableID(r.TargetID), r.TargetName,
				r.TargetFilePath, r.Type, boolToInt(r.IsExternal), r.Line)
		}
		if _, err := s.q.Exec(sb.String(), args...); err != nil {
			return fmt.Errorf("insert ref batch: %w", err)
		}
	}
	return nil
}

// FindRefsBySource returns all outgoing references of a symbol.
func (s *Store) FindRefsBySource(sourceID int64) ([]*Ref, error) {
	rows, err := s.q.Query(refSelect+" WHERE source_id=? ORDER BY line", sourceID)
	if err != nil {
		return nil, err
	}
	return scanRefs(rows)
}

// FindRefsByTarget returns all references resolved to a symbol.
func (s *Store) FindRefsByTarget(targetID int64) ([]*Ref, error) {
	rows, err := s.q.Query(refSelect+" WHERE target_id=?", targetID)
	if err != nil {
		return nil, err
	}
	return scanRefs(rows)
}

// DeleteRefsBySourceFile removes references originating from a file's symbols.
// Used before reparsing a changed file so stale edges never persist.
func (s *Store) DeleteRefsBySourceFile(fileID int64) error {
	_, err := s.q.Exec(`
		DELETE FROM refs WHERE source_id IN (SELECT id FROM symbols WHERE file_id=?)`,
		fileID)
	return err
}

// ResolveDanglingRefs binds stored references that carried a module-path hint
// but no target id, matching the hint against file paths. Called after all
// files of a batch have been parsed so forward references across files
// resolve. Remaining unresolved refs are marked external.
func (s *Store) ResolveDanglingRefs(repoID int64) (int64, error) {
	res, err := s.q.Exec(`
		UPDATE refs SET
			target_id = (
				SELECT sy.id FROM symbols sy JOIN files f ON f.id = sy.file_id
				WHERE sy.repo_id = refs.repo_id
				  AND sy.name = refs.target_name
				  AND f.rel_path LIKE '%' || replace(refs.target_file_path, '.', '/') || '%'
				LIMIT 1
			),
			is_external = 0
		WHERE repo_id=? AND target_id IS NULL AND target_file_path != ''
		  AND EXISTS (
			SELECT 1 FROM symbols sy JOIN files f ON f.id = sy.file_id
			WHERE sy.repo_id = refs.repo_id
			  AND sy.name = refs.target_name
			  AND f.rel_path LIKE '%' || replace(refs.target_file_path, '.', '/') || '%'
		  )`, repoID)
	if err != nil {
		return 0, fmt.Errorf("resolve dangling refs: %w", err)
	}
	resolved, _ := res.RowsAffected()

	_, err = s.q.Exec(`
		UPDATE refs SET is_external = 1 WHERE repo_id=? AND target_id IS NULL`, repoID)
	if err != nil {
		return resolved, err
	}
	return resolved, nil
}

// CountRefs returns the number of references in a repository.
func (s *Store) CountRefs(repoID int64) (int, error) {
	var n int
	err := s.q.QueryRow("SELECT COUNT(*) FROM refs WHERE repo_id=?", repoID).Scan(&n)
	return n, err
}

const refSelect = `
	SELECT id, repo_id, source_id, target_id, target_name, target_file_path,
	       type, is_external, line
	FROM refs`

func scanRefs(rows *sql.Rows) ([]*Ref, error) {
	defer rows.Close()
	var result []*Ref
	for rows.Next() {
		var r Ref
		var target sql.NullInt64
		var ext int
		err := rows.Scan(&r.ID, &r.RepoID, &r.SourceID, &target, &r.TargetName,
			&r.TargetFilePath, &r.Type, &ext, &r.Line)
		if err != nil {
			return nil, err
		}
		r.TargetID = target.Int64
		r.IsExternal = ext != 0
		result = append(result, &r)
	}
	return result, rows.Err()
}
