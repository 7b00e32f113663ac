package store

import (
	"fmt"
	"strings"
)

// SymbolHit is a symbol with its file path, as returned by searches.
type SymbolHit struct {
	Symbol   *Symbol
	FilePath string
}

// SearchSymbols finds symbols whose name contains query (case-insensitive).
// An optional kind narrows the match. Returns the hits page plus the total
// match count.
func (s *Store) SearchSymbols(repoID int64, query, kind string, limit, offset int) ([]*SymbolHit, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where := "sy.repo_id=? AND sy.name LIKE '%' || ? || '%'"
	args := []any{repoID, query}
	if kind != "" {
		where += " AND sy.kind=?"
		args = append(args, kind)
	}

	var total int
	err := s.q.QueryRow("SELECT COUNT(*) FROM symbols sy WHERE "+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("search count: %w", err)
	}

	rows, err := s.q.Query(`
		SELECT sy.id, sy.repo_id, sy.file_id, sy.kind, sy.name, sy.qualified_name,
		       sy.signature, sy.source_code, sy.parent_id, sy.start_line, sy.start_col,
		       sy.end_line, sy.end_col, f.rel_path
		FROM symbols sy JOIN files f ON f.id = sy.file_id
		WHERE `+where+`
		ORDER BY sy.name, sy.qualified_name LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var hits []*SymbolHit
	for rows.Next() {
		var sym Symbol
		var parent any
		var relPath string
		err := rows.Scan(&sym.ID, &sym.RepoID, &sym.FileID, &sym.Kind, &sym.Name,
			&sym.QualifiedName, &sym.Signature, &sym.SourceCode, &parent,
			&sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol, &relPath)
		if err != nil {
			return nil, 0, err
		}
		if p, ok := parent.(int64); ok {
			sym.ParentID = p
		}
		hits = append(hits, &SymbolHit{Symbol: &sym, FilePath: relPath})
	}
	return hits, total, rows.Err()
}

// ListSymbols pages through a repository's symbols, optionally by kind.
func (s *Store) ListSymbols(repoID int64, kind string, limit, offset int) ([]*Symbol, error) {
	if limit <= 0 {
		limit = 100
	}
	query := symbolSelect + " WHERE repo_id=?"
	args := []any{repoID}
	if kind != "" {
		query += " AND kind=?"
		args = append(args, kind)
	}
	query += " ORDER BY qualified_name LIMIT ? OFFSET ?"
	rows, err := s.q.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, err
	}
	return scanSymbols(rows)
}

// SymbolMatch is one match of a qualified-path lookup, carrying its own
// traversal context.
type SymbolMatch struct {
	Symbol     *Symbol
	FilePath   string
	Upstream   []*GraphNode
	Downstream []*GraphNode
}

// LookupResult holds all matches of a qualified-path lookup. Bare names are
// not unique; all matches are returned rather than an arbitrary winner.
type LookupResult struct {
	PathPrefix   string
	Name         string
	TotalMatches int
	Matches      []*SymbolMatch
}

// LookupByQualifiedPath finds every symbol named name under the dotted
// pathPrefix ("" matches anywhere) and attaches upstream and downstream
// context to the requested depth for each match independently.
func (s *Store) LookupByQualifiedPath(repoID int64, pathPrefix, name string, depth int) (*LookupResult, error) {
	pattern := strings.ReplaceAll(pathPrefix, ".", "/")
	symbols, err := s.FindSymbolsByPathAndName(repoID, pattern, name)
	if err != nil {
		return nil, err
	}

	result := &LookupResult{PathPrefix: pathPrefix, Name: name, TotalMatches: len(symbols)}
	for _, sym := range symbols {
		filePath, err := s.SymbolFilePath(sym.ID)
		if err != nil {
			return nil, err
		}
		up, err := s.Upstream(sym.ID, depth, 0)
		if err != nil {
			return nil, err
		}
		down, err := s.Downstream(sym.ID, depth, 0)
		if err != nil {
			return nil, err
		}
		match := &SymbolMatch{Symbol: sym, FilePath: filePath}
		if up != nil {
			match.Upstream = up.Nodes
		}
		if down != nil {
			match.Downstream = down.Nodes
		}
		result.Matches = append(result.Matches, match)
	}
	return result, nil
}
