package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// Symbol kinds.
const (
	KindFunction  = "function"
	KindMethod    = "method"
	KindClass     = "class"
	KindModule    = "module"
	KindImport    = "import"
	KindInterface = "interface"
	KindStruct    = "struct"
	KindTrait     = "trait"
	KindEnum      = "enum"
	KindImpl      = "impl"
)

// Symbol represents a named code entity extracted from one file.
type Symbol struct {
	ID            int64
	RepoID        int64
	FileID        int64
	Kind          string
	Name          string
	QualifiedName string
	Signature     string
	SourceCode    string
	ParentID      int64 // 0 = no enclosing scope
	StartLine     int
	StartCol      int
	EndLine       int
	EndCol        int
}

// symbolsBatchSize keeps multi-row inserts under SQLite's 999 bind-var limit
// (12 bind vars per row).
const symbolsBatchSize = 999 / 12

// UpsertSymbol inserts or updates a symbol by (repo_id, qualified_name) and
// returns its id.
func (s *Store) UpsertSymbol(sym *Symbol) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO symbols (repo_id, file_id, kind, name, qualified_name, signature,
			source_code, parent_id, start_line, start_col, end_line, end_col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, qualified_name) DO UPDATE SET
			file_id=excluded.file_id, kind=excluded.kind, name=excluded.name,
			signature=excluded.signature, source_code=excluded.source_code,
			parent_id=excluded.parent_id, start_line=excluded.start_line,
			start_col=excluded.start_col, end_line=excluded.end_line,
			end_col=excluded.end_col`,
		sym.RepoID, sym.FileID, sym.Kind, sym.Name, sym.QualifiedName, sym.Signature,
		sym.SourceCode, nullableID(sym.ParentID), sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol)
	if err != nil {
		return 0, fmt.Errorf("upsert symbol %s: %w", sym.QualifiedName, err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		err = s.q.QueryRow("SELECT id FROM symbols WHERE repo_id=? AND qualified_name=?",
			sym.RepoID, sym.QualifiedName).Scan(&id)
		if err != nil {
			return 0, err
		}
	}
	sym.ID = id
	return id, nil
}

// UpsertSymbolBatch writes symbols in multi-row statements, then resolves the
// assigned ids back into the slice.
func (s *Store) UpsertSymbolBatch(symbols []*Symbol) error {
	for start := 0; start < len(symbols); start += symbolsBatchSize {
		end := start + symbolsBatchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		batch := symbols[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO symbols (repo_id, file_id, kind, name, qualified_name,
			signature, source_code, parent_id, start_line, start_col, end_line, end_col) VALUES `)
		args := make([]any, 0, len(batch)*12)
		for i, sym := range batch {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, sym.RepoID, sym.FileID, sym.Kind, sym.Name, sym.QualifiedName,
				sym.Signature, sym.SourceCode, nullableID(sym.ParentID),
				sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol)
		}
		sb.WriteString(` ON CONFLICT(repo_id, qualified_name) DO UPDATE SET
			file_id=excluded.file_id, kind=excluded.kind, name=excluded.name,
			signature=excluded.signature, source_code=excluded.source_code,
			parent_id=excluded.parent_id, start_line=excluded.start_line,
			start_col=excluded.start_col, end_line=excluded.end_line, end_col=excluded.end_col`)

		if _, err := s.q.Exec(sb.String(), args...); err != nil {
			return fmt.Errorf("upsert symbol batch: %w", err)
		}
		if err := s.resolveSymbolIDs(batch); err != nil {
			return err
		}
	}
	return nil
}

// resolveSymbolIDs fills in ids for a freshly upserted batch.
func (s *Store) resolveSymbolIDs(batch []*Symbol) error {
	if len(batch) == 0 {
		return nil
	}
	byQN := make(map[string]*Symbol, len(batch))
	placeholders := make([]string, 0, len(batch))
	args := []any{batch[0].RepoID}
	for _, sym := range batch {
		byQN[sym.QualifiedName] = sym
		placeholders = append(placeholders, "?")
		args = append(args, sym.QualifiedName)
	}
	rows, err := s.q.Query(
		"SELECT id, qualified_name FROM symbols WHERE repo_id=? AND qualified_name IN ("+
			strings.Join(placeholders, ",")+")", args...)
	if err != nil {
		return fmt.Errorf("resolve symbol ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var qn string
		if err := rows.Scan(&id, &qn); err != nil {
			return err
		}
		if sym, ok := byQN[qn]; ok {
			sym.ID = id
		}
	}
	return rows.Err()
}

// GetSymbol returns a symbol by id, or nil if absent.
func (s *Store) GetSymbol(id int64) (*Symbol, error) {
	return s.scanSymbol(s.q.QueryRow(symbolSelect+" WHERE id=?", id))
}

// FindSymbolByQN returns the symbol with the given qualified name, or nil.
func (s *Store) FindSymbolByQN(repoID int64, qn string) (*Symbol, error) {
	return s.scanSymbol(s.q.QueryRow(symbolSelect+" WHERE repo_id=? AND qualified_name=?", repoID, qn))
}

// FindSymbolsByName returns all symbols with the given bare name. Multiple
// matches are expected; callers must not assume uniqueness.
func (s *Store) FindSymbolsByName(repoID int64, name string) ([]*Symbol, error) {
	rows, err := s.q.Query(symbolSelect+" WHERE repo_id=? AND name=? ORDER BY qualified_name", repoID, name)
	if err != nil {
		return nil, err
	}
	return scanSymbols(rows)
}

// FindSymbolsByFile returns all symbols extracted from one file.
func (s *Store) FindSymbolsByFile(fileID int64) ([]*Symbol, error) {
	rows, err := s.q.Query(symbolSelect+" WHERE file_id=? ORDER BY start_line", fileID)
	if err != nil {
		return nil, err
	}
	return scanSymbols(rows)
}

// FindSymbolsByPathAndName returns all symbols with the given bare name whose
// file path contains pathPattern (slash form). Empty pathPattern matches any
// file.
func (s *Store) FindSymbolsByPathAndName(repoID int64, pathPattern, name string) ([]*Symbol, error) {
	if pathPattern == "" {
		return s.FindSymbolsByName(repoID, name)
	}
	rows, err := s.q.Query(`
		SELECT s.id, s.repo_id, s.file_id, s.kind, s.name, s.qualified_name, s.signature,
		       s.source_code, s.parent_id, s.start_line, s.start_col, s.end_line, s.end_col
		FROM symbols s JOIN files f ON f.id = s.file_id
		WHERE s.repo_id=? AND s.name=? AND f.rel_path LIKE '%' || ? || '%'
		ORDER BY s.qualified_name`, repoID, name, pathPattern)
	if err != nil {
		return nil, err
	}
	return scanSymbols(rows)
}

// SymbolFilePath returns the relative path of the file a symbol belongs to.
func (s *Store) SymbolFilePath(symbolID int64) (string, error) {
	var path string
	err := s.q.QueryRow(`
		SELECT f.rel_path FROM symbols sy JOIN files f ON f.id = sy.file_id
		WHERE sy.id=?`, symbolID).Scan(&path)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return path, err
}

// SetSymbolParent records the enclosing-scope link between two symbols.
func (s *Store) SetSymbolParent(childID, parentID int64) error {
	_, err := s.q.Exec("UPDATE symbols SET parent_id=? WHERE id=?", nullableID(parentID), childID)
	return err
}

// DeleteSymbolsByFile removes all symbols of a file (refs cascade).
func (s *Store) DeleteSymbolsByFile(fileID int64) error {
	_, err := s.q.Exec("DELETE FROM symbols WHERE file_id=?", fileID)
	return err
}

// CountSymbols returns the number of symbols in a repository.
func (s *Store) CountSymbols(repoID int64) (int, error) {
	var n int
	err := s.q.QueryRow("SELECT COUNT(*) FROM symbols WHERE repo_id=?", repoID).Scan(&n)
	return n, err
}

const symbolSelect = `
	SELECT id, repo_id, file_id, kind, name, qualified_name, signature, source_code,
	       parent_id, start_line, start_col, end_line, end_col
	FROM symbols`

func (s *Store) scanSymbol(row *sql.Row) (*Symbol, error) {
	sym, err := scanSymbolRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sym, err
}

func scanSymbolRow(row rowScanner) (*Symbol, error) {
	var sym Symbol
	var parent sql.NullInt64
	err := row.Scan(&sym.ID, &sym.RepoID, &sym.FileID, &sym.Kind, &sym.Name,
		&sym.QualifiedName, &sym.Signature, &sym.SourceCode, &parent,
		&sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol)
	if err != nil {
		return nil, err
	}
	sym.ParentID = parent.Int64
	return &sym, nil
}

func scanSymbols(rows *sql.Rows) ([]*Symbol, error) {
	defer rows.Close()
	var result []*Symbol
	for rows.Next() {
		sym, err := scanSymbolRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sym)
	}
	return result, rows.Err()
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
