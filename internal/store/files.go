package store

import (
	"database/sql"
	"fmt"
)

// File represents a discovered source file belonging to a repository.
type File struct {
	ID          int64
	RepoID      int64
	RelPath     string
	Language    string
	ContentHash string
	Content     string
	ParseFailed bool
	UpdatedAt   string
}

// UpsertFile creates or updates a file record and returns its id.
func (s *Store) UpsertFile(f *File) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO files (repo_id, rel_path, language, content_hash, content, parse_failed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, rel_path) DO UPDATE SET
			language=excluded.language, content_hash=excluded.content_hash,
			content=excluded.content, parse_failed=excluded.parse_failed,
			updated_at=excluded.updated_at`,
		f.RepoID, f.RelPath, f.Language, f.ContentHash, f.Content, boolToInt(f.ParseFailed), Now())
	if err != nil {
		return 0, fmt.Errorf("upsert file %s: %w", f.RelPath, err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		// Updated row: LastInsertId is not reliable, fetch explicitly.
		err = s.q.QueryRow("SELECT id FROM files WHERE repo_id=? AND rel_path=?",
			f.RepoID, f.RelPath).Scan(&id)
		if err != nil {
			return 0, err
		}
	}
	f.ID = id
	return id, nil
}

// GetFile returns a file by repository and relative path, or nil if absent.
func (s *Store) GetFile(repoID int64, relPath string) (*File, error) {
	return s.scanFile(s.q.QueryRow(fileSelect+" WHERE repo_id=? AND rel_path=?", repoID, relPath))
}

// GetFileByID returns a file by id, or nil if absent.
func (s *Store) GetFileByID(id int64) (*File, error) {
	return s.scanFile(s.q.QueryRow(fileSelect+" WHERE id=?", id))
}

// ListFiles returns all files of a repository ordered by path.
func (s *Store) ListFiles(repoID int64) ([]*File, error) {
	rows, err := s.q.Query(fileSelect+" WHERE repo_id=? ORDER BY rel_path", repoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*File
	for rows.Next() {
		f, err := scanFileRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

// FileHashes returns rel_path -> content_hash for all files of a repository.
// This is the input to change classification on reindex.
func (s *Store) FileHashes(repoID int64) (map[string]string, error) {
	rows, err := s.q.Query("SELECT rel_path, content_hash FROM files WHERE repo_id=?", repoID)
	if err != nil {
		return nil, fmt.Errorf("file hashes: %w", err)
	}
	defer rows.Close()
	result := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		result[path] = hash
	}
	return result, rows.Err()
}

// MarkFileParseFailed flags or clears the per-file parse failure state.
func (s *Store) MarkFileParseFailed(fileID int64, failed bool) error {
	_, err := s.q.Exec("UPDATE files SET parse_failed=?, updated_at=? WHERE id=?",
		boolToInt(failed), Now(), fileID)
	return err
}

// DeleteFile removes a file and, via CASCADE, its symbols and their refs.
func (s *Store) DeleteFile(repoID int64, relPath string) error {
	_, err := s.q.Exec("DELETE FROM files WHERE repo_id=? AND rel_path=?", repoID, relPath)
	return err
}

const fileSelect = `
	SELECT id, repo_id, rel_path, language, content_hash, content, parse_failed, updated_at
	FROM files`

func (s *Store) scanFile(row *sql.Row) (*File, error) {
	f, err := scanFileRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

func scanFileRow(row rowScanner) (*File, error) {
	var f File
	var failed int
	err := row.Scan(&f.ID, &f.RepoID, &f.RelPath, &f.Language, &f.ContentHash,
		&f.Content, &failed, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.ParseFailed = failed != 0
	return &f, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
