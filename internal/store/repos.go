package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Repository status values.
const (
	RepoPending   = "pending"
	RepoParsing   = "parsing"
	RepoCompleted = "completed"
	RepoFailed    = "failed"
)

// Repository represents a registered source repository.
type Repository struct {
	ID          int64
	Name        string
	RootPath    string
	Status      string
	TotalFiles  int
	ParsedFiles int
	FailedFiles int
	Languages   map[string]int // language -> file count
	RepoTree    map[string]any
	LastError   string
	CreatedAt   string
	UpdatedAt   string
}

// CreateRepository registers a repository, or resets an existing one with the
// same name back to pending (re-registration is how reparse is requested).
func (s *Store) CreateRepository(name, rootPath string) (*Repository, error) {
	now := Now()
	_, err := s.q.Exec(`
		INSERT INTO repositories (name, root_path, status, created_at, updated_at)
		VALUES (?, ?, 'pending', ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			root_path=excluded.root_path, status='pending',
			last_error='', updated_at=excluded.updated_at`,
		name, rootPath, now, now)
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}
	return s.GetRepositoryByName(name)
}

// GetRepository returns a repository by id, or nil if absent.
func (s *Store) GetRepository(id int64) (*Repository, error) {
	return s.scanRepo(s.q.QueryRow(repoSelect+" WHERE id=?", id))
}

// GetRepositoryByName returns a repository by name, or nil if absent.
func (s *Store) GetRepositoryByName(name string) (*Repository, error) {
	return s.scanRepo(s.q.QueryRow(repoSelect+" WHERE name=?", name))
}

// ListRepositories returns all repositories ordered by name.
func (s *Store) ListRepositories() ([]*Repository, error) {
	rows, err := s.q.Query(repoSelect + " ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*Repository
	for rows.Next() {
		r, err := scanRepoRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// UpdateRepositoryStatus sets the status and optional error message.
func (s *Store) UpdateRepositoryStatus(id int64, status, lastError string) error {
	_, err := s.q.Exec(`UPDATE repositories SET status=?, last_error=?, updated_at=? WHERE id=?`,
		status, lastError, Now(), id)
	return err
}

// SetRepositoryScan records the results of a filesystem scan: total files,
// the language histogram and the directory tree.
func (s *Store) SetRepositoryScan(id int64, totalFiles int, languages map[string]int, tree map[string]any) error {
	_, err := s.q.Exec(`
		UPDATE repositories SET total_files=?, languages=?, repo_tree=?, updated_at=?
		WHERE id=?`,
		totalFiles, marshalJSON(languages, "{}"), marshalJSON(tree, "{}"), Now(), id)
	return err
}

// RecomputeRepositoryProgress derives parsed/failed counters from file rows
// and recomputes the repository status. failureThreshold is the fraction of
// failed files above which the whole repository is marked failed.
func (s *Store) RecomputeRepositoryProgress(id int64, failureThreshold float64) (*Repository, error) {
	var total, failed int
	err := s.q.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(parse_failed), 0) FROM files WHERE repo_id=?`, id).
		Scan(&total, &failed)
	if err != nil {
		return nil, fmt.Errorf("recompute progress: %w", err)
	}
	parsed := total - failed

	repo, err := s.GetRepository(id)
	if err != nil || repo == nil {
		return nil, err
	}

	status := repo.Status
	if repo.TotalFiles > 0 && total >= repo.TotalFiles {
		// All discovered files have been attempted.
		if failureThreshold > 0 && float64(failed) > failureThreshold*float64(repo.TotalFiles) {
			status = RepoFailed
		} else {
			status = RepoCompleted
		}
	}

	_, err = s.q.Exec(`
		UPDATE repositories SET parsed_files=?, failed_files=?, status=?, updated_at=?
		WHERE id=?`,
		parsed, failed, status, Now(), id)
	if err != nil {
		return nil, err
	}
	return s.GetRepository(id)
}

// DeleteRepository removes a repository and all associated data (CASCADE).
func (s *Store) DeleteRepository(id int64) error {
	_, err := s.q.Exec("DELETE FROM repositories WHERE id=?", id)
	return err
}

const repoSelect = `
	SELECT id, name, root_path, status, total_files, parsed_files, failed_files,
	       languages, repo_tree, last_error, created_at, updated_at
	FROM repositories`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRepo(row *sql.Row) (*Repository, error) {
	r, err := scanRepoRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func scanRepoRow(row rowScanner) (*Repository, error) {
	var r Repository
	var languages, tree string
	err := row.Scan(&r.ID, &r.Name, &r.RootPath, &r.Status, &r.TotalFiles,
		&r.ParsedFiles, &r.FailedFiles, &languages, &tree, &r.LastError,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Languages = map[string]int{}
	_ = json.Unmarshal([]byte(languages), &r.Languages)
	r.RepoTree = unmarshalMap(tree)
	return &r, nil
}
