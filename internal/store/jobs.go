package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Job types.
const (
	JobParse             = "parse"
	JobDetectEntryPoints = "detect_entry_points"
	JobGenerateFlow      = "generate_flow"
)

// Job status values.
const (
	JobPending    = "pending"
	JobInProgress = "in_progress"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// Job is a unit of queued work against a repository. The jobs table is the
// single coordination point between workers; claiming is a conditional
// update so concurrent workers never take the same row.
type Job struct {
	ID          int64
	RepoID      int64
	Type        string
	Status      string
	Payload     map[string]any
	Attempts    int
	MaxAttempts int
	WorkerID    string
	LockedAt    string
	LastError   string
	CreatedAt   string
	StartedAt   string
	CompletedAt string
}

// lockLayout is fixed-width so stored timestamps compare lexicographically.
const lockLayout = "2006-01-02T15:04:05.000000000Z"

func lockNow() string {
	return time.Now().UTC().Format(lockLayout)
}

// EnqueueJob creates a pending job.
func (s *Store) EnqueueJob(repoID int64, jobType string, payload map[string]any, maxAttempts int) (*Job, error) {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	res, err := s.q.Exec(`
		INSERT INTO jobs (repo_id, type, status, payload, max_attempts, created_at)
		VALUES (?, ?, 'pending', ?, ?, ?)`,
		repoID, jobType, marshalJSON(payload, "{}"), maxAttempts, lockNow())
	if err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetJob(id)
}

// ClaimJob atomically claims the oldest pending job (or one whose lock has
// gone stale) for workerID. Returns nil when no job is claimable; a lost race
// with another worker also returns nil, which callers treat as "try again",
// never as an error.
func (s *Store) ClaimJob(workerID string, lockTimeout time.Duration) (*Job, error) {
	cutoff := time.Now().UTC().Add(-lockTimeout).Format(lockLayout)
	lockedAt := lockNow()

	res, err := s.q.Exec(`
		UPDATE jobs SET
			status='in_progress', worker_id=?, locked_at=?, started_at=?,
			attempts=attempts+1
		WHERE id = (
			SELECT id FROM jobs
			WHERE status='pending'
			   OR (status='in_progress' AND locked_at != '' AND locked_at < ?)
			ORDER BY created_at, id LIMIT 1
		)
		AND (status='pending' OR (status='in_progress' AND locked_at != '' AND locked_at < ?))`,
		workerID, lockedAt, lockedAt, cutoff, cutoff)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	return s.scanJob(s.q.QueryRow(jobSelect+" WHERE worker_id=? AND locked_at=? AND status='in_progress'",
		workerID, lockedAt))
}

// CompleteJob marks a job completed. The lock is released but worker_id is
// kept for audit.
func (s *Store) CompleteJob(id int64) error {
	_, err := s.q.Exec(`
		UPDATE jobs SET status='completed', locked_at='', completed_at=? WHERE id=?`,
		lockNow(), id)
	return err
}

// FailJob records a failure. Below the attempt ceiling the job returns to
// pending for re-claim; at the ceiling it becomes permanently failed.
func (s *Store) FailJob(id int64, errMsg string) (*Job, error) {
	_, err := s.q.Exec(`
		UPDATE jobs SET
			status = CASE WHEN attempts >= max_attempts THEN 'failed' ELSE 'pending' END,
			locked_at='', last_error=?
		WHERE id=?`, errMsg, id)
	if err != nil {
		return nil, fmt.Errorf("fail job: %w", err)
	}
	return s.GetJob(id)
}

// GetJob returns a job by id, or nil if absent.
func (s *Store) GetJob(id int64) (*Job, error) {
	return s.scanJob(s.q.QueryRow(jobSelect+" WHERE id=?", id))
}

// ListJobs returns all jobs of a repository, newest first.
func (s *Store) ListJobs(repoID int64) ([]*Job, error) {
	rows, err := s.q.Query(jobSelect+" WHERE repo_id=? ORDER BY created_at DESC, id DESC", repoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*Job
	for rows.Next() {
		j, err := scanJobRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, j)
	}
	return result, rows.Err()
}

// CountJobsByStatus returns status -> count for a repository's jobs of one
// type ("" matches all types).
func (s *Store) CountJobsByStatus(repoID int64, jobType string) (map[string]int, error) {
	query := "SELECT status, COUNT(*) FROM jobs WHERE repo_id=?"
	args := []any{repoID}
	if jobType != "" {
		query += " AND type=?"
		args = append(args, jobType)
	}
	query += " GROUP BY status"
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		result[status] = n
	}
	return result, rows.Err()
}

const jobSelect = `
	SELECT id, repo_id, type, status, payload, attempts, max_attempts, worker_id,
	       locked_at, last_error, created_at, started_at, completed_at
	FROM jobs`

func (s *Store) scanJob(row *sql.Row) (*Job, error) {
	j, err := scanJobRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

func scanJobRow(row rowScanner) (*Job, error) {
	var j Job
	var payload string
	err := row.Scan(&j.ID, &j.RepoID, &j.Type, &j.Status, &payload, &j.Attempts,
		&j.MaxAttempts, &j.WorkerID, &j.LockedAt, &j.LastError, &j.CreatedAt,
		&j.StartedAt, &j.CompletedAt)
	if err != nil {
		return nil, err
	}
	j.Payload = unmarshalMap(payload)
	return &j, nil
}
