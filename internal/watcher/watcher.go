// Package watcher polls registered repositories for file changes and
// enqueues incremental parse jobs when the tree differs from the last
// snapshot. Change classification itself stays in the pipeline; the watcher
// only decides when a reparse is worth queueing.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/voyantlabs/codegraph/internal/discover"
	"github.com/voyantlabs/codegraph/internal/store"
)

const (
	baseInterval = 1 * time.Second
	maxInterval  = 60 * time.Second
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

type repoState struct {
	snapshot map[string]fileSnapshot
	interval time.Duration
	nextPoll time.Time
}

// EnqueueFunc queues a parse job for a repository. The default wiring uses
// the store's job queue; tests substitute a counter.
type EnqueueFunc func(repoID int64, rootPath string) error

// Watcher polls repositories for file changes.
type Watcher struct {
	store   *store.Store
	enqueue EnqueueFunc
	repos   map[int64]*repoState
}

// New creates a Watcher. enqueue is called when file changes are detected.
func New(s *store.Store, enqueue EnqueueFunc) *Watcher {
	return &Watcher{
		store:   s,
		enqueue: enqueue,
		repos:   make(map[int64]*repoState),
	}
}

// EnqueueParseJob is the default EnqueueFunc: one parse job per detected
// change, with the standard retry ceiling.
func EnqueueParseJob(s *store.Store) EnqueueFunc {
	return func(repoID int64, rootPath string) error {
		_, err := s.EnqueueJob(repoID, store.JobParse, map[string]any{"repo_path": rootPath}, 0)
		return err
	}
}

// Run blocks until ctx is cancelled. Ticks at baseInterval, polling each
// repository only when its adaptive interval has elapsed.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(baseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pollAll()
		}
	}
}

// pollAll lists registered repositories and polls each that is due.
func (w *Watcher) pollAll() {
	repos, err := w.store.ListRepositories()
	if err != nil {
		slog.Warn("watcher.list_repos", "err", err)
		return
	}

	now := time.Now()
	for _, repo := range repos {
		state, exists := w.repos[repo.ID]
		if !exists {
			state = &repoState{}
			w.repos[repo.ID] = state
		}
		if exists && now.Before(state.nextPoll) {
			continue // not due yet
		}
		w.pollRepo(repo, state)
	}
}

// pollRepo captures a snapshot of the file tree and compares with the
// previous one. The first poll captures a baseline without queueing anything;
// later polls enqueue a parse job when any file changed, unless a parse job
// is already queued or running for the repository.
func (w *Watcher) pollRepo(repo *store.Repository, state *repoState) {
	if _, err := os.Stat(repo.RootPath); err != nil {
		slog.Warn("watcher.root_gone", "repo", repo.Name, "path", repo.RootPath)
		state.nextPoll = time.Now().Add(maxInterval)
		return
	}

	snap, err := captureSnapshot(repo.RootPath)
	if err != nil {
		slog.Warn("watcher.snapshot", "repo", repo.Name, "err", err)
		state.nextPoll = time.Now().Add(state.interval)
		return
	}

	interval := pollInterval(len(snap))

	if state.snapshot == nil {
		// First poll: baseline only.
		state.snapshot = snap
		state.interval = interval
		state.nextPoll = time.Now().Add(interval)
		return
	}

	if snapshotsEqual(state.snapshot, snap) {
		state.interval = interval
		state.nextPoll = time.Now().Add(interval)
		return
	}

	if w.parseAlreadyQueued(repo.ID) {
		// Keep the old snapshot; the running job may not see these changes.
		state.nextPoll = time.Now().Add(interval)
		return
	}

	slog.Info("watcher.changed", "repo", repo.Name, "files", len(snap))
	if err := w.enqueue(repo.ID, repo.RootPath); err != nil {
		slog.Warn("watcher.enqueue", "repo", repo.Name, "err", err)
		state.nextPoll = time.Now().Add(interval)
		return
	}

	state.snapshot = snap
	state.interval = pollInterval(len(snap))
	state.nextPoll = time.Now().Add(state.interval)
}

// parseAlreadyQueued reports whether a parse job is pending or running.
func (w *Watcher) parseAlreadyQueued(repoID int64) bool {
	counts, err := w.store.CountJobsByStatus(repoID, store.JobParse)
	if err != nil {
		return false
	}
	return counts[store.JobPending] > 0 || counts[store.JobInProgress] > 0
}

// captureSnapshot walks the file tree using discover.Discover and captures
// mtime+size for each file.
func captureSnapshot(rootPath string) (map[string]fileSnapshot, error) {
	files, err := discover.Discover(context.Background(), rootPath, nil)
	if err != nil {
		return nil, err
	}

	snap := make(map[string]fileSnapshot, len(files))
	for _, f := range files {
		info, statErr := os.Stat(f.Path)
		if statErr != nil {
			continue
		}
		snap[f.RelPath] = fileSnapshot{
			modTime: info.ModTime(),
			size:    info.Size(),
		}
	}
	return snap, nil
}

// snapshotsEqual returns true if two snapshots have identical files with the
// same mtime+size.
func snapshotsEqual(a, b map[string]fileSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for path, aSnap := range a {
		bSnap, ok := b[path]
		if !ok {
			return false
		}
		if !aSnap.modTime.Equal(bSnap.modTime) || aSnap.size != bSnap.size {
			return false
		}
	}
	return true
}

// pollInterval computes the adaptive interval from file count.
// 1s base + 1s per 500 files, capped at 60s.
func pollInterval(fileCount int) time.Duration {
	ms := 1000 + (fileCount/500)*1000
	if ms > 60000 {
		ms = 60000
	}
	return time.Duration(ms) * time.Millisecond
}
