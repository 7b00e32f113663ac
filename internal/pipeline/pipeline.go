// Package pipeline turns a source tree into the persisted symbol and
// reference graph. Indexing is two-phase: a parallel parse stage extracts
// symbols and raw references per file, then a resolution stage binds
// references across files once every file of the batch is stored.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/voyantlabs/codegraph/internal/discover"
	"github.com/voyantlabs/codegraph/internal/store"
)

// Options tunes one indexing run.
type Options struct {
	MaxFileSizeBytes int64
	FailureThreshold float64
	Workers          int
	// MaxFilesPerBatch caps how many changed files are held in the parse
	// stage at once; zero means one batch for the whole run.
	MaxFilesPerBatch int
	// ParseTimeout bounds the parse of a single file; zero means no limit.
	ParseTimeout time.Duration
}

// Summary reports what an indexing run did.
type Summary struct {
	RepoID       int64
	Total        int
	Parsed       int
	Unchanged    int
	Failed       int
	Deleted      int
	RefsResolved int64
}

// Indexer drives the parse and resolve phases for one repository.
type Indexer struct {
	store    *store.Store
	repoPath string
	repoName string
	opts     Options
}

// New creates an Indexer for the repository at repoPath.
func New(s *store.Store, repoPath string, opts *Options) *Indexer {
	o := Options{FailureThreshold: 0.5}
	if opts != nil {
		o = *opts
	}
	if o.Workers < 1 {
		o.Workers = runtime.NumCPU()
	}
	return &Indexer{
		store:    s,
		repoPath: repoPath,
		repoName: RepoNameFromPath(repoPath),
		opts:     o,
	}
}

// RepoNameFromPath derives a stable repository name from an absolute path by
// replacing separators with dashes and trimming the leading dash.
func RepoNameFromPath(absPath string) string {
	cleaned := filepath.ToSlash(filepath.Clean(absPath))
	name := strings.TrimLeft(strings.ReplaceAll(cleaned, "/", "-"), "-")
	if name == "" {
		return "root"
	}
	return name
}

// fileState is one discovered file with its current content and hash.
type fileState struct {
	Info    discover.FileInfo
	Content []byte
	Hash    string
	ReadErr error
}

// fileResult is the parse-stage output for one changed file.
type fileResult struct {
	State fileState
	Ext   *extraction
	Err   error
}

// Run indexes the repository: discovery, change classification, parallel
// parsing, per-file transactional writes, then the cross-file resolution
// pass. Unchanged files are skipped entirely.
func (ix *Indexer) Run(ctx context.Context) (*Summary, error) {
	slog.Info("index.start", "repo", ix.repoName, "path", ix.repoPath)

	repo, err := ix.store.CreateRepository(ix.repoName, ix.repoPath)
	if err != nil {
		return nil, fmt.Errorf("register repository: %w", err)
	}

	files, err := discover.Discover(ctx, ix.repoPath, &discover.Options{
		MaxFileSize: ix.opts.MaxFileSizeBytes,
	})
	if err != nil {
		ix.failRepo(repo.ID, err)
		return nil, fmt.Errorf("discover: %w", err)
	}

	languages := map[string]int{}
	for _, f := range files {
		languages[string(f.Language)]++
	}
	if err := ix.store.SetRepositoryScan(repo.ID, len(files), languages, discover.BuildTree(files)); err != nil {
		return nil, err
	}
	if err := ix.store.UpdateRepositoryStatus(repo.ID, store.RepoParsing, ""); err != nil {
		return nil, err
	}

	states, err := ix.loadAndHash(ctx, files)
	if err != nil {
		ix.failRepo(repo.ID, err)
		return nil, err
	}

	changed, unchanged, err := ix.classify(repo.ID, states)
	if err != nil {
		return nil, err
	}
	deleted, err := ix.removeDeletedFiles(repo.ID, states)
	if err != nil {
		return nil, err
	}
	slog.Info("index.classified", "repo", ix.repoName,
		"changed", len(changed), "unchanged", unchanged, "deleted", deleted)

	summary := &Summary{
		RepoID:    repo.ID,
		Total:     len(files),
		Unchanged: unchanged,
		Deleted:   deleted,
	}

	// Changed files go through parse+write in bounded batches so only one
	// batch of contents and trees is in flight at a time.
	batchSize := ix.opts.MaxFilesPerBatch
	if batchSize <= 0 {
		batchSize = len(changed)
	}
	for start := 0; start < len(changed); start += batchSize {
		end := start + batchSize
		if end > len(changed) {
			end = len(changed)
		}
		results := ix.parseStage(ctx, changed[start:end])

		for _, r := range results {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if err := ix.writeFile(repo.ID, r); err != nil {
				return nil, fmt.Errorf("store %s: %w", r.State.Info.RelPath, err)
			}
			if r.Err != nil {
				slog.Warn("index.parse_failed", "file", r.State.Info.RelPath, "err", r.Err)
				summary.Failed++
			} else {
				summary.Parsed++
			}
		}
	}

	if len(changed) > 0 || deleted > 0 {
		resolved, err := ix.store.ResolveDanglingRefs(repo.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve refs: %w", err)
		}
		summary.RefsResolved = resolved
	}

	repo, err = ix.store.RecomputeRepositoryProgress(repo.ID, ix.opts.FailureThreshold)
	if err != nil {
		return nil, err
	}
	slog.Info("index.done", "repo", ix.repoName, "status", repo.Status,
		"parsed", summary.Parsed, "failed", summary.Failed, "resolved", summary.RefsResolved)
	return summary, nil
}

// loadAndHash reads and hashes every discovered file in parallel.
func (ix *Indexer) loadAndHash(ctx context.Context, files []discover.FileInfo) ([]fileState, error) {
	states := make([]fileState, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			content, err := os.ReadFile(f.Path)
			if err != nil {
				states[i] = fileState{Info: f, ReadErr: err}
				return nil
			}
			content = stripBOM(content)
			states[i] = fileState{
				Info:    f,
				Content: content,
				Hash:    fmt.Sprintf("%016x", xxh3.Hash(content)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return states, nil
}

// classify splits files into changed (reparse needed) and unchanged by
// comparing content hashes against the stored ones.
func (ix *Indexer) classify(repoID int64, states []fileState) (changed []fileState, unchanged int, err error) {
	stored, err := ix.store.FileHashes(repoID)
	if err != nil {
		return nil, 0, err
	}
	for _, st := range states {
		if st.ReadErr != nil {
			changed = append(changed, st)
			continue
		}
		if prev, ok := stored[st.Info.RelPath]; ok && prev == st.Hash {
			unchanged++
			continue
		}
		changed = append(changed, st)
	}
	return changed, unchanged, nil
}

// removeDeletedFiles drops stored files no longer present on disk. Their
// symbols and references cascade.
func (ix *Indexer) removeDeletedFiles(repoID int64, states []fileState) (int, error) {
	current := make(map[string]bool, len(states))
	for _, st := range states {
		current[st.Info.RelPath] = true
	}
	stored, err := ix.store.FileHashes(repoID)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for relPath := range stored {
		if current[relPath] {
			continue
		}
		if err := ix.store.DeleteFile(repoID, relPath); err != nil {
			return deleted, err
		}
		slog.Info("index.removed", "file", relPath)
		deleted++
	}
	return deleted, nil
}

// parseStage extracts symbols and raw references from every changed file in
// parallel. Pure CPU work: no store access, no shared state.
func (ix *Indexer) parseStage(ctx context.Context, changed []fileState) []*fileResult {
	results := make([]*fileResult, len(changed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)
	for i, st := range changed {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			r := &fileResult{State: st}
			if st.ReadErr != nil {
				r.Err = st.ReadErr
			} else {
				fctx := gctx
				if ix.opts.ParseTimeout > 0 {
					var cancel context.CancelFunc
					fctx, cancel = context.WithTimeout(gctx, ix.opts.ParseTimeout)
					defer cancel()
				}
				r.Ext, r.Err = extractFile(fctx, st.Info.RelPath, st.Info.Language, st.Content)
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// writeFile replaces one file's graph contribution inside a single
// transaction, so readers never observe symbols without their edges.
func (ix *Indexer) writeFile(repoID int64, r *fileResult) error {
	return ix.store.WithTransaction(func(tx *store.Store) error {
		fileID, err := tx.UpsertFile(&store.File{
			RepoID:      repoID,
			RelPath:     r.State.Info.RelPath,
			Language:    string(r.State.Info.Language),
			ContentHash: r.State.Hash,
			Content:     string(r.State.Content),
			ParseFailed: r.Err != nil,
		})
		if err != nil {
			return err
		}
		if err := tx.DeleteSymbolsByFile(fileID); err != nil {
			return err
		}
		if r.Err != nil {
			// Parse failures keep the file row so progress accounting and
			// retry-on-change still work; the graph just has no entry for it.
			return nil
		}

		for _, sym := range r.Ext.Symbols {
			sym.RepoID = repoID
			sym.FileID = fileID
		}
		if err := tx.UpsertSymbolBatch(r.Ext.Symbols); err != nil {
			return err
		}

		idx := newIndex(r.Ext.Symbols)
		if err := linkParents(tx, r.Ext, idx); err != nil {
			return err
		}
		refs := bindRefs(repoID, r.Ext, idx)
		return tx.InsertRefBatch(refs)
	})
}

// linkParents fills parent_id for nested symbols now that ids are assigned.
func linkParents(tx *store.Store, ext *extraction, idx *index) error {
	for qn, parentQN := range ext.Parents {
		childID := idx.ID(qn)
		parentID := idx.ID(parentQN)
		if childID == 0 || parentID == 0 {
			continue
		}
		if err := tx.SetSymbolParent(childID, parentID); err != nil {
			return err
		}
	}
	return nil
}

// bindRefs converts raw references to store rows, resolving what it can
// against this file's own symbols. Cross-file targets keep their path hint
// for the SQL resolution pass.
func bindRefs(repoID int64, ext *extraction, idx *index) []*store.Ref {
	refs := make([]*store.Ref, 0, len(ext.Refs))
	for _, raw := range ext.Refs {
		sourceID := idx.ID(raw.SourceQN)
		if sourceID == 0 {
			continue
		}
		ref := &store.Ref{
			RepoID:         repoID,
			SourceID:       sourceID,
			TargetName:     raw.TargetName,
			TargetFilePath: raw.PathHint,
			Type:           raw.Type,
			Line:           raw.Line,
		}
		if targetQN := idx.Resolve(raw.Callee, ext.ModuleQN); targetQN != "" {
			if targetID := idx.ID(targetQN); targetID != 0 {
				// A symbol referencing itself is only meaningful for calls
				// (recursion); self-usages are noise.
				if raw.Type == store.RefUsage && targetID == sourceID {
					continue
				}
				ref.TargetID = targetID
				ref.TargetFilePath = ""
			}
		}
		if raw.LocalOnly && ref.TargetID == 0 {
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

func (ix *Indexer) failRepo(repoID int64, cause error) {
	if err := ix.store.UpdateRepositoryStatus(repoID, store.RepoFailed, cause.Error()); err != nil {
		slog.Warn("index.status.err", "err", err)
	}
}

// stripBOM removes a UTF-8 byte order mark, common in C#/Windows files.
func stripBOM(source []byte) []byte {
	if len(source) >= 3 && source[0] == 0xEF && source[1] == 0xBB && source[2] == 0xBF {
		return source[3:]
	}
	return source
}
