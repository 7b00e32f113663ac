// Package entrypoints finds the externally triggered symbols of an indexed
// repository: framework detection from imports, pattern matching over
// symbols, and collaborator confirmation of the candidates.
package entrypoints

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/voyantlabs/codegraph/internal/ai"
	"github.com/voyantlabs/codegraph/internal/lang"
	"github.com/voyantlabs/codegraph/internal/store"
)

// confirmBatchSize bounds the candidate count per collaborator request.
const confirmBatchSize = 10

// Result summarizes one detection run.
type Result struct {
	RepoID      int64
	Candidates  int
	Confirmed   int
	EntryPoints []*store.EntryPoint
}

// Detector scans an indexed repository for entry points.
type Detector struct {
	store *store.Store
	ai    ai.Collaborator
}

// NewDetector wires a detector to the store and a collaborator.
func NewDetector(s *store.Store, collaborator ai.Collaborator) *Detector {
	return &Detector{store: s, ai: collaborator}
}

// Run detects and confirms entry points for a repository. Without force, an
// existing result is returned untouched; with force, prior entry points and
// candidates are dropped and detection starts over. Candidates survive
// confirmation either way, as the audit trail of what detection saw.
func (d *Detector) Run(ctx context.Context, repoID int64, force bool) (*Result, error) {
	repo, err := d.store.GetRepository(repoID)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, fmt.Errorf("repository %d not found", repoID)
	}

	if force {
		if err := d.store.DeleteEntryPoints(repoID); err != nil {
			return nil, err
		}
		if err := d.store.DeleteCandidates(repoID); err != nil {
			return nil, err
		}
	} else {
		existing, err := d.store.ListEntryPoints(repoID, "", "")
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return &Result{RepoID: repoID, Confirmed: len(existing), EntryPoints: existing}, nil
		}
	}

	candidates, err := d.scan(ctx, repoID)
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		if _, err := d.store.InsertCandidate(c); err != nil {
			return nil, err
		}
	}
	slog.Info("entrypoints.scanned", "repo", repo.Name, "candidates", len(candidates))

	confirmed, err := d.confirm(ctx, repo.Name, candidates)
	if err != nil {
		return nil, err
	}
	slog.Info("entrypoints.confirmed", "repo", repo.Name,
		"candidates", len(candidates), "confirmed", len(confirmed))

	return &Result{
		RepoID:      repoID,
		Candidates:  len(candidates),
		Confirmed:   len(confirmed),
		EntryPoints: confirmed,
	}, nil
}

// scan walks every non-test file, detects its frameworks from imports, and
// matches the framework patterns against its symbols. One candidate per
// symbol survives: ties go to the highest pattern confidence.
func (d *Detector) scan(ctx context.Context, repoID int64) ([]*store.EntryPointCandidate, error) {
	files, err := d.store.ListFiles(repoID)
	if err != nil {
		return nil, err
	}

	bySymbol := map[int64]*store.EntryPointCandidate{}
	var order []int64
	for _, f := range files {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if f.ParseFailed || IsTestPath(f.RelPath) {
			continue
		}
		frameworks := DetectFrameworks(lang.Language(f.Language), f.RelPath, f.Content)
		if len(frameworks) == 0 {
			continue
		}
		symbols, err := d.store.FindSymbolsByFile(f.ID)
		if err != nil {
			return nil, err
		}
		lines := strings.Split(f.Content, "\n")
		for _, sym := range symbols {
			c := newSymbolContext(sym, f, lines)
			for _, cand := range matchPatterns(c, frameworks) {
				prev, ok := bySymbol[sym.ID]
				if !ok {
					bySymbol[sym.ID] = cand
					order = append(order, sym.ID)
				} else if cand.Confidence > prev.Confidence {
					bySymbol[sym.ID] = cand
				}
			}
		}
	}

	result := make([]*store.EntryPointCandidate, 0, len(order))
	for _, id := range order {
		result = append(result, bySymbol[id])
	}
	return result, nil
}

// confirm sends the candidates to the collaborator in batches and stores an
// entry point per confirming verdict.
func (d *Detector) confirm(ctx context.Context, repoName string, candidates []*store.EntryPointCandidate) ([]*store.EntryPoint, error) {
	byID := map[int64]*store.EntryPointCandidate{}
	payload := make([]ai.Candidate, 0, len(candidates))
	for _, c := range candidates {
		sym, err := d.store.GetSymbol(c.SymbolID)
		if err != nil {
			return nil, err
		}
		if sym == nil {
			continue
		}
		filePath, _ := c.Metadata["file_path"].(string)
		byID[c.SymbolID] = c
		payload = append(payload, ai.Candidate{
			SymbolID:         c.SymbolID,
			Name:             sym.Name,
			QualifiedName:    sym.QualifiedName,
			FilePath:         filePath,
			SourceCode:       sym.SourceCode,
			Framework:        c.Framework,
			DetectionPattern: c.DetectionPattern,
			Type:             c.Type,
			Confidence:       c.Confidence,
			Metadata:         c.Metadata,
			FolderStructure:  folderStructure(filePath),
		})
	}

	var confirmed []*store.EntryPoint
	for start := 0; start < len(payload); start += confirmBatchSize {
		end := start + confirmBatchSize
		if end > len(payload) {
			end = len(payload)
		}
		verdicts, err := d.ai.ConfirmEntryPoints(ctx, repoName, payload[start:end])
		if err != nil {
			return nil, fmt.Errorf("confirm entry points: %w", err)
		}
		for _, v := range verdicts {
			if !v.Confirmed {
				continue
			}
			c, ok := byID[v.SymbolID]
			if !ok {
				continue
			}
			ep := &store.EntryPoint{
				RepoID:      c.RepoID,
				CandidateID: c.ID,
				SymbolID:    c.SymbolID,
				Name:        v.Name,
				Description: v.Description,
				Type:        c.Type,
				Framework:   c.Framework,
				Confidence:  v.Confidence,
				Reasoning:   v.Reasoning,
				Metadata:    c.Metadata,
			}
			if ep.Name == "" {
				if sym, _ := d.store.GetSymbol(c.SymbolID); sym != nil {
					ep.Name = sym.Name
				}
			}
			if _, err := d.store.InsertEntryPoint(ep); err != nil {
				return nil, err
			}
			confirmed = append(confirmed, ep)
		}
	}
	return confirmed, nil
}

// folderStructure returns the directory chain of a path, outermost first.
func folderStructure(relPath string) []string {
	dir := path.Dir(strings.ReplaceAll(relPath, "\\", "/"))
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}
	return strings.Split(dir, "/")
}
