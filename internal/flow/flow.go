// Package flow generates narrated execution flows: starting from a confirmed
// entry point, it walks the downstream call graph in depth bands, collects
// source evidence per band, and has the collaborator narrate each band into
// steps. The result is persisted as an immutable Flow, replaced wholesale on
// regeneration.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/voyantlabs/codegraph/internal/ai"
	"github.com/voyantlabs/codegraph/internal/store"
)

// Traversal shape: maxIterations bands of bandDepth each, so the deepest
// analyzed call is at depth maxIterations*bandDepth.
const (
	maxIterations   = 4
	bandDepth       = 3
	maxBandResults  = 200
	maxSnippetBytes = 4 * 1024
)

// Generator builds flows for confirmed entry points.
type Generator struct {
	store *store.Store
	ai    ai.Collaborator
}

// NewGenerator wires a generator to the store and a collaborator.
func NewGenerator(s *store.Store, collaborator ai.Collaborator) *Generator {
	return &Generator{store: s, ai: collaborator}
}

// bandEvidence is one band's collected material: the collaborator payload
// plus the snippets grouped by file for step attachment.
type bandEvidence struct {
	evidence       []ai.SymbolEvidence
	snippetsByFile map[string][]store.CodeSnippet
	logsByFile     map[string][]string
	maxDepth       int
}

// Generate builds and persists the flow for one entry point.
func (g *Generator) Generate(ctx context.Context, entryPointID int64) (*store.Flow, error) {
	ep, err := g.store.GetEntryPoint(entryPointID)
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, fmt.Errorf("entry point %d not found", entryPointID)
	}
	root, err := g.store.GetSymbol(ep.SymbolID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("entry point %d has no symbol", entryPointID)
	}
	rootPath, err := g.store.SymbolFilePath(ep.SymbolID)
	if err != nil {
		return nil, err
	}

	seen := map[int64]bool{}
	var steps []store.FlowStep
	var prevTitles []string
	var symbolIDs []int64
	fileSet := map[string]bool{}
	maxDepthAnalyzed := 0
	iterations := 0

	for i := 0; i < maxIterations; i++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		depthFrom := i * bandDepth
		depthTo := depthFrom + bandDepth

		band, err := g.collectBand(ep, root, rootPath, depthFrom, depthTo, seen, i == 0)
		if err != nil {
			return nil, err
		}
		if len(band.evidence) == 0 {
			break
		}
		for _, ev := range band.evidence {
			fileSet[ev.FilePath] = true
		}
		if band.maxDepth > maxDepthAnalyzed {
			maxDepthAnalyzed = band.maxDepth
		}

		prevSteps := make([]ai.StepNarration, 0, len(prevTitles))
		for _, title := range prevTitles {
			prevSteps = append(prevSteps, ai.StepNarration{Title: title})
		}
		narrations, err := g.ai.NarrateFlowSegment(ctx, ai.FlowSegment{
			EntryPointName:        ep.Name,
			EntryPointDescription: ep.Description,
			Iteration:             i + 1,
			DepthFrom:             depthFrom,
			DepthTo:               depthTo,
			PreviousSteps:         prevSteps,
			Evidence:              band.evidence,
		})
		if err != nil {
			return nil, fmt.Errorf("narrate iteration %d: %w", i+1, err)
		}
		for _, n := range narrations {
			step := store.FlowStep{
				Title:       n.Title,
				Description: n.Description,
				FilePath:    n.FilePath,
				Snippets:    band.snippetsByFile[n.FilePath],
				LogLines:    band.logsByFile[n.FilePath],
			}
			steps = append(steps, step)
			prevTitles = append(prevTitles, n.Title)
		}
		iterations = i + 1
	}

	for id := range seen {
		symbolIDs = append(symbolIDs, id)
	}
	sort.Slice(symbolIDs, func(i, j int) bool { return symbolIDs[i] < symbolIDs[j] })
	filePaths := make([]string, 0, len(fileSet))
	for p := range fileSet {
		filePaths = append(filePaths, p)
	}
	sort.Strings(filePaths)

	flow := &store.Flow{
		RepoID:              ep.RepoID,
		EntryPointID:        ep.ID,
		Name:                ep.Name,
		Summary:             ep.Description,
		Steps:               steps,
		MaxDepthAnalyzed:    maxDepthAnalyzed,
		IterationsCompleted: iterations,
		SymbolIDsAnalyzed:   symbolIDs,
		FilePaths:           filePaths,
	}
	if _, err := g.store.SaveFlow(flow); err != nil {
		return nil, err
	}
	slog.Info("flow.generated", "entry_point", ep.Name, "steps", len(steps),
		"iterations", iterations, "symbols", len(symbolIDs))
	return flow, nil
}

// collectBand gathers evidence for one depth band of the downstream graph.
// Symbols already covered by earlier bands are skipped; external leaves carry
// no source and are skipped too.
func (g *Generator) collectBand(ep *store.EntryPoint, root *store.Symbol, rootPath string, depthFrom, depthTo int, seen map[int64]bool, includeRoot bool) (*bandEvidence, error) {
	band := &bandEvidence{
		snippetsByFile: map[string][]store.CodeSnippet{},
		logsByFile:     map[string][]string{},
	}

	if includeRoot && !seen[root.ID] {
		seen[root.ID] = true
		g.addEvidence(band, root, rootPath, 0)
	}

	result, err := g.store.Downstream(ep.SymbolID, depthTo, maxBandResults)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return band, nil
	}
	for _, node := range result.Nodes {
		if node.IsExternal || node.Depth <= depthFrom || seen[node.SymbolID] {
			continue
		}
		sym, err := g.store.GetSymbol(node.SymbolID)
		if err != nil {
			return nil, err
		}
		if sym == nil {
			continue
		}
		seen[sym.ID] = true
		g.addEvidence(band, sym, node.FilePath, node.Depth)
	}
	return band, nil
}

func (g *Generator) addEvidence(band *bandEvidence, sym *store.Symbol, filePath string, depth int) {
	snippet := sym.SourceCode
	if len(snippet) > maxSnippetBytes {
		snippet = snippet[:maxSnippetBytes]
	}
	logLines := ScanLogLines(sym.SourceCode)

	band.evidence = append(band.evidence, ai.SymbolEvidence{
		QualifiedName: sym.QualifiedName,
		FilePath:      filePath,
		Snippet:       snippet,
		LogLines:      logLines,
		Depth:         depth,
	})
	band.snippetsByFile[filePath] = append(band.snippetsByFile[filePath], store.CodeSnippet{
		QualifiedName: sym.QualifiedName,
		FilePath:      filePath,
		StartLine:     sym.StartLine,
		EndLine:       sym.EndLine,
		Code:          snippet,
	})
	band.logsByFile[filePath] = append(band.logsByFile[filePath], logLines...)
	if depth > band.maxDepth {
		band.maxDepth = depth
	}
}

// logMarkers are the call fragments that make a source line count as a log
// statement. Textual scan only; no language awareness needed for evidence.
var logMarkers = []string{
	"log.", "logger.", "logging.", "slog.", "console.",
	"println(", "printf(", "print(", "fmt.print",
}

// ScanLogLines returns the trimmed source lines that look like log calls.
func ScanLogLines(source string) []string {
	var out []string
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		for _, marker := range logMarkers {
			if strings.Contains(lower, marker) {
				out = append(out, trimmed)
				break
			}
		}
	}
	return out
}
