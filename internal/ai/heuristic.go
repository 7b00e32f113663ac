package ai

import (
	"context"
	"fmt"
	"sort"
)

// Heuristic is the collaborator used when no model is configured. It confirms
// candidates whose detector confidence clears a threshold and narrates flows
// mechanically from the evidence, so detection and flow generation still work
// offline.
type Heuristic struct {
	// MinConfidence is the confirmation cutoff; zero means 0.7.
	MinConfidence float64
}

func (h *Heuristic) threshold() float64 {
	if h.MinConfidence > 0 {
		return h.MinConfidence
	}
	return 0.7
}

func (h *Heuristic) ConfirmEntryPoints(_ context.Context, _ string, candidates []Candidate) ([]Verdict, error) {
	verdicts := make([]Verdict, 0, len(candidates))
	for _, c := range candidates {
		confirmed := c.Confidence >= h.threshold()
		v := Verdict{
			SymbolID:   c.SymbolID,
			Confirmed:  confirmed,
			Name:       c.Name,
			Confidence: c.Confidence,
		}
		if confirmed {
			v.Description = fmt.Sprintf("%s entry point detected via %s (%s)",
				c.Type, c.DetectionPattern, c.Framework)
			v.Reasoning = fmt.Sprintf("detector confidence %.2f meets threshold %.2f",
				c.Confidence, h.threshold())
		} else {
			v.Reasoning = fmt.Sprintf("detector confidence %.2f below threshold %.2f",
				c.Confidence, h.threshold())
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, nil
}

func (h *Heuristic) NarrateFlowSegment(_ context.Context, segment FlowSegment) ([]StepNarration, error) {
	// One step per file, in depth order, so the output reads as a sequence.
	byFile := map[string][]SymbolEvidence{}
	order := []string{}
	sorted := append([]SymbolEvidence(nil), segment.Evidence...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Depth < sorted[j].Depth })
	for _, ev := range sorted {
		if _, ok := byFile[ev.FilePath]; !ok {
			order = append(order, ev.FilePath)
		}
		byFile[ev.FilePath] = append(byFile[ev.FilePath], ev)
	}

	steps := make([]StepNarration, 0, len(order))
	for _, path := range order {
		evs := byFile[path]
		names := make([]string, 0, len(evs))
		logs := 0
		for _, ev := range evs {
			names = append(names, ev.QualifiedName)
			logs += len(ev.LogLines)
		}
		desc := fmt.Sprintf("Executes %s", joinNames(names))
		if logs > 0 {
			desc += fmt.Sprintf("; emits %d log statement(s)", logs)
		}
		steps = append(steps, StepNarration{
			Title:       path,
			Description: desc,
			FilePath:    path,
		})
	}
	return steps, nil
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "no symbols"
	case 1:
		return names[0]
	default:
		out := names[0]
		for _, n := range names[1:] {
			out += ", " + n
		}
		return out
	}
}
