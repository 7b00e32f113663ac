package ai

import (
	"context"
	"strings"
	"testing"
)

func TestParseVerdictsWrapped(t *testing.T) {
	raw := `{"verdicts":[{"symbol_id":7,"confirmed":true,"name":"Create Order","confidence":0.9,"reasoning":"route handler"}]}`
	verdicts, err := ParseVerdicts(raw)
	if err != nil {
		t.Fatalf("ParseVerdicts: %v", err)
	}
	if len(verdicts) != 1 || verdicts[0].SymbolID != 7 || !verdicts[0].Confirmed {
		t.Errorf("verdicts = %+v", verdicts)
	}
}

func TestParseVerdictsBareArrayWithFence(t *testing.T) {
	raw := "```json\n[{\"symbol_id\":1,\"confirmed\":false,\"reasoning\":\"test fixture\"}]\n```"
	verdicts, err := ParseVerdicts(raw)
	if err != nil {
		t.Fatalf("ParseVerdicts: %v", err)
	}
	if len(verdicts) != 1 || verdicts[0].Confirmed {
		t.Errorf("verdicts = %+v", verdicts)
	}
}

func TestParseVerdictsGarbage(t *testing.T) {
	if _, err := ParseVerdicts("not json at all"); err == nil {
		t.Error("expected error on malformed payload")
	}
}

func TestParseSteps(t *testing.T) {
	raw := `{"steps":[{"title":"Validate request","description":"Checks payload","file_path":"api/orders.py"}]}`
	steps, err := ParseSteps(raw)
	if err != nil {
		t.Fatalf("ParseSteps: %v", err)
	}
	if len(steps) != 1 || steps[0].Title != "Validate request" {
		t.Errorf("steps = %+v", steps)
	}
}

func TestHeuristicConfirm(t *testing.T) {
	h := &Heuristic{}
	verdicts, err := h.ConfirmEntryPoints(context.Background(), "shop", []Candidate{
		{SymbolID: 1, Name: "createOrder", Type: "http", Framework: "spring-boot",
			DetectionPattern: "rest-annotation", Confidence: 0.9},
		{SymbolID: 2, Name: "helper", Type: "http", Confidence: 0.3},
	})
	if err != nil {
		t.Fatalf("ConfirmEntryPoints: %v", err)
	}
	if len(verdicts) != 2 {
		t.Fatalf("verdicts = %d", len(verdicts))
	}
	if !verdicts[0].Confirmed || verdicts[0].Description == "" {
		t.Errorf("high confidence candidate not confirmed: %+v", verdicts[0])
	}
	if verdicts[1].Confirmed {
		t.Errorf("low confidence candidate confirmed: %+v", verdicts[1])
	}
}

func TestHeuristicNarrateGroupsByFile(t *testing.T) {
	h := &Heuristic{}
	steps, err := h.NarrateFlowSegment(context.Background(), FlowSegment{
		EntryPointName: "Create Order",
		Evidence: []SymbolEvidence{
			{QualifiedName: "svc.orders.validate", FilePath: "svc/orders.py", Depth: 1},
			{QualifiedName: "svc.orders.save", FilePath: "svc/orders.py", Depth: 2,
				LogLines: []string{`log.info("saved")`}},
			{QualifiedName: "svc.billing.charge", FilePath: "svc/billing.py", Depth: 3},
		},
	})
	if err != nil {
		t.Fatalf("NarrateFlowSegment: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(steps))
	}
	if steps[0].FilePath != "svc/orders.py" || steps[1].FilePath != "svc/billing.py" {
		t.Errorf("step order: %+v", steps)
	}
	if !strings.Contains(steps[0].Description, "1 log statement") {
		t.Errorf("log count missing: %q", steps[0].Description)
	}
}
