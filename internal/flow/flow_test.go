package flow

import (
	"context"
	"testing"

	"github.com/voyantlabs/codegraph/internal/ai"
	"github.com/voyantlabs/codegraph/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedChain creates a repo with a call chain across files and an entry point
// at the head. Returns the entry point id and the symbol ids in chain order.
func seedChain(t *testing.T, s *store.Store, sources map[string]string, chain []string, files []string) (int64, []int64) {
	t.Helper()
	repo, err := s.CreateRepository("shop", "/tmp/shop")
	if err != nil {
		t.Fatal(err)
	}
	fileIDs := map[string]int64{}
	for _, rel := range files {
		id, err := s.UpsertFile(&store.File{RepoID: repo.ID, RelPath: rel, Language: "python"})
		if err != nil {
			t.Fatal(err)
		}
		fileIDs[rel] = id
	}

	ids := make([]int64, len(chain))
	for i, name := range chain {
		rel := files[0]
		if i >= len(chain)-1 && len(files) > 1 {
			rel = files[1]
		}
		sym := &store.Symbol{
			RepoID: repo.ID, FileID: fileIDs[rel], Kind: store.KindFunction,
			Name: name, QualifiedName: "app." + name,
			SourceCode: sources[name],
			StartLine:  i*10 + 1, EndLine: i*10 + 5,
		}
		if _, err := s.UpsertSymbol(sym); err != nil {
			t.Fatal(err)
		}
		ids[i] = sym.ID
	}
	for i := 0; i+1 < len(ids); i++ {
		_, err := s.InsertRef(&store.Ref{
			RepoID: repo.ID, SourceID: ids[i], TargetID: ids[i+1],
			TargetName: chain[i+1], Type: store.RefCall,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	epID, err := s.InsertEntryPoint(&store.EntryPoint{
		RepoID: repo.ID, SymbolID: ids[0], Name: "create order",
		Description: "handles order creation", Type: store.EntryPointHTTP,
		Framework: "flask", Confidence: 0.9,
	})
	if err != nil {
		t.Fatal(err)
	}
	return epID, ids
}

func TestGenerateFlow(t *testing.T) {
	s := openTestStore(t)
	sources := map[string]string{
		"create_order": "def create_order():\n    logger.info(\"creating order\")\n    validate()",
		"validate":     "def validate():\n    check()",
		"check":        "def check():\n    pass",
	}
	epID, ids := seedChain(t, s, sources,
		[]string{"create_order", "validate", "check"},
		[]string{"app.py", "checks.py"})

	g := NewGenerator(s, &ai.Heuristic{})
	flow, err := g.Generate(context.Background(), epID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if flow.IterationsCompleted != 1 {
		t.Errorf("iterations = %d, want 1 (chain fits the first band)", flow.IterationsCompleted)
	}
	if flow.MaxDepthAnalyzed != 2 {
		t.Errorf("max depth = %d, want 2", flow.MaxDepthAnalyzed)
	}
	if len(flow.SymbolIDsAnalyzed) != 3 {
		t.Errorf("symbols analyzed = %v, want all 3 (%v)", flow.SymbolIDsAnalyzed, ids)
	}
	if len(flow.FilePaths) != 2 {
		t.Errorf("file paths = %v, want 2 files", flow.FilePaths)
	}
	if len(flow.Steps) != 2 {
		t.Fatalf("steps = %d, want one per file: %+v", len(flow.Steps), flow.Steps)
	}

	first := flow.Steps[0]
	if first.FilePath != "app.py" {
		t.Errorf("first step file = %q, want the entry point's file", first.FilePath)
	}
	if len(first.Snippets) != 2 {
		t.Errorf("first step snippets = %d, want create_order and validate", len(first.Snippets))
	}
	if len(first.LogLines) != 1 {
		t.Errorf("first step log lines = %v, want the logger.info call", first.LogLines)
	}

	stored, err := s.GetFlowByEntryPoint(epID)
	if err != nil || stored == nil {
		t.Fatalf("stored flow: %v %v", stored, err)
	}
	if stored.Name != "create order" || len(stored.Steps) != 2 {
		t.Errorf("stored flow = %+v", stored)
	}
}

func TestGenerateFlowDeepChainIterates(t *testing.T) {
	s := openTestStore(t)
	chain := []string{"a", "b", "c", "d", "e"}
	sources := map[string]string{}
	for _, n := range chain {
		sources[n] = "def " + n + "():\n    pass"
	}
	epID, _ := seedChain(t, s, sources, chain, []string{"app.py"})

	flow, err := NewGenerator(s, &ai.Heuristic{}).Generate(context.Background(), epID)
	if err != nil {
		t.Fatal(err)
	}
	// Depths 0..4: the first band covers 0-3, the second picks up depth 4.
	if flow.IterationsCompleted != 2 {
		t.Errorf("iterations = %d, want 2", flow.IterationsCompleted)
	}
	if flow.MaxDepthAnalyzed != 4 {
		t.Errorf("max depth = %d, want 4", flow.MaxDepthAnalyzed)
	}
	if len(flow.SymbolIDsAnalyzed) != 5 {
		t.Errorf("symbols analyzed = %d, want 5", len(flow.SymbolIDsAnalyzed))
	}
}

func TestGenerateFlowReplacesPrevious(t *testing.T) {
	s := openTestStore(t)
	sources := map[string]string{"a": "def a():\n    b()", "b": "def b():\n    pass"}
	epID, _ := seedChain(t, s, sources, []string{"a", "b"}, []string{"app.py"})

	g := NewGenerator(s, &ai.Heuristic{})
	first, err := g.Generate(context.Background(), epID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.Generate(context.Background(), epID)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("regeneration created a new row: %d then %d", first.ID, second.ID)
	}
	flows, err := s.GetFlowByEntryPoint(epID)
	if err != nil || flows == nil {
		t.Fatalf("flow lookup: %v %v", flows, err)
	}
}

func TestScanLogLines(t *testing.T) {
	source := "def f():\n    logger.info(\"start\")\n    x = 1\n    print(x)\n    return x"
	got := ScanLogLines(source)
	if len(got) != 2 {
		t.Fatalf("ScanLogLines = %v, want 2 lines", got)
	}
	if got[0] != `logger.info("start")` {
		t.Errorf("first log line = %q", got[0])
	}
}
