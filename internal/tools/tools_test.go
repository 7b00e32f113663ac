package tools

import (
	"strings"
	"testing"

	"github.com/voyantlabs/codegraph/internal/config"
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

func testServer(t *testing.T) (*Server, *store.Store) {
	s := openTestStore(t)
	return &Server{store: s, settings: config.Defaults()}, s
}

func TestResolveRepo(t *testing.T) {
	srv, s := testServer(t)
	if _, err := s.CreateRepository("home-dev-shop", "/home/dev/shop"); err != nil {
		t.Fatal(err)
	}

	byName, err := srv.resolveRepo("home-dev-shop")
	if err != nil || byName == nil {
		t.Fatalf("resolve by name: %v %v", byName, err)
	}
	byPath, err := srv.resolveRepo("/home/dev/shop")
	if err != nil || byPath == nil {
		t.Fatalf("resolve by path: %v %v", byPath, err)
	}
	if byPath.ID != byName.ID {
		t.Errorf("path and name resolved different repos: %d vs %d", byPath.ID, byName.ID)
	}
	if _, err := srv.resolveRepo("nope"); err == nil {
		t.Error("unknown repository resolved")
	}
	if _, err := srv.resolveRepo(""); err == nil {
		t.Error("empty repository resolved")
	}
}

func TestNumberLines(t *testing.T) {
	got := numberLines("a\nb", 41)
	want := "  41 | a\n  42 | b\n"
	if got != want {
		t.Errorf("numberLines = %q, want %q", got, want)
	}
}

func TestSliceLines(t *testing.T) {
	text := "one\ntwo\nthree\nfour"
	tests := []struct {
		start, end int
		want       string
	}{
		{2, 3, "two\nthree"},
		{1, 1, "one"},
		{3, 99, "three\nfour"},
		{9, 10, ""},
		{0, 2, ""},
	}
	for _, tt := range tests {
		if got := sliceLines(text, tt.start, tt.end); got != tt.want {
			t.Errorf("sliceLines(%d, %d) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestSnippetPayload(t *testing.T) {
	_, s := testServer(t)
	repo, err := s.CreateRepository("r", "/tmp/r")
	if err != nil {
		t.Fatal(err)
	}
	fileID, err := s.UpsertFile(&store.File{
		RepoID: repo.ID, RelPath: "app.py", Language: "python",
		Content: "import os\n\ndef run():\n    pass\n",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertSymbol(&store.Symbol{
		RepoID: repo.ID, FileID: fileID, Kind: store.KindFunction,
		Name: "run", QualifiedName: "app.run",
		SourceCode: "def run():\n    pass",
		StartLine:  3, EndLine: 4,
	}); err != nil {
		t.Fatal(err)
	}

	payload, err := snippetPayload(s, repo.ID, "app.run")
	if err != nil {
		t.Fatalf("snippetPayload: %v", err)
	}
	source := payload["source"].(string)
	if !strings.Contains(source, "   3 | def run():") {
		t.Errorf("snippet missing numbered line: %q", source)
	}
	if payload["file_path"] != "app.py" {
		t.Errorf("file_path = %v", payload["file_path"])
	}

	if _, err := snippetPayload(s, repo.ID, "app.missing"); err == nil {
		t.Error("missing symbol produced a payload")
	}
}

func TestSymbolPayload(t *testing.T) {
	_, s := testServer(t)
	repo, err := s.CreateRepository("r", "/tmp/r")
	if err != nil {
		t.Fatal(err)
	}
	fileID, err := s.UpsertFile(&store.File{RepoID: repo.ID, RelPath: "app.py", Language: "python"})
	if err != nil {
		t.Fatal(err)
	}
	parent := &store.Symbol{
		RepoID: repo.ID, FileID: fileID, Kind: store.KindClass,
		Name: "App", QualifiedName: "app.App",
	}
	if _, err := s.UpsertSymbol(parent); err != nil {
		t.Fatal(err)
	}
	sym := &store.Symbol{
		RepoID: repo.ID, FileID: fileID, Kind: store.KindMethod,
		Name: "run", QualifiedName: "app.App.run",
		Signature: "(self)", SourceCode: "def run(self):\n    pass",
		ParentID: parent.ID, StartLine: 3, EndLine: 4,
	}
	if _, err := s.UpsertSymbol(sym); err != nil {
		t.Fatal(err)
	}

	payload, err := symbolPayload(s, repo.ID, sym.ID)
	if err != nil {
		t.Fatalf("symbolPayload: %v", err)
	}
	if payload["qualified_name"] != "app.App.run" || payload["file_path"] != "app.py" {
		t.Errorf("payload = %v", payload)
	}
	if payload["parent"] != "app.App" {
		t.Errorf("parent = %v", payload["parent"])
	}

	if _, err := symbolPayload(s, repo.ID, 9999); err == nil {
		t.Error("missing symbol produced a payload")
	}
	if _, err := symbolPayload(s, repo.ID+1, sym.ID); err == nil {
		t.Error("wrong repository produced a payload")
	}
}

func TestFlowPayloadNotReady(t *testing.T) {
	_, s := testServer(t)
	repo, err := s.CreateRepository("r", "/tmp/r")
	if err != nil {
		t.Fatal(err)
	}
	fileID, err := s.UpsertFile(&store.File{RepoID: repo.ID, RelPath: "app.py", Language: "python"})
	if err != nil {
		t.Fatal(err)
	}
	sym := &store.Symbol{
		RepoID: repo.ID, FileID: fileID, Kind: store.KindFunction,
		Name: "run", QualifiedName: "app.run",
	}
	if _, err := s.UpsertSymbol(sym); err != nil {
		t.Fatal(err)
	}
	epID, err := s.InsertEntryPoint(&store.EntryPoint{
		RepoID: repo.ID, SymbolID: sym.ID, Name: "run", Type: store.EntryPointHTTP,
	})
	if err != nil {
		t.Fatal(err)
	}

	payload, err := flowPayload(s, epID)
	if err != nil {
		t.Fatalf("flowPayload: %v", err)
	}
	if payload["ready"] != false {
		t.Errorf("payload before generation: %v", payload)
	}

	if _, err := s.SaveFlow(&store.Flow{
		RepoID: repo.ID, EntryPointID: epID, Name: "run",
		Steps: []store.FlowStep{{Title: "start", FilePath: "app.py"}},
	}); err != nil {
		t.Fatal(err)
	}
	payload, err = flowPayload(s, epID)
	if err != nil {
		t.Fatal(err)
	}
	if payload["ready"] != true {
		t.Errorf("payload after generation: %v", payload)
	}
	steps := payload["steps"].([]map[string]any)
	if len(steps) != 1 || steps[0]["title"] != "start" {
		t.Errorf("steps = %v", steps)
	}

	if _, err := flowPayload(s, 9999); err == nil {
		t.Error("unknown entry point produced a payload")
	}
}
