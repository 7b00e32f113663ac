package entrypoints

import (
	"context"
	"testing"

	"github.com/voyantlabs/codegraph/internal/ai"
	"github.com/voyantlabs/codegraph/internal/lang"
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

func seedFile(t *testing.T, s *store.Store, repoID int64, relPath, language, content string) int64 {
	t.Helper()
	id, err := s.UpsertFile(&store.File{
		RepoID: repoID, RelPath: relPath, Language: language, Content: content,
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func seedSymbol(t *testing.T, s *store.Store, sym *store.Symbol) *store.Symbol {
	t.Helper()
	if _, err := s.UpsertSymbol(sym); err != nil {
		t.Fatal(err)
	}
	return sym
}

func TestIsTestPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"src/tests/test_app.py", true},
		{"test_app.py", true},
		{"src/handler.spec.ts", true},
		{"pkg/server_test.go", true},
		{"src/app.py", false},
		{"src/latest_metrics.py", false},
	}
	for _, tt := range tests {
		if got := IsTestPath(tt.path); got != tt.want {
			t.Errorf("IsTestPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDetectFrameworks(t *testing.T) {
	tests := []struct {
		name     string
		language lang.Language
		relPath  string
		content  string
		want     string
	}{
		{"flask", lang.Python, "app.py", "from flask import Flask\n", FrameworkFlask},
		{"spring", lang.Java, "A.java", "import org.springframework.web.bind.annotation.GetMapping;\n", FrameworkSpring},
		{"ktor", lang.Kotlin, "A.kt", "import io.ktor.server.routing.*\n", FrameworkKtor},
		{"nextjs path", lang.TypeScript, "pages/api/users.ts", "export default function handler() {}\n", FrameworkNextJS},
		{"actix", lang.Rust, "main.rs", "use actix_web::get;\n", FrameworkActix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectFrameworks(tt.language, tt.relPath, tt.content)
			found := false
			for _, fw := range got {
				if fw == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("DetectFrameworks = %v, want to include %s", got, tt.want)
			}
		})
	}
	if got := DetectFrameworks(lang.Python, "plain.py", "import os\n"); len(got) != 0 {
		t.Errorf("plain file detected frameworks: %v", got)
	}
}

const flaskApp = `from flask import Flask

app = Flask(__name__)

@app.route("/orders", methods=["POST"])
def create_order():
    return save()

def save():
    pass
`

func seedFlaskRepo(t *testing.T, s *store.Store) (repoID int64, routeSym *store.Symbol) {
	t.Helper()
	repo, err := s.CreateRepository("shop", "/tmp/shop")
	if err != nil {
		t.Fatal(err)
	}
	fileID := seedFile(t, s, repo.ID, "app.py", "python", flaskApp)
	routeSym = seedSymbol(t, s, &store.Symbol{
		RepoID: repo.ID, FileID: fileID, Kind: store.KindFunction,
		Name: "create_order", QualifiedName: "app.create_order",
		SourceCode: "def create_order():\n    return save()",
		StartLine:  6, EndLine: 7,
	})
	seedSymbol(t, s, &store.Symbol{
		RepoID: repo.ID, FileID: fileID, Kind: store.KindFunction,
		Name: "save", QualifiedName: "app.save",
		SourceCode: "def save():\n    pass",
		StartLine:  9, EndLine: 10,
	})
	// Test files never produce candidates, whatever they contain.
	testFileID := seedFile(t, s, repo.ID, "tests/test_app.py", "python", flaskApp)
	seedSymbol(t, s, &store.Symbol{
		RepoID: repo.ID, FileID: testFileID, Kind: store.KindFunction,
		Name: "create_order", QualifiedName: "tests.test_app.create_order",
		StartLine: 6, EndLine: 7,
	})
	return repo.ID, routeSym
}

func TestDetectorConfirmsFlaskRoute(t *testing.T) {
	s := openTestStore(t)
	repoID, routeSym := seedFlaskRepo(t, s)

	d := NewDetector(s, &ai.Heuristic{})
	result, err := d.Run(context.Background(), repoID, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Candidates != 1 {
		t.Errorf("candidates = %d, want 1 (decorated route only)", result.Candidates)
	}
	if result.Confirmed != 1 {
		t.Fatalf("confirmed = %d, want 1", result.Confirmed)
	}

	ep := result.EntryPoints[0]
	if ep.SymbolID != routeSym.ID {
		t.Errorf("entry point symbol = %d, want %d", ep.SymbolID, routeSym.ID)
	}
	if ep.Framework != FrameworkFlask || ep.Type != store.EntryPointHTTP {
		t.Errorf("framework/type = %s/%s", ep.Framework, ep.Type)
	}

	// Candidates stay on record after confirmation.
	cands, err := s.ListCandidates(repoID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 1 {
		t.Errorf("stored candidates = %d, want 1", len(cands))
	}
}

func TestDetectorIdempotentWithoutForce(t *testing.T) {
	s := openTestStore(t)
	repoID, _ := seedFlaskRepo(t, s)
	d := NewDetector(s, &ai.Heuristic{})

	first, err := d.Run(context.Background(), repoID, false)
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.Run(context.Background(), repoID, false)
	if err != nil {
		t.Fatal(err)
	}
	if second.Candidates != 0 {
		t.Errorf("second run rescanned: %+v", second)
	}
	if second.Confirmed != first.Confirmed {
		t.Errorf("second run confirmed %d, want %d", second.Confirmed, first.Confirmed)
	}

	forced, err := d.Run(context.Background(), repoID, true)
	if err != nil {
		t.Fatal(err)
	}
	if forced.Candidates != 1 || forced.Confirmed != 1 {
		t.Errorf("forced run: %+v", forced)
	}
	eps, err := s.ListEntryPoints(repoID, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(eps) != 1 {
		t.Errorf("entry points after force = %d, want 1 (replaced, not appended)", len(eps))
	}
}

func TestDetectorDedupeKeepsHighestConfidence(t *testing.T) {
	s := openTestStore(t)
	repo, err := s.CreateRepository("shop", "/tmp/shop")
	if err != nil {
		t.Fatal(err)
	}
	// views.py matches the low-confidence Django module pattern and the
	// decorated Flask route pattern; the Flask one must win.
	content := `from django.http import JsonResponse
from flask import Flask

@app.route("/x")
def show(request):
    pass
`
	fileID := seedFile(t, s, repo.ID, "shop/views.py", "python", content)
	seedSymbol(t, s, &store.Symbol{
		RepoID: repo.ID, FileID: fileID, Kind: store.KindFunction,
		Name: "show", QualifiedName: "shop.views.show",
		StartLine: 5, EndLine: 6,
	})

	d := NewDetector(s, &ai.Heuristic{})
	result, err := d.Run(context.Background(), repo.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Candidates != 1 {
		t.Fatalf("candidates = %d, want 1 after dedupe", result.Candidates)
	}
	cands, err := s.ListCandidates(repo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cands[0].Framework != FrameworkFlask || cands[0].Confidence != 0.9 {
		t.Errorf("kept candidate = %s/%v, want flask/0.9", cands[0].Framework, cands[0].Confidence)
	}
}
