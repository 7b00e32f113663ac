package discover

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/voyantlabs/codegraph/internal/lang"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "def main(): pass\n")
	writeFile(t, dir, "svc/handler.kt", "fun handle() {}\n")
	writeFile(t, dir, "node_modules/dep/index.js", "module.exports = {}\n")
	writeFile(t, dir, "readme.md", "# readme\n")
	writeFile(t, dir, "cache.pyc", "binary")

	files, err := Discover(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(files), files)
	}
	byRel := map[string]FileInfo{}
	for _, f := range files {
		byRel[f.RelPath] = f
	}
	if byRel["main.py"].Language != lang.Python {
		t.Errorf("main.py language = %s", byRel["main.py"].Language)
	}
	if byRel["svc/handler.kt"].Language != lang.Kotlin {
		t.Errorf("handler.kt language = %s", byRel["svc/handler.kt"].Language)
	}
}

func TestDiscoverSortedByRelPath(t *testing.T) {
	dir := t.TempDir()
	// Walk visits directory "foo" before "foo-bar", but as rel paths
	// "foo-bar/x.py" sorts before "foo/x.py" ('-' < '/').
	writeFile(t, dir, "foo/x.py", "x = 1\n")
	writeFile(t, dir, "foo-bar/x.py", "x = 2\n")
	writeFile(t, dir, "a.py", "x = 3\n")

	files, err := Discover(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	got := make([]string, len(files))
	for i, f := range files {
		got[i] = f.RelPath
	}
	if !sort.StringsAreSorted(got) {
		t.Errorf("files not sorted by relative path: %v", got)
	}
}

func TestDiscoverGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "generated/\nskipme.py\n")
	writeFile(t, dir, "keep.py", "x = 1\n")
	writeFile(t, dir, "skipme.py", "x = 2\n")
	writeFile(t, dir, "generated/gen.py", "x = 3\n")

	files, err := Discover(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "keep.py" {
		t.Fatalf("expected only keep.py, got %v", files)
	}
}

func TestDiscoverMaxFileSize(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "small.py", "x = 1\n")
	big := make([]byte, 2048)
	writeFile(t, dir, "big.py", string(big))

	files, err := Discover(context.Background(), dir, &Options{MaxFileSize: 1024})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "small.py" {
		t.Fatalf("expected only small.py, got %v", files)
	}
}

func TestDiscoverCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "x = 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Discover(ctx, dir, nil); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestBuildTree(t *testing.T) {
	files := []FileInfo{
		{RelPath: "routes/user.py"},
		{RelPath: "routes/util/helper.py"},
		{RelPath: "main.py"},
	}
	tree := BuildTree(files)
	routes, ok := tree["routes"].(map[string]any)
	if !ok {
		t.Fatalf("routes missing: %v", tree)
	}
	if _, ok := routes["user.py"]; !ok {
		t.Error("routes/user.py missing")
	}
	util, ok := routes["util"].(map[string]any)
	if !ok {
		t.Fatal("routes/util missing")
	}
	if _, ok := util["helper.py"]; !ok {
		t.Error("routes/util/helper.py missing")
	}
	if _, ok := tree["main.py"]; !ok {
		t.Error("main.py missing at root")
	}
}

func TestFolderStructure(t *testing.T) {
	files := []FileInfo{
		{RelPath: "routes/user.py"},
		{RelPath: "routes/models.py"},
		{RelPath: "routes/util/helper.py"},
		{RelPath: "main.py"},
	}
	fs := FolderStructure("routes/models.py", files)
	routes, ok := fs["routes"].(map[string]any)
	if !ok {
		t.Fatalf("expected routes key, got %v", fs)
	}
	for _, want := range []string{"user.py", "models.py", "util"} {
		if _, ok := routes[want]; !ok {
			t.Errorf("routes missing %s: %v", want, routes)
		}
	}

	root := FolderStructure("main.py", files)
	dot, ok := root["."].(map[string]any)
	if !ok {
		t.Fatalf("expected . key, got %v", root)
	}
	if _, ok := dot["main.py"]; !ok {
		t.Error("root missing main.py")
	}
	if _, ok := dot["routes"]; !ok {
		t.Error("root missing routes dir")
	}
}
