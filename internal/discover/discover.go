package discover

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/voyantlabs/codegraph/internal/lang"
)

// IGNORE_PATTERNS are directory names to skip during discovery.
var IGNORE_PATTERNS = map[string]bool{
	".cache": true, ".eggs": true, ".env": true, ".git": true,
	".gradle": true, ".hg": true, ".idea": true, ".maven": true,
	".mypy_cache": true, ".nox": true, ".npm": true, ".nyc_output": true,
	".pnpm-store": true, ".pytest_cache": true, ".ruff_cache": true,
	".svn": true, ".tmp": true, ".tox": true, ".venv": true, ".vs": true,
	".vscode": true, ".yarn": true, "__pycache__": true, "bin": true,
	"bower_components": true, "build": true, "coverage": true,
	"dist": true, "env": true, "htmlcov": true, "node_modules": true,
	"obj": true, "out": true, "Pods": true, "site-packages": true,
	"target": true, "temp": true, "tmp": true, "vendor": true, "venv": true,
}

// IGNORE_SUFFIXES are file suffixes to skip.
var IGNORE_SUFFIXES = map[string]bool{
	".tmp": true, "~": true, ".pyc": true, ".pyo": true,
	".o": true, ".a": true, ".so": true, ".dll": true, ".class": true,
}

// FileInfo represents a discovered source file.
type FileInfo struct {
	Path      string        // absolute path
	RelPath   string        // relative to repo root
	Language  lang.Language // detected language
	SizeBytes int64
}

// Options configures file discovery.
type Options struct {
	// MaxFileSize skips files larger than this many bytes. Zero means no cap.
	MaxFileSize int64
}

// Discover walks a repository and returns all source files, sorted by
// relative path for deterministic processing. A .gitignore at the repo root
// is honored on top of the built-in skip lists.
func Discover(ctx context.Context, repoPath string, opts *Options) ([]FileInfo, error) {
	repoPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}

	// Check cancellation before starting walk
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ign *gitignore.GitIgnore
	if gi, err := gitignore.CompileIgnoreFile(filepath.Join(repoPath, ".gitignore")); err == nil {
		ign = gi
	}

	var maxSize int64
	if opts != nil {
		maxSize = opts.MaxFileSize
	}

	var files []FileInfo

	err = filepath.Walk(repoPath, func(path string, info os.FileInfo, walkErr error) error {
		// Check context cancellation periodically during walk
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(repoPath, path)
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if path == repoPath {
				return nil
			}
			if IGNORE_PATTERNS[info.Name()] || (ign != nil && ign.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		for suffix := range IGNORE_SUFFIXES {
			if strings.HasSuffix(path, suffix) {
				return nil
			}
		}
		if ign != nil && ign.MatchesPath(rel) {
			return nil
		}
		if maxSize > 0 && info.Size() > maxSize {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		l, ok := lang.LanguageForExtension(ext)
		if !ok {
			return nil
		}
		files = append(files, FileInfo{
			Path:      path,
			RelPath:   rel,
			Language:  l,
			SizeBytes: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Walk order is lexical per directory, not across the whole tree; sort so
	// the contract holds regardless.
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// BuildTree builds a nested directory tree from discovered files. Files are
// empty leaves; directories map to their contents.
func BuildTree(files []FileInfo) map[string]any {
	tree := map[string]any{}
	for _, f := range files {
		parts := strings.Split(f.RelPath, "/")
		cur := tree
		for _, part := range parts[:len(parts)-1] {
			next, ok := cur[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[part] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = map[string]any{}
	}
	return tree
}

// FolderStructure returns the immediate parent directory contents for a file:
// sibling files and subdirectory names, keyed by the parent directory ("."
// for root-level files).
func FolderStructure(relPath string, all []FileInfo) map[string]any {
	dir := filepath.ToSlash(filepath.Dir(relPath))

	contents := map[string]any{}
	for _, f := range all {
		fdir := filepath.ToSlash(filepath.Dir(f.RelPath))
		if fdir == dir {
			contents[filepath.Base(f.RelPath)] = map[string]any{}
			continue
		}
		// Deeper files contribute the first subdirectory name under dir.
		prefix := dir + "/"
		if dir == "." {
			prefix = ""
		}
		if strings.HasPrefix(f.RelPath, prefix) {
			rest := strings.TrimPrefix(f.RelPath, prefix)
			if i := strings.Index(rest, "/"); i > 0 {
				contents[rest[:i]] = map[string]any{}
			}
		}
	}
	return map[string]any{dir: contents}
}
