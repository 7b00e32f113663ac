package fqn

import (
	"path/filepath"
	"strings"
)

// Compute returns the canonical qualified name for a symbol.
// Format: <module path dotted>.<enclosing type, if any>.<name>
// Examples:
//   - routes.user.get_user
//   - com.shop.fraud.FraudProcessor.process
func Compute(relPath, enclosing, name string) string {
	parts := moduleParts(relPath)
	if enclosing != "" {
		parts = append(parts, enclosing)
	}
	if name != "" {
		parts = append(parts, name)
	}
	return strings.Join(parts, ".")
}

// ModuleQN returns the qualified name of the file itself.
func ModuleQN(relPath string) string {
	return strings.Join(moduleParts(relPath), ".")
}

// PackageQN returns the qualified name of the directory containing relPath.
func PackageQN(relPath string) string {
	dir := filepath.ToSlash(filepath.Dir(relPath))
	if dir == "." {
		return ""
	}
	return strings.ReplaceAll(dir, "/", ".")
}

// PathPattern converts a dotted package path back to its slash form for
// matching against stored file paths ("a.b" -> "a/b").
func PathPattern(pkgPath string) string {
	return strings.ReplaceAll(pkgPath, ".", "/")
}

func moduleParts(relPath string) []string {
	relPath = strings.TrimSuffix(relPath, filepath.Ext(relPath))
	parts := strings.Split(filepath.ToSlash(relPath), "/")

	// Python packages and JS/TS barrel files resolve to their directory.
	if len(parts) > 0 && parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 0 && parts[len(parts)-1] == "index" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
