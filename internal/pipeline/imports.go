package pipeline

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/voyantlabs/codegraph/internal/lang"
	"github.com/voyantlabs/codegraph/internal/parser"
)

// buildImportMap collects the file's import table: localName -> dotted path.
// The paths are repo-relative module paths where the import is internal, or
// the raw external path otherwise; the resolution pass decides which is which
// by matching against stored file paths.
func buildImportMap(root *tree_sitter.Node, source []byte, language lang.Language, spec *lang.LanguageSpec) map[string]string {
	imports := map[string]string{}
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		if !spec.IsImport(n.Kind()) {
			return true
		}
		for local, path := range importEntries(n, source, spec) {
			imports[local] = path
		}
		return false
	})
	return imports
}

// importEntries extracts localName -> dotted path pairs from one import node.
func importEntries(n *tree_sitter.Node, source []byte, spec *lang.LanguageSpec) map[string]string {
	switch spec.Language {
	case lang.Python:
		return pythonImportEntries(n, source)
	case lang.Go:
		return goImportEntries(n, source)
	case lang.JavaScript, lang.TypeScript, lang.TSX:
		return jsImportEntries(n, source)
	default:
		// Java, Kotlin, Scala and similar dotted-import grammars.
		return dottedImportEntries(n, source)
	}
}

// dottedImportEntries parses "import a.b.C", "import static a.b.C.d" and
// Kotlin "import a.b.C as D" from the statement text. Wildcard imports carry
// no local name and are skipped.
func dottedImportEntries(n *tree_sitter.Node, source []byte) map[string]string {
	text := strings.TrimSpace(parser.NodeText(n, source))
	text = strings.TrimSuffix(text, ";")
	if !strings.HasPrefix(text, "import") {
		return nil
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, "import"))
	text = strings.TrimSpace(strings.TrimPrefix(text, "static"))

	alias := ""
	if i := strings.Index(text, " as "); i >= 0 {
		alias = strings.TrimSpace(text[i+4:])
		text = strings.TrimSpace(text[:i])
	}
	if text == "" || strings.HasSuffix(text, ".*") {
		return nil
	}
	local := lastSegment(text)
	if alias != "" {
		local = alias
	}
	return map[string]string{local: text}
}

// pythonImportEntries handles "import X [as Y]" and "from X import Y [as Z]".
func pythonImportEntries(n *tree_sitter.Node, source []byte) map[string]string {
	imports := map[string]string{}
	switch n.Kind() {
	case "import_statement":
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "dotted_name":
				name := parser.NodeText(child, source)
				imports[lastSegment(name)] = name
			case "aliased_import":
				nameNode := child.ChildByFieldName("name")
				aliasNode := child.ChildByFieldName("alias")
				if nameNode == nil {
					continue
				}
				name := parser.NodeText(nameNode, source)
				local := lastSegment(name)
				if aliasNode != nil {
					local = parser.NodeText(aliasNode, source)
				}
				imports[local] = name
			}
		}

	case "import_from_statement":
		moduleNode := n.ChildByFieldName("module_name")
		module := ""
		if moduleNode != nil {
			module = strings.TrimLeft(parser.NodeText(moduleNode, source), ".")
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "dotted_name":
				name := parser.NodeText(child, source)
				if moduleNode != nil && name == parser.NodeText(moduleNode, source) {
					continue
				}
				imports[lastSegment(name)] = joinDotted(module, name)
			case "aliased_import":
				nameNode := child.ChildByFieldName("name")
				aliasNode := child.ChildByFieldName("alias")
				if nameNode == nil {
					continue
				}
				name := parser.NodeText(nameNode, source)
				local := lastSegment(name)
				if aliasNode != nil {
					local = parser.NodeText(aliasNode, source)
				}
				imports[local] = joinDotted(module, name)
			}
		}
	}
	return imports
}

// goImportEntries handles grouped and single Go import declarations.
func goImportEntries(n *tree_sitter.Node, source []byte) map[string]string {
	imports := map[string]string{}
	parser.Walk(n, func(child *tree_sitter.Node) bool {
		if child.Kind() != "import_spec" {
			return true
		}
		pathNode := child.ChildByFieldName("path")
		if pathNode == nil {
			return false
		}
		importPath := stripQuotes(parser.NodeText(pathNode, source))
		if importPath == "" {
			return false
		}
		local := lastSlashSegment(importPath)
		if nameNode := child.ChildByFieldName("name"); nameNode != nil {
			alias := parser.NodeText(nameNode, source)
			if alias != "" && alias != "." && alias != "_" {
				local = alias
			}
		}
		imports[local] = strings.ReplaceAll(importPath, "/", ".")
		return false
	})
	return imports
}

// jsImportEntries handles ES import statements: default imports, named
// imports with aliases, and namespace imports.
func jsImportEntries(n *tree_sitter.Node, source []byte) map[string]string {
	sourceNode := n.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	path := jsModulePath(stripQuotes(parser.NodeText(sourceNode, source)))
	if path == "" {
		return nil
	}

	imports := map[string]string{}
	parser.Walk(n, func(child *tree_sitter.Node) bool {
		switch child.Kind() {
		case "import_specifier":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil {
				return false
			}
			name := parser.NodeText(nameNode, source)
			local := name
			if aliasNode != nil {
				local = parser.NodeText(aliasNode, source)
			}
			imports[local] = path + "." + name
			return false
		case "namespace_import":
			if id := findChildByKind(child, "identifier"); id != nil {
				imports[parser.NodeText(id, source)] = path
			}
			return false
		case "import_clause":
			// Default import: a bare identifier directly under the clause.
			for i := uint(0); i < child.ChildCount(); i++ {
				c := child.Child(i)
				if c != nil && c.Kind() == "identifier" {
					imports[parser.NodeText(c, source)] = path
				}
			}
			return true
		}
		return true
	})
	return imports
}

// jsModulePath converts a JS module specifier to dotted form:
// "./services/user" -> "services.user". Bare package names pass through.
func jsModulePath(spec string) string {
	spec = strings.TrimPrefix(spec, "./")
	for strings.HasPrefix(spec, "../") {
		spec = strings.TrimPrefix(spec, "../")
	}
	return strings.ReplaceAll(spec, "/", ".")
}

func joinDotted(module, name string) string {
	if module == "" {
		return name
	}
	return module + "." + name
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		switch {
		case s[0] == '"' && s[len(s)-1] == '"',
			s[0] == '\'' && s[len(s)-1] == '\'',
			s[0] == '`' && s[len(s)-1] == '`':
			return s[1 : len(s)-1]
		}
	}
	return s
}

func lastSlashSegment(path string) string {
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}
