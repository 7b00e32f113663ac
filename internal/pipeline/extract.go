package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/voyantlabs/codegraph/internal/fqn"
	"github.com/voyantlabs/codegraph/internal/lang"
	"github.com/voyantlabs/codegraph/internal/parser"
	"github.com/voyantlabs/codegraph/internal/store"
)

// maxSourceBytes caps the stored snippet per symbol.
const maxSourceBytes = 16 * 1024

// rawRef is a reference found during extraction, before ids exist.
type rawRef struct {
	SourceQN   string
	TargetName string // bare name stored on the edge
	Callee     string // full callee text, used for in-file resolution
	PathHint   string // dotted module path for cross-file resolution
	Type       string
	Line       int
	// LocalOnly references are dropped unless they resolve within the file;
	// a plain local variable passed as an argument is not an edge.
	LocalOnly bool
}

// extraction is the parse-stage output for one file.
type extraction struct {
	ModuleQN string
	Symbols  []*store.Symbol
	Refs     []rawRef
	// Parents maps a symbol's qualified name to its enclosing symbol's.
	Parents map[string]string
}

// extractFile parses one source file and extracts its symbols plus raw call,
// usage and import references. No store access; ctx bounds the parse.
func extractFile(ctx context.Context, relPath string, language lang.Language, source []byte) (*extraction, error) {
	spec := lang.ForLanguage(language)
	if spec == nil {
		return nil, fmt.Errorf("no language spec for %q", language)
	}
	tree, err := parser.Parse(ctx, language, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	ext := &extraction{
		ModuleQN: fqn.ModuleQN(relPath),
		Parents:  map[string]string{},
	}

	// Every file gets a module symbol so module-level calls have a source.
	ext.Symbols = append(ext.Symbols, &store.Symbol{
		Kind:          store.KindModule,
		Name:          filepath.Base(relPath),
		QualifiedName: ext.ModuleQN,
		StartLine:     1,
		EndLine:       safeRowToLine(root.EndPosition().Row),
	})

	w := &walker{
		spec:       spec,
		relPath:    relPath,
		source:     source,
		ext:        ext,
		imports:    buildImportMap(root, source, language, spec),
		fieldTypes: map[string]string{},
	}
	w.collectFieldTypes(root)
	w.walk(root, nil, ext.ModuleQN, false)
	return ext, nil
}

// walker carries the per-file extraction state.
type walker struct {
	spec    *lang.LanguageSpec
	relPath string
	source  []byte
	ext     *extraction
	// imports maps a local name to the dotted path it was imported from.
	imports map[string]string
	// fieldTypes maps declared field/property names to their type names.
	fieldTypes map[string]string
}

// walk descends the AST. enclosing holds the names of enclosing type scopes,
// sourceQN is the nearest enclosing function or the module, and inArgs is
// true inside a call's argument list.
func (w *walker) walk(n *tree_sitter.Node, enclosing []string, sourceQN string, inArgs bool) {
	kind := n.Kind()

	if w.spec.IsImport(kind) {
		w.emitImportRef(n)
		return
	}
	if w.spec.IsArgumentList(kind) {
		inArgs = true
	}

	if symKind := w.spec.KindFor(kind); symKind != "" {
		if w.extractDefinition(n, kind, symKind, enclosing, sourceQN) {
			return
		}
	}

	if w.spec.IsCallSite(kind) {
		w.extractCall(n, enclosing, sourceQN, inArgs)
		return
	}

	if inArgs && w.spec.IsIdentifierLeaf(kind) {
		w.emitArgumentUsage(n, sourceQN)
		return
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil {
			w.walk(child, enclosing, sourceQN, inArgs)
		}
	}
}

// extractDefinition records a symbol for a definition node and walks its body
// in the extended scope. Returns false when the node has no usable name, in
// which case the caller keeps walking (anonymous functions still contain
// calls worth extracting).
func (w *walker) extractDefinition(n *tree_sitter.Node, nodeKind, symKind string, enclosing []string, sourceQN string) bool {
	nameNode := defNameNode(n)
	if nameNode == nil {
		return false
	}
	name := parser.NodeText(nameNode, w.source)
	if name == "" {
		return false
	}

	qn := fqn.Compute(w.relPath, strings.Join(enclosing, "."), name)
	if symKind == store.KindFunction && len(enclosing) > 0 {
		symKind = store.KindMethod
	}

	sym := &store.Symbol{
		Kind:          symKind,
		Name:          name,
		QualifiedName: qn,
		Signature:     signatureText(n, w.source),
		SourceCode:    cappedText(n, w.source),
		StartLine:     safeRowToLine(n.StartPosition().Row),
		StartCol:      int(n.StartPosition().Column),
		EndLine:       safeRowToLine(n.EndPosition().Row),
		EndCol:        int(n.EndPosition().Column),
	}
	w.ext.Symbols = append(w.ext.Symbols, sym)
	parentQN := w.ext.ModuleQN
	if len(enclosing) > 0 {
		parentQN = fqn.Compute(w.relPath, strings.Join(enclosing[:len(enclosing)-1], "."), enclosing[len(enclosing)-1])
	}
	w.ext.Parents[qn] = parentQN

	childEnclosing := enclosing
	childSource := sourceQN
	switch symKind {
	case store.KindFunction, store.KindMethod:
		childSource = qn
	default:
		childEnclosing = append(append([]string{}, enclosing...), name)
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil {
			w.walk(child, childEnclosing, childSource, false)
		}
	}
	return true
}

// extractCall emits a CALL reference for a call site, then walks the
// children. The callee subtree is walked outside argument context so its
// identifiers do not count as argument usages.
func (w *walker) extractCall(n *tree_sitter.Node, enclosing []string, sourceQN string, inArgs bool) {
	callee := extractCalleeName(n, w.source)
	if callee != "" {
		w.ext.Refs = append(w.ext.Refs, rawRef{
			SourceQN:   sourceQN,
			TargetName: lastSegment(callee),
			Callee:     callee,
			PathHint:   w.calleeHint(callee),
			Type:       store.RefCall,
			Line:       safeRowToLine(n.StartPosition().Row),
		})
	}

	calleeChild := calleeFieldChild(n)
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		childInArgs := inArgs || w.spec.IsArgumentList(child.Kind())
		if calleeChild != nil && child.Id() == calleeChild.Id() {
			childInArgs = false
		}
		w.walk(child, enclosing, sourceQN, childInArgs)
	}
}

// emitArgumentUsage records a USAGE reference for an identifier passed as a
// call argument, when its target can be tied to a declared field type, an
// import, or a local definition. Bare unresolvable names are noise and
// produce nothing.
func (w *walker) emitArgumentUsage(n *tree_sitter.Node, sourceQN string) {
	text := parser.NodeText(n, w.source)
	if text == "" || w.spec.SkipArgumentIdentifier(text) {
		return
	}
	line := safeRowToLine(n.StartPosition().Row)

	// A field or property: the usage points at the field's declared type.
	if typeName := w.fieldTypes[text]; typeName != "" {
		w.ext.Refs = append(w.ext.Refs, rawRef{
			SourceQN:   sourceQN,
			TargetName: typeName,
			Callee:     typeName,
			PathHint:   w.typeHint(typeName),
			Type:       store.RefUsage,
			Line:       line,
		})
		return
	}
	if imported, ok := w.imports[text]; ok {
		w.ext.Refs = append(w.ext.Refs, rawRef{
			SourceQN:   sourceQN,
			TargetName: text,
			Callee:     text,
			PathHint:   hintForImport(imported, text),
			Type:       store.RefUsage,
			Line:       line,
		})
		return
	}
	// Possibly a same-file reference; kept only if it resolves there.
	w.ext.Refs = append(w.ext.Refs, rawRef{
		SourceQN:   sourceQN,
		TargetName: text,
		Callee:     text,
		Type:       store.RefUsage,
		Line:       line,
		LocalOnly:  true,
	})
}

// emitImportRef records an IMPORT reference from the module to the imported
// path, so imports participate in the graph like any other edge.
func (w *walker) emitImportRef(n *tree_sitter.Node) {
	for local, path := range importEntries(n, w.source, w.spec) {
		w.ext.Refs = append(w.ext.Refs, rawRef{
			SourceQN:   w.ext.ModuleQN,
			TargetName: local,
			Callee:     local,
			PathHint:   path,
			Type:       store.RefImport,
			Line:       safeRowToLine(n.StartPosition().Row),
		})
	}
}

// calleeHint derives a dotted path hint for a call target: the imported path
// of the callee itself, or of the receiver's declared type, or of the
// receiver when it names an imported module.
func (w *walker) calleeHint(callee string) string {
	if path, ok := w.imports[callee]; ok {
		return hintForImport(path, lastSegment(callee))
	}
	if !strings.Contains(callee, ".") {
		return ""
	}
	receiver := callee[:strings.Index(callee, ".")]
	if typeName := w.fieldTypes[receiver]; typeName != "" {
		return w.typeHint(typeName)
	}
	if path, ok := w.imports[receiver]; ok {
		// The receiver names an imported module; the full path is the hint.
		return path
	}
	return ""
}

// typeHint resolves a type name to a dotted path: import first, then the
// file's own package as the same-package fallback.
func (w *walker) typeHint(typeName string) string {
	if path, ok := w.imports[typeName]; ok {
		return path
	}
	if pkg := fqn.PackageQN(w.relPath); pkg != "" {
		return pkg + "." + typeName
	}
	return typeName
}

// hintForImport trims the referenced name off the end of an imported path so
// the hint stays a module path: "from utils import helper" hints "utils",
// not "utils.helper" (which names no file).
func hintForImport(path, name string) string {
	if path != name && strings.HasSuffix(path, "."+name) {
		return path[:len(path)-len(name)-1]
	}
	return path
}

// collectFieldTypes scans declaration nodes for name/type pairs so receiver
// and argument identifiers can be resolved through their declared types.
func (w *walker) collectFieldTypes(root *tree_sitter.Node) {
	fieldKinds := map[string]bool{}
	for _, k := range w.spec.FieldNodeTypes {
		fieldKinds[k] = true
	}
	if len(fieldKinds) == 0 {
		return
	}
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		if !fieldKinds[n.Kind()] {
			return true
		}
		name, typeName := fieldNameAndType(n, w.source)
		if name != "" && typeName != "" {
			w.fieldTypes[name] = typeName
		}
		return false
	})
}

// fieldNameAndType extracts the declared name and type from a field or
// property declaration node across the supported grammars.
func fieldNameAndType(n *tree_sitter.Node, source []byte) (name, typeName string) {
	// Kotlin: property_declaration > variable_declaration > (identifier, type)
	if varDecl := findChildByKind(n, "variable_declaration"); varDecl != nil {
		if id := firstChildOfKinds(varDecl, "simple_identifier", "identifier"); id != nil {
			name = parser.NodeText(id, source)
		}
		if t := firstChildOfKinds(varDecl, "user_type", "type_identifier", "nullable_type"); t != nil {
			typeName = baseTypeName(parser.NodeText(t, source))
		}
		if typeName == "" {
			if t := firstChildOfKinds(n, "user_type", "type_identifier"); t != nil {
				typeName = baseTypeName(parser.NodeText(t, source))
			}
		}
		return name, typeName
	}

	// Java / Go / C#: type field plus declarator/name.
	if t := n.ChildByFieldName("type"); t != nil {
		typeName = baseTypeName(parser.NodeText(t, source))
	}
	if decl := n.ChildByFieldName("declarator"); decl != nil {
		if id := decl.ChildByFieldName("name"); id != nil {
			return parser.NodeText(id, source), typeName
		}
		return parser.NodeText(decl, source), typeName
	}
	if id := n.ChildByFieldName("name"); id != nil {
		return parser.NodeText(id, source), typeName
	}
	if id := firstChildOfKinds(n, "identifier", "field_identifier", "simple_identifier"); id != nil {
		return parser.NodeText(id, source), typeName
	}
	return "", typeName
}

// baseTypeName strips generics, pointers and nullability markers from a type
// expression, leaving the bare type name.
func baseTypeName(t string) string {
	t = strings.TrimSpace(t)
	t = strings.TrimLeft(t, "*&")
	if i := strings.IndexAny(t, "<[("); i > 0 {
		t = t[:i]
	}
	t = strings.TrimSuffix(t, "?")
	return lastSegment(t)
}

// extractCalleeName pulls the callee text out of a call node, trying the
// grammar field names used across the supported languages.
func extractCalleeName(n *tree_sitter.Node, source []byte) string {
	if fn := n.ChildByFieldName("function"); fn != nil {
		switch fn.Kind() {
		case "identifier", "simple_identifier", "selector_expression", "attribute",
			"member_expression", "field_expression", "scoped_identifier", "qualified_identifier":
			return parser.NodeText(fn, source)
		}
		return ""
	}
	// Java method_invocation: object field + name field.
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		if obj := n.ChildByFieldName("object"); obj != nil && obj.Kind() == "identifier" {
			return parser.NodeText(obj, source) + "." + parser.NodeText(nameNode, source)
		}
		return parser.NodeText(nameNode, source)
	}
	// Java object_creation_expression: new Foo(...).
	if t := n.ChildByFieldName("type"); t != nil {
		return parser.NodeText(t, source)
	}
	// Ruby call: method field with optional receiver.
	if m := n.ChildByFieldName("method"); m != nil {
		if recv := n.ChildByFieldName("receiver"); recv != nil && recv.Kind() == "identifier" {
			return parser.NodeText(recv, source) + "." + parser.NodeText(m, source)
		}
		return parser.NodeText(m, source)
	}
	// Kotlin call_expression: the callee is the first named child.
	if first := n.NamedChild(0); first != nil {
		switch first.Kind() {
		case "identifier", "simple_identifier", "navigation_expression":
			return normalizeNavigation(parser.NodeText(first, source))
		}
	}
	return ""
}

// calleeFieldChild returns the child node holding the callee, if the grammar
// exposes one.
func calleeFieldChild(n *tree_sitter.Node) *tree_sitter.Node {
	for _, field := range []string{"function", "name", "method", "type"} {
		if c := n.ChildByFieldName(field); c != nil {
			return c
		}
	}
	if first := n.NamedChild(0); first != nil {
		switch first.Kind() {
		case "identifier", "simple_identifier", "navigation_expression":
			return first
		}
	}
	return nil
}

// normalizeNavigation rewrites Kotlin safe-call chains to plain dots.
func normalizeNavigation(s string) string {
	s = strings.ReplaceAll(s, "?.", ".")
	return strings.ReplaceAll(s, "::", ".")
}

// defNameNode finds the name node of a definition, handling grammars without
// a "name" field.
func defNameNode(n *tree_sitter.Node) *tree_sitter.Node {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return nameNode
	}
	// JS/TS arrow functions: the name lives on the variable declarator.
	if n.Kind() == "arrow_function" {
		if p := n.Parent(); p != nil && p.Kind() == "variable_declarator" {
			return p.ChildByFieldName("name")
		}
		return nil
	}
	// C/C++: the name hides inside the declarator.
	if decl := n.ChildByFieldName("declarator"); decl != nil {
		if inner := decl.ChildByFieldName("declarator"); inner != nil {
			return inner
		}
		if id := findChildByKind(decl, "identifier"); id != nil {
			return id
		}
	}
	// Kotlin and friends: a bare identifier child.
	return firstChildOfKinds(n, "simple_identifier", "type_identifier", "identifier", "constant")
}

// signatureText returns the parameter list text of a definition, if any.
func signatureText(n *tree_sitter.Node, source []byte) string {
	if params := n.ChildByFieldName("parameters"); params != nil {
		return parser.NodeText(params, source)
	}
	if params := firstChildOfKinds(n, "function_value_parameters", "parameter_list", "formal_parameters", "method_parameters"); params != nil {
		return parser.NodeText(params, source)
	}
	return ""
}

func cappedText(n *tree_sitter.Node, source []byte) string {
	text := parser.NodeText(n, source)
	if len(text) > maxSourceBytes {
		return text[:maxSourceBytes]
	}
	return text
}

func findChildByKind(n *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

func firstChildOfKinds(n *tree_sitter.Node, kinds ...string) *tree_sitter.Node {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		for _, k := range kinds {
			if child.Kind() == k {
				return child
			}
		}
	}
	return nil
}

func lastSegment(s string) string {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}

func safeRowToLine(row uint) int {
	return int(row) + 1
}
