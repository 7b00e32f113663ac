package lang

// Language represents a supported programming language.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	Go         Language = "go"
	Rust       Language = "rust"
	Java       Language = "java"
	Kotlin     Language = "kotlin"
	Ruby       Language = "ruby"
	CSharp     Language = "c-sharp"
	PHP        Language = "php"
	C          Language = "c"
	CPP        Language = "cpp"
	Scala      Language = "scala"
)

// AllLanguages returns all supported languages.
func AllLanguages() []Language {
	return []Language{Python, JavaScript, TypeScript, TSX, Go, Rust, Java, Kotlin, Ruby, CSharp, PHP, C, CPP, Scala}
}

// LanguageSpec defines the tree-sitter node types for a language. All
// language-specific grammar knowledge stays behind this boundary; callers
// classify nodes through the Is* helpers instead of matching raw kind strings.
type LanguageSpec struct {
	Language          Language
	FileExtensions    []string
	FunctionNodeTypes []string
	ClassNodeTypes    []string
	FieldNodeTypes    []string // class/struct member declaration node kinds
	ModuleNodeTypes   []string
	CallNodeTypes     []string
	ImportNodeTypes   []string
	// ArgumentNodeTypes lists the argument-list node kinds under call
	// expressions. Extraction recurses into these so identifiers passed as
	// arguments (DSL/builder style) still produce usage edges.
	ArgumentNodeTypes []string
	// IdentifierNodeTypes lists plain identifier leaf node kinds.
	IdentifierNodeTypes []string
	// KindOverrides maps a definition node kind to a symbol kind when the
	// default classification (function/class) is wrong, e.g. Rust
	// "trait_item" -> "trait".
	KindOverrides map[string]string
	// SkipIdentifiers are language keywords that look like identifiers in
	// argument position but never name a symbol (it, match, ...).
	SkipIdentifiers   map[string]bool
	PackageIndicators []string
}

// IsSymbolDefinition reports whether a node kind defines a symbol.
func (s *LanguageSpec) IsSymbolDefinition(kind string) bool {
	return contains(s.FunctionNodeTypes, kind) || contains(s.ClassNodeTypes, kind)
}

// IsCallSite reports whether a node kind is a call expression.
func (s *LanguageSpec) IsCallSite(kind string) bool {
	return contains(s.CallNodeTypes, kind)
}

// IsIdentifierLeaf reports whether a node kind is a bare identifier.
func (s *LanguageSpec) IsIdentifierLeaf(kind string) bool {
	return contains(s.IdentifierNodeTypes, kind)
}

// IsImport reports whether a node kind is an import/use/include declaration.
func (s *LanguageSpec) IsImport(kind string) bool {
	return contains(s.ImportNodeTypes, kind)
}

// IsArgumentList reports whether a node kind is a call argument list.
func (s *LanguageSpec) IsArgumentList(kind string) bool {
	return contains(s.ArgumentNodeTypes, kind)
}

// KindFor maps a definition node kind to the canonical symbol kind string
// ("function", "class", "interface", ...). Returns "" for non-definitions.
func (s *LanguageSpec) KindFor(nodeKind string) string {
	if k, ok := s.KindOverrides[nodeKind]; ok {
		return k
	}
	if contains(s.FunctionNodeTypes, nodeKind) {
		return "function"
	}
	if contains(s.ClassNodeTypes, nodeKind) {
		return "class"
	}
	return ""
}

// SkipArgumentIdentifier reports whether an identifier text must be ignored
// in call-argument position (keywords and literals shared across languages,
// plus per-language additions).
func (s *LanguageSpec) SkipArgumentIdentifier(text string) bool {
	if commonSkipIdentifiers[text] {
		return true
	}
	return s.SkipIdentifiers[text]
}

var commonSkipIdentifiers = map[string]bool{
	"true": true, "false": true, "null": true, "nil": true, "None": true,
	"True": true, "False": true, "this": true, "self": true, "super": true,
	"undefined": true,
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// registry maps file extensions to language specs.
var registry = map[string]*LanguageSpec{}

// Register adds a LanguageSpec to the global registry.
func Register(spec *LanguageSpec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForExtension returns the LanguageSpec for a file extension (e.g. ".go").
func ForExtension(ext string) *LanguageSpec {
	return registry[ext]
}

// ForLanguage returns the LanguageSpec for a language.
func ForLanguage(lang Language) *LanguageSpec {
	for _, spec := range registry {
		if spec.Language == lang {
			return spec
		}
	}
	return nil
}

// LanguageForExtension returns the Language for a file extension.
func LanguageForExtension(ext string) (Language, bool) {
	spec := registry[ext]
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}
