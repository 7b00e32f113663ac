package lang

import "testing"

func TestForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		lang Language
	}{
		{".py", Python},
		{".go", Go},
		{".js", JavaScript},
		{".ts", TypeScript},
		{".tsx", TSX},
		{".rs", Rust},
		{".java", Java},
		{".kt", Kotlin},
		{".kts", Kotlin},
		{".rb", Ruby},
		{".cs", CSharp},
		{".php", PHP},
		{".c", C},
		{".cpp", CPP},
		{".h", CPP},
		{".scala", Scala},
	}
	for _, tt := range tests {
		spec := ForExtension(tt.ext)
		if spec == nil {
			t.Errorf("ForExtension(%q) = nil, want %s", tt.ext, tt.lang)
			continue
		}
		if spec.Language != tt.lang {
			t.Errorf("ForExtension(%q).Language = %s, want %s", tt.ext, spec.Language, tt.lang)
		}
	}
}

func TestForLanguage(t *testing.T) {
	for _, l := range AllLanguages() {
		spec := ForLanguage(l)
		if spec == nil {
			t.Errorf("ForLanguage(%s) = nil", l)
		}
	}
}

func TestUnknownExtension(t *testing.T) {
	if spec := ForExtension(".xyz"); spec != nil {
		t.Errorf("ForExtension(.xyz) should be nil, got %v", spec)
	}
}

func TestKindFor(t *testing.T) {
	tests := []struct {
		lang Language
		node string
		want string
	}{
		{Java, "method_declaration", "function"},
		{Java, "interface_declaration", "interface"},
		{Java, "enum_declaration", "enum"},
		{Rust, "trait_item", "trait"},
		{Rust, "impl_item", "impl"},
		{Rust, "struct_item", "struct"},
		{Kotlin, "class_declaration", "class"},
		{Kotlin, "function_declaration", "function"},
		{Python, "identifier", ""},
	}
	for _, tt := range tests {
		spec := ForLanguage(tt.lang)
		if spec == nil {
			t.Fatalf("ForLanguage(%s) = nil", tt.lang)
		}
		if got := spec.KindFor(tt.node); got != tt.want {
			t.Errorf("%s KindFor(%s) = %q, want %q", tt.lang, tt.node, got, tt.want)
		}
	}
}

func TestSkipArgumentIdentifier(t *testing.T) {
	kt := ForLanguage(Kotlin)
	for _, w := range []string{"true", "false", "null", "this", "super", "it"} {
		if !kt.SkipArgumentIdentifier(w) {
			t.Errorf("Kotlin should skip %q in argument position", w)
		}
	}
	if kt.SkipArgumentIdentifier("fraudProcessor") {
		t.Error("Kotlin should not skip ordinary identifiers")
	}
}

func TestCanonicalOps(t *testing.T) {
	kt := ForLanguage(Kotlin)
	if !kt.IsSymbolDefinition("function_declaration") {
		t.Error("function_declaration should be a symbol definition")
	}
	if !kt.IsCallSite("call_expression") {
		t.Error("call_expression should be a call site")
	}
	if !kt.IsArgumentList("value_arguments") {
		t.Error("value_arguments should be an argument list")
	}
	if kt.IsSymbolDefinition("call_expression") {
		t.Error("call_expression is not a symbol definition")
	}
}
