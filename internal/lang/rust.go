package lang

func init() {
	Register(&LanguageSpec{
		Language:       Rust,
		FileExtensions: []string{".rs"},
		FunctionNodeTypes: []string{
			"function_item",
			"function_signature_item",
		},
		ClassNodeTypes: []string{
			"struct_item",
			"enum_item",
			"union_item",
			"trait_item",
			"impl_item",
		},
		FieldNodeTypes:      []string{"field_declaration"},
		ModuleNodeTypes:     []string{"source_file", "mod_item"},
		CallNodeTypes:       []string{"call_expression", "macro_invocation"},
		ImportNodeTypes:     []string{"use_declaration"},
		ArgumentNodeTypes:   []string{"arguments", "token_tree"},
		IdentifierNodeTypes: []string{"identifier"},
		KindOverrides: map[string]string{
			"struct_item": "struct",
			"enum_item":   "enum",
			"trait_item":  "trait",
			"impl_item":   "impl",
			"union_item":  "struct",
		},
		PackageIndicators: []string{"Cargo.toml"},
		SkipIdentifiers:   map[string]bool{"Some": true, "Ok": true, "Err": true},
	})
}
