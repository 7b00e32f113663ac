package lang

func init() {
	Register(&LanguageSpec{
		Language:            Go,
		FileExtensions:      []string{".go"},
		FunctionNodeTypes:   []string{"function_declaration", "method_declaration"},
		ClassNodeTypes:      []string{"type_spec"},
		FieldNodeTypes:      []string{"field_declaration"},
		ModuleNodeTypes:     []string{"source_file"},
		CallNodeTypes:       []string{"call_expression"},
		ImportNodeTypes:     []string{"import_declaration"},
		ArgumentNodeTypes:   []string{"argument_list"},
		IdentifierNodeTypes: []string{"identifier"},
		KindOverrides: map[string]string{
			"type_spec": "struct",
		},
		SkipIdentifiers: map[string]bool{"iota": true},
	})
}
