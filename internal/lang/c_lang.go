package lang

func init() {
	Register(&LanguageSpec{
		Language:            C,
		FileExtensions:      []string{".c"},
		FunctionNodeTypes:   []string{"function_definition"},
		ClassNodeTypes:      []string{"struct_specifier", "enum_specifier", "union_specifier"},
		FieldNodeTypes:      []string{"field_declaration"},
		ModuleNodeTypes:     []string{"translation_unit"},
		CallNodeTypes:       []string{"call_expression"},
		ImportNodeTypes:     []string{"preproc_include"},
		ArgumentNodeTypes:   []string{"argument_list"},
		IdentifierNodeTypes: []string{"identifier"},
		KindOverrides: map[string]string{
			"struct_specifier": "struct",
			"enum_specifier":   "enum",
			"union_specifier":  "struct",
		},
		SkipIdentifiers: map[string]bool{"NULL": true},
	})
}
