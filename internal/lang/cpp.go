package lang

func init() {
	Register(&LanguageSpec{
		Language:       CPP,
		FileExtensions: []string{".cpp", ".hpp", ".cc", ".cxx", ".hxx", ".hh", ".h"},
		FunctionNodeTypes: []string{
			"function_definition",
			"lambda_expression",
		},
		ClassNodeTypes: []string{
			"class_specifier",
			"struct_specifier",
			"union_specifier",
			"enum_specifier",
		},
		FieldNodeTypes:      []string{"field_declaration"},
		ModuleNodeTypes:     []string{"translation_unit", "namespace_definition"},
		CallNodeTypes:       []string{"call_expression", "new_expression"},
		ImportNodeTypes:     []string{"preproc_include"},
		ArgumentNodeTypes:   []string{"argument_list"},
		IdentifierNodeTypes: []string{"identifier"},
		KindOverrides: map[string]string{
			"struct_specifier": "struct",
			"union_specifier":  "struct",
			"enum_specifier":   "enum",
		},
		SkipIdentifiers: map[string]bool{"NULL": true, "nullptr": true},
	})
}
