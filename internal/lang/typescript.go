package lang

func init() {
	Register(&LanguageSpec{
		Language:       TypeScript,
		FileExtensions: []string{".ts", ".mts", ".cts"},
		FunctionNodeTypes: []string{
			"function_declaration",
			"generator_function_declaration",
			"function_expression",
			"arrow_function",
			"method_definition",
			"function_signature",
		},
		ClassNodeTypes: []string{
			"class_declaration",
			"class",
			"abstract_class_declaration",
			"enum_declaration",
			"interface_declaration",
		},
		FieldNodeTypes:      []string{"public_field_definition", "property_signature"},
		ModuleNodeTypes:     []string{"program"},
		CallNodeTypes:       []string{"call_expression", "new_expression"},
		ImportNodeTypes:     []string{"import_statement"},
		ArgumentNodeTypes:   []string{"arguments"},
		IdentifierNodeTypes: []string{"identifier"},
		KindOverrides: map[string]string{
			"interface_declaration": "interface",
			"enum_declaration":      "enum",
		},
	})
}
