package lang

func init() {
	Register(&LanguageSpec{
		Language:       PHP,
		FileExtensions: []string{".php"},
		FunctionNodeTypes: []string{
			"function_definition",
			"method_declaration",
			"anonymous_function",
			"arrow_function",
		},
		ClassNodeTypes: []string{
			"class_declaration",
			"interface_declaration",
			"enum_declaration",
			"trait_declaration",
		},
		FieldNodeTypes:  []string{"property_declaration"},
		ModuleNodeTypes: []string{"program"},
		CallNodeTypes: []string{
			"function_call_expression",
			"member_call_expression",
			"scoped_call_expression",
			"nullsafe_member_call_expression",
			"object_creation_expression",
		},
		ImportNodeTypes:     []string{"namespace_use_declaration"},
		ArgumentNodeTypes:   []string{"arguments"},
		IdentifierNodeTypes: []string{"name", "variable_name"},
		KindOverrides: map[string]string{
			"interface_declaration": "interface",
			"enum_declaration":      "enum",
			"trait_declaration":     "trait",
		},
	})
}
