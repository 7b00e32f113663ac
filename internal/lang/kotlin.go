package lang

func init() {
	Register(&LanguageSpec{
		Language:       Kotlin,
		FileExtensions: []string{".kt", ".kts"},
		FunctionNodeTypes: []string{
			"function_declaration",
			"secondary_constructor",
			"anonymous_function",
		},
		ClassNodeTypes: []string{
			"class_declaration",
			"object_declaration",
			"companion_object",
		},
		FieldNodeTypes:      []string{"property_declaration"},
		ModuleNodeTypes:     []string{"source_file"},
		CallNodeTypes:       []string{"call_expression"},
		ImportNodeTypes:     []string{"import"},
		ArgumentNodeTypes:   []string{"value_arguments", "annotated_lambda"},
		IdentifierNodeTypes: []string{"identifier", "simple_identifier"},
		SkipIdentifiers:     map[string]bool{"it": true, "field": true},
	})
}
