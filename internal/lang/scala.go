package lang

func init() {
	Register(&LanguageSpec{
		Language:          Scala,
		FileExtensions:    []string{".scala", ".sc"},
		FunctionNodeTypes: []string{"function_definition", "function_declaration"},
		ClassNodeTypes: []string{
			"class_definition",
			"object_definition",
			"trait_definition",
		},
		FieldNodeTypes:      []string{"val_definition", "var_definition"},
		ModuleNodeTypes:     []string{"compilation_unit"},
		CallNodeTypes:       []string{"call_expression"},
		ImportNodeTypes:     []string{"import_declaration"},
		ArgumentNodeTypes:   []string{"arguments"},
		IdentifierNodeTypes: []string{"identifier"},
		KindOverrides: map[string]string{
			"trait_definition": "trait",
		},
	})
}
