package lang

func init() {
	Register(&LanguageSpec{
		Language:       JavaScript,
		FileExtensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		FunctionNodeTypes: []string{
			"function_declaration",
			"generator_function_declaration",
			"function_expression",
			"arrow_function",
			"method_definition",
		},
		ClassNodeTypes:      []string{"class_declaration", "class"},
		FieldNodeTypes:      []string{"field_definition"},
		ModuleNodeTypes:     []string{"program"},
		CallNodeTypes:       []string{"call_expression", "new_expression"},
		ImportNodeTypes:     []string{"import_statement"},
		ArgumentNodeTypes:   []string{"arguments"},
		IdentifierNodeTypes: []string{"identifier"},
	})
}
