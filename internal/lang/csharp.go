package lang

func init() {
	Register(&LanguageSpec{
		Language:       CSharp,
		FileExtensions: []string{".cs"},
		FunctionNodeTypes: []string{
			"method_declaration",
			"constructor_declaration",
			"local_function_statement",
			"destructor_declaration",
		},
		ClassNodeTypes: []string{
			"class_declaration",
			"struct_declaration",
			"enum_declaration",
			"interface_declaration",
			"record_declaration",
		},
		FieldNodeTypes:      []string{"field_declaration", "property_declaration"},
		ModuleNodeTypes:     []string{"compilation_unit"},
		CallNodeTypes:       []string{"invocation_expression", "object_creation_expression"},
		ImportNodeTypes:     []string{"using_directive"},
		ArgumentNodeTypes:   []string{"argument_list"},
		IdentifierNodeTypes: []string{"identifier"},
		KindOverrides: map[string]string{
			"struct_declaration":    "struct",
			"enum_declaration":      "enum",
			"interface_declaration": "interface",
		},
	})
}
