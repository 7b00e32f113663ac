package lang

func init() {
	Register(&LanguageSpec{
		Language:            Python,
		FileExtensions:      []string{".py"},
		FunctionNodeTypes:   []string{"function_definition"},
		ClassNodeTypes:      []string{"class_definition"},
		ModuleNodeTypes:     []string{"module"},
		CallNodeTypes:       []string{"call"},
		ImportNodeTypes:     []string{"import_statement", "import_from_statement"},
		ArgumentNodeTypes:   []string{"argument_list"},
		IdentifierNodeTypes: []string{"identifier"},
		PackageIndicators:   []string{"__init__.py"},
		SkipIdentifiers:     map[string]bool{"cls": true},
	})
}
