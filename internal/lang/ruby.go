package lang

func init() {
	Register(&LanguageSpec{
		Language:       Ruby,
		FileExtensions: []string{".rb", ".rake"},
		FunctionNodeTypes: []string{
			"method",
			"singleton_method",
		},
		ClassNodeTypes:      []string{"class", "module"},
		ModuleNodeTypes:     []string{"program"},
		CallNodeTypes:       []string{"call"},
		ImportNodeTypes:     []string{},
		ArgumentNodeTypes:   []string{"argument_list"},
		IdentifierNodeTypes: []string{"identifier", "constant"},
		KindOverrides: map[string]string{
			"module": "module",
		},
	})
}
