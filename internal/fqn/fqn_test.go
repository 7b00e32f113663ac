package fqn

import "testing"

func TestCompute(t *testing.T) {
	tests := []struct {
		relPath   string
		enclosing string
		name      string
		want      string
	}{
		{"routes/user.py", "", "get_user", "routes.user.get_user"},
		{"routes/__init__.py", "", "setup", "routes.setup"},
		{"src/index.ts", "", "handler", "src.handler"},
		{"com/shop/fraud/FraudProcessor.kt", "FraudProcessor", "process", "com.shop.fraud.FraudProcessor.FraudProcessor.process"},
		{"main.go", "", "main", "main.main"},
		{"a/b/c.rs", "Widget", "new", "a.b.c.Widget.new"},
	}
	for _, tt := range tests {
		got := Compute(tt.relPath, tt.enclosing, tt.name)
		if got != tt.want {
			t.Errorf("Compute(%q, %q, %q) = %q, want %q", tt.relPath, tt.enclosing, tt.name, got, tt.want)
		}
	}
}

func TestModuleQN(t *testing.T) {
	if got := ModuleQN("pkg/util/helpers.py"); got != "pkg.util.helpers" {
		t.Errorf("ModuleQN = %q", got)
	}
}

func TestPackageQN(t *testing.T) {
	if got := PackageQN("pkg/util/helpers.py"); got != "pkg.util" {
		t.Errorf("PackageQN = %q", got)
	}
	if got := PackageQN("main.py"); got != "" {
		t.Errorf("PackageQN root = %q, want empty", got)
	}
}

func TestPathPattern(t *testing.T) {
	if got := PathPattern("com.shop.fraud"); got != "com/shop/fraud" {
		t.Errorf("PathPattern = %q", got)
	}
}
