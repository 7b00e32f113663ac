package pipeline

import (
	"context"
	"testing"

	"github.com/voyantlabs/codegraph/internal/lang"
	"github.com/voyantlabs/codegraph/internal/parser"
	"github.com/voyantlabs/codegraph/internal/store"
)

func TestExtractPythonSymbols(t *testing.T) {
	source := []byte(`class OrderService:
    def create(self, payload):
        pass

def run():
    pass
`)
	ext, err := extractFile(context.Background(), "svc/orders.py", lang.Python, source)
	if err != nil {
		t.Fatalf("extractFile: %v", err)
	}

	byQN := map[string]*store.Symbol{}
	for _, s := range ext.Symbols {
		byQN[s.QualifiedName] = s
	}
	if byQN["svc.orders"] == nil || byQN["svc.orders"].Kind != store.KindModule {
		t.Errorf("module symbol missing: %v", byQN)
	}
	cls := byQN["svc.orders.OrderService"]
	if cls == nil || cls.Kind != store.KindClass {
		t.Fatalf("class symbol: %+v", cls)
	}
	create := byQN["svc.orders.OrderService.create"]
	if create == nil || create.Kind != store.KindMethod {
		t.Fatalf("method symbol: %+v", create)
	}
	if create.Signature != "(self, payload)" {
		t.Errorf("signature = %q", create.Signature)
	}
	if ext.Parents["svc.orders.OrderService.create"] != "svc.orders.OrderService" {
		t.Errorf("parents: %v", ext.Parents)
	}
	run := byQN["svc.orders.run"]
	if run == nil || run.Kind != store.KindFunction {
		t.Fatalf("function symbol: %+v", run)
	}
	if run.StartLine != 5 {
		t.Errorf("run start line = %d, want 5", run.StartLine)
	}
}

func TestExtractCallAndImportRefs(t *testing.T) {
	source := []byte(`from billing import charge

def run(order):
    charge(order)
`)
	ext, err := extractFile(context.Background(), "app.py", lang.Python, source)
	if err != nil {
		t.Fatal(err)
	}

	var call *rawRef
	for i := range ext.Refs {
		if ext.Refs[i].Type == store.RefCall && ext.Refs[i].TargetName == "charge" {
			call = &ext.Refs[i]
		}
	}
	if call == nil {
		t.Fatalf("no CALL ref: %+v", ext.Refs)
	}
	if call.SourceQN != "app.run" {
		t.Errorf("call source = %q", call.SourceQN)
	}
	if call.PathHint != "billing" {
		t.Errorf("call hint = %q, want billing", call.PathHint)
	}
}

func TestExtractGoReceiverHint(t *testing.T) {
	source := []byte(`package main

import "shop/internal/billing"

type Server struct {
	payments billing.Client
}

func (s *Server) handle() {
	billing.Charge()
}
`)
	ext, err := extractFile(context.Background(), "cmd/server/main.go", lang.Go, source)
	if err != nil {
		t.Fatal(err)
	}
	var call *rawRef
	for i := range ext.Refs {
		if ext.Refs[i].Type == store.RefCall && ext.Refs[i].TargetName == "Charge" {
			call = &ext.Refs[i]
		}
	}
	if call == nil {
		t.Fatalf("no CALL ref: %+v", ext.Refs)
	}
	if call.PathHint != "shop.internal.billing" {
		t.Errorf("hint = %q, want shop.internal.billing", call.PathHint)
	}
}

func TestBuildImportMap(t *testing.T) {
	tests := []struct {
		name     string
		language lang.Language
		source   string
		local    string
		want     string
	}{
		{"python from", lang.Python, "from services.user import get_user\n", "get_user", "services.user.get_user"},
		{"python alias", lang.Python, "import numpy as np\n", "np", "numpy"},
		{"go grouped", lang.Go, "package a\nimport (\n\t\"net/http\"\n)\n", "http", "net.http"},
		{"java", lang.Java, "import com.shop.fraud.FraudProcessor;\n", "FraudProcessor", "com.shop.fraud.FraudProcessor"},
		{"kotlin alias", lang.Kotlin, "import com.shop.fraud.FraudProcessor as FP\n", "FP", "com.shop.fraud.FraudProcessor"},
		{"js named", lang.JavaScript, "import { getUser } from './services/user';\n", "getUser", "services.user.getUser"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := lang.ForLanguage(tt.language)
			tree, err := parser.Parse(context.Background(), tt.language, []byte(tt.source))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			defer tree.Close()
			imports := buildImportMap(tree.RootNode(), []byte(tt.source), tt.language, spec)
			if imports[tt.local] != tt.want {
				t.Errorf("imports[%q] = %q, want %q (all: %v)", tt.local, imports[tt.local], tt.want, imports)
			}
		})
	}
}

func TestHintForImport(t *testing.T) {
	tests := []struct{ path, name, want string }{
		{"utils.helper", "helper", "utils"},
		{"com.shop.fraud.FraudProcessor", "FraudProcessor", "com.shop.fraud"},
		{"utils", "utils", "utils"},
		{"numpy", "np", "numpy"},
	}
	for _, tt := range tests {
		if got := hintForImport(tt.path, tt.name); got != tt.want {
			t.Errorf("hintForImport(%q, %q) = %q, want %q", tt.path, tt.name, got, tt.want)
		}
	}
}

func TestBaseTypeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"FraudProcessor", "FraudProcessor"},
		{"FraudProcessor?", "FraudProcessor"},
		{"List<Order>", "List"},
		{"*billing.Client", "Client"},
	}
	for _, tt := range tests {
		if got := baseTypeName(tt.in); got != tt.want {
			t.Errorf("baseTypeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
