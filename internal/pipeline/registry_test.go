package pipeline

import (
	"testing"

	"github.com/voyantlabs/codegraph/internal/store"
)

func testIndex() *index {
	return newIndex([]*store.Symbol{
		{ID: 1, Name: "orders", QualifiedName: "svc.orders"},
		{ID: 2, Name: "OrderService", QualifiedName: "svc.orders.OrderService"},
		{ID: 3, Name: "create", QualifiedName: "svc.orders.OrderService.create"},
		{ID: 4, Name: "validate", QualifiedName: "svc.orders.OrderService.validate"},
		{ID: 5, Name: "run", QualifiedName: "svc.orders.run"},
	})
}

func TestIndexResolve(t *testing.T) {
	idx := testIndex()
	tests := []struct {
		name   string
		callee string
		want   string
	}{
		{"exact qualified", "svc.orders.OrderService.create", "svc.orders.OrderService.create"},
		{"module scoped", "run", "svc.orders.run"},
		{"module scoped dotted", "OrderService.create", "svc.orders.OrderService.create"},
		{"receiver type", "OrderService.validate", "svc.orders.OrderService.validate"},
		{"unique bare name", "validate", "svc.orders.OrderService.validate"},
		{"self call suffix", "self.validate", "svc.orders.OrderService.validate"},
		{"unknown", "delete", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idx.Resolve(tt.callee, "svc.orders"); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.callee, got, tt.want)
			}
		})
	}
}

func TestIndexResolveAmbiguousName(t *testing.T) {
	idx := newIndex([]*store.Symbol{
		{ID: 1, Name: "handle", QualifiedName: "app.A.handle"},
		{ID: 2, Name: "handle", QualifiedName: "app.B.handle"},
	})
	if got := idx.Resolve("handle", "app"); got != "" {
		t.Errorf("ambiguous bare name resolved to %q, want no match", got)
	}
}

func TestIndexID(t *testing.T) {
	idx := testIndex()
	if got := idx.ID("svc.orders.run"); got != 5 {
		t.Errorf("ID = %d, want 5", got)
	}
	if got := idx.ID("missing"); got != 0 {
		t.Errorf("ID for missing = %d, want 0", got)
	}
}
