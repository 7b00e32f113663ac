package pipeline

import (
	"strings"

	"github.com/voyantlabs/codegraph/internal/store"
)

// index maps one file's freshly stored symbols for in-file reference
// resolution: exact qualified names plus a bare-name reverse lookup.
// Cross-file targets are left to the SQL resolution pass.
type index struct {
	exact  map[string]*store.Symbol
	byName map[string][]string
}

func newIndex(symbols []*store.Symbol) *index {
	idx := &index{
		exact:  make(map[string]*store.Symbol, len(symbols)),
		byName: make(map[string][]string),
	}
	for _, sym := range symbols {
		idx.exact[sym.QualifiedName] = sym
		idx.byName[sym.Name] = append(idx.byName[sym.Name], sym.QualifiedName)
	}
	return idx
}

// ID returns the stored id for a qualified name, 0 when absent.
func (idx *index) ID(qn string) int64 {
	if sym, ok := idx.exact[qn]; ok {
		return sym.ID
	}
	return 0
}

// Resolve finds the qualified name of a callee within this file, trying in
// order: exact qualified match, module-scoped match, enclosing-type match for
// receiver.method calls, then a unique bare-name match. Returns "" when the
// callee is not defined here.
func (idx *index) Resolve(callee, moduleQN string) string {
	if callee == "" {
		return ""
	}
	if _, ok := idx.exact[callee]; ok {
		return callee
	}
	if qn := moduleQN + "." + callee; idx.has(qn) {
		return qn
	}

	suffix := ""
	if i := strings.Index(callee, "."); i >= 0 {
		suffix = callee[i+1:]
	}
	if suffix != "" {
		if qn := moduleQN + "." + suffix; idx.has(qn) {
			return qn
		}
		// receiver.method where the receiver names a type in this file:
		// Service.handle -> module.Service.handle.
		if receiverQNs, ok := idx.byName[callee[:strings.Index(callee, ".")]]; ok {
			for _, rqn := range receiverQNs {
				if qn := rqn + "." + suffix; idx.has(qn) {
					return qn
				}
			}
		}
	}

	lookup := callee
	if suffix != "" {
		lookup = lastSegment(suffix)
	}
	if candidates := idx.byName[lookup]; len(candidates) == 1 {
		return candidates[0]
	}
	return ""
}

func (idx *index) has(qn string) bool {
	_, ok := idx.exact[qn]
	return ok
}
