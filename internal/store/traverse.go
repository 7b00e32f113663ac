package store

import "database/sql"

// Traversal bounds. DefaultMaxDepth applies when callers pass 0; depth is
// clamped to MaxTraversalDepth so traversal always terminates with a bounded
// result size.
const (
	DefaultMaxDepth   = 5
	MaxTraversalDepth = 12
	DefaultMaxResults = 200
)

// GraphNode is one visited symbol in a traversal, tagged with the depth at
// which it was first reached. External (unresolved) targets appear as leaf
// nodes with SymbolID 0 and no file path.
type GraphNode struct {
	SymbolID      int64
	Name          string
	QualifiedName string
	Kind          string
	FilePath      string
	Signature     string
	SourceCode    string
	Depth         int
	ReferenceType string
	IsExternal    bool
}

// TraverseResult holds BFS traversal results.
type TraverseResult struct {
	Root       *Symbol
	RootPath   string
	Nodes      []*GraphNode
	TotalCount int
}

type bfsItem struct {
	symbolID int64
	depth    int
}

// Downstream returns the symbols reachable from symbolID by following
// outgoing references breadth-first. Each symbol id is emitted at most once
// (first reach wins, which also makes cycles safe); unresolved targets are
// emitted as external leaves and never expanded.
func (s *Store) Downstream(symbolID int64, maxDepth, maxResults int) (*TraverseResult, error) {
	maxDepth, maxResults = clampBounds(maxDepth, maxResults)

	root, err := s.GetSymbol(symbolID)
	if err != nil || root == nil {
		return nil, err
	}
	rootPath, err := s.SymbolFilePath(symbolID)
	if err != nil {
		return nil, err
	}

	result := &TraverseResult{Root: root, RootPath: rootPath}
	seen := map[int64]bool{symbolID: true}
	seenExternal := map[string]bool{}
	queue := []bfsItem{{symbolID, 0}}

	for len(queue) > 0 && len(result.Nodes) < maxResults {
		item := queue[0]
		queue = queue[1:]

		if item.depth >= maxDepth {
			continue
		}

		refs, err := s.FindRefsBySource(item.symbolID)
		if err != nil {
			return nil, err
		}
		for _, r := range refs {
			if len(result.Nodes) >= maxResults {
				break
			}
			if r.TargetID == 0 {
				// External leaf: name and reference type only.
				key := r.TargetName + "/" + r.Type
				if seenExternal[key] {
					continue
				}
				seenExternal[key] = true
				result.Nodes = append(result.Nodes, &GraphNode{
					Name:          r.TargetName,
					Depth:         item.depth + 1,
					ReferenceType: r.Type,
					IsExternal:    true,
				})
				continue
			}
			if seen[r.TargetID] {
				continue
			}
			seen[r.TargetID] = true
			node, err := s.graphNode(r.TargetID, item.depth+1, r.Type)
			if err != nil {
				return nil, err
			}
			if node == nil {
				continue
			}
			result.Nodes = append(result.Nodes, node)
			queue = append(queue, bfsItem{r.TargetID, item.depth + 1})
		}
	}

	result.TotalCount = len(result.Nodes)
	return result, nil
}

// Upstream returns the symbols that reach symbolID by following incoming
// references breadth-first. Only resolved references participate; external
// callers are unknowable by construction.
func (s *Store) Upstream(symbolID int64, maxDepth, maxResults int) (*TraverseResult, error) {
	maxDepth, maxResults = clampBounds(maxDepth, maxResults)

	root, err := s.GetSymbol(symbolID)
	if err != nil || root == nil {
		return nil, err
	}
	rootPath, err := s.SymbolFilePath(symbolID)
	if err != nil {
		return nil, err
	}

	result := &TraverseResult{Root: root, RootPath: rootPath}
	seen := map[int64]bool{symbolID: true}
	queue := []bfsItem{{symbolID, 0}}

	for len(queue) > 0 && len(result.Nodes) < maxResults {
		item := queue[0]
		queue = queue[1:]

		if item.depth >= maxDepth {
			continue
		}

		refs, err := s.FindRefsByTarget(item.symbolID)
		if err != nil {
			return nil, err
		}
		for _, r := range refs {
			if len(result.Nodes) >= maxResults {
				break
			}
			if seen[r.SourceID] {
				continue
			}
			seen[r.SourceID] = true
			node, err := s.graphNode(r.SourceID, item.depth+1, r.Type)
			if err != nil {
				return nil, err
			}
			if node == nil {
				continue
			}
			result.Nodes = append(result.Nodes, node)
			queue = append(queue, bfsItem{r.SourceID, item.depth + 1})
		}
	}

	result.TotalCount = len(result.Nodes)
	return result, nil
}

// graphNode loads a symbol with its file path as a traversal node.
func (s *Store) graphNode(symbolID int64, depth int, refType string) (*GraphNode, error) {
	var n GraphNode
	err := s.q.QueryRow(`
		SELECT sy.id, sy.name, sy.qualified_name, sy.kind, f.rel_path, sy.signature, sy.source_code
		FROM symbols sy JOIN files f ON f.id = sy.file_id
		WHERE sy.id=?`, symbolID).
		Scan(&n.SymbolID, &n.Name, &n.QualifiedName, &n.Kind, &n.FilePath, &n.Signature, &n.SourceCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	n.Depth = depth
	n.ReferenceType = refType
	return &n, nil
}

func clampBounds(maxDepth, maxResults int) (int, int) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if maxDepth > MaxTraversalDepth {
		maxDepth = MaxTraversalDepth
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return maxDepth, maxResults
}
