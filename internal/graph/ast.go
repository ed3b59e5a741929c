package graph

import "golang.org/x/exp/maps"

// Ast is the analysis view over a normalized document: the node map,
// computed function arities, and the set of root nodes. See spec §4.1.
type Ast struct {
	nodes   NodeMap
	arities map[string]int
	roots   map[string]struct{}
}

// Build indexes node_map, computing each function definition's arity and
// the set of root nodes (nodes not consumed as an argument by any other
// node). Dependency edges never disqualify a node from being a root.
func Build(nodes NodeMap) *Ast {
	ast := &Ast{
		nodes:   nodes,
		arities: make(map[string]int),
		roots:   make(map[string]struct{}, len(nodes)),
	}
	for id := range nodes {
		ast.roots[id] = struct{}{}
	}
	for _, n := range nodes {
		for _, arg := range n.ArgEdges() {
			delete(ast.roots, arg)
		}
	}
	for id, n := range nodes {
		if n.Kind == KindFunctionDefinition {
			ast.arities[id] = countParams(nodes, n.Body, make(map[string]bool))
		}
	}
	return ast
}

// countParams walks arg-edges from id, counting distinct Param nodes
// reached. Traversal is structural (a visited-set keyed by node id), so
// the result never depends on iteration order. A missing child is
// silently ignored — the compiler surfaces a proper error for it later.
func countParams(nodes NodeMap, id string, seen map[string]bool) int {
	if id == "" || seen[id] {
		return 0
	}
	seen[id] = true
	n, ok := nodes[id]
	if !ok {
		return 0
	}
	count := 0
	if n.Kind == KindParam {
		count = 1
	}
	for _, child := range n.ArgEdges() {
		count += countParams(nodes, child, seen)
	}
	return count
}

// GetNode looks up a node by id.
func (a *Ast) GetNode(id string) (*Node, bool) {
	n, ok := a.nodes[id]
	return n, ok
}

// GetArity returns the arity of a function-definition node (0 if id is
// not a known function definition).
func (a *Ast) GetArity(fnID string) int {
	return a.arities[fnID]
}

// Roots returns the root node ids, stably ordered for deterministic
// compilation (map iteration order is not).
func (a *Ast) Roots() []string {
	ids := maps.Keys(a.roots)
	sortStrings(ids)
	return ids
}

// IsRoot reports whether id is a root node.
func (a *Ast) IsRoot(id string) bool {
	_, ok := a.roots[id]
	return ok
}

// Nodes exposes the underlying node map for iteration by callers that
// need every node, not just roots (e.g. the compiler's pass over
// nodes no root reaches).
func (a *Ast) Nodes() NodeMap { return a.nodes }

func sortStrings(ss []string) {
	// Small, allocation-free insertion sort: node counts per document are
	// modest and this avoids pulling in sort for a handful of strings at
	// a callsite that runs once per compile.
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}
