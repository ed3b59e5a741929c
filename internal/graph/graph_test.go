package graph

import "testing"

func TestBuildRootsExcludesConsumedNodes(t *testing.T) {
	nodes := NodeMap{
		"a": {ID: "a", Kind: KindLiteral, Value: Number(1)},
		"b": {ID: "b", Kind: KindUnary, UnaryOp: UnaryNegate, Operands: []string{"a"}},
	}
	ast := Build(nodes)
	roots := ast.Roots()
	if len(roots) != 1 || roots[0] != "b" {
		t.Fatalf("expected only %q as root, got %v", "b", roots)
	}
}

func TestBuildRootsKeepsDependencyOnlyEdges(t *testing.T) {
	// A VariableReference depends on its target but doesn't consume it
	// as an argument, so the target stays a root (spec: dependency edges
	// never disqualify a node from being a root).
	nodes := NodeMap{
		"v":   {ID: "v", Kind: KindVariableDefinition, Body: "lit"},
		"lit": {ID: "lit", Kind: KindLiteral, Value: Number(1)},
		"ref": {ID: "ref", Kind: KindVariableReference, RefID: "v"},
	}
	ast := Build(nodes)
	roots := ast.Roots()
	rootSet := map[string]bool{}
	for _, id := range roots {
		rootSet[id] = true
	}
	if !rootSet["v"] || !rootSet["ref"] {
		t.Fatalf("expected v and ref to both be roots, got %v", roots)
	}
	if rootSet["lit"] {
		t.Fatalf("expected lit to be excluded (consumed as v's body), got %v", roots)
	}
}

func TestBuildArityCountsDistinctParams(t *testing.T) {
	nodes := NodeMap{
		"p1": {ID: "p1", Kind: KindParam},
		"p2": {ID: "p2", Kind: KindParam},
		"add": {
			ID: "add", Kind: KindBinary, BinaryOp: BinarySubtract,
			Operands: []string{"p1", "p2"},
		},
		"fn": {ID: "fn", Kind: KindFunctionDefinition, Body: "add"},
	}
	ast := Build(nodes)
	if got := ast.GetArity("fn"); got != 2 {
		t.Fatalf("expected arity 2, got %d", got)
	}
}

func TestBuildArityHandlesSelfReferencingParam(t *testing.T) {
	// A Param node reached twice through shared sub-expressions must
	// only be counted once.
	nodes := NodeMap{
		"p": {ID: "p", Kind: KindParam},
		"neg": {
			ID: "neg", Kind: KindUnary, UnaryOp: UnaryNegate,
			Operands: []string{"p"},
		},
		"sum": {
			ID: "sum", Kind: KindBinary, BinaryOp: BinarySubtract,
			Operands: []string{"p", "neg"},
		},
		"fn": {ID: "fn", Kind: KindFunctionDefinition, Body: "sum"},
	}
	ast := Build(nodes)
	if got := ast.GetArity("fn"); got != 1 {
		t.Fatalf("expected arity 1 (p counted once), got %d", got)
	}
}

func TestArgEdgesPerKind(t *testing.T) {
	call := &Node{Kind: KindFunctionCall, CalleeID: "f", Args: []string{"x", "y"}}
	if got := call.ArgEdges(); len(got) != 2 {
		t.Fatalf("expected call ArgEdges to be its Args, got %v", got)
	}
	if got := call.DependencyEdges(); len(got) != 1 || got[0] != "f" {
		t.Fatalf("expected call DependencyEdges to be [callee], got %v", got)
	}

	ref := &Node{Kind: KindVariableReference, RefID: "v"}
	if got := ref.DependencyEdges(); len(got) != 1 || got[0] != "v" {
		t.Fatalf("expected reference DependencyEdges to be [v], got %v", got)
	}
	if got := ref.ArgEdges(); got != nil {
		t.Fatalf("expected reference to have no ArgEdges, got %v", got)
	}
}

func TestIsDefinition(t *testing.T) {
	defs := []NodeKind{KindFunctionDefinition, KindVariableDefinition, KindConst}
	for _, k := range defs {
		n := &Node{Kind: k}
		if !n.IsDefinition() {
			t.Fatalf("expected kind %d to be a definition", k)
		}
	}
	n := &Node{Kind: KindLiteral}
	if n.IsDefinition() {
		t.Fatalf("expected a literal to not be a definition")
	}
}

func TestGetNodeMissingID(t *testing.T) {
	ast := Build(NodeMap{})
	if _, ok := ast.GetNode("missing"); ok {
		t.Fatalf("expected GetNode to report false for an unknown id")
	}
}
