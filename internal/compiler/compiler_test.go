package compiler

import (
	"testing"

	"graphvm/internal/bytecode"
	"graphvm/internal/graph"
	"graphvm/internal/heap"
)

func compile(nodes graph.NodeMap) (*heap.FunctionObj, *OutputTracker) {
	ast := graph.Build(nodes)
	c := New(ast, heap.NewHeap())
	return c.Compile()
}

func TestCompileConstEmitsDefineGlobalAndOutput(t *testing.T) {
	fn, tracker := compile(graph.NodeMap{
		"a": {ID: "a", Kind: graph.KindConst, Value: graph.Number(1)},
	})
	if tracker.Diagnostics().HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", tracker.Diagnostics())
	}
	if len(tracker.Nodes()) != 1 || tracker.Nodes()[0] != "a" {
		t.Fatalf("expected node a registered for output, got %v", tracker.Nodes())
	}
	ops := opcodesOf(fn.Chunk)
	if !containsOp(ops, bytecode.OpDefineGlobal) || !containsOp(ops, bytecode.OpOutput) {
		t.Fatalf("expected DEFINE_GLOBAL and OUTPUT in chunk, got %v", ops)
	}
}

func TestCompileDetectsSelfCycle(t *testing.T) {
	_, tracker := compile(graph.NodeMap{
		"a": {ID: "a", Kind: graph.KindVariableDefinition, Body: "a"},
	})
	diags := tracker.Diagnostics()
	if _, ok := diags.NodeErrors["a"]; !ok {
		t.Fatalf("expected a cycle NodeError for a, got %+v", diags)
	}
}

func TestCompileMissingOperandIsNodeError(t *testing.T) {
	// A Unary/Binary operand must exist in the document at compile
	// time (unlike a VariableReference, which may legitimately name a
	// native function resolved only at runtime).
	_, tracker := compile(graph.NodeMap{
		"neg": {ID: "neg", Kind: graph.KindUnary, UnaryOp: graph.UnaryNegate, Operands: []string{"missing"}},
	})
	if !tracker.Diagnostics().HasErrors() {
		t.Fatalf("expected an error for a unary operand that doesn't exist")
	}
}

func TestCompileVariableReferenceToNativeNameCompilesCleanly(t *testing.T) {
	// A VariableReference's target need not exist as a document node —
	// it may name a native function bound only at runtime.
	_, tracker := compile(graph.NodeMap{
		"ref": {ID: "ref", Kind: graph.KindVariableReference, RefID: "clock"},
	})
	if tracker.Diagnostics().HasErrors() {
		t.Fatalf("unexpected diagnostics referencing a native name: %+v", tracker.Diagnostics())
	}
}

func TestCompileFunctionDefinitionNestsChunk(t *testing.T) {
	fn, tracker := compile(graph.NodeMap{
		"p":    {ID: "p", Kind: graph.KindParam},
		"body": {ID: "body", Kind: graph.KindUnary, UnaryOp: graph.UnaryNot, Operands: []string{"p"}},
		"fn":   {ID: "fn", Kind: graph.KindFunctionDefinition, Body: "body"},
	})
	if tracker.Diagnostics().HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", tracker.Diagnostics())
	}
	ops := opcodesOf(fn.Chunk)
	if !containsOp(ops, bytecode.OpFunction) {
		t.Fatalf("expected the top-level chunk to load a Function constant, got %v", ops)
	}
	nested, ok := findFunctionConstant(fn.Chunk)
	if !ok {
		t.Fatalf("expected a nested FunctionObj constant")
	}
	if nested.Arity != 1 {
		t.Fatalf("expected nested function arity 1, got %d", nested.Arity)
	}
}

func TestCompileOutputSkippedInsideParameterizedFunction(t *testing.T) {
	// A VariableReference reached from inside a parameterized function
	// body must not register an output preview (only the
	// unparameterized top level does); the global it references still
	// does.
	_, tracker := compile(graph.NodeMap{
		"gval": {ID: "gval", Kind: graph.KindLiteral, Value: graph.Number(5)},
		"g":    {ID: "g", Kind: graph.KindVariableDefinition, Body: "gval"},
		"p":    {ID: "p", Kind: graph.KindParam},
		"ref":  {ID: "ref", Kind: graph.KindVariableReference, RefID: "g"},
		"body": {ID: "body", Kind: graph.KindBinary, BinaryOp: graph.BinarySubtract, Operands: []string{"p", "ref"}},
		"fn":   {ID: "fn", Kind: graph.KindFunctionDefinition, Body: "body"},
	})
	if tracker.Diagnostics().HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", tracker.Diagnostics())
	}
	if len(tracker.Nodes()) != 1 || tracker.Nodes()[0] != "g" {
		t.Fatalf("expected only the top-level global g to register an output, got %v", tracker.Nodes())
	}
}

func opcodesOf(chunk *bytecode.Chunk) []bytecode.OpCode {
	var ops []bytecode.OpCode
	ip := 0
	for ip < len(chunk.Code) {
		op := bytecode.OpCode(chunk.Code[ip])
		ops = append(ops, op)
		switch op {
		case bytecode.OpConstant, bytecode.OpFunction, bytecode.OpDefineGlobal,
			bytecode.OpGetGlobal, bytecode.OpGetLocal, bytecode.OpCall, bytecode.OpOutput:
			ip += 2
		default:
			ip++
		}
	}
	return ops
}

func containsOp(ops []bytecode.OpCode, want bytecode.OpCode) bool {
	for _, op := range ops {
		if op == want {
			return true
		}
	}
	return false
}

func findFunctionConstant(chunk *bytecode.Chunk) (*heap.FunctionObj, bool) {
	for _, c := range chunk.Constants {
		if v, ok := c.(heap.Value); ok && v.Kind == heap.ValFunction {
			return v.AsFunction(), true
		}
	}
	return nil, false
}
