package document

import (
	"encoding/json"
	"testing"

	"github.com/kr/pretty"

	"graphvm/internal/graph"
	"graphvm/internal/vm"
)

func TestParseLiteralNode(t *testing.T) {
	nodes, err := Parse([]byte(`{"nodes":[{"id":"a","type":"literal","value":42}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := graph.NodeMap{"a": {ID: "a", Kind: graph.KindLiteral, Value: graph.Number(42)}}
	if !nodesEqual(nodes, want) {
		t.Fatalf("node mismatch:\n%s", pretty.Sprint(pretty.Diff(nodes, want)))
	}
}

func TestParseAliasNodeTypes(t *testing.T) {
	nodes, err := Parse([]byte(`{"nodes":[
		{"id":"f","type":"fn","args":["body"]},
		{"id":"body","type":"literal","value":1},
		{"id":"v","type":"var","args":["body"]},
		{"id":"r","type":"ref","varNodeId":"v"},
		{"id":"c","type":"call","fnNodeId":"f","args":[]}
	]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if nodes["f"].Kind != graph.KindFunctionDefinition || nodes["f"].Body != "body" {
		t.Fatalf("fn alias not decoded: %+v", nodes["f"])
	}
	if nodes["v"].Kind != graph.KindVariableDefinition {
		t.Fatalf("var alias not decoded: %+v", nodes["v"])
	}
	if nodes["r"].Kind != graph.KindVariableReference || nodes["r"].RefID != "v" {
		t.Fatalf("ref alias not decoded: %+v", nodes["r"])
	}
	if nodes["c"].Kind != graph.KindFunctionCall || nodes["c"].CalleeID != "f" {
		t.Fatalf("call alias not decoded: %+v", nodes["c"])
	}
}

func TestParseUnrecognizedNodeType(t *testing.T) {
	if _, err := Parse([]byte(`{"nodes":[{"id":"a","type":"bogus"}]}`)); err == nil {
		t.Fatalf("expected an error for an unrecognized node type")
	}
}

func TestParseListLiteral(t *testing.T) {
	nodes, err := Parse([]byte(`{"nodes":[{"id":"a","type":"literal","value":[1,"x",true,null]}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	items := nodes["a"].Value.List()
	if len(items) != 4 {
		t.Fatalf("expected 4 list items, got %d", len(items))
	}
}

func TestInterpretEndToEnd(t *testing.T) {
	target := vm.New(vm.DefaultConfig())
	out, err := Interpret(target, []byte(`{"nodes":[{"id":"a","type":"const","value":42}]}`))
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	var wo wireOutput
	if err := json.Unmarshal(out, &wo); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wo.NodeValues["a"] != float64(42) {
		t.Fatalf("expected a=42, got %+v", wo.NodeValues)
	}
}

func nodesEqual(a, b graph.NodeMap) bool {
	if len(a) != len(b) {
		return false
	}
	for id, n := range a {
		other, ok := b[id]
		if !ok {
			return false
		}
		if n.ID != other.ID || n.Kind != other.Kind {
			return false
		}
		if n.Value.Kind() != other.Value.Kind() || n.Value.Number() != other.Value.Number() {
			return false
		}
	}
	return true
}
