// Package document is the JSON front-end for the core: it decodes a
// serialized document into the normalized internal/graph.NodeMap the
// compiler expects (spec §6's "normalized document (input)"), runs it
// through a Vm, and re-encodes the Output the way §6 specifies value
// serialization. Parsing a textual graph-description language into
// this shape is explicitly outside the core; this package only speaks
// the already-normalized wire format.
package document

import (
	"encoding/json"

	"graphvm/internal/errors"
	"graphvm/internal/graph"
	"graphvm/internal/heap"
	"graphvm/internal/vm"
)

// wireNode mirrors the tagged-union node shape the original
// (ast.rs's serde(tag = "type")) document format uses, aliases
// included (fn/var/ref/call) so documents produced by either name
// survive a round trip.
type wireNode struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Value    json.RawMessage `json:"value,omitempty"`
	Args     []string        `json:"args,omitempty"`
	FnNodeID string          `json:"fnNodeId,omitempty"`
	VarNodeID string         `json:"varNodeId,omitempty"`
	UnaryType string         `json:"unaryType,omitempty"`
	BinaryType string        `json:"binaryType,omitempty"`
}

type wireSource struct {
	Nodes []wireNode `json:"nodes"`
}

// Parse decodes a JSON document into the normalized node map the
// compiler consumes.
func Parse(data []byte) (graph.NodeMap, error) {
	var src wireSource
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, errors.Wrap(err, "decoding document")
	}
	nodes := make(graph.NodeMap, len(src.Nodes))
	for _, wn := range src.Nodes {
		n, err := wn.toNode()
		if err != nil {
			return nil, err
		}
		nodes[n.ID] = n
	}
	return nodes, nil
}

func (wn wireNode) toNode() (*graph.Node, error) {
	n := &graph.Node{ID: wn.ID}
	switch wn.Type {
	case "literal":
		n.Kind = graph.KindLiteral
		v, err := decodeLiteral(wn.Value)
		if err != nil {
			return nil, errors.NewNodeError(wn.ID, "%s", err)
		}
		n.Value = v
	case "const":
		n.Kind = graph.KindConst
		v, err := decodeLiteral(wn.Value)
		if err != nil {
			return nil, errors.NewNodeError(wn.ID, "%s", err)
		}
		n.Value = v
	case "functionDefinition", "fn":
		n.Kind = graph.KindFunctionDefinition
		if len(wn.Args) > 0 {
			n.Body = wn.Args[0]
		}
	case "variableDefinition", "var":
		n.Kind = graph.KindVariableDefinition
		if len(wn.Args) > 0 {
			n.Body = wn.Args[0]
		}
	case "variableReference", "ref":
		n.Kind = graph.KindVariableReference
		n.RefID = wn.VarNodeID
	case "functionCall", "call":
		n.Kind = graph.KindFunctionCall
		n.CalleeID = wn.FnNodeID
		n.Args = wn.Args
	case "param":
		n.Kind = graph.KindParam
	case "unary":
		n.Kind = graph.KindUnary
		op, err := decodeUnaryOp(wn.UnaryType)
		if err != nil {
			return nil, errors.NewNodeError(wn.ID, "%s", err)
		}
		n.UnaryOp = op
		n.Operands = wn.Args
	case "binary":
		n.Kind = graph.KindBinary
		op, err := decodeBinaryOp(wn.BinaryType)
		if err != nil {
			return nil, errors.NewNodeError(wn.ID, "%s", err)
		}
		n.BinaryOp = op
		n.Operands = wn.Args
	default:
		return nil, errors.NewNodeError(wn.ID, "unrecognized node type %q", wn.Type)
	}
	return n, nil
}

func decodeUnaryOp(s string) (graph.UnaryOp, error) {
	switch s {
	case "negate":
		return graph.UnaryNegate, nil
	case "not":
		return graph.UnaryNot, nil
	default:
		return "", errors.NewCompileError("unrecognized unary type %q", s)
	}
}

func decodeBinaryOp(s string) (graph.BinaryOp, error) {
	switch s {
	case "subtract", "-":
		return graph.BinarySubtract, nil
	case "divide", "/":
		return graph.BinaryDivide, nil
	case "equals", "==":
		return graph.BinaryEquals, nil
	case "greater", ">":
		return graph.BinaryGreater, nil
	case "less", "<":
		return graph.BinaryLess, nil
	case "not-equals", "!=":
		return graph.BinaryNotEquals, nil
	case "greater-equal", ">=":
		return graph.BinaryGreaterEqual, nil
	case "less-equal", "<=":
		return graph.BinaryLessEqual, nil
	default:
		return "", errors.NewCompileError("unrecognized binary type %q", s)
	}
}

// decodeLiteral converts a raw JSON literal into a graph.Value,
// matching the untagged LiteralType union (bool | nil | number |
// string | list).
func decodeLiteral(raw json.RawMessage) (graph.Value, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return graph.Nil(), nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return graph.Value{}, err
	}
	return fromGo(v)
}

func fromGo(v interface{}) (graph.Value, error) {
	switch t := v.(type) {
	case nil:
		return graph.Nil(), nil
	case bool:
		return graph.Bool(t), nil
	case float64:
		return graph.Number(t), nil
	case string:
		return graph.String(t), nil
	case []interface{}:
		items := make([]graph.Value, 0, len(t))
		for _, elem := range t {
			ev, err := fromGo(elem)
			if err != nil {
				return graph.Value{}, err
			}
			items = append(items, ev)
		}
		return graph.List(items), nil
	default:
		return graph.Value{}, errors.NewCompileError("unrecognized literal JSON value %T", v)
	}
}

// wireOutput is the JSON shape of vm.Output (§6's execution result).
type wireOutput struct {
	NodeValues       map[string]interface{} `json:"node_values"`
	NodeErrors       map[string]string      `json:"node_errors"`
	AdditionalErrors []string               `json:"additional_errors"`
}

// Encode renders a vm.Output the way §6 specifies: bool -> boolean,
// nil -> null, number -> float, string -> string, list -> array
// (recursively), function/native-function -> a textual stand-in.
func Encode(out *vm.Output) ([]byte, error) {
	values := make(map[string]interface{}, len(out.NodeValues))
	for id, v := range out.NodeValues {
		values[id] = toGo(v)
	}
	wo := wireOutput{
		NodeValues:       values,
		NodeErrors:       out.NodeErrors,
		AdditionalErrors: out.AdditionalErrors,
	}
	if wo.NodeErrors == nil {
		wo.NodeErrors = map[string]string{}
	}
	if wo.AdditionalErrors == nil {
		wo.AdditionalErrors = []string{}
	}
	return json.Marshal(wo)
}

func toGo(v heap.Value) interface{} {
	switch v.Kind {
	case heap.ValNil:
		return nil
	case heap.ValBool:
		return v.B
	case heap.ValNumber:
		return v.N
	case heap.ValString:
		return v.AsString().S
	case heap.ValList:
		items := v.AsList().Items
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = toGo(item)
		}
		return out
	case heap.ValFunction, heap.ValNativeFunction:
		return v.Display()
	default:
		return nil
	}
}

// Interpret is the convenience entry point tying the three stages
// together: parse JSON, run it on vm, re-encode the Output as JSON.
func Interpret(v *vm.Vm, data []byte) ([]byte, error) {
	nodes, err := Parse(data)
	if err != nil {
		return nil, err
	}
	out := v.Interpret(nodes)
	return Encode(out)
}
