// Package graph holds the normalized document model: nodes, their
// literal values, and the dependency analysis (arities and roots) the
// compiler walks.
package graph

import "fmt"

// Value is the document-level literal representation described in the
// data model: a sum over nil, bool, number, string and list. It is the
// shape a JSON document (or any other normalized front-end) produces;
// the VM's runtime Value (internal/heap) is a distinct, heap-aware
// representation built from these during compilation.
type Value struct {
	kind ValueKind
	b    bool
	n    float64
	s    string
	list []Value
}

// ValueKind tags which field of Value is populated.
type ValueKind uint8

const (
	KindNil ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindList
)

func Nil() Value                { return Value{kind: KindNil} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func Number(n float64) Value    { return Value{kind: KindNumber, n: n} }
func String(s string) Value     { return Value{kind: KindString, s: s} }
func List(items []Value) Value  { return Value{kind: KindList, list: items} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNil() bool     { return v.kind == KindNil }
func (v Value) Bool() bool      { return v.b }
func (v Value) Number() float64 { return v.n }
func (v Value) String() string  { return v.s }
func (v Value) List() []Value   { return v.list }

func (v Value) GoString() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return fmt.Sprintf("%v", v.b)
	case KindNumber:
		return fmt.Sprintf("%g", v.n)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindList:
		return fmt.Sprintf("%v", v.list)
	default:
		return "<invalid value>"
	}
}
