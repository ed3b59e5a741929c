// Package heap implements the managed heap described in spec §4.5:
// intrusive-header objects linked into a single sibling list, tri-color
// mark-and-sweep collection with a growth-ratio trigger, string
// interning with a weak-reference table, and the runtime Value type
// referenced from the value stack, constant pools and globals table.
package heap

import (
	"fmt"

	"graphvm/internal/bytecode"
)

// ObjType tags which concrete object an ObjHeader belongs to.
type ObjType uint8

const (
	ObjString ObjType = iota
	ObjFunction
	ObjNativeFunction
	ObjList
)

func (t ObjType) String() string {
	switch t {
	case ObjString:
		return "string"
	case ObjFunction:
		return "function"
	case ObjNativeFunction:
		return "native fn"
	case ObjList:
		return "list"
	default:
		return "unknown"
	}
}

// ObjHeader is the common prefix every heap object embeds as its first
// field — the Go shape of banjoc's "first field is the header" trick.
// Rather than reinterpreting a raw pointer, every object satisfies Obj,
// whose Hdr() accessor hands back this shared state for the intrusive
// sibling list and the mark bit.
type ObjHeader struct {
	typ    ObjType
	next   Obj
	marked bool
}

// Obj is a non-owning handle into the managed heap. The three `-ref`
// Value variants (string, list, function/native-function) all carry an
// Obj; its lifetime is the lifetime of the reachability closure at the
// most recent collection cycle.
type Obj interface {
	Hdr() *ObjHeader
	Type() ObjType
	// size is the exact number of bytes this object contributes to
	// Heap.bytesAllocated, used by the sweep step to refund freed
	// memory and by tests asserting the accounting invariant in §8.
	size() int
}

func (h *ObjHeader) Hdr() *ObjHeader { return h }

// StringObj is an interned string. Two StringObj handles for equal text
// are always the same pointer (see Heap.Intern), so equality is pointer
// equality.
type StringObj struct {
	ObjHeader
	S string
}

func (s *StringObj) Type() ObjType { return ObjString }
func (s *StringObj) size() int     { return 24 + len(s.S) }

// FunctionObj is a compiled, heap-allocated function value.
type FunctionObj struct {
	ObjHeader
	Name  *StringObj // nil for the anonymous top-level script function
	Arity int
	Chunk *bytecode.Chunk
}

func (f *FunctionObj) Type() ObjType { return ObjFunction }
func (f *FunctionObj) size() int     { return 32 + len(f.Chunk.Code) }

func (f *FunctionObj) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.S)
}

// NativeFn is the signature native builtins implement.
type NativeFn func(args []Value) (Value, error)

// NativeFunctionObj wraps a native builtin (clock, sum, product, ...).
// Arity -1 marks a variadic native (sum/product accept any argument
// count; arity checking at the call site is skipped for them).
type NativeFunctionObj struct {
	ObjHeader
	Name  string
	Arity int
	Fn    NativeFn
}

func (n *NativeFunctionObj) Type() ObjType { return ObjNativeFunction }
func (n *NativeFunctionObj) size() int     { return 40 }
func (n *NativeFunctionObj) String() string {
	return fmt.Sprintf("<native fn %s>", n.Name)
}

// ListObj is a heap-allocated, element-wise-addable list.
type ListObj struct {
	ObjHeader
	Items []Value
}

func (l *ListObj) Type() ObjType { return ObjList }
func (l *ListObj) size() int     { return 24 + 16*len(l.Items) }
