package heap

import (
	"fmt"
	"strconv"
)

// ValueKind tags which field of Value is populated.
type ValueKind uint8

const (
	ValNil ValueKind = iota
	ValBool
	ValNumber
	ValString
	ValList
	ValFunction
	ValNativeFunction
)

// Value is the VM's runtime tagged union (§3): nil, bool, number,
// string-ref, list-ref, function-ref, native-function-ref. The four
// `-ref` variants carry a non-owning Obj handle into the Heap.
type Value struct {
	Kind ValueKind
	B    bool
	N    float64
	Obj  Obj
}

func Nil() Value             { return Value{Kind: ValNil} }
func Bool(b bool) Value      { return Value{Kind: ValBool, B: b} }
func Number(n float64) Value { return Value{Kind: ValNumber, N: n} }

func String(s *StringObj) Value    { return Value{Kind: ValString, Obj: s} }
func List(l *ListObj) Value        { return Value{Kind: ValList, Obj: l} }
func Function(f *FunctionObj) Value { return Value{Kind: ValFunction, Obj: f} }
func Native(n *NativeFunctionObj) Value {
	return Value{Kind: ValNativeFunction, Obj: n}
}

func (v Value) IsNil() bool    { return v.Kind == ValNil }
func (v Value) IsNumber() bool { return v.Kind == ValNumber }
func (v Value) IsString() bool { return v.Kind == ValString }

// Number returns the numeric payload; callers must have already checked
// IsNumber (or otherwise know the kind via a type switch).
func (v Value) Number() float64 { return v.N }

func (v Value) AsString() *StringObj           { return v.Obj.(*StringObj) }
func (v Value) AsList() *ListObj               { return v.Obj.(*ListObj) }
func (v Value) AsFunction() *FunctionObj       { return v.Obj.(*FunctionObj) }
func (v Value) AsNative() *NativeFunctionObj   { return v.Obj.(*NativeFunctionObj) }

// Truthy implements the language's only boolean coercion rule: nil and
// false are falsy, everything else (including 0 and "") is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case ValNil:
		return false
	case ValBool:
		return v.B
	default:
		return true
	}
}

// Equal reports value equality: refs compare by identity (interned
// strings make string equality a pointer compare), numbers/bools by
// value, nil equals only nil.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case ValNil:
		return true
	case ValBool:
		return v.B == other.B
	case ValNumber:
		return v.N == other.N
	default:
		return v.Obj == other.Obj
	}
}

// TypeName names the value's kind for runtime error messages.
func (v Value) TypeName() string {
	switch v.Kind {
	case ValNil:
		return "nil"
	case ValBool:
		return "bool"
	case ValNumber:
		return "number"
	case ValString:
		return "string"
	case ValList:
		return "list"
	case ValFunction:
		return "function"
	case ValNativeFunction:
		return "native function"
	default:
		return "unknown"
	}
}

// Display renders a Value the way a node's output preview and the
// execution result's JSON serialization (§6) expect: function and
// native-function values stand in for themselves textually rather than
// serializing heap internals.
func (v Value) Display() string {
	switch v.Kind {
	case ValNil:
		return "nil"
	case ValBool:
		return strconv.FormatBool(v.B)
	case ValNumber:
		return strconv.FormatFloat(v.N, 'g', -1, 64)
	case ValString:
		return v.AsString().S
	case ValList:
		items := v.AsList().Items
		out := "["
		for i, it := range items {
			if i > 0 {
				out += ", "
			}
			out += it.Display()
		}
		return out + "]"
	case ValFunction:
		return v.AsFunction().String()
	case ValNativeFunction:
		return v.AsNative().String()
	default:
		return fmt.Sprintf("<invalid value kind %d>", v.Kind)
	}
}
