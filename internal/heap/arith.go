package heap

import (
	"fmt"
	"strconv"
)

// Add implements the native sum() fold's element semantics (§4.4):
//
//   - nil is an identity element on either side, as are functions and
//     native functions (they're simply ignored/passed through);
//   - list + list is element-wise over the longer operand, the shorter
//     padded with nil, each pair added recursively;
//   - list + scalar / scalar + list broadcasts the scalar;
//   - bool coerces to 0/1 before numeric addition;
//   - any combination involving a string concatenates (the non-string
//     operand rendered via its decimal/textual form);
//   - number + number is ordinary addition.
func (h *Heap) Add(a, b Value) (Value, error) {
	if isIdentity(a) {
		return b, nil
	}
	if isIdentity(b) {
		return a, nil
	}

	if a.Kind == ValList || b.Kind == ValList {
		return h.addList(a, b)
	}

	if a.Kind == ValString || b.Kind == ValString {
		return String(h.Intern(scalarText(a) + scalarText(b))), nil
	}

	an, aok := numericOf(a)
	bn, bok := numericOf(b)
	if aok && bok {
		return Number(an + bn), nil
	}

	return Nil(), fmt.Errorf("operands must be numbers, strings, lists, nil or bool, got %s and %s", a.TypeName(), b.TypeName())
}

func isIdentity(v Value) bool {
	switch v.Kind {
	case ValNil, ValFunction, ValNativeFunction:
		return true
	default:
		return false
	}
}

func numericOf(v Value) (float64, bool) {
	switch v.Kind {
	case ValNumber:
		return v.N, true
	case ValBool:
		if v.B {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func scalarText(v Value) string {
	if v.Kind == ValString {
		return v.AsString().S
	}
	return v.Display()
}

func (h *Heap) addList(a, b Value) (Value, error) {
	if a.Kind == ValList && b.Kind == ValList {
		left := a.AsList().Items
		right := b.AsList().Items
		n := len(left)
		if len(right) > n {
			n = len(right)
		}
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			lv := Nil()
			if i < len(left) {
				lv = left[i]
			}
			rv := Nil()
			if i < len(right) {
				rv = right[i]
			}
			sum, err := h.Add(lv, rv)
			if err != nil {
				return Nil(), err
			}
			out[i] = sum
		}
		return List(h.NewList(out)), nil
	}

	// Broadcast a scalar across the list operand.
	var list []Value
	var scalar Value
	if a.Kind == ValList {
		list, scalar = a.AsList().Items, b
	} else {
		list, scalar = b.AsList().Items, a
	}
	out := make([]Value, len(list))
	for i, item := range list {
		sum, err := h.Add(item, scalar)
		if err != nil {
			return Nil(), err
		}
		out[i] = sum
	}
	return List(h.NewList(out)), nil
}

// Multiply implements the numeric-only fold native product() drives: a
// binary-op closure requiring both operands to be numbers, matching the
// binary_op helper behind Subtract/Divide/Greater/Less.
func Multiply(a, b Value) (Value, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return Nil(), fmt.Errorf("operands must be numbers")
	}
	return Number(a.N * b.N), nil
}

// FormatNumber matches the textual form numbers take when concatenated
// with a string via Add — kept separate from Display so callers that
// need just the numeric text (without re-deriving it from Value) can
// reuse it directly.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}
