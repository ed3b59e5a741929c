package vm

import (
	"time"

	"graphvm/internal/heap"
)

// registerNatives installs clock, sum and product as the three native
// globals spec §4.4 names, grounded on banjoc's native_functions.rs.
func (v *Vm) registerNatives() {
	v.defineNative("clock", 0, nativeClock)
	v.defineNative("sum", -1, v.nativeSum)
	v.defineNative("product", -1, nativeProduct)
}

func (v *Vm) defineNative(name string, arity int, fn heap.NativeFn) {
	interned := v.heap.Intern(name)
	// The interned name is pushed then popped purely so a collection
	// triggered by allocating the native object cannot reclaim it.
	v.push(heap.String(interned))
	native := v.heap.NewNative(name, arity, fn)
	v.pop()
	v.globals[name] = heap.Native(native)
}

func nativeClock(args []heap.Value) (heap.Value, error) {
	return heap.Number(float64(time.Now().UnixNano()) / 1e9), nil
}

// nativeSum folds its arguments left-to-right through the heap's Add
// semantics (§4.4), the same element-wise/broadcast/concat rules OpAdd
// applies; the document itself has no addition operator.
func (v *Vm) nativeSum(args []heap.Value) (heap.Value, error) {
	if len(args) == 0 {
		return heap.Nil(), nil
	}
	acc := args[0]
	for _, arg := range args[1:] {
		var err error
		acc, err = v.heap.Add(acc, arg)
		if err != nil {
			return heap.Nil(), err
		}
	}
	return acc, nil
}

// nativeProduct folds its arguments through numeric-only multiplication;
// a non-numeric operand is simply skipped, matching the original's
// `unwrap_or(accum)` fallback.
func nativeProduct(args []heap.Value) (heap.Value, error) {
	if len(args) == 0 {
		return heap.Nil(), nil
	}
	acc := args[0]
	for _, arg := range args[1:] {
		if product, err := heap.Multiply(acc, arg); err == nil {
			acc = product
		}
	}
	return acc, nil
}
