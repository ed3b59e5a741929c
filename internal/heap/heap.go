package heap

import (
	"modernc.org/mathutil"

	"graphvm/internal/bytecode"
)

const defaultNextGC = 1 << 20 // 1MiB before the first collection

// MarkFn is invoked once at the start of each collection to mark the
// roots: the caller passes every root Value to mark, which greys the
// object it references for the tracing step.
type MarkFn func(mark func(Value))

// Heap owns every live managed object through a single intrusive sibling
// list. It never shares objects across VM instances and is not safe for
// concurrent use (§5: the design requires a heap belongs to one VM).
type Heap struct {
	first          Obj
	bytesAllocated int
	nextGC         int
	growthRatio    int

	strings map[string]*StringObj

	gray []Obj

	// RootMarker is installed by the owning Vm after construction (the
	// Vm is what knows about the value stack, frame stack and globals
	// table — the heap itself has no notion of them). Collection is a
	// no-op until this is set.
	RootMarker MarkFn

	StressGC bool

	// Stats from the most recently completed collection, exposed for
	// diagnostics (CLI --verbose, tests asserting §8's accounting
	// invariant).
	LastCollected int
	Cycles        int
}

func NewHeap() *Heap {
	return &Heap{
		nextGC:      defaultNextGC,
		growthRatio: 2,
		strings:     make(map[string]*StringObj),
	}
}

// SetGrowthRatio overrides the default doubling factor applied to
// next_gc after each collection (§4.5 step 5). Ratios below 1 would
// shrink the threshold below live bytes and cause every allocation to
// collect, so values under 1 are ignored.
func (h *Heap) SetGrowthRatio(ratio int) {
	if ratio >= 1 {
		h.growthRatio = ratio
	}
}

// BytesAllocated returns the live byte total; Heap.bytesAllocated equals
// the sum of size() over every object currently on the sibling list
// (§8's invariant).
func (h *Heap) BytesAllocated() int { return h.bytesAllocated }
func (h *Heap) NextGC() int         { return h.nextGC }

// shouldGC is true iff bytes_allocated > next_gc (or stress mode).
func (h *Heap) shouldGC() bool {
	return h.StressGC || h.bytesAllocated > h.nextGC
}

// alloc links obj into the sibling list, accounts its size, and
// triggers a collection first if the bytes already allocated exceed the
// threshold.
func (h *Heap) alloc(obj Obj) {
	if h.shouldGC() && h.RootMarker != nil {
		h.Collect()
	}
	hdr := obj.Hdr()
	hdr.typ = obj.Type()
	hdr.next = h.first
	h.first = obj
	h.bytesAllocated += obj.size()
}

// NewString allocates a fresh, non-interned string object. Prefer
// Intern for any string that will be compared or used as a key.
func (h *Heap) NewString(s string) *StringObj {
	obj := &StringObj{S: s}
	h.alloc(obj)
	return obj
}

// Intern looks up s in the weak string table; on miss it allocates and
// inserts. Two Intern calls for equal strings return the same pointer,
// so string equality downstream is pointer equality (§8).
func (h *Heap) Intern(s string) *StringObj {
	if existing, ok := h.strings[s]; ok {
		return existing
	}
	obj := &StringObj{S: s}
	h.alloc(obj)
	h.strings[s] = obj
	return obj
}

// InternedCount is the number of distinct strings currently interned
// and still reachable (after the most recent sweep's table cleanup).
func (h *Heap) InternedCount() int { return len(h.strings) }

// NewFunction allocates a heap function object wrapping a compiled chunk.
func (h *Heap) NewFunction(name *StringObj, arity int, chunk *bytecode.Chunk) *FunctionObj {
	obj := &FunctionObj{Name: name, Arity: arity, Chunk: chunk}
	h.alloc(obj)
	return obj
}

func (h *Heap) NewList(items []Value) *ListObj {
	obj := &ListObj{Items: items}
	h.alloc(obj)
	return obj
}

func (h *Heap) NewNative(name string, arity int, fn NativeFn) *NativeFunctionObj {
	obj := &NativeFunctionObj{Name: name, Arity: arity, Fn: fn}
	h.alloc(obj)
	return obj
}

// clampGrowth bounds the post-collection next_gc the way §4.5 step 5
// specifies (next_gc = bytes_allocated * growth ratio), guarding against
// pathological ratios via mathutil's clamp helpers.
func (h *Heap) clampGrowth(bytesLive int) int {
	grown := bytesLive * h.growthRatio
	return mathutil.Max(grown, defaultNextGC/4)
}
