package heap

// Collect runs one full mark-and-sweep cycle (§4.5). It is always
// synchronous: allocation is the only thing that triggers it, and it
// always completes before control returns to the allocator (§5, no
// suspension points).
func (h *Heap) Collect() {
	if h.RootMarker == nil {
		return
	}
	h.gray = h.gray[:0]

	// 1. Mark roots: the caller (Vm) walks its value stack, frame
	// stack and globals table, calling back into markValue for each
	// live slot.
	h.RootMarker(h.markValue)

	// 2. Trace: pop from the gray stack, marking each object's own
	// outgoing references and pushing newly-gray objects.
	for len(h.gray) > 0 {
		obj := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		h.blacken(obj)
	}

	// 3. String table cleanup: drop any interned string whose header
	// is not marked, before the sibling list is swept out from under
	// it. The table is a weak set over heap-owned keys.
	for s, obj := range h.strings {
		if !obj.marked {
			delete(h.strings, s)
		}
	}

	// 4. Sweep: walk the sibling list, unlinking and refunding
	// anything unmarked; clear the mark bit on survivors for the next
	// cycle.
	before := h.bytesAllocated
	var head Obj
	var tail Obj
	for obj := h.first; obj != nil; {
		hdr := obj.Hdr()
		next := hdr.next
		if hdr.marked {
			hdr.marked = false
			hdr.next = nil
			if head == nil {
				head = obj
			} else {
				tail.Hdr().next = obj
			}
			tail = obj
		} else {
			h.bytesAllocated -= obj.size()
		}
		obj = next
	}
	h.first = head

	h.LastCollected = before - h.bytesAllocated
	h.Cycles++

	// 5. Grow threshold.
	if h.bytesAllocated > 0 {
		h.nextGC = h.clampGrowth(h.bytesAllocated)
	}
}

// markObj sets the mark bit (if unset) and pushes obj onto the gray
// stack for tracing.
func (h *Heap) markObj(obj Obj) {
	if obj == nil {
		return
	}
	hdr := obj.Hdr()
	if hdr.marked {
		return
	}
	hdr.marked = true
	h.gray = append(h.gray, obj)
}

// markValue marks the object a Value references, if any.
func (h *Heap) markValue(v Value) {
	if v.Obj != nil {
		h.markObj(v.Obj)
	}
}

// blacken marks every object directly reachable from obj.
func (h *Heap) blacken(obj Obj) {
	switch o := obj.(type) {
	case *StringObj:
		// no outgoing references
	case *NativeFunctionObj:
		// no outgoing references
	case *FunctionObj:
		if o.Name != nil {
			h.markObj(o.Name)
		}
		for _, c := range o.Chunk.Constants {
			if cv, ok := c.(Value); ok {
				h.markValue(cv)
			}
		}
	case *ListObj:
		for _, item := range o.Items {
			h.markValue(item)
		}
	}
}
