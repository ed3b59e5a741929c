package compiler

import (
	"graphvm/internal/bytecode"
	"graphvm/internal/errors"
	"graphvm/internal/heap"
)

const maxLocalCount = 256 // u8::MAX + 1

// local tracks which stack slot a function's parameter occupies.
// depth is -1 while only declared (not yet defined); a read of a local
// still at depth -1 means the parameter is referencing itself.
type local struct {
	nodeID string
	depth  int
}

// funcCompiler is the per-function compile state pushed/popped as the
// compiler descends into a parameterized function body. Go translation
// of banjoc's FuncCompiler: an enclosing pointer forms the stack, locals
// is capped at 256 slots (matching the one-byte GetLocal operand), and
// scopeDepth tracks nesting so a parameter is only ever resolved within
// the function that declared it.
type funcCompiler struct {
	enclosing *funcCompiler

	name  *heap.StringObj // set lazily once the owning Heap has interned it
	arity int
	chunk *bytecode.Chunk

	locals     []local
	scopeDepth int
}

func newFuncCompiler(arity int) *funcCompiler {
	fc := &funcCompiler{
		arity: arity,
		chunk: bytecode.NewChunk(),
		locals: make([]local, 0, maxLocalCount),
	}
	// Slot zero is reserved for the VM's own internal use (the callee
	// itself, by calling convention).
	fc.locals = append(fc.locals, local{nodeID: "", depth: 0})
	return fc
}

func (fc *funcCompiler) beginScope() { fc.scopeDepth++ }

func (fc *funcCompiler) isLocalScope() bool { return fc.scopeDepth > 0 }

func (fc *funcCompiler) addLocal(nodeID string) error {
	if len(fc.locals) == maxLocalCount {
		return errors.NewNodeError(nodeID, "too many local variables in function")
	}
	fc.locals = append(fc.locals, local{nodeID: nodeID, depth: -1})
	return nil
}

func (fc *funcCompiler) markVarInitialized() {
	if !fc.isLocalScope() {
		return
	}
	fc.locals[len(fc.locals)-1].depth = fc.scopeDepth
}

// resolveLocal returns (slot, true, nil) if nodeID names a local in
// scope, (0, false, nil) if it names no local at all, or an error if it
// names a local that is still only declared (a self-referential
// initializer).
func (fc *funcCompiler) resolveLocal(nodeID string) (int, bool, error) {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].nodeID == nodeID {
			if fc.locals[i].depth == -1 {
				return 0, false, errors.NewNodeError(nodeID, "can't read local variable in its own initializer")
			}
			return i, true, nil
		}
	}
	return 0, false, nil
}

func (fc *funcCompiler) isLocalAlreadyInScope(nodeID string) bool {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		l := fc.locals[i]
		if l.depth != -1 && l.depth < fc.scopeDepth {
			break
		}
		if l.nodeID == nodeID {
			return true
		}
	}
	return false
}
