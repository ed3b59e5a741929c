package vm

import (
	"graphvm/internal/bytecode"
	"graphvm/internal/compiler"
	"graphvm/internal/errors"
	"graphvm/internal/graph"
	"graphvm/internal/heap"
)

// Output is the result of one Interpret call (spec §6): the live
// node-id -> Value map, plus whatever structural or runtime errors
// occurred along the way.
type Output struct {
	NodeValues       map[string]heap.Value
	NodeErrors       map[string]string
	AdditionalErrors []string
}

// Vm owns a Heap for its entire lifetime and runs one compiled script
// function per Interpret call against a fixed-capacity value stack and
// frame stack (§5's Resource Bounds).
type Vm struct {
	cfg Config

	heap *heap.Heap

	stack    []heap.Value
	stackTop int

	frames     []callFrame
	frameCount int

	globals map[string]heap.Value

	outputValues []heap.Value
}

// New builds a Vm with cfg's resource bounds, its own Heap, and the
// three native globals already bound.
func New(cfg Config) *Vm {
	v := &Vm{
		cfg:     cfg,
		heap:    heap.NewHeap(),
		stack:   make([]heap.Value, cfg.stackMax()),
		frames:  make([]callFrame, cfg.FramesMax),
		globals: make(map[string]heap.Value),
	}
	v.heap.StressGC = cfg.GCStressed
	if cfg.GrowthRatio > 0 {
		v.heap.SetGrowthRatio(cfg.GrowthRatio)
	}
	v.heap.RootMarker = v.markRoots
	v.registerNatives()
	return v
}

// Heap exposes the owned heap for diagnostics (bytes_allocated,
// next_gc, interned-string counts).
func (v *Vm) Heap() *heap.Heap { return v.heap }

// Reset clears every user-defined global while keeping the Vm's heap
// and native bindings intact (the opt-out for callers of the
// globals-persist-by-default policy, §9).
func (v *Vm) Reset() {
	v.globals = make(map[string]heap.Value)
	v.registerNatives()
	v.stackTop = 0
	v.frameCount = 0
	v.outputValues = v.outputValues[:0]
}

func (v *Vm) push(val heap.Value) {
	v.stack[v.stackTop] = val
	v.stackTop++
}

func (v *Vm) pop() heap.Value {
	v.stackTop--
	return v.stack[v.stackTop]
}

func (v *Vm) peek(distance int) heap.Value {
	return v.stack[v.stackTop-1-distance]
}

// Interpret compiles doc and runs its top-level script function,
// returning every node's output value alongside accumulated
// diagnostics. Globals set by a previous Interpret call on this same
// Vm remain visible (§9), so a caller can build up a document's
// bindings incrementally the way a REPL would.
func (v *Vm) Interpret(doc graph.NodeMap) *Output {
	ast := graph.Build(doc)
	c := compiler.New(ast, v.heap)
	fn, tracker := c.Compile()

	v.stackTop = 0
	v.frameCount = 0
	v.outputValues = v.outputValues[:0]

	// Keep the script function reachable on the stack for the whole
	// run so a GC mid-execution never collects it.
	v.push(heap.Function(fn))
	if err := v.call(fn, 0); err != nil {
		tracker.AddError(err)
	} else if err := v.run(); err != nil {
		tracker.AddError(err)
	}

	diags := tracker.Diagnostics()
	nodeValues := make(map[string]heap.Value, len(tracker.Nodes()))
	for i, nodeID := range tracker.Nodes() {
		if i < len(v.outputValues) {
			nodeValues[nodeID] = v.outputValues[i]
		} else {
			nodeValues[nodeID] = heap.Nil()
		}
	}

	return &Output{
		NodeValues:       nodeValues,
		NodeErrors:       diags.NodeErrors,
		AdditionalErrors: diags.AdditionalErrors,
	}
}

func (v *Vm) currentFrame() *callFrame { return &v.frames[v.frameCount-1] }

// run is the dispatch loop (§4.3): fetch, decode, execute, with every
// binary-arithmetic/comparison opcode routed through the shared
// Heap.Add / numeric binary_op helpers so Value semantics live in one
// place.
func (v *Vm) run() error {
	for {
		frame := v.currentFrame()
		op := bytecode.OpCode(frame.readByte())

		switch op {
		case bytecode.OpConstant, bytecode.OpFunction:
			v.push(frame.readConstant())

		case bytecode.OpNil:
			v.push(heap.Nil())
		case bytecode.OpTrue:
			v.push(heap.Bool(true))
		case bytecode.OpFalse:
			v.push(heap.Bool(false))

		case bytecode.OpNegate:
			top := v.peek(0)
			if !top.IsNumber() {
				return v.runtimeError("operand must be a number")
			}
			v.pop()
			v.push(heap.Number(-top.Number()))

		case bytecode.OpNot:
			v.push(heap.Bool(!v.pop().Truthy()))

		case bytecode.OpAdd:
			b, a := v.pop(), v.pop()
			sum, err := v.heap.Add(a, b)
			if err != nil {
				return v.runtimeError("%s", err)
			}
			v.push(sum)

		case bytecode.OpSubtract:
			if err := v.binaryNumeric(func(a, b float64) heap.Value { return heap.Number(a - b) }); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := v.binaryNumeric(func(a, b float64) heap.Value { return heap.Number(a * b) }); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := v.binaryNumeric(func(a, b float64) heap.Value { return heap.Number(a / b) }); err != nil {
				return err
			}
		case bytecode.OpGreater:
			if err := v.binaryNumeric(func(a, b float64) heap.Value { return heap.Bool(a > b) }); err != nil {
				return err
			}
		case bytecode.OpLess:
			if err := v.binaryNumeric(func(a, b float64) heap.Value { return heap.Bool(a < b) }); err != nil {
				return err
			}

		case bytecode.OpEqual:
			b, a := v.pop(), v.pop()
			v.push(heap.Bool(a.Equal(b)))

		case bytecode.OpPop:
			v.pop()

		case bytecode.OpDefineGlobal:
			name := frame.readConstant().AsString()
			v.globals[name.S] = v.peek(0)
			v.pop()

		case bytecode.OpGetGlobal:
			name := frame.readConstant().AsString()
			val, ok := v.globals[name.S]
			if !ok {
				return v.runtimeError("Undefined variable '%s'.", name.S)
			}
			v.push(val)

		case bytecode.OpGetLocal:
			slot := int(frame.readByte())
			v.push(v.stack[frame.slotBase+slot])

		case bytecode.OpCall:
			argCount := int(frame.readByte())
			if err := v.callValue(v.peek(argCount), argCount); err != nil {
				return err
			}

		case bytecode.OpReturn:
			result := v.pop()
			returning := v.frames[v.frameCount-1]
			v.frameCount--
			if v.frameCount == 0 {
				return nil
			}
			v.stackTop = returning.slotBase
			v.push(result)

		case bytecode.OpOutput:
			index := int(frame.readByte())
			v.outputValues = compiler.BindValue(v.outputValues, index, v.peek(0))

		default:
			return v.runtimeError("unknown opcode %d", op)
		}
	}
}

func (v *Vm) binaryNumeric(f func(a, b float64) heap.Value) error {
	b, a := v.peek(0), v.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		return v.runtimeError("operands must be numbers")
	}
	v.pop()
	v.pop()
	v.push(f(a.Number(), b.Number()))
	return nil
}

func (v *Vm) callValue(callee heap.Value, argCount int) error {
	switch callee.Kind {
	case heap.ValFunction:
		return v.call(callee.AsFunction(), argCount)
	case heap.ValNativeFunction:
		native := callee.AsNative()
		if native.Arity >= 0 && native.Arity != argCount {
			return v.runtimeError("expected %d arguments but got %d", native.Arity, argCount)
		}
		args := make([]heap.Value, argCount)
		copy(args, v.stack[v.stackTop-argCount:v.stackTop])
		v.stackTop -= argCount
		result, err := native.Fn(args)
		if err != nil {
			return v.runtimeError("%s", err)
		}
		v.pop() // the callee itself
		v.push(result)
		return nil
	default:
		return v.runtimeError("can only call functions")
	}
}

// call pushes a new frame for fn, validating arity and frame-stack
// depth (§5: stack overflow beyond FramesMax is a RuntimeError, not a
// panic).
func (v *Vm) call(fn *heap.FunctionObj, argCount int) error {
	if argCount != fn.Arity {
		return v.runtimeError("expected %d arguments but got %d", fn.Arity, argCount)
	}
	if v.frameCount == v.cfg.FramesMax {
		return v.runtimeError("stack overflow")
	}
	v.frames[v.frameCount] = callFrame{fn: fn, ip: 0, slotBase: v.stackTop - argCount - 1}
	v.frameCount++
	return nil
}

// runtimeError builds a RuntimeError carrying the bottom-to-top
// function-name pseudo-stacktrace of every frame active right now
// (§4.4's error model).
func (v *Vm) runtimeError(format string, args ...interface{}) error {
	err := errors.NewRuntimeError(format, args...)
	for i := v.frameCount - 1; i >= 0; i-- {
		err = err.WithFrame(v.frames[i].fn.String())
	}
	return err
}

// markRoots is installed as the Heap's RootMarker: it walks every live
// value slot the collector must not reclaim (the value stack up to
// stackTop, every active frame's function, and the globals table).
func (v *Vm) markRoots(mark func(heap.Value)) {
	for i := 0; i < v.stackTop; i++ {
		mark(v.stack[i])
	}
	for i := 0; i < v.frameCount; i++ {
		mark(heap.Function(v.frames[i].fn))
	}
	for _, val := range v.globals {
		mark(val)
	}
	for _, val := range v.outputValues {
		mark(val)
	}
}
