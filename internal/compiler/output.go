package compiler

import (
	"graphvm/internal/errors"
	"graphvm/internal/heap"
)

// OutputTracker accumulates the node ids the compiler marks for preview
// (§4.4 Output semantics) in compilation order, plus any error raised
// along the way so one bad node never stops the rest of the document
// from compiling (§7's propagation policy).
type OutputTracker struct {
	nodes []string
	diags *errors.Diagnostics
}

func NewOutputTracker() *OutputTracker {
	return &OutputTracker{diags: errors.NewDiagnostics()}
}

// AddNode reserves the next output slot for nodeID, capped at 255 slots
// the way a one-byte OpOutput operand requires.
func (o *OutputTracker) AddNode(nodeID string) (int, error) {
	if len(o.nodes) >= 255 {
		return 0, errors.NewNodeError(nodeID, "can't preview the output of more than 255 nodes")
	}
	o.nodes = append(o.nodes, nodeID)
	return len(o.nodes) - 1, nil
}

// Nodes returns the output-index -> node-id mapping in index order.
func (o *OutputTracker) Nodes() []string { return o.nodes }

// AddError folds any of the three error kinds into the shared
// Diagnostics instead of aborting the compile.
func (o *OutputTracker) AddError(err error) {
	switch e := err.(type) {
	case *errors.NodeError:
		o.diags.AddNode(e)
	case *errors.CompileError:
		o.diags.AddCompile(e)
	case *errors.RuntimeError:
		o.diags.AddRuntime(e)
	default:
		if err != nil {
			o.diags.AddCompile(errors.NewCompileError("%v", err))
		}
	}
}

func (o *OutputTracker) Diagnostics() *errors.Diagnostics { return o.diags }

// BindValue records the live value an Output slot produced at runtime;
// the VM calls this as OpOutput executes. Kept here (rather than in the
// vm package) because the output-index <-> node-id mapping only the
// compiler knows about belongs with the tracker that assigned it.
func BindValue(values []heap.Value, index int, v heap.Value) []heap.Value {
	if index >= len(values) {
		grown := make([]heap.Value, index+1)
		copy(grown, values)
		for i := len(values); i < index; i++ {
			grown[i] = heap.Nil()
		}
		values = grown
	}
	values[index] = v
	return values
}
