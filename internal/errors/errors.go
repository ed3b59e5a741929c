// Package errors defines the three error kinds the system distinguishes
// (§7): a NodeError attributed to one node-id, an unattributed
// CompileError, and a terminal RuntimeError carrying a pseudo-stacktrace.
// Lower-level causes (JSON decode failures, store I/O) are wrapped with
// github.com/pkg/errors so their original cause survives for %+v
// formatting and errors.Cause unwrapping.
package errors

import (
	"fmt"
	"strings"

	"github.com/kr/text"
	pkgerrors "github.com/pkg/errors"
)

// NodeError is attributable to a specific node-id: an unknown reference,
// an arity mismatch, a cycle, a scope violation, a literal limit
// exceeded.
type NodeError struct {
	NodeID  string
	Message string
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q: %s", e.NodeID, e.Message)
}

func NewNodeError(nodeID, format string, args ...interface{}) *NodeError {
	return &NodeError{NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}

// CompileError is a structural problem with the document as a whole,
// not attributable to any single node.
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string { return e.Message }

func NewCompileError(format string, args ...interface{}) *CompileError {
	return &CompileError{Message: fmt.Sprintf(format, args...)}
}

// RuntimeError is terminal for the execution that raised it. Frames
// records the active call frames bottom-to-top at the point of failure;
// Error() renders one "in <function>" line per frame, each indented two
// spaces the way multi-line CLI diagnostics elsewhere in this stack are
// formatted.
type RuntimeError struct {
	Message string
	Frames  []string // function names, bottom-to-top
	cause   error
}

func NewRuntimeError(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

// WithCause records a lower-level cause using pkg/errors so the
// original error chain is preserved.
func (e *RuntimeError) WithCause(cause error) *RuntimeError {
	e.cause = pkgerrors.WithStack(cause)
	return e
}

// WithFrame appends the next frame (innermost call first) to the
// pseudo-stacktrace.
func (e *RuntimeError) WithFrame(function string) *RuntimeError {
	e.Frames = append(e.Frames, function)
	return e
}

func (e *RuntimeError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	for _, f := range e.Frames {
		sb.WriteString("\n")
		sb.WriteString(text.Indent(fmt.Sprintf("in %s", f), "  "))
	}
	if e.cause != nil {
		sb.WriteString("\n")
		sb.WriteString(text.Indent(fmt.Sprintf("caused by: %v", e.cause), "  "))
	}
	return sb.String()
}

func (e *RuntimeError) Unwrap() error { return e.cause }

// Diagnostics accumulates errors across a compile pass so one bad node
// never silences later ones (§7's propagation policy).
type Diagnostics struct {
	NodeErrors       map[string]string
	AdditionalErrors []string
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{NodeErrors: make(map[string]string)}
}

func (d *Diagnostics) AddNode(err *NodeError) {
	if _, exists := d.NodeErrors[err.NodeID]; !exists {
		d.NodeErrors[err.NodeID] = err.Message
	}
}

func (d *Diagnostics) AddCompile(err *CompileError) {
	d.AdditionalErrors = append(d.AdditionalErrors, err.Message)
}

func (d *Diagnostics) AddRuntime(err *RuntimeError) {
	d.AdditionalErrors = append(d.AdditionalErrors, err.Error())
}

func (d *Diagnostics) HasErrors() bool {
	return len(d.NodeErrors) > 0 || len(d.AdditionalErrors) > 0
}

// Wrap attaches context to a lower-level error (file I/O, JSON decode)
// the way the document loader / CLI wrapper need to, without the core
// ever doing this for compile/runtime errors (those build their own
// structured types above).
func Wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrapf(err, format, args...)
}
