package errors

import (
	"strings"
	"testing"
)

func TestNodeErrorMessage(t *testing.T) {
	err := NewNodeError("n1", "unknown reference %q", "x")
	if err.NodeID != "n1" {
		t.Fatalf("expected NodeID n1, got %s", err.NodeID)
	}
	if got := err.Error(); !strings.Contains(got, "n1") || !strings.Contains(got, `"x"`) {
		t.Fatalf("unexpected error text: %s", got)
	}
}

func TestRuntimeErrorRendersFramesBottomToTop(t *testing.T) {
	err := NewRuntimeError("stack overflow").WithFrame("inner").WithFrame("outer")
	got := err.Error()
	if !strings.Contains(got, "in inner") || !strings.Contains(got, "in outer") {
		t.Fatalf("expected both frames rendered, got:\n%s", got)
	}
	if strings.Index(got, "in inner") > strings.Index(got, "in outer") {
		t.Fatalf("expected inner frame to render before outer, got:\n%s", got)
	}
}

func TestRuntimeErrorWithCausePreservesChain(t *testing.T) {
	cause := NewCompileError("bad document")
	err := NewRuntimeError("failed").WithCause(cause)
	if err.Unwrap() == nil {
		t.Fatalf("expected Unwrap to expose the wrapped cause")
	}
	if !strings.Contains(err.Error(), "caused by") {
		t.Fatalf("expected rendered cause, got: %s", err.Error())
	}
}

func TestDiagnosticsFirstErrorWinsPerNode(t *testing.T) {
	d := NewDiagnostics()
	d.AddNode(NewNodeError("n1", "first"))
	d.AddNode(NewNodeError("n1", "second"))
	if d.NodeErrors["n1"] != "first" {
		t.Fatalf("expected the first error for n1 to stick, got %q", d.NodeErrors["n1"])
	}
	if len(d.NodeErrors) != 1 {
		t.Fatalf("expected exactly 1 node error, got %d", len(d.NodeErrors))
	}
}

func TestDiagnosticsAccumulatesCompileAndRuntimeErrors(t *testing.T) {
	d := NewDiagnostics()
	d.AddCompile(NewCompileError("structural problem"))
	d.AddRuntime(NewRuntimeError("boom"))
	if len(d.AdditionalErrors) != 2 {
		t.Fatalf("expected 2 additional errors, got %d", len(d.AdditionalErrors))
	}
	if !d.HasErrors() {
		t.Fatalf("expected HasErrors to report true")
	}
}

func TestDiagnosticsHasErrorsFalseWhenEmpty(t *testing.T) {
	d := NewDiagnostics()
	if d.HasErrors() {
		t.Fatalf("expected a fresh Diagnostics to report no errors")
	}
}

func TestWrapNilIsNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Fatalf("expected Wrap(nil, ...) to return nil")
	}
}

func TestWrapPreservesUnderlyingMessage(t *testing.T) {
	inner := NewCompileError("underlying")
	wrapped := Wrap(inner, "while doing %s", "thing")
	if !strings.Contains(wrapped.Error(), "underlying") {
		t.Fatalf("expected wrapped error to mention the cause, got: %s", wrapped.Error())
	}
	if !strings.Contains(wrapped.Error(), "while doing thing") {
		t.Fatalf("expected wrapped error to mention the added context, got: %s", wrapped.Error())
	}
}
