// cmd/graphvm reads a normalized document as JSON, runs it through the
// compiler and VM, and prints its Output as JSON — the command-line
// wrapper named (but left unspecified) by spec §6.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/ncruces/go-strftime"

	"graphvm/internal/bytecode"
	"graphvm/internal/compiler"
	"graphvm/internal/document"
	"graphvm/internal/graph"
	"graphvm/internal/heap"
	"graphvm/internal/vm"
)

// Exit codes per spec §6: misuse, compile error, runtime error, input
// read error.
const (
	exitMisuse      = 64
	exitCompileErr  = 65
	exitRuntimeErr  = 70
	exitInputReadErr = 74
)

func main() { os.Exit(run()) }

// run holds main's logic and returns the process exit code, kept
// separate from main so a testscript.RunMain harness can register it
// as the graphvm command.
func run() int {
	var (
		disassemble = flag.Bool("disassemble", false, "print the compiled bytecode instead of running it")
		verbose     = flag.Bool("verbose", false, "print heap diagnostics after interpreting")
		path        = flag.String("file", "", "path to a document JSON file (default: stdin)")
	)
	flag.Parse()

	data, err := readInput(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "graphvm:", err)
		return exitInputReadErr
	}

	nodes, err := document.Parse(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, "graphvm:", err)
		return exitCompileErr
	}

	runID := uuid.New()
	if *verbose {
		logf("run %s starting", runID)
	}

	if *disassemble {
		return runDisassemble(nodes)
	}

	target := vm.New(vm.DefaultConfig())
	out := target.Interpret(nodes)

	body, err := document.Encode(out)
	if err != nil {
		fmt.Fprintln(os.Stderr, "graphvm:", err)
		return exitRuntimeErr
	}
	fmt.Println(string(body))

	if *verbose {
		printDiagnostics(target, runID)
	}

	if len(out.NodeErrors) > 0 || len(out.AdditionalErrors) > 0 {
		return exitRuntimeErr
	}
	return 0
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func runDisassemble(nodes graph.NodeMap) int {
	ast := graph.Build(nodes)
	h := heap.NewHeap()
	c := compiler.New(ast, h)
	fn, tracker := c.Compile()
	fmt.Print(bytecode.Disassemble(fn.Chunk, fn.String()))
	if diags := tracker.Diagnostics(); diags.HasErrors() {
		for id, msg := range diags.NodeErrors {
			fmt.Fprintf(os.Stderr, "node %s: %s\n", id, msg)
		}
		for _, msg := range diags.AdditionalErrors {
			fmt.Fprintln(os.Stderr, msg)
		}
		return exitCompileErr
	}
	return 0
}

func printDiagnostics(v *vm.Vm, runID uuid.UUID) {
	h := v.Heap()
	logf("run %s heap: %s allocated, next gc at %s, %d interned strings",
		runID, humanize.Bytes(uint64(h.BytesAllocated())), humanize.Bytes(uint64(h.NextGC())), h.InternedCount())
}

// logf prefixes each line with a strftime-formatted timestamp, colored
// only when stdout is a terminal.
func logf(format string, args ...interface{}) {
	ts := strftime.Format("%Y-%m-%d %H:%M:%S", time.Now())
	msg := fmt.Sprintf(format, args...)
	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintf(os.Stderr, "\x1b[2m%s\x1b[0m %s\n", ts, msg)
	} else {
		fmt.Fprintf(os.Stderr, "%s %s\n", ts, msg)
	}
}
