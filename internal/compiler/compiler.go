// Package compiler lowers a normalized graph document into bytecode
// (spec §4.2-§4.4): a topological sort over the document's dependency
// and argument edges, emitting one function's worth of instructions per
// node in sorted order, with parameterized FunctionDefinition nodes
// compiled as their own nested Chunk the way a Lox-style compiler
// nests a function body.
package compiler

import (
	"graphvm/internal/bytecode"
	"graphvm/internal/errors"
	"graphvm/internal/graph"
	"graphvm/internal/heap"
)

// Compiler walks one Ast, driving a stack of funcCompiler frames (one
// per nested function body) and accumulating output-preview bindings
// and diagnostics as it goes.
type Compiler struct {
	ast    *graph.Ast
	heap   *heap.Heap
	output *OutputTracker

	fc *funcCompiler
}

// New constructs a Compiler over ast. h is used to intern identifier
// and literal strings and to allocate the FunctionObj constants nested
// definitions produce.
func New(ast *graph.Ast, h *heap.Heap) *Compiler {
	return &Compiler{
		ast:    ast,
		heap:   h,
		output: NewOutputTracker(),
		fc:     newFuncCompiler(0),
	}
}

// chunk is the chunk belonging to the function currently being
// compiled (the teacher's current_chunk! macro, as a method).
func (c *Compiler) chunk() *bytecode.Chunk { return c.fc.chunk }

// Compile runs the full two-and-a-half-pass topological sort and
// returns the top-level (script) function plus every diagnostic
// collected along the way. A document with structural errors still
// returns a usable (if incomplete) script function — per §7, one bad
// node never silences the rest.
func (c *Compiler) Compile() (*heap.FunctionObj, *OutputTracker) {
	inBranch := make(map[string]bool)
	visited := make(map[string]bool)

	// Pass 1: var/fn/const definitions, compiled in topological order
	// so a reference always sees its dependency already bound.
	for _, id := range c.ast.Roots() {
		n, _ := c.ast.GetNode(id)
		if n.IsDefinition() {
			c.visit(inBranch, visited, n)
		}
	}
	// Pass 2: disconnected (non-definition) roots, compiled directly
	// (not through the topological visit) after every definition is in
	// place so they can reference any of them. Matches the original:
	// a non-definition root's own subtree (its args/operands) is
	// compiled by node()'s ordinary recursive descent, not by the
	// cycle-detecting sort — structurally these nodes cannot form a
	// cycle reachable only through ArgEdges/DependencyEdges without
	// passing through a definition, which pass 1 (or pass 3, for a
	// rootless one) already covers.
	for _, id := range c.ast.Roots() {
		n, _ := c.ast.GetNode(id)
		if !n.IsDefinition() {
			if err := c.node(n); err != nil {
				c.output.AddError(err)
			}
		}
	}
	// Pass 3: anything left unvisited belongs to a root-free component
	// (a pure cycle, or dead code only cycles reach). Run it through
	// the same cycle-detecting visit purely so the cycle still surfaces
	// as a NodeError; an acyclic stray component compiles normally.
	for _, id := range sortedIDs(c.ast) {
		if !visited[id] {
			n, ok := c.ast.GetNode(id)
			if ok {
				c.visit(inBranch, visited, n)
			}
		}
	}

	fn := c.popFuncCompiler()
	return fn, c.output
}

func sortedIDs(ast *graph.Ast) []string {
	ids := make([]string, 0)
	for id := range ast.Nodes() {
		ids = append(ids, id)
	}
	// Small insertion sort, consistent with Ast.Roots' own determinism
	// goal; document sizes here are modest.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// visit is the topological-sort DFS (§4.2): descend into dependency and
// argument edges first, detect cycles via the in-branch set, then
// compile this node's definition (if it is one) once every edge it
// needs is already compiled and bound. It reports false when a cycle
// was found below node; nothing on that branch is compiled.
func (c *Compiler) visit(inBranch, visited map[string]bool, node *graph.Node) bool {
	if visited[node.ID] {
		return true
	}
	if inBranch[node.ID] {
		c.output.AddError(errors.NewNodeError(node.ID, "detected cycle"))
		return false
	}

	inBranch[node.ID] = true
	for _, child := range append(append([]string{}, node.DependencyEdges()...), node.ArgEdges()...) {
		// Missing children are tolerated here: they may reference a
		// native function name that only resolves at runtime, or the
		// error will surface properly once this node is compiled.
		if childNode, ok := c.ast.GetNode(child); ok {
			if !c.visit(inBranch, visited, childNode) {
				delete(inBranch, node.ID)
				return false
			}
		}
	}
	delete(inBranch, node.ID)
	visited[node.ID] = true

	var err error
	switch node.Kind {
	case graph.KindFunctionDefinition:
		if len(node.ArgEdges()) != 1 {
			err = errors.NewNodeError(node.ID, "function definition requires exactly 1 input")
			break
		}
		arity := c.ast.GetArity(node.ID)
		if arity > 0 {
			err = c.nodeFunctionDefinition(node.ID, node.Body, arity)
		} else {
			// A function definition with no parameters behaves as a
			// variable definition, effectively memoizing it.
			err = c.nodeVariableDefinition(node.ID, node.Body)
		}
	case graph.KindVariableDefinition:
		if node.Body == "" {
			err = errors.NewNodeError(node.ID, "variable definition requires exactly 1 input")
			break
		}
		err = c.nodeVariableDefinition(node.ID, node.Body)
	case graph.KindConst:
		err = c.nodeConstDeclaration(node)
	}
	if err != nil {
		c.output.AddError(err)
	}
	return true
}

// node compiles a single non-definition node: it assumes every edge it
// needs has already been visited (and, if a definition, bound) by the
// topological sort that calls it.
func (c *Compiler) node(n *graph.Node) error {
	switch n.Kind {
	case graph.KindLiteral:
		return c.emitLiteral(n.ID, n.Value)

	case graph.KindParam:
		if !c.fc.isLocalScope() {
			return errors.NewNodeError(n.ID, "can only use param in function declaration")
		}
		if !c.fc.isLocalAlreadyInScope(n.ID) {
			if err := c.declareLocalVariable(n.ID); err != nil {
				return err
			}
			c.fc.markVarInitialized()
		}
		return c.namedVariable(n.ID)

	case graph.KindVariableReference:
		if err := c.namedVariable(n.RefID); err != nil {
			return err
		}
		return c.emitOutput(n.ID)

	case graph.KindFunctionCall:
		if err := c.namedVariable(n.CalleeID); err != nil {
			return err
		}
		arity, known := c.calleeArity(n.CalleeID)
		if known && arity != len(n.Args) {
			return errors.NewNodeError(n.ID, "expected %d arguments but got %d", arity, len(n.Args))
		}
		effectiveArity := arity
		if !known {
			effectiveArity = 256
		}
		if effectiveArity > 0 {
			if err := c.call(n.Args); err != nil {
				return err
			}
		}
		return c.emitOutput(n.ID)

	case graph.KindUnary:
		if len(n.Operands) != 1 {
			return errors.NewNodeError(n.ID, "unary has invalid input")
		}
		arg, ok := c.ast.GetNode(n.Operands[0])
		if !ok {
			return errors.NewNodeError(n.ID, "referenced node %q does not exist", n.Operands[0])
		}
		if err := c.node(arg); err != nil {
			return err
		}
		return c.emitUnary(n.ID, n.UnaryOp)

	case graph.KindBinary:
		if len(n.Operands) != 2 {
			return errors.NewNodeError(n.ID, "binary has invalid input")
		}
		for _, operand := range n.Operands {
			term, ok := c.ast.GetNode(operand)
			if !ok {
				return errors.NewNodeError(n.ID, "referenced node %q does not exist", operand)
			}
			if err := c.node(term); err != nil {
				return err
			}
		}
		return c.emitBinary(n.ID, n.BinaryOp)

	default:
		// FunctionDefinition / VariableDefinition / Const are only ever
		// reached through the topological sort's visit, never here.
		return nil
	}
}

// calleeArity looks up fnID's declared arity; ok is false when fnID
// names no known function definition (a native name, resolved only at
// runtime, or a genuinely missing node).
func (c *Compiler) calleeArity(fnID string) (int, bool) {
	n, ok := c.ast.GetNode(fnID)
	if !ok || n.Kind != graph.KindFunctionDefinition {
		return 0, false
	}
	return c.ast.GetArity(fnID), true
}

func (c *Compiler) nodeFunctionDefinition(nodeID, bodyID string, arity int) error {
	if arity > 255 {
		return errors.NewNodeError(nodeID, "can't have more than 255 parameters")
	}
	bodyNode, ok := c.ast.GetNode(bodyID)
	if !ok {
		return errors.NewNodeError(nodeID, "referenced node %q does not exist", bodyID)
	}
	return c.funDeclaration(bodyNode, nodeID, arity)
}

func (c *Compiler) nodeVariableDefinition(nodeID, bodyID string) error {
	bodyNode, ok := c.ast.GetNode(bodyID)
	if !ok {
		return errors.NewNodeError(nodeID, "referenced node %q does not exist", bodyID)
	}
	return c.varDeclaration(bodyNode, nodeID)
}

func (c *Compiler) namedVariable(nodeID string) error {
	if index, isLocal, err := c.fc.resolveLocal(nodeID); err != nil {
		return err
	} else if isLocal {
		c.chunk().WriteOp(bytecode.OpGetLocal, nodeID)
		c.chunk().WriteByte(byte(index), nodeID)
		return nil
	}
	slot, err := c.identifierConstant(nodeID)
	if err != nil {
		return err
	}
	c.chunk().WriteOp(bytecode.OpGetGlobal, nodeID)
	c.chunk().WriteByte(byte(slot), nodeID)
	return nil
}

func (c *Compiler) funDeclaration(bodyNode *graph.Node, nodeID string, arity int) error {
	global, err := c.declareVariable(nodeID)
	if err != nil {
		return err
	}
	c.fc.markVarInitialized()
	if err := c.function(bodyNode, nodeID, arity); err != nil {
		return err
	}
	c.defineVariable(nodeID, global)
	return nil
}

// function pushes a fresh funcCompiler, compiles body as that
// function's sole instruction sequence, pops it, and emits the result
// as a Function constant in the enclosing chunk.
func (c *Compiler) function(body *graph.Node, nodeID string, arity int) error {
	c.pushFuncCompiler(nodeID, arity)
	c.fc.beginScope()

	if err := c.node(body); err != nil {
		return err
	}

	fn := c.popFuncCompiler()
	slot, err := c.addConstant(nodeID, heap.Function(fn))
	if err != nil {
		return err
	}
	c.chunk().WriteOp(bytecode.OpFunction, nodeID)
	c.chunk().WriteByte(byte(slot), nodeID)
	return nil
}

func (c *Compiler) call(argIDs []string) error {
	for _, argID := range argIDs {
		arg, ok := c.ast.GetNode(argID)
		if !ok {
			return errors.NewNodeError(argID, "referenced node %q does not exist", argID)
		}
		if err := c.node(arg); err != nil {
			return err
		}
	}
	c.chunk().WriteOp(bytecode.OpCall, "")
	c.chunk().WriteByte(byte(len(argIDs)), "")
	return nil
}

// nodeConstDeclaration is the shortcut node for literal + var
// declaration §4.4 describes for Const nodes.
func (c *Compiler) nodeConstDeclaration(n *graph.Node) error {
	global, err := c.declareVariable(n.ID)
	if err != nil {
		return err
	}
	if err := c.emitLiteral(n.ID, n.Value); err != nil {
		return err
	}
	if err := c.emitOutput(n.ID); err != nil {
		return err
	}
	c.defineVariable(n.ID, global)
	return nil
}

func (c *Compiler) varDeclaration(body *graph.Node, nodeID string) error {
	global, err := c.declareVariable(nodeID)
	if err != nil {
		return err
	}
	if err := c.node(body); err != nil {
		return err
	}
	if err := c.emitOutput(nodeID); err != nil {
		return err
	}
	c.defineVariable(nodeID, global)
	return nil
}

// declareVariable declares nodeID as either a local (inside a
// parameterized function body) or a global, returning the global's
// identifier-constant slot (or -1 for a local, which needs none).
func (c *Compiler) declareVariable(nodeID string) (int, error) {
	if c.fc.isLocalScope() {
		if err := c.declareLocalVariable(nodeID); err != nil {
			return -1, err
		}
		return -1, nil
	}
	return c.identifierConstant(nodeID)
}

func (c *Compiler) declareLocalVariable(nodeID string) error {
	if c.fc.isLocalAlreadyInScope(nodeID) {
		return errors.NewNodeError(nodeID, "already a variable with this name in this scope")
	}
	return c.fc.addLocal(nodeID)
}

func (c *Compiler) defineVariable(nodeID string, global int) {
	if global >= 0 {
		c.chunk().WriteOp(bytecode.OpDefineGlobal, nodeID)
		c.chunk().WriteByte(byte(global), nodeID)
		return
	}
	c.fc.markVarInitialized()
}

func (c *Compiler) identifierConstant(nodeID string) (int, error) {
	s := c.heap.Intern(nodeID)
	return c.addConstant(nodeID, heap.String(s))
}

// addConstant appends a constant and enforces the 256-entry pool limit
// (the compiler, not Chunk.AddConstant, owns this check so the error
// carries a node id).
func (c *Compiler) addConstant(nodeID string, v heap.Value) (int, error) {
	if len(c.chunk().Constants) >= 256 {
		return 0, errors.NewNodeError(nodeID, "too many constants in one function")
	}
	return c.chunk().AddConstant(v), nil
}

func (c *Compiler) pushFuncCompiler(funcID string, arity int) {
	fc := newFuncCompiler(arity)
	fc.name = c.heap.Intern(funcID)
	fc.enclosing = c.fc
	c.fc = fc
}

// popFuncCompiler closes out the current function (emitting its
// trailing Return) and restores the enclosing one, returning a
// heap-allocated FunctionObj for the function that just finished.
func (c *Compiler) popFuncCompiler() *heap.FunctionObj {
	c.chunk().WriteOp(bytecode.OpReturn, "")
	done := c.fc
	fn := c.heap.NewFunction(done.name, done.arity, done.chunk)
	if done.enclosing != nil {
		c.fc = done.enclosing
	} else {
		c.fc = newFuncCompiler(0)
	}
	return fn
}

func (c *Compiler) emitOutput(nodeID string) error {
	// A preview is only meaningful from the unparameterized top level:
	// a parameterized function's body runs once per call, so there is
	// no single value to preview ahead of time.
	if c.fc.arity != 0 {
		return nil
	}
	index, err := c.output.AddNode(nodeID)
	if err != nil {
		return err
	}
	c.chunk().WriteOp(bytecode.OpOutput, nodeID)
	c.chunk().WriteByte(byte(index), nodeID)
	return nil
}

func (c *Compiler) emitLiteral(nodeID string, v graph.Value) error {
	switch v.Kind() {
	case graph.KindNil:
		c.chunk().WriteOp(bytecode.OpNil, nodeID)
		return nil
	case graph.KindBool:
		if v.Bool() {
			c.chunk().WriteOp(bytecode.OpTrue, nodeID)
		} else {
			c.chunk().WriteOp(bytecode.OpFalse, nodeID)
		}
		return nil
	default:
		hv, err := c.literalValue(nodeID, v)
		if err != nil {
			return err
		}
		slot, err := c.addConstant(nodeID, hv)
		if err != nil {
			return err
		}
		c.chunk().WriteOp(bytecode.OpConstant, nodeID)
		c.chunk().WriteByte(byte(slot), nodeID)
		return nil
	}
}

// literalValue converts a document literal (graph.Value) into a
// runtime heap.Value, interning strings and recursively converting
// list elements.
func (c *Compiler) literalValue(nodeID string, v graph.Value) (heap.Value, error) {
	switch v.Kind() {
	case graph.KindNil:
		return heap.Nil(), nil
	case graph.KindBool:
		return heap.Bool(v.Bool()), nil
	case graph.KindNumber:
		return heap.Number(v.Number()), nil
	case graph.KindString:
		return heap.String(c.heap.Intern(v.String())), nil
	case graph.KindList:
		items := make([]heap.Value, 0, len(v.List()))
		for _, elem := range v.List() {
			hv, err := c.literalValue(nodeID, elem)
			if err != nil {
				return heap.Nil(), err
			}
			items = append(items, hv)
		}
		return heap.List(c.heap.NewList(items)), nil
	default:
		return heap.Nil(), errors.NewNodeError(nodeID, "unrecognized literal kind")
	}
}

func (c *Compiler) emitUnary(nodeID string, op graph.UnaryOp) error {
	switch op {
	case graph.UnaryNegate:
		c.chunk().WriteOp(bytecode.OpNegate, nodeID)
	case graph.UnaryNot:
		c.chunk().WriteOp(bytecode.OpNot, nodeID)
	default:
		return errors.NewNodeError(nodeID, "unrecognized unary operator %q", op)
	}
	return nil
}

// emitBinary lowers the eight binary operators onto the five binary
// opcodes the VM implements directly: the three comparison/equality
// negations (!=, >=, <=) expand to a base opcode plus OpNot, the way a
// stack machine with no dedicated NotEqual/GreaterEqual/LessEqual
// instruction always does.
func (c *Compiler) emitBinary(nodeID string, op graph.BinaryOp) error {
	switch op {
	case graph.BinarySubtract:
		c.chunk().WriteOp(bytecode.OpSubtract, nodeID)
	case graph.BinaryDivide:
		c.chunk().WriteOp(bytecode.OpDivide, nodeID)
	case graph.BinaryEquals:
		c.chunk().WriteOp(bytecode.OpEqual, nodeID)
	case graph.BinaryGreater:
		c.chunk().WriteOp(bytecode.OpGreater, nodeID)
	case graph.BinaryLess:
		c.chunk().WriteOp(bytecode.OpLess, nodeID)
	case graph.BinaryNotEquals:
		c.chunk().WriteOp(bytecode.OpEqual, nodeID)
		c.chunk().WriteOp(bytecode.OpNot, nodeID)
	case graph.BinaryGreaterEqual:
		c.chunk().WriteOp(bytecode.OpLess, nodeID)
		c.chunk().WriteOp(bytecode.OpNot, nodeID)
	case graph.BinaryLessEqual:
		c.chunk().WriteOp(bytecode.OpGreater, nodeID)
		c.chunk().WriteOp(bytecode.OpNot, nodeID)
	default:
		return errors.NewNodeError(nodeID, "unrecognized binary operator %q", op)
	}
	return nil
}
