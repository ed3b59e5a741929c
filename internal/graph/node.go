package graph

// NodeKind discriminates the node variants of §3.
type NodeKind uint8

const (
	KindLiteral NodeKind = iota
	KindConst
	KindFunctionDefinition
	KindVariableDefinition
	KindVariableReference
	KindFunctionCall
	KindParam
	KindUnary
	KindBinary
)

// UnaryOp and BinaryOp enumerate the operator nodes' operator tags.
type UnaryOp string

const (
	UnaryNegate UnaryOp = "negate"
	UnaryNot    UnaryOp = "not"
)

type BinaryOp string

const (
	BinarySubtract     BinaryOp = "subtract"
	BinaryDivide       BinaryOp = "divide"
	BinaryEquals       BinaryOp = "equals"
	BinaryGreater      BinaryOp = "greater"
	BinaryLess         BinaryOp = "less"
	BinaryNotEquals    BinaryOp = "not-equals"
	BinaryGreaterEqual BinaryOp = "greater-equal"
	BinaryLessEqual    BinaryOp = "less-equal"
)

// Node is one element of the normalized document. Only the fields
// relevant to its Kind are populated; ID is always set.
type Node struct {
	ID   string
	Kind NodeKind

	// Literal / Const
	Value Value

	// FunctionDefinition / VariableDefinition: body node id.
	Body string

	// VariableReference
	RefID string

	// FunctionCall
	CalleeID string
	Args     []string

	// Unary / Binary
	UnaryOp  UnaryOp
	BinaryOp BinaryOp
	Operands []string // 1 for Unary, 2 for Binary
}

// ArgEdges returns the node-ids this node consumes as arguments — the
// edges that disqualify a child from being a root, and that the
// analyzer's arity traversal and the compiler's topological sort follow.
func (n *Node) ArgEdges() []string {
	switch n.Kind {
	case KindFunctionDefinition, KindVariableDefinition:
		if n.Body != "" {
			return []string{n.Body}
		}
		return nil
	case KindFunctionCall:
		return n.Args
	case KindUnary, KindBinary:
		return n.Operands
	default:
		return nil
	}
}

// DependencyEdges returns edges that participate in cycle detection and
// must be visited before this node, but do not disqualify a node from
// being a root (VariableReference -> var, FunctionCall -> callee).
func (n *Node) DependencyEdges() []string {
	switch n.Kind {
	case KindVariableReference:
		if n.RefID != "" {
			return []string{n.RefID}
		}
		return nil
	case KindFunctionCall:
		if n.CalleeID != "" {
			return []string{n.CalleeID}
		}
		return nil
	default:
		return nil
	}
}

// IsDefinition reports whether this node declares a top-level binding
// (compiled and emitted in the first, topologically-ordered pass).
func (n *Node) IsDefinition() bool {
	switch n.Kind {
	case KindFunctionDefinition, KindVariableDefinition, KindConst:
		return true
	default:
		return false
	}
}

// NodeMap is the normalized document: every node indexed by its id.
type NodeMap map[string]*Node
