package bytecode

// DebugInfo stores source location for each bytecode instruction. The
// graph compiler stamps every emitted opcode with the node id it came
// from, so a runtime error or a disassembly listing can point back at
// the offending node.
type DebugInfo struct {
	NodeID string
}

// FunctionProto describes a function by name, arity and chunk. The
// graph compiler does not emit it: nested functions go into the
// constant pool as heap-allocated function values.
type FunctionProto struct {
	Name  string
	Arity int
	Chunk *Chunk
}

// Chunk is an ordered instruction stream plus its constant pool.
// Immutable once its owning function is fully compiled.
type Chunk struct {
	Code      []byte
	Constants []interface{}
	Debug     []DebugInfo
}

func NewChunk() *Chunk {
	return &Chunk{
		Code:      []byte{},
		Constants: []interface{}{},
		Debug:     []DebugInfo{},
	}
}

func (c *Chunk) WriteOp(op OpCode, nodeID string) {
	c.Code = append(c.Code, byte(op))
	c.Debug = append(c.Debug, DebugInfo{NodeID: nodeID})
}

func (c *Chunk) WriteByte(b byte, nodeID string) {
	c.Code = append(c.Code, b)
	c.Debug = append(c.Debug, DebugInfo{NodeID: nodeID})
}

// AddConstant appends val to the constant pool and returns its slot.
// Callers enforce the 256-entry addressable limit (the compiler does,
// at the call site, so it can attach a node id to the resulting error).
func (c *Chunk) AddConstant(val interface{}) int {
	c.Constants = append(c.Constants, val)
	return len(c.Constants) - 1
}

func (c *Chunk) NodeAt(ip int) string {
	if ip >= 0 && ip < len(c.Debug) {
		return c.Debug[ip].NodeID
	}
	return ""
}
