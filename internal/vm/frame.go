package vm

import "graphvm/internal/heap"

// callFrame is one ongoing function call: which FunctionObj is
// running, where its instruction pointer is, and which value-stack
// slot its locals start at (§4.3's frame model).
type callFrame struct {
	fn       *heap.FunctionObj
	ip       int
	slotBase int
}

func (f *callFrame) readByte() byte {
	b := f.fn.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (f *callFrame) readConstant() heap.Value {
	return f.fn.Chunk.Constants[f.readByte()].(heap.Value)
}

func (f *callFrame) nodeID() string {
	// ip was already advanced past the opcode (and any operand) by the
	// time an error needs to attribute itself, so look one byte back.
	return f.fn.Chunk.NodeAt(f.ip - 1)
}
