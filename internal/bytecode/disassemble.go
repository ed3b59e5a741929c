package bytecode

import "fmt"

// Disassemble renders chunk as a human-readable instruction listing. It
// is a pure formatter with no influence on execution: the VM's dispatch
// loop never calls this. It exists purely as the "optional debug
// tracing/disassembly" collaborator named in the system's scope.
func Disassemble(chunk *Chunk, name string) string {
	out := fmt.Sprintf("== %s ==\n", name)
	for ip := 0; ip < len(chunk.Code); {
		var line string
		line, ip = disassembleInstruction(chunk, ip)
		out += line
	}
	return out
}

func disassembleInstruction(chunk *Chunk, ip int) (string, int) {
	op := OpCode(chunk.Code[ip])
	node := chunk.NodeAt(ip)
	switch op {
	case OpConstant, OpFunction, OpDefineGlobal, OpGetGlobal:
		slot := chunk.Code[ip+1]
		return fmt.Sprintf("%04d %-14s %3d  %v  (node %s)\n", ip, op, slot, chunk.Constants[slot], node), ip + 2
	case OpGetLocal:
		slot := chunk.Code[ip+1]
		return fmt.Sprintf("%04d %-14s %3d  (node %s)\n", ip, op, slot, node), ip + 2
	case OpCall:
		argc := chunk.Code[ip+1]
		return fmt.Sprintf("%04d %-14s %3d  (node %s)\n", ip, op, argc, node), ip + 2
	case OpOutput:
		idx := chunk.Code[ip+1]
		return fmt.Sprintf("%04d %-14s %3d  (node %s)\n", ip, op, idx, node), ip + 2
	default:
		return fmt.Sprintf("%04d %-14s      (node %s)\n", ip, op, node), ip + 1
	}
}
