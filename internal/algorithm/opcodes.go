// Package algorithm implements the step/fork driver's Algorithm catalog:
// one Algorithm per bytecode family, each following one of spec.md
// §4.4's four schemas (local, concrete-branch, field/method-access with
// lazy init, fork-on-decision).
//
// Grounded on spec.md §4.4 directly; the opcode alphabet and category
// naming are cross-checked against
// other_examples/16e41ae9_thanhhungg97-jvm__interpreter-opcodes.go.go and
// other_examples/85517671_zserge-tojvm__vm.go.go, two small Go JVM
// interpreters in the retrieval pack. The catalog implements a
// representative subset of the hosted ~200 opcodes, large enough to
// exercise every schema and every scenario in spec.md §8 — full decoding
// of every opcode is out of scope per spec.md §1.
package algorithm

// OpCode is one hosted bytecode instruction.
type OpCode byte

const (
	OpNop OpCode = iota

	// Schema (a): purely local.
	OpIConst  // push a 4-byte int immediate
	OpILoad   // push locals[index]; index is 1 byte, or 2 if Wide
	OpIStore  // locals[index] = pop(); index is 1 byte, or 2 if Wide
	OpALoad   // push locals[index] (reference); index is 1 byte, or 2 if Wide
	OpAStore  // locals[index] = pop() (reference); index is 1 byte, or 2 if Wide
	OpIAdd
	OpISub
	OpIMul
	OpIDiv
	OpIRem
	OpINeg
	OpDup
	OpSwap
	OpPop
	OpWide // sets Frame.Wide for the next instruction's decode

	// Schema (b)/(d): branches. Goto is always schema (b); the IfIcmp*
	// family is schema (b) when the comparison reduces to a concrete
	// boolean and schema (d) otherwise.
	OpGoto     // unconditional branch, 2-byte signed offset
	OpIfIcmpEq // pop two ints, branch if equal
	OpIfIcmpNe
	OpIfIcmpLt
	OpIfIcmpGe
	OpTableSwitch // pop one int, branch by case/default; see decodeTableSwitch

	// Schema (c): field/method access with lazy init.
	OpGetStatic    // 2-byte constant-pool index -> Signature
	OpPutStatic    // 2-byte constant-pool index -> Signature
	OpGetField     // 2-byte constant-pool index -> Signature; schema (d) when objref is symbolic
	OpPutField     // 2-byte constant-pool index -> Signature; schema (d) when objref is symbolic
	OpNew          // 2-byte constant-pool index -> class name
	OpInvokeStatic // 2-byte constant-pool index -> Signature
	OpLdc          // 2-byte constant-pool index -> int literal or string literal

	// Schema (a)/(c): control transfer out of a frame.
	OpIReturn
	OpAReturn
	OpReturnVoid
	OpAthrow // pop a reference, throw it

	// Schema (d): array access, bounds-checked.
	OpIaload  // pop index, arrayref; push element (int)
	OpIastore // pop value, index, arrayref; store element (int)
	OpAaload  // pop index, arrayref; push element (reference)
	OpAastore // pop value, index, arrayref; store element (reference)
)

// Length reports the total instruction length in bytes (opcode byte
// included), honoring the one-shot wide flag for the four variable-width
// local-variable accessors. TableSwitch's length depends on its operand
// count and is computed separately by decodeTableSwitch.
func Length(op OpCode, wide bool) int {
	switch op {
	case OpILoad, OpIStore, OpALoad, OpAStore:
		if wide {
			return 3
		}
		return 2
	case OpIConst:
		return 5
	case OpGoto, OpIfIcmpEq, OpIfIcmpNe, OpIfIcmpLt, OpIfIcmpGe:
		return 3
	case OpGetStatic, OpPutStatic, OpGetField, OpPutField, OpNew, OpInvokeStatic, OpLdc:
		return 3
	case OpNop, OpIAdd, OpISub, OpIMul, OpIDiv, OpIRem, OpINeg, OpDup, OpSwap, OpPop,
		OpWide, OpIReturn, OpAReturn, OpReturnVoid, OpAthrow,
		OpIaload, OpIastore, OpAaload, OpAastore:
		return 1
	default:
		return 1
	}
}

func (op OpCode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "unknown"
}

var opcodeNames = map[OpCode]string{
	OpNop: "nop", OpIConst: "iconst", OpILoad: "iload", OpIStore: "istore",
	OpALoad: "aload", OpAStore: "astore", OpIAdd: "iadd", OpISub: "isub",
	OpIMul: "imul", OpIDiv: "idiv", OpIRem: "irem", OpINeg: "ineg",
	OpDup: "dup", OpSwap: "swap", OpPop: "pop", OpWide: "wide",
	OpGoto: "goto", OpIfIcmpEq: "if_icmpeq", OpIfIcmpNe: "if_icmpne",
	OpIfIcmpLt: "if_icmplt", OpIfIcmpGe: "if_icmpge", OpTableSwitch: "tableswitch",
	OpGetStatic: "getstatic", OpPutStatic: "putstatic", OpGetField: "getfield",
	OpPutField: "putfield", OpNew: "new", OpInvokeStatic: "invokestatic", OpLdc: "ldc",
	OpIReturn: "ireturn", OpAReturn: "areturn", OpReturnVoid: "return",
	OpAthrow: "athrow", OpIaload: "iaload", OpIastore: "iastore",
	OpAaload: "aaload", OpAastore: "aastore",
}
