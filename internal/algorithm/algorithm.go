package algorithm

import (
	"github.com/jbse-go/symbex/internal/classhier"
	"github.com/jbse-go/symbex/internal/decision"
	"github.com/jbse-go/symbex/internal/state"
)

// Context bundles the process-wide, effectively immutable services every
// Algorithm needs: the class hierarchy oracle, the decision procedure,
// the LICS rule set that prunes reference-resolution alternatives, and
// the per-class constant pools. A single Context is shared by every
// state the engine steps.
type Context struct {
	Hierarchy classhier.Hierarchy
	DP        decision.DecisionProcedure
	LICS      decision.RuleSet
	Pools     Pools
}

// Algorithm is the single entry point every bytecode family implements.
// Exec is total: errors are reported either by throwing an instance into
// st via CreateThrowableAndThrowIt (recoverable), by setting st.StuckFlag,
// or by returning a Go error; the engine passes the tier-2 symerr errors
// through and escalates any other error to a fatal one (symerr.WrapFatal).
//
// A non-forking Exec, including one that pushes a <clinit> frame and
// leaves pc unchanged, mutates st in place and returns (nil, nil). A
// forking Exec (schema (d)) leaves st unmodified past the point of the
// fork and returns the
// successor states in the stable order spec.md §4.4 requires; the engine
// makes Successors[0] current and pushes the rest onto the runner's
// worklist.
type Algorithm interface {
	Exec(st *state.State, ctx *Context) ([]*state.State, error)
}

// AlgorithmFunc adapts a plain function to the Algorithm interface, the
// same "small single-purpose type, not a class hierarchy" shape the
// rest of this codebase uses for pluggable behavior.
type AlgorithmFunc func(st *state.State, ctx *Context) ([]*state.State, error)

func (f AlgorithmFunc) Exec(st *state.State, ctx *Context) ([]*state.State, error) {
	return f(st, ctx)
}

// Catalog maps each opcode to its Algorithm. DefaultCatalog wires the
// opcode alphabet declared in opcodes.go to the schema implementations in
// this package.
type Catalog map[OpCode]Algorithm

// DefaultCatalog returns the reference catalog wiring every OpCode this
// package declares to its Algorithm.
func DefaultCatalog() Catalog {
	return Catalog{
		OpNop:    AlgorithmFunc(execNop),
		OpIConst: AlgorithmFunc(execIConst),
		OpILoad:  AlgorithmFunc(execILoad),
		OpIStore: AlgorithmFunc(execIStore),
		OpALoad:  AlgorithmFunc(execALoad),
		OpAStore: AlgorithmFunc(execAStore),
		OpIAdd:   AlgorithmFunc(binaryOp(opAdd)),
		OpISub:   AlgorithmFunc(binaryOp(opSub)),
		OpIMul:   AlgorithmFunc(binaryOp(opMul)),
		OpIDiv:   AlgorithmFunc(binaryOp(opDiv)),
		OpIRem:   AlgorithmFunc(binaryOp(opRem)),
		OpINeg:   AlgorithmFunc(execINeg),
		OpDup:    AlgorithmFunc(execDup),
		OpSwap:   AlgorithmFunc(execSwap),
		OpPop:    AlgorithmFunc(execPop),
		OpWide:   AlgorithmFunc(execWide),

		OpGoto:     AlgorithmFunc(execGoto),
		OpIfIcmpEq: AlgorithmFunc(ifIcmp(cmpEq)),
		OpIfIcmpNe: AlgorithmFunc(ifIcmp(cmpNe)),
		OpIfIcmpLt: AlgorithmFunc(ifIcmp(cmpLt)),
		OpIfIcmpGe: AlgorithmFunc(ifIcmp(cmpGe)),
		OpTableSwitch: AlgorithmFunc(execTableSwitch),

		OpGetStatic:    AlgorithmFunc(execGetStatic),
		OpPutStatic:    AlgorithmFunc(execPutStatic),
		OpGetField:     AlgorithmFunc(execGetField),
		OpPutField:     AlgorithmFunc(execPutField),
		OpNew:          AlgorithmFunc(execNew),
		OpInvokeStatic: AlgorithmFunc(execInvokeStatic),
		OpLdc:          AlgorithmFunc(execLdc),

		OpIReturn:    AlgorithmFunc(execIReturn),
		OpAReturn:    AlgorithmFunc(execAReturn),
		OpReturnVoid: AlgorithmFunc(execReturnVoid),
		OpAthrow:     AlgorithmFunc(execAthrow),

		OpIaload:  AlgorithmFunc(arrayLoad(true)),
		OpIastore: AlgorithmFunc(arrayStore(true)),
		OpAaload:  AlgorithmFunc(arrayLoad(false)),
		OpAastore: AlgorithmFunc(arrayStore(false)),
	}
}
