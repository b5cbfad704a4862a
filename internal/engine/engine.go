// Package engine implements the step loop (spec.md §4.5): decode the
// current opcode, dispatch it through an algorithm.Catalog, and report
// the successor states it produced. The engine carries no worklist of
// its own — that belongs to the runner, which owns DFS ordering.
//
// Grounded on the teacher's internal/vm.EnhancedVM.Run: a frame-based
// fetch-decode-dispatch loop over a byte-coded instruction stream,
// generalized here from a single mutating VM to a catalog returning
// zero or more successor states per step.
package engine

import (
	"github.com/jbse-go/symbex/internal/algorithm"
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/symerr"
)

// Engine executes one bytecode instruction at a time against a symbolic
// state, dispatching through a Catalog under a shared Context (the
// class hierarchy oracle, decision procedure, LICS rules and constant
// pools).
type Engine struct {
	Catalog algorithm.Catalog
	Ctx     *algorithm.Context
}

// New builds an Engine over the given catalog and context.
func New(ctx *algorithm.Context, catalog algorithm.Catalog) *Engine {
	return &Engine{Catalog: catalog, Ctx: ctx}
}

// Step executes exactly one instruction against st, per spec.md §4.5:
//
//  1. If st is already stuck, it is returned unchanged as the sole
//     successor — the caller must not step a stuck state further.
//  2. The current opcode is decoded (the algorithm itself consumes and
//     clears any pending wide flag — see algorithm.execWide).
//  3. The catalog entry for that opcode runs.
//  4. A non-forking algorithm (schema (a)/(b)/(c) taking its only
//     branch, including a schema (c) <clinit> push) mutates st in place
//     and returns no new states; Step then reports st itself as the sole
//     successor. A forking algorithm (schema (d)) returns one or more
//     freshly cloned states; Step reports exactly those, in the
//     stable order the algorithm built them — the engine itself never
//     reorders successors.
//
// An unrecognized opcode is not a Go error: it marks st StuckUnsupported
// (spec.md §7 tier 2) so the runner can record it and move on.
func (e *Engine) Step(st *state.State) ([]*state.State, error) {
	if st.IsStuck() {
		return []*state.State{st}, nil
	}

	raw, err := st.GetInstruction(0)
	if err != nil {
		return nil, err
	}
	op := algorithm.OpCode(raw)

	alg, ok := e.Catalog[op]
	if !ok {
		st.StuckFlag = state.Stuck{
			Kind:              state.StuckUnsupported,
			UnsupportedDetail: op.String(),
		}
		return []*state.State{st}, nil
	}

	successors, err := alg.Exec(st, e.Ctx)
	if err != nil {
		return nil, classifyError(op, err)
	}
	if len(successors) == 0 {
		return []*state.State{st}, nil
	}
	return successors, nil
}

// classifyError leaves already-classified tier-2 errors (symerr.go)
// alone for the runner to react to, and promotes anything else to a
// tier-3 fatal error per the Algorithm contract.
func classifyError(op algorithm.OpCode, err error) error {
	switch err.(type) {
	case *state.ThreadStackEmpty:
		return &symerr.ThreadStackEmptyException{}
	case *symerr.Contradiction, *symerr.CannotInvokeNative, *symerr.DecisionException, *symerr.ThreadStackEmptyException:
		return err
	default:
		return symerr.WrapFatal(err, "algorithm "+op.String())
	}
}
