// Schema (a): purely local algorithms. No decision, no fork; each
// consumes operands, mutates the frame, and advances pc by the
// instruction's length.
package algorithm

import (
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/value"
)

func execNop(st *state.State, ctx *Context) ([]*state.State, error) {
	return nil, advance(st, OpNop)
}

func execIConst(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	n := decodeInt32(f.Code, f.PC)
	if err := st.Push(st.GetCalculator().MakeIntSimplex(n)); err != nil {
		return nil, err
	}
	return nil, advance(st, OpIConst)
}

// localIndex reads the one-shot-wide-sensitive local variable index
// operand, matching spec.md §8 scenario 6: while Frame.Wide is set, the
// index operand is 2 bytes instead of 1.
func localIndex(f *state.Frame) int {
	if f.Wide {
		return decodeIndex2(f.Code, f.PC)
	}
	return int(f.Code[f.PC+1])
}

func execILoad(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	idx := localIndex(f)
	wasWide := f.Wide
	if err := st.Push(f.Locals[idx]); err != nil {
		return nil, err
	}
	return nil, advanceWide(st, OpILoad, wasWide)
}

func execIStore(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	idx := localIndex(f)
	wasWide := f.Wide
	v, err := st.Pop()
	if err != nil {
		return nil, err
	}
	f.Locals[idx] = v
	return nil, advanceWide(st, OpIStore, wasWide)
}

func execALoad(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	idx := localIndex(f)
	wasWide := f.Wide
	if err := st.Push(f.Locals[idx]); err != nil {
		return nil, err
	}
	return nil, advanceWide(st, OpALoad, wasWide)
}

func execAStore(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	idx := localIndex(f)
	wasWide := f.Wide
	v, err := st.Pop()
	if err != nil {
		return nil, err
	}
	f.Locals[idx] = v
	return nil, advanceWide(st, OpAStore, wasWide)
}

func execINeg(st *state.State, ctx *Context) ([]*state.State, error) {
	v, err := st.Pop()
	if err != nil {
		return nil, err
	}
	r, err := st.GetCalculator().ApplyUnary(value.OpNeg, v)
	if err != nil {
		return nil, err
	}
	if err := st.Push(r); err != nil {
		return nil, err
	}
	return nil, advance(st, OpINeg)
}

func execDup(st *state.State, ctx *Context) ([]*state.State, error) {
	v, err := st.Top()
	if err != nil {
		return nil, err
	}
	if err := st.Push(v); err != nil {
		return nil, err
	}
	return nil, advance(st, OpDup)
}

func execSwap(st *state.State, ctx *Context) ([]*state.State, error) {
	a, err := st.Pop()
	if err != nil {
		return nil, err
	}
	b, err := st.Pop()
	if err != nil {
		return nil, err
	}
	if err := st.Push(a); err != nil {
		return nil, err
	}
	if err := st.Push(b); err != nil {
		return nil, err
	}
	return nil, advance(st, OpSwap)
}

func execPop(st *state.State, ctx *Context) ([]*state.State, error) {
	if _, err := st.Pop(); err != nil {
		return nil, err
	}
	return nil, advance(st, OpPop)
}

// execWide sets the one-shot Frame.Wide flag and advances pc by 1; the
// *next* decoded instruction's own Exec consumes and clears it (spec.md
// §8 scenario 6: pc advances 1 (wide) + 3 (widened iload) = 4 total).
func execWide(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	f.Wide = true
	return nil, advance(st, OpWide)
}

func advance(st *state.State, op OpCode) error {
	return st.IncPC(Length(op, false))
}

// advanceWide advances pc by the instruction's wide-sensitive length and
// clears the one-shot flag it consumed.
func advanceWide(st *state.State, op OpCode, wasWide bool) error {
	f, err := st.CurrentFrame()
	if err != nil {
		return err
	}
	f.Wide = false
	return st.IncPC(Length(op, wasWide))
}
