// Schema (b)/(d): goto is always a concrete, unconditional branch. The
// if_icmp* family takes schema (b) when the comparison reduces to a
// concrete boolean Simplex and falls through to schema (d) — a
// generic two-way fork — otherwise.
package algorithm

import (
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/value"
)

func execGoto(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	offset := decodeOffset2(f.Code, f.PC)
	return nil, st.IncPC(offset)
}

type cmpKind int

const (
	cmpEq cmpKind = iota
	cmpNe
	cmpLt
	cmpGe
)

func (k cmpKind) operator() value.Operator {
	switch k {
	case cmpEq:
		return value.OpEq
	case cmpNe:
		return value.OpNe
	case cmpLt:
		return value.OpLt
	default:
		return value.OpGe
	}
}

func (k cmpKind) opcode() OpCode {
	switch k {
	case cmpEq:
		return OpIfIcmpEq
	case cmpNe:
		return OpIfIcmpNe
	case cmpLt:
		return OpIfIcmpLt
	default:
		return OpIfIcmpGe
	}
}

// ifIcmp builds the two-way conditional branch algorithm for one
// comparison kind.
func ifIcmp(kind cmpKind) func(st *state.State, ctx *Context) ([]*state.State, error) {
	return func(st *state.State, ctx *Context) ([]*state.State, error) {
		f, err := st.CurrentFrame()
		if err != nil {
			return nil, err
		}
		offset := decodeOffset2(f.Code, f.PC)
		target := f.PC + offset
		fallthroughPC := f.PC + Length(kind.opcode(), false)

		r, err := st.Pop()
		if err != nil {
			return nil, err
		}
		l, err := st.Pop()
		if err != nil {
			return nil, err
		}
		cond, err := st.GetCalculator().ApplyBinary(kind.operator(), l, r)
		if err != nil {
			return nil, err
		}

		// Schema (b): the condition collapsed to a concrete boolean.
		if cond.Kind() == value.KindSimplex {
			taken := cond.SimplexValue().(bool)
			if taken {
				return nil, jumpAbsolute(st, target)
			}
			return nil, jumpAbsolute(st, fallthroughPC)
		}

		// Schema (d): fork on the branch decision.
		takenSat, err := ctx.DP.IsSat(st.PC, cond)
		if err != nil {
			return nil, err
		}
		notTaken, err := st.GetCalculator().ApplyUnary(value.OpNot, cond)
		if err != nil {
			return nil, err
		}
		notTakenSat, err := ctx.DP.IsSat(st.PC, notTaken)
		if err != nil {
			return nil, err
		}

		var alts []Alternative
		if takenSat {
			alts = append(alts, Alternative{IdentChar: 'L', Apply: func(clone *state.State) error {
				clone.PC.Push(state.AssumeClause(cond))
				return jumpAbsolute(clone, target)
			}})
		}
		if notTakenSat {
			alts = append(alts, Alternative{IdentChar: 'R', Apply: func(clone *state.State) error {
				clone.PC.Push(state.AssumeClause(notTaken))
				return jumpAbsolute(clone, fallthroughPC)
			}})
		}
		return forkAll(ctx, st, alts)
	}
}

func jumpAbsolute(st *state.State, target int) error {
	f, err := st.CurrentFrame()
	if err != nil {
		return err
	}
	return st.IncPC(target - f.PC)
}
