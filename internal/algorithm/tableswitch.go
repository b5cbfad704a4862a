package algorithm

import (
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/value"
)

// switchCase is one (value, target) entry of a tableswitch instruction.
type switchCase struct {
	value  int32
	target int
}

// decodeTableSwitch reads a tableswitch's operand block: a 1-byte case
// count, that many 2-byte-value/2-byte-offset pairs, then a 2-byte
// default offset. It returns the cases, the default target, and the
// instruction's total length.
func decodeTableSwitch(code []byte, pc int) ([]switchCase, int, int) {
	n := int(code[pc+1])
	cases := make([]switchCase, n)
	p := pc + 2
	for i := 0; i < n; i++ {
		v := int32(int16(uint16(code[p])<<8 | uint16(code[p+1])))
		off := decodeOffset2(code, p+1)
		cases[i] = switchCase{value: v, target: pc + off}
		p += 4
	}
	defOff := int(int16(uint16(code[p])<<8 | uint16(code[p+1])))
	defTarget := pc + defOff
	length := (p + 2) - pc
	return cases, defTarget, length
}

func execTableSwitch(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	cases, defTarget, length := decodeTableSwitch(f.Code, f.PC)
	idx, err := st.Pop()
	if err != nil {
		return nil, err
	}

	// Schema (b): a concrete index takes exactly one branch, no fork.
	if idx.Kind() == value.KindSimplex {
		want := idx.SimplexValue().(int32)
		target := defTarget
		for _, c := range cases {
			if c.value == want {
				target = c.target
				break
			}
		}
		return nil, jumpAbsolute(st, target)
	}

	// Schema (d): one alternative per case plus DEFAULT, in ascending
	// branch_number order (cases in declaration order, DEFAULT last).
	calc := st.GetCalculator()
	var alts []Alternative
	letters := identChars(len(cases) + 1)
	for i, c := range cases {
		c := c
		eq, err := calc.ApplyBinary(value.OpEq, idx, calc.MakeIntSimplex(c.value))
		if err != nil {
			return nil, err
		}
		sat, err := ctx.DP.IsSat(st.PC, eq)
		if err != nil {
			return nil, err
		}
		if !sat {
			continue
		}
		letter := letters[i]
		alts = append(alts, Alternative{IdentChar: letter, Apply: func(clone *state.State) error {
			clone.PC.Push(state.AssumeClause(eq))
			return jumpAbsolute(clone, c.target)
		}})
	}
	// DEFAULT is sat unless the case values exhaust every possibility the
	// decision procedure can rule out — a reference procedure with no
	// finite-domain reasoning always considers it.
	defSat, err := isDefaultSat(calc, ctx, st, idx, cases)
	if err != nil {
		return nil, err
	}
	if defSat {
		alts = append(alts, Alternative{IdentChar: letters[len(cases)], Apply: func(clone *state.State) error {
			for _, c := range cases {
				neq, err := calc.ApplyBinary(value.OpNe, idx, calc.MakeIntSimplex(c.value))
				if err != nil {
					return err
				}
				clone.PC.Push(state.AssumeClause(neq))
			}
			return jumpAbsolute(clone, defTarget)
		}})
	}
	_ = length
	return forkAll(ctx, st, alts)
}

func isDefaultSat(calc *value.Calculator, ctx *Context, st *state.State, idx *value.Value, cases []switchCase) (bool, error) {
	for _, c := range cases {
		neq, err := calc.ApplyBinary(value.OpNe, idx, calc.MakeIntSimplex(c.value))
		if err != nil {
			return false, err
		}
		sat, err := ctx.DP.IsSat(st.PC, neq)
		if err != nil {
			return false, err
		}
		if !sat {
			return false, nil
		}
	}
	return true, nil
}

// identChars returns n identifier letters A, B, C, ... Z; past 26 the
// letters wrap around (the 27th is A again), so identifiers are distinct
// only for up to 26 alternatives.
func identChars(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte('A' + (i % 26))
	}
	return out
}
