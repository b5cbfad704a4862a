package algorithm

import (
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/value"
)

func opAdd() value.Operator { return value.OpAdd }
func opSub() value.Operator { return value.OpSub }
func opMul() value.Operator { return value.OpMul }
func opDiv() value.Operator { return value.OpDiv }
func opRem() value.Operator { return value.OpRem }

// binaryOp builds a schema-(a) algorithm for a binary arithmetic opcode.
// Division/remainder by a concrete zero is not a fork: the calculator
// reports value.ArithmeticError, the algorithm throws the modeled
// ArithmeticException via CreateThrowableAndThrowIt, and pc is left
// unchanged — the throw itself walks the frame stack for a handler
// (spec.md §8 scenario 5).
func binaryOp(opFn func() value.Operator) func(st *state.State, ctx *Context) ([]*state.State, error) {
	op := opFn()
	return func(st *state.State, ctx *Context) ([]*state.State, error) {
		r, err := st.Pop()
		if err != nil {
			return nil, err
		}
		l, err := st.Pop()
		if err != nil {
			return nil, err
		}
		result, err := st.GetCalculator().ApplyBinary(op, l, r)
		if err != nil {
			if _, ok := err.(*value.ArithmeticError); ok {
				if tErr := st.CreateThrowableAndThrowIt("java/lang/ArithmeticException"); tErr != nil {
					return nil, tErr
				}
				return nil, nil
			}
			return nil, err
		}
		if err := st.Push(result); err != nil {
			return nil, err
		}
		return nil, advance(st, opcodeFor(op))
	}
}

func opcodeFor(op value.Operator) OpCode {
	switch op {
	case value.OpAdd:
		return OpIAdd
	case value.OpSub:
		return OpISub
	case value.OpMul:
		return OpIMul
	case value.OpDiv:
		return OpIDiv
	case value.OpRem:
		return OpIRem
	default:
		return OpNop
	}
}
