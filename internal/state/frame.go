package state

import (
	"fmt"

	"github.com/jbse-go/symbex/internal/typesig"
	"github.com/jbse-go/symbex/internal/value"
)

// Frame is the per-active-method activation record: an operand stack,
// a local variable array, the method's bytecode buffer, a program
// counter, the caller's return pc, the method's own signature, and the
// one-shot "wide" flag.
//
// Grounded on the teacher's EnhancedCallFrame (internal/vm/vm.go): a
// per-frame locals array plus an instruction pointer, generalized from a
// single concrete interpreter's call stack into a value that a State can
// deep-clone independently of its siblings.
type Frame struct {
	Signature typesig.Signature
	Code      []byte
	PC        int
	ReturnPC  int
	Locals    []*value.Value
	operands  []*value.Value // LIFO; operands[len-1] is the top
	Wide      bool
	Handlers  []ExceptionHandler
}

// NewFrame allocates a frame for invoking a method whose bytecode is code
// and whose local variable slots are localCount wide (all initially nil —
// callers populate argument slots before pushing the frame).
func NewFrame(sig typesig.Signature, code []byte, localCount int) *Frame {
	return &Frame{
		Signature: sig,
		Code:      code,
		Locals:    make([]*value.Value, localCount),
	}
}

// Push places v on top of the frame's operand stack.
func (f *Frame) Push(v *value.Value) {
	f.operands = append(f.operands, v)
}

// Pop removes and returns the top of the operand stack.
func (f *Frame) Pop() (*value.Value, error) {
	if len(f.operands) == 0 {
		return nil, &OperandStackUnderflow{}
	}
	v := f.operands[len(f.operands)-1]
	f.operands = f.operands[:len(f.operands)-1]
	return v, nil
}

// Top returns the operand stack's top value without removing it.
func (f *Frame) Top() (*value.Value, error) {
	if len(f.operands) == 0 {
		return nil, &OperandStackUnderflow{}
	}
	return f.operands[len(f.operands)-1], nil
}

// OperandStackDepth reports how many values currently sit on the operand
// stack.
func (f *Frame) OperandStackDepth() int { return len(f.operands) }

// PeekAt returns the operand stack slot i positions below the top
// (PeekAt(0) is Top) without removing anything — the formatter's
// read-only window into a frame's operand stack.
func (f *Frame) PeekAt(i int) (*value.Value, error) {
	idx := len(f.operands) - 1 - i
	if idx < 0 || idx >= len(f.operands) {
		return nil, &OperandStackUnderflow{}
	}
	return f.operands[idx], nil
}

// GetInstruction returns the byte at pc+offset in this frame's code,
// failing with InvalidProgramCounter if out of bounds.
func (f *Frame) GetInstruction(offset int) (byte, error) {
	i := f.PC + offset
	if i < 0 || i >= len(f.Code) {
		return 0, &InvalidProgramCounter{PC: i, CodeLen: len(f.Code)}
	}
	return f.Code[i], nil
}

// IncPC advances this frame's program counter by delta, failing if the
// result would land outside the code buffer (landing exactly at
// len(Code) is allowed: it denotes "fell off the end", detected on the
// next getInstruction).
func (f *Frame) IncPC(delta int) error {
	next := f.PC + delta
	if next < 0 || next > len(f.Code) {
		return &InvalidProgramCounter{PC: next, CodeLen: len(f.Code)}
	}
	f.PC = next
	return nil
}

// Clone deep-copies the frame for a forked sibling state. Local/operand
// slices are copied; the Value nodes within them are immutable and safely
// shared by reference.
func (f *Frame) Clone() *Frame {
	clone := &Frame{
		Signature: f.Signature,
		Code:      f.Code, // bytecode buffers are immutable and process-wide
		PC:        f.PC,
		ReturnPC:  f.ReturnPC,
		Wide:      f.Wide,
		Handlers:  f.Handlers, // exception tables are immutable per-method metadata
	}
	if f.Locals != nil {
		clone.Locals = append([]*value.Value(nil), f.Locals...)
	}
	if f.operands != nil {
		clone.operands = append([]*value.Value(nil), f.operands...)
	}
	return clone
}

// OperandStackUnderflow is raised by Pop/Top on an empty operand stack —
// an invariant violation the verifier should have ruled out, surfaced
// here as a recoverable error so the caller can escalate it to
// UnexpectedInternal if it ever actually happens.
type OperandStackUnderflow struct{}

func (e *OperandStackUnderflow) Error() string { return "state: operand stack underflow" }

// InvalidProgramCounter is raised by GetInstruction/IncPC when the
// requested offset falls outside the frame's code buffer.
type InvalidProgramCounter struct {
	PC      int
	CodeLen int
}

func (e *InvalidProgramCounter) Error() string {
	return fmt.Sprintf("state: invalid program counter %d (code length %d)", e.PC, e.CodeLen)
}
