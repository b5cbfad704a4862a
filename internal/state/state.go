package state

import (
	"github.com/jbse-go/symbex/internal/heap"
	"github.com/jbse-go/symbex/internal/typesig"
	"github.com/jbse-go/symbex/internal/value"
)

// VerifyErrorClassName is the sentinel hosted-VM class name for a
// bytecode-verification failure.
const VerifyErrorClassName = "java/lang/VerifyError"

// ExceptionHandler is one entry of a method's exception table: the
// bytecode range [StartPC, EndPC) is guarded by a handler starting at
// HandlerPC, catching instances assignable to CatchClassName (empty
// means catch-all, as for a `finally` block).
type ExceptionHandler struct {
	StartPC        int
	EndPC          int
	HandlerPC      int
	CatchClassName string
}

// ClassHierarchy is the minimal slice of the class hierarchy oracle
// that State itself needs in order to allocate an exception
// instance and match it against handlers. It is declared here, not in
// internal/classhier, so that this package need not import the concrete
// oracle, which itself imports this package (for ExceptionHandler) — see
// DESIGN.md's component ledger for internal/classhier.
type ClassHierarchy interface {
	FieldSignatures(className string) ([]typesig.Signature, error)
	IsSubclassOrSelf(sub, super string) (bool, error)
}

// State bundles the heap, static area, thread stack, path condition,
// flags, identifier and sequence number — everything needed to pin down
// a single execution path. It exclusively owns its heap, stacks, static
// area and path condition; Clone produces a deep copy suitable for
// forking.
type State struct {
	Heap       *heap.Heap
	Static     *heap.StaticArea
	Frames     []*Frame // thread stack; Frames[len-1] is the active frame
	PC         *PathCondition
	StuckFlag  Stuck
	Identifier string
	SeqNumber  int
	Depth      int

	calc      *value.Calculator
	hierarchy ClassHierarchy
	strings   map[string]value.HeapPos // intern table for referenceToStringLiteral

	// resolvedRefs remembers, within this state, which heap position (or
	// value.NullHeapPos) a given symbolic reference's refID was already
	// forked to resolve. A second access of the same symbolic reference
	// on the same path must see the same resolution rather than forking
	// again.
	resolvedRefs map[int]value.HeapPos
}

// NewState builds an empty initial state (no frames, no stuck flag,
// identifier "", sequence number and depth 0) borrowing the given
// process-wide Calculator and ClassHierarchy.
func NewState(calc *value.Calculator, hierarchy ClassHierarchy) *State {
	return &State{
		Heap:         heap.NewHeap(),
		Static:       heap.NewStaticArea(),
		PC:           NewPathCondition(),
		calc:         calc,
		hierarchy:    hierarchy,
		strings:      make(map[string]value.HeapPos),
		resolvedRefs: make(map[int]value.HeapPos),
	}
}

// ResolvedReference reports the heap position (or value.NullHeapPos) a
// symbolic reference's refID was previously forked to resolve on this
// state's path, if any.
func (s *State) ResolvedReference(refID int) (value.HeapPos, bool) {
	pos, ok := s.resolvedRefs[refID]
	return pos, ok
}

// ResolveReference records that a symbolic reference's refID resolves to
// pos on this state's path, so later accesses of the same reference reuse
// it instead of forking again.
func (s *State) ResolveReference(refID int, pos value.HeapPos) {
	s.resolvedRefs[refID] = pos
}

func (s *State) GetCalculator() *value.Calculator   { return s.calc }
func (s *State) GetClassHierarchy() ClassHierarchy   { return s.hierarchy }

// IsStuck reports whether this state has already terminated (return,
// uncaught exception, or unsupported opcode) and so has no successors.
func (s *State) IsStuck() bool { return s.StuckFlag.IsStuck() }

// GetKlass returns the Klass for className if the static area already
// holds one.
func (s *State) GetKlass(className string) (*heap.Klass, bool) {
	return s.Static.Get(className)
}

// CurrentFrame returns the active (topmost) frame, or an error if the
// thread stack is empty.
func (s *State) CurrentFrame() (*Frame, error) {
	if len(s.Frames) == 0 {
		return nil, &ThreadStackEmpty{}
	}
	return s.Frames[len(s.Frames)-1], nil
}

// PushFrame pushes a new active frame (a method call).
func (s *State) PushFrame(f *Frame) {
	s.Frames = append(s.Frames, f)
}

// PopFrame pops the active frame (a method return), failing if the
// thread stack is already empty.
func (s *State) PopFrame() (*Frame, error) {
	if len(s.Frames) == 0 {
		return nil, &ThreadStackEmpty{}
	}
	f := s.Frames[len(s.Frames)-1]
	s.Frames = s.Frames[:len(s.Frames)-1]
	return f, nil
}

// GetInstruction returns the byte at pc+offset in the current frame.
func (s *State) GetInstruction(offset int) (byte, error) {
	f, err := s.CurrentFrame()
	if err != nil {
		return 0, err
	}
	return f.GetInstruction(offset)
}

// IncPC advances the current frame's program counter by delta.
func (s *State) IncPC(delta int) error {
	f, err := s.CurrentFrame()
	if err != nil {
		return err
	}
	return f.IncPC(delta)
}

// Push/Pop/Top operate on the current frame's operand stack.
func (s *State) Push(v *value.Value) error {
	f, err := s.CurrentFrame()
	if err != nil {
		return err
	}
	f.Push(v)
	return nil
}

func (s *State) Pop() (*value.Value, error) {
	f, err := s.CurrentFrame()
	if err != nil {
		return nil, err
	}
	return f.Pop()
}

func (s *State) Top() (*value.Value, error) {
	f, err := s.CurrentFrame()
	if err != nil {
		return nil, err
	}
	return f.Top()
}

// ThreadStackEmpty is recoverable by setting Stuck = StuckReturn, per
// the engine's error propagation policy.
type ThreadStackEmpty struct{}

func (e *ThreadStackEmpty) Error() string { return "state: thread stack empty" }

// CreateThrowableAndThrowIt allocates an instance of className, then
// walks up the frame stack looking for a handler, unwinding frames while
// none matches; if the stack empties, sets Stuck = exception(ref).
func (s *State) CreateThrowableAndThrowIt(className string) error {
	fields, err := s.hierarchy.FieldSignatures(className)
	if err != nil {
		return err
	}
	obj := heap.NewInstance(className, fields, s.calc)
	pos := s.Heap.Allocate(obj)
	ref := s.calc.MakeReferenceConcrete(pos)

	for len(s.Frames) > 0 {
		f := s.Frames[len(s.Frames)-1]
		if h, ok := findHandler(f, className, s.hierarchy); ok {
			f.PC = h.HandlerPC
			f.operands = nil
			f.Push(ref)
			return nil
		}
		s.Frames = s.Frames[:len(s.Frames)-1]
	}

	s.StuckFlag = Stuck{Kind: StuckException, ExceptionRef: ref}
	return nil
}

func findHandler(f *Frame, thrownClass string, hierarchy ClassHierarchy) (ExceptionHandler, bool) {
	for _, h := range f.Handlers {
		if f.PC < h.StartPC || f.PC >= h.EndPC {
			continue
		}
		if h.CatchClassName == "" {
			return h, true
		}
		ok, err := hierarchy.IsSubclassOrSelf(thrownClass, h.CatchClassName)
		if err == nil && ok {
			return h, true
		}
	}
	return ExceptionHandler{}, false
}

// ReferenceToStringLiteral interns a UTF-8 string literal: it returns an
// existing heap reference for the same literal or allocates a new
// immutable string instance. The string instance is
// modeled as an Instance of "java/lang/String" carrying a single
// synthetic field holding the literal as a ConstantPoolString payload —
// sufficient for the engine's own bookkeeping without a full String model.
func (s *State) ReferenceToStringLiteral(literal string) *value.Value {
	if pos, ok := s.strings[literal]; ok {
		return s.calc.MakeReferenceConcrete(pos)
	}
	sig := typesig.Signature{ClassName: "java/lang/String", Descriptor: "Ljava/lang/String;", MemberName: "value"}
	obj := heap.NewInstance("java/lang/String", []typesig.Signature{sig}, s.calc)
	_ = obj.PutFieldValue(sig, s.calc.MakeConstantPoolString(literal))
	pos := s.Heap.Allocate(obj)
	s.strings[literal] = pos
	return s.calc.MakeReferenceConcrete(pos)
}

// Clone produces a deep copy suitable for forking: heap, static area,
// frames and path condition are all copied; Value nodes are shared by
// reference since they are immutable once interned (spec.md §3 "Lifecycle
// and ownership", §5).
func (s *State) Clone() *State {
	clone := &State{
		Heap:       s.Heap.Clone(),
		Static:     s.Static.Clone(),
		PC:         s.PC.Clone(),
		StuckFlag:  s.StuckFlag,
		Identifier: s.Identifier,
		SeqNumber:  s.SeqNumber,
		Depth:      s.Depth,
		calc:         s.calc,
		hierarchy:    s.hierarchy,
		strings:      make(map[string]value.HeapPos, len(s.strings)),
		resolvedRefs: make(map[int]value.HeapPos, len(s.resolvedRefs)),
	}
	for lit, pos := range s.strings {
		clone.strings[lit] = pos
	}
	for refID, pos := range s.resolvedRefs {
		clone.resolvedRefs[refID] = pos
	}
	clone.Frames = make([]*Frame, len(s.Frames))
	for i, f := range s.Frames {
		clone.Frames[i] = f.Clone()
	}
	return clone
}
