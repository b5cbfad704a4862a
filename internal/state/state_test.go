package state

import (
	"testing"

	"github.com/jbse-go/symbex/internal/typesig"
	"github.com/jbse-go/symbex/internal/value"
)

// fakeHierarchy is a minimal ClassHierarchy stand-in for testing State in
// isolation from internal/classhier.
type fakeHierarchy struct {
	fields map[string][]typesig.Signature
	supers map[string]string
}

func (f *fakeHierarchy) FieldSignatures(className string) ([]typesig.Signature, error) {
	return f.fields[className], nil
}

func (f *fakeHierarchy) IsSubclassOrSelf(sub, super string) (bool, error) {
	for c := sub; c != ""; c = f.supers[c] {
		if c == super {
			return true, nil
		}
	}
	return false, nil
}

func newTestState() (*State, *value.Calculator) {
	calc := value.DefaultCalculator()
	h := &fakeHierarchy{
		fields: map[string][]typesig.Signature{
			"pkg/MyException": nil,
		},
		supers: map[string]string{
			"pkg/MyException": "java/lang/Exception",
		},
	}
	return NewState(calc, h), calc
}

func TestOperandStackPushPopTop(t *testing.T) {
	s, calc := newTestState()
	s.PushFrame(NewFrame(typesig.Signature{ClassName: "pkg/Foo", MemberName: "bar", Descriptor: "()I"}, []byte{0, 1, 2}, 0))

	v := calc.MakeIntSimplex(5)
	if err := s.Push(v); err != nil {
		t.Fatalf("Push: %v", err)
	}
	top, err := s.Top()
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if top != v {
		t.Fatalf("expected top to be the pushed value")
	}
	got, err := s.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if got != v {
		t.Fatalf("expected pop to return the pushed value")
	}
	if _, err := s.Pop(); err == nil {
		t.Fatalf("expected underflow error on empty stack")
	}
}

func TestGetInstructionAndIncPC(t *testing.T) {
	s, _ := newTestState()
	s.PushFrame(NewFrame(typesig.Signature{}, []byte{10, 20, 30}, 0))

	b, err := s.GetInstruction(0)
	if err != nil || b != 10 {
		t.Fatalf("GetInstruction(0) = %v, %v", b, err)
	}
	if err := s.IncPC(1); err != nil {
		t.Fatalf("IncPC: %v", err)
	}
	b, err = s.GetInstruction(0)
	if err != nil || b != 20 {
		t.Fatalf("GetInstruction(0) after IncPC = %v, %v", b, err)
	}
	if err := s.IncPC(5); err == nil {
		t.Fatalf("expected InvalidProgramCounter for out-of-bounds pc")
	}
}

func TestCreateThrowableUnwindsToHandler(t *testing.T) {
	s, _ := newTestState()
	inner := NewFrame(typesig.Signature{MemberName: "inner"}, []byte{0, 0, 0}, 0)
	inner.Handlers = []ExceptionHandler{{StartPC: 0, EndPC: 3, HandlerPC: 2, CatchClassName: "java/lang/Exception"}}
	s.PushFrame(inner)

	if err := s.CreateThrowableAndThrowIt("pkg/MyException"); err != nil {
		t.Fatalf("CreateThrowableAndThrowIt: %v", err)
	}
	if s.StuckFlag.IsStuck() {
		t.Fatalf("expected the handler to catch the exception, not leave the state stuck")
	}
	f, err := s.CurrentFrame()
	if err != nil {
		t.Fatalf("CurrentFrame: %v", err)
	}
	if f.PC != 2 {
		t.Fatalf("expected pc set to handler pc 2, got %d", f.PC)
	}
	if f.OperandStackDepth() != 1 {
		t.Fatalf("expected exception ref pushed onto the handler frame's operand stack")
	}
}

func TestCreateThrowableUnwindsOffEmptyStack(t *testing.T) {
	s, _ := newTestState()
	f := NewFrame(typesig.Signature{}, []byte{0}, 0)
	s.PushFrame(f) // no handlers

	if err := s.CreateThrowableAndThrowIt("pkg/MyException"); err != nil {
		t.Fatalf("CreateThrowableAndThrowIt: %v", err)
	}
	if s.StuckFlag.Kind != StuckException {
		t.Fatalf("expected Stuck = exception, got %v", s.StuckFlag.Kind)
	}
	if len(s.Frames) != 0 {
		t.Fatalf("expected all frames unwound, got %d remaining", len(s.Frames))
	}
}

func TestReferenceToStringLiteralInterns(t *testing.T) {
	s, _ := newTestState()
	a := s.ReferenceToStringLiteral("hello")
	b := s.ReferenceToStringLiteral("hello")
	if a.HeapPosition() != b.HeapPosition() {
		t.Fatalf("expected interning to return the same heap position")
	}
	c := s.ReferenceToStringLiteral("world")
	if c.HeapPosition() == a.HeapPosition() {
		t.Fatalf("expected distinct literals to get distinct heap positions")
	}
}
