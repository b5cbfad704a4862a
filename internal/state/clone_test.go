package state

import (
	"testing"

	"github.com/jbse-go/symbex/internal/heap"
	"github.com/jbse-go/symbex/internal/typesig"
)

func TestCloneFramesAreIndependent(t *testing.T) {
	s, calc := newTestState()
	s.PushFrame(NewFrame(typesig.Signature{}, []byte{0, 0}, 1))
	s.Frames[0].Locals[0] = calc.MakeIntSimplex(1)

	clone := s.Clone()
	clone.Frames[0].Locals[0] = calc.MakeIntSimplex(99)

	if s.Frames[0].Locals[0].SimplexValue().(int32) != 1 {
		t.Fatalf("mutating a clone's locals must not affect the parent")
	}
}

func TestClonePathConditionIsIndependent(t *testing.T) {
	s, calc := newTestState()
	x := calc.MakeTerm(typesig.Int)
	s.PC.Push(AssumeClause(x))

	clone := s.Clone()
	clone.PC.Push(AssumeClause(x))

	if s.PC.Len() != 1 {
		t.Fatalf("expected parent path condition untouched, got len %d", s.PC.Len())
	}
	if clone.PC.Len() != 2 {
		t.Fatalf("expected clone path condition to have the extra clause, got len %d", clone.PC.Len())
	}
}

func TestCloneIdentifierAndDepthCopied(t *testing.T) {
	s, _ := newTestState()
	s.Identifier = "LR"
	s.Depth = 2
	s.SeqNumber = 10

	clone := s.Clone()
	clone.Identifier += "L"
	clone.Depth++

	if s.Identifier != "LR" || s.Depth != 2 {
		t.Fatalf("mutating clone's identifier/depth must not affect parent")
	}
	if clone.Identifier != "LRL" || clone.Depth != 3 {
		t.Fatalf("clone should have evolved independently")
	}
}

func TestCloneHeapIsIndependent(t *testing.T) {
	s, calc := newTestState()
	pos := s.Heap.Allocate(heap.NewInstance("pkg/Foo", nil, calc))
	_ = pos
	clone := s.Clone()
	if clone.Heap.Len() != s.Heap.Len() {
		t.Fatalf("expected clone to start with the same heap contents")
	}
}
