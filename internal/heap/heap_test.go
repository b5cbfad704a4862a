package heap

import (
	"testing"

	"github.com/jbse-go/symbex/internal/typesig"
	"github.com/jbse-go/symbex/internal/value"
)

func TestAllocateMonotonicIDs(t *testing.T) {
	calc := value.DefaultCalculator()
	h := NewHeap()
	p1 := h.Allocate(NewInstance("pkg/Foo", nil, calc))
	p2 := h.Allocate(NewInstance("pkg/Foo", nil, calc))
	if p2 <= p1 {
		t.Fatalf("expected monotonically increasing heap positions, got %d then %d", p1, p2)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	calc := value.DefaultCalculator()
	sig := typesig.Signature{ClassName: "pkg/Foo", Descriptor: "I", MemberName: "x"}
	h := NewHeap()
	pos := h.Allocate(NewInstance("pkg/Foo", []typesig.Signature{sig}, calc))

	clone := h.Clone()
	obj, _ := clone.Get(pos)
	if err := obj.PutFieldValue(sig, calc.MakeIntSimplex(99)); err != nil {
		t.Fatalf("PutFieldValue: %v", err)
	}

	original, _ := h.Get(pos)
	v, err := original.GetFieldValue(sig)
	if err != nil {
		t.Fatalf("GetFieldValue: %v", err)
	}
	if v.SimplexValue().(int32) != 0 {
		t.Fatalf("mutating the clone must not affect the original, got %v", v.SimplexValue())
	}
}

func TestArrayElementRoundtrip(t *testing.T) {
	calc := value.DefaultCalculator()
	arr := NewArray("I", calc.MakeIntSimplex(10))
	idx := calc.MakeIntSimplex(3)
	val := calc.MakeIntSimplex(7)
	arr.PutElement(idx, val)

	got, ok := arr.GetElement(calc.MakeIntSimplex(3))
	if !ok {
		t.Fatalf("expected to find written element")
	}
	if got.SimplexValue().(int32) != 7 {
		t.Fatalf("got %v, want 7", got.SimplexValue())
	}

	_, ok = arr.GetElement(calc.MakeIntSimplex(4))
	if ok {
		t.Fatalf("did not expect an entry for an unwritten index")
	}
}

func TestFieldTypeIncompatibleRejected(t *testing.T) {
	calc := value.DefaultCalculator()
	sig := typesig.Signature{ClassName: "pkg/Foo", Descriptor: "I", MemberName: "x"}
	obj := NewInstance("pkg/Foo", []typesig.Signature{sig}, calc)
	err := obj.PutFieldValue(sig, calc.MakeSimplex(typesig.Double, float64(1)))
	if err == nil {
		t.Fatalf("expected a type-compatibility error")
	}
}
