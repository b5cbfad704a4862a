package value

import (
	"testing"

	"github.com/jbse-go/symbex/internal/typesig"
)

func TestEqualStructural(t *testing.T) {
	c := DefaultCalculator()
	x := c.MakeTerm(typesig.Int)

	a, err := c.ApplyBinary(OpAdd, x, c.MakeIntSimplex(1))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	b, err := c.ApplyBinary(OpAdd, x, c.MakeIntSimplex(1))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	if !Equal(a, b) {
		t.Fatalf("expected structurally equal expressions, got %s vs %s", a, b)
	}

	y := c.MakeTerm(typesig.Int) // same calculator, fresh id: distinct term identity by construction
	other, err := c.ApplyBinary(OpAdd, y, c.MakeIntSimplex(1))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	if Equal(a, other) {
		t.Fatalf("expected distinct terms to make inequal expressions")
	}
}

func TestSimplexEquality(t *testing.T) {
	c := DefaultCalculator()
	a := c.MakeIntSimplex(42)
	b := c.MakeIntSimplex(42)
	if !Equal(a, b) {
		t.Fatalf("expected equal simplex values")
	}
	d := c.MakeIntSimplex(43)
	if Equal(a, d) {
		t.Fatalf("expected distinct simplex values to be unequal")
	}
}

func TestIsSymbolic(t *testing.T) {
	c := DefaultCalculator()
	lit := c.MakeIntSimplex(1)
	if lit.IsSymbolic() {
		t.Fatalf("simplex must not be symbolic")
	}
	term := c.MakeTerm(typesig.Int)
	if !term.IsSymbolic() {
		t.Fatalf("term must be symbolic")
	}
	expr, err := c.ApplyBinary(OpAdd, term, lit)
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	if !expr.IsSymbolic() {
		t.Fatalf("expression over a symbolic operand must be symbolic")
	}
}

func TestReferenceConcreteNull(t *testing.T) {
	c := DefaultCalculator()
	ref := c.MakeReferenceConcrete(NullHeapPos)
	if !ref.IsNullReference() {
		t.Fatalf("expected null reference")
	}
	other := c.MakeReferenceConcrete(HeapPos(7))
	if other.IsNullReference() {
		t.Fatalf("did not expect null reference")
	}
}
