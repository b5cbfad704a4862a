package value

import (
	"testing"

	"github.com/jbse-go/symbex/internal/typesig"
)

func TestIdentityLawAddZero(t *testing.T) {
	c := DefaultCalculator()
	x := c.MakeTerm(typesig.Int)
	v, err := c.ApplyBinary(OpAdd, x, c.MakeIntSimplex(0))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	if v != x {
		t.Fatalf("expected x+0 to rewrite to x itself, got %s", v)
	}
}

func TestIdentityLawMulOne(t *testing.T) {
	c := DefaultCalculator()
	x := c.MakeTerm(typesig.Int)
	v, err := c.ApplyBinary(OpMul, x, c.MakeIntSimplex(1))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	if v != x {
		t.Fatalf("expected x*1 to rewrite to x itself, got %s", v)
	}
}

func TestIdentityLawAndZero(t *testing.T) {
	c := DefaultCalculator()
	x := c.MakeTerm(typesig.Int)
	zero := c.MakeIntSimplex(0)
	v, err := c.ApplyBinary(OpAnd, x, zero)
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	if v.Kind() != KindSimplex || v.SimplexValue().(int32) != 0 {
		t.Fatalf("expected x&0 to rewrite to 0, got %s", v)
	}
}

func TestDoubleNegationCancels(t *testing.T) {
	c := DefaultCalculator()
	x := c.MakeTerm(typesig.Int)
	neg1, err := c.ApplyUnary(OpNeg, x)
	if err != nil {
		t.Fatalf("ApplyUnary: %v", err)
	}
	neg2, err := c.ApplyUnary(OpNeg, neg1)
	if err != nil {
		t.Fatalf("ApplyUnary: %v", err)
	}
	if neg2 != x {
		t.Fatalf("expected neg(neg(x)) == x, got %s", neg2)
	}
}

func TestDoubleNotCancels(t *testing.T) {
	c := DefaultCalculator()
	x := c.MakeTerm(typesig.Boolean)
	not1, err := c.ApplyUnary(OpNot, x)
	if err != nil {
		t.Fatalf("ApplyUnary: %v", err)
	}
	not2, err := c.ApplyUnary(OpNot, not1)
	if err != nil {
		t.Fatalf("ApplyUnary: %v", err)
	}
	if not2 != x {
		t.Fatalf("expected not(not(x)) == x, got %s", not2)
	}
}

func TestSelfSubtractionCancelsToZero(t *testing.T) {
	c := DefaultCalculator()
	x := c.MakeTerm(typesig.Int)
	v, err := c.ApplyBinary(OpSub, x, x)
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	if v.Kind() != KindSimplex || v.SimplexValue().(int32) != 0 {
		t.Fatalf("expected x-x == 0, got %s", v)
	}
}

func TestComparisonNormalizesGreaterThan(t *testing.T) {
	c := DefaultCalculator()
	x := c.MakeTerm(typesig.Int)
	y := c.MakeTerm(typesig.Int)
	gt, err := c.ApplyBinary(OpGt, x, y)
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	if gt.Operator() != OpLt {
		t.Fatalf("expected x>y normalized to an OpLt node, got %s", gt.Operator())
	}
	if gt.Left() != y || gt.Right() != x {
		t.Fatalf("expected operands swapped under normalization")
	}
}

func TestAssociativityFoldsConstantChain(t *testing.T) {
	c := DefaultCalculator()
	x := c.MakeTerm(typesig.Int)
	step1, err := c.ApplyBinary(OpAdd, x, c.MakeIntSimplex(2))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	step2, err := c.ApplyBinary(OpAdd, step1, c.MakeIntSimplex(3))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	if step2.Kind() != KindExpression || step2.IsUnaryExpr() {
		t.Fatalf("expected a binary expression, got %s", step2)
	}
	if step2.Left() != x {
		t.Fatalf("expected left operand to remain the term")
	}
	if step2.Right().Kind() != KindSimplex || step2.Right().SimplexValue().(int32) != 5 {
		t.Fatalf("expected constants folded to 5, got %s", step2.Right())
	}
}

func TestRewriteIdempotent(t *testing.T) {
	c := DefaultCalculator()
	x := c.MakeTerm(typesig.Int)
	expr, err := c.ApplyBinary(OpAdd, x, c.MakeIntSimplex(2))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	again := c.rewrite(expr)
	if !Equal(expr, again) {
		t.Fatalf("expected rewrite(rewrite(p)) == rewrite(p)")
	}
}

func TestConstantFolderDropsRedundantWidening(t *testing.T) {
	c := DefaultCalculator()
	x := c.MakeTerm(typesig.Int)
	v, err := c.Widen(typesig.Int, x)
	if err != nil {
		t.Fatalf("Widen: %v", err)
	}
	if v != x {
		t.Fatalf("expected widen(int, x:int) to collapse to x, got %s", v)
	}
}

func TestConstantFolderCollapsesDoubleWidening(t *testing.T) {
	c := DefaultCalculator()
	x := c.MakeTerm(typesig.Short)
	once, err := c.Widen(typesig.Int, x)
	if err != nil {
		t.Fatalf("Widen: %v", err)
	}
	twice, err := c.Widen(typesig.Long, once)
	if err != nil {
		t.Fatalf("Widen: %v", err)
	}
	if twice.Kind() != KindWideningConversion || twice.ConversionArg() != x {
		t.Fatalf("expected double widening to collapse to a single conversion over x, got %s", twice)
	}
}
