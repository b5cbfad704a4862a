package value

import "github.com/jbse-go/symbex/internal/typesig"

// Rewriter is a visitor over the primitive algebra: each concrete
// rewriter inspects the node kind of v and returns either v unchanged or
// a canonicalized replacement. The Calculator pipes every freshly built
// Expression/Conversion/FunctionApplication through the configured chain,
// in order.
type Rewriter interface {
	Rewrite(calc *Calculator, v *Value) *Value
}

// ConstantFolder collapses a conversion applied twice in a row into a
// single conversion where that is lossless, and drops a widening
// conversion whose argument is already of the destination type.
type ConstantFolder struct{}

func (r *ConstantFolder) Rewrite(calc *Calculator, v *Value) *Value {
	switch v.Kind() {
	case KindWideningConversion:
		arg := v.ConversionArg()
		if arg.Type() == v.Type() {
			return arg
		}
		// Double conversion where a single conversion suffices: widen(T2,
		// widen(T1, x)) == widen(T2, x) whenever T1 is itself widened from
		// x's type (i.e. the intermediate conversion adds nothing).
		if arg.Kind() == KindWideningConversion {
			return calc.mustWiden(v.Type(), arg.ConversionArg())
		}
		return v
	case KindNarrowingConversion:
		arg := v.ConversionArg()
		if arg.Type() == v.Type() {
			return arg
		}
		if arg.Kind() == KindNarrowingConversion {
			return calc.mustNarrow(v.Type(), arg.ConversionArg())
		}
		return v
	default:
		return v
	}
}

// mustWiden/mustNarrow rebuild a conversion node directly, bypassing the
// rewriter chain, to avoid infinite recursion while collapsing a double
// conversion found mid-rewrite. They do not re-run eager evaluation
// because a value that reached ConstantFolder as a Conversion node is, by
// construction, already symbolic (Simplex arguments are evaluated eagerly
// by Calculator.Widen/Narrow before any Rewriter ever sees them).
func (c *Calculator) mustWiden(dst typesig.Tag, arg *Value) *Value {
	return c.wrap(&Value{kind: KindWideningConversion, typ: dst, convArg: arg})
}

func (c *Calculator) mustNarrow(dst typesig.Tag, arg *Value) *Value {
	return c.wrap(&Value{kind: KindNarrowingConversion, typ: dst, convArg: arg})
}

// IdentityLawRewriter applies the algebraic identities
// out by name: x+0=x, x*1=x, x&0=0, x|0=x, neg(neg(x))=x, not(not(x))=x,
// plus the companion identities (x-0=x, x^0=x, x/1=x, shifts by 0).
type IdentityLawRewriter struct{}

func (r *IdentityLawRewriter) Rewrite(calc *Calculator, v *Value) *Value {
	if v.Kind() != KindExpression {
		return v
	}
	if v.IsUnaryExpr() {
		inner := v.Left()
		if inner.Kind() == KindExpression && inner.IsUnaryExpr() && inner.Operator() == v.Operator() {
			switch v.Operator() {
			case OpNeg, OpNot:
				return inner.Left()
			}
		}
		return v
	}

	l, rr := v.Left(), v.Right()
	zero := isZeroSimplex(l) || isZeroSimplex(rr)
	one := isOneSimplex(l) || isOneSimplex(rr)

	switch v.Operator() {
	case OpAdd:
		if isZeroSimplex(rr) {
			return l
		}
		if isZeroSimplex(l) {
			return rr
		}
	case OpSub:
		if isZeroSimplex(rr) {
			return l
		}
	case OpMul:
		if one && isOneSimplex(rr) {
			return l
		}
		if one && isOneSimplex(l) {
			return rr
		}
		if zero {
			if isZeroSimplex(l) {
				return l
			}
			return rr
		}
	case OpDiv:
		if isOneSimplex(rr) {
			return l
		}
	case OpAnd:
		if zero {
			if isZeroSimplex(l) {
				return l
			}
			return rr
		}
	case OpOr:
		if isZeroSimplex(rr) {
			return l
		}
		if isZeroSimplex(l) {
			return rr
		}
	case OpXor:
		if isZeroSimplex(rr) {
			return l
		}
		if isZeroSimplex(l) {
			return rr
		}
	case OpShl, OpShr, OpUshr:
		if isZeroSimplex(rr) {
			return l
		}
	}
	return v
}

func isZeroSimplex(v *Value) bool {
	if v.Kind() != KindSimplex {
		return false
	}
	switch n := v.SimplexValue().(type) {
	case int32:
		return n == 0
	case int64:
		return n == 0
	case float32:
		return n == 0
	case float64:
		return n == 0
	}
	return false
}

func isOneSimplex(v *Value) bool {
	if v.Kind() != KindSimplex {
		return false
	}
	switch n := v.SimplexValue().(type) {
	case int32:
		return n == 1
	case int64:
		return n == 1
	case float32:
		return n == 1
	case float64:
		return n == 1
	}
	return false
}

// AssociativityRewriter canonicalizes a left-nested chain of the same
// associative operator applied to one symbolic term and accumulated
// constants into a single constant folded against the term on one side:
// (x + c1) + c2  ==>  x + (c1+c2). This keeps at most one Simplex operand
// per associative chain instead of letting constants accumulate across
// nested Expression nodes.
type AssociativityRewriter struct{}

func (r *AssociativityRewriter) Rewrite(calc *Calculator, v *Value) *Value {
	if v.Kind() != KindExpression || v.IsUnaryExpr() {
		return v
	}
	op := v.Operator()
	if !isAssociative(op) {
		return v
	}
	l, rr := v.Left(), v.Right()

	// (x op c1) op c2  where c1, c2 are Simplex and op matches.
	if l.Kind() == KindExpression && !l.IsUnaryExpr() && l.Operator() == op &&
		rr.Kind() == KindSimplex && l.Right().Kind() == KindSimplex {
		folded, err := calc.ApplyBinary(op, l.Right(), rr)
		if err == nil && folded.Kind() == KindSimplex {
			combined, err2 := calc.ApplyBinary(op, l.Left(), folded)
			if err2 == nil {
				return combined
			}
		}
	}
	return v
}

func isAssociative(op Operator) bool {
	switch op {
	case OpAdd, OpMul, OpAnd, OpOr, OpXor:
		return true
	}
	return false
}

// InverseCancellationRewriter collapses an operand combined with its own
// structural duplicate under an operator with a known inverse: x-x=0,
// x^x=0.
type InverseCancellationRewriter struct{}

func (r *InverseCancellationRewriter) Rewrite(calc *Calculator, v *Value) *Value {
	if v.Kind() != KindExpression || v.IsUnaryExpr() {
		return v
	}
	l, rr := v.Left(), v.Right()
	if !Equal(l, rr) {
		return v
	}
	switch v.Operator() {
	case OpSub, OpXor:
		return calc.zeroOf(v.Type())
	case OpEq, OpLe, OpGe:
		return calc.MakeBoolSimplex(true)
	case OpNe, OpLt, OpGt:
		return calc.MakeBoolSimplex(false)
	}
	return v
}

func (c *Calculator) zeroOf(typ typesig.Tag) *Value {
	switch typ {
	case typesig.Long:
		return c.MakeSimplex(typ, int64(0))
	case typesig.Float:
		return c.MakeSimplex(typ, float32(0))
	case typesig.Double:
		return c.MakeSimplex(typ, float64(0))
	default:
		return c.MakeSimplex(typ, int32(0))
	}
}

// ComparisonNormalizer puts every comparison into a canonical <=/<
// orientation: "x > y" is rewritten to "y < x" and "x >= y" to "y <= x",
// by normalizing every comparison to ≤/< form. This halves the number of
// distinct comparison shapes a decision procedure or a later rewriter
// needs to recognize.
type ComparisonNormalizer struct{}

func (r *ComparisonNormalizer) Rewrite(calc *Calculator, v *Value) *Value {
	if v.Kind() != KindExpression || v.IsUnaryExpr() {
		return v
	}
	switch v.Operator() {
	case OpGt:
		return calc.rebuildCompare(OpLt, v.Right(), v.Left())
	case OpGe:
		return calc.rebuildCompare(OpLe, v.Right(), v.Left())
	}
	return v
}

func (c *Calculator) rebuildCompare(op Operator, l, rr *Value) *Value {
	return c.wrap(&Value{kind: KindExpression, typ: typesig.Boolean, operator: op, left: l, right: rr})
}
