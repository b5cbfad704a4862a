package value

import (
	"math"
	"sync/atomic"

	"github.com/jbse-go/symbex/internal/typesig"
)

// Calculator is the sole constructor of primitive and reference Values.
// It is a process-wide, effectively immutable service (spec.md §3
// "Lifecycle and ownership"): many States borrow the same Calculator
// concurrently across a run, so term/reference id allocation is done with
// atomic counters rather than a mutable field a State would need to clone.
type Calculator struct {
	rewriters []Rewriter
	nextTerm  int64
	nextRef   int64
}

// NewCalculator builds a Calculator with the given Rewriter chain, applied
// in order to every Expression/Conversion/FunctionApplication this
// Calculator builds.
func NewCalculator(rewriters ...Rewriter) *Calculator {
	return &Calculator{rewriters: rewriters}
}

// DefaultCalculator returns a Calculator configured with the standard
// rewriter chain: constant folding, identity laws, associativity
// canonicalization, inverse cancellation, and comparison normalization —
// a fixed rewrite chain.
func DefaultCalculator() *Calculator {
	return NewCalculator(
		&ConstantFolder{},
		&IdentityLawRewriter{},
		&AssociativityRewriter{},
		&InverseCancellationRewriter{},
		&ComparisonNormalizer{},
	)
}

func (c *Calculator) wrap(v *Value) *Value {
	v.calc = c
	return v
}

// MakeSimplex builds a concrete primitive literal. payload must be the Go
// representation matching typ: int32 for byte/char/short/int, bool for
// boolean, int64 for long, float32 for float, float64 for double.
func (c *Calculator) MakeSimplex(typ typesig.Tag, payload interface{}) *Value {
	return c.wrap(&Value{kind: KindSimplex, typ: typ, simplex: payload})
}

// MakeIntSimplex is a convenience wrapper for the common case of a
// concrete int literal.
func (c *Calculator) MakeIntSimplex(n int32) *Value {
	return c.MakeSimplex(typesig.Int, n)
}

// MakeBoolSimplex is a convenience wrapper for a concrete boolean literal.
func (c *Calculator) MakeBoolSimplex(b bool) *Value {
	return c.MakeSimplex(typesig.Boolean, b)
}

// MakeTerm allocates a fresh abstract primitive leaf of the given type.
// Term ids come from this Calculator's own counter and increase
// monotonically, so two Terms built from the same Calculator are never
// confused even across sibling states produced by forking; Terms built
// by different Calculators may share an id.
func (c *Calculator) MakeTerm(typ typesig.Tag) *Value {
	id := int(atomic.AddInt64(&c.nextTerm, 1))
	return c.wrap(&Value{kind: KindTerm, typ: typ, termID: id})
}

// MakeAny builds the wildcard primitive used in quantified contexts.
func (c *Calculator) MakeAny(typ typesig.Tag) *Value {
	return c.wrap(&Value{kind: KindAny, typ: typ})
}

// MakeNull builds the singleton null reference value.
func (c *Calculator) MakeNull() *Value {
	return c.wrap(&Value{kind: KindNull, typ: typesig.NullRef})
}

// MakeReferenceConcrete builds a reference resolved to a specific heap
// position, or to null when pos == NullHeapPos.
func (c *Calculator) MakeReferenceConcrete(pos HeapPos) *Value {
	return c.wrap(&Value{kind: KindReferenceConcrete, typ: typesig.Class, heapPos: pos})
}

// MakeReferenceSymbolic allocates a fresh symbolic reference with the
// given human-readable origin expression (e.g. "ROOT.field.next").
func (c *Calculator) MakeReferenceSymbolic(origin string) *Value {
	id := int(atomic.AddInt64(&c.nextRef, 1))
	return c.wrap(&Value{kind: KindReferenceSymbolic, typ: typesig.Class, refOrigin: origin, refID: id})
}

// MakeConstantPoolString builds the placeholder later lifted to a concrete
// string reference by the State.
func (c *Calculator) MakeConstantPoolString(literal string) *Value {
	return c.wrap(&Value{kind: KindConstantPoolString, typ: typesig.Class, literal: literal})
}

// ApplyUnary builds neg(arg) or not(arg), evaluating eagerly if arg is a
// Simplex, else building a symbolic Expression and running it through the
// rewriter chain.
func (c *Calculator) ApplyUnary(op Operator, arg *Value) (*Value, error) {
	if !op.IsUnary() {
		return nil, &InvalidOperatorError{Operator: op, Detail: "not a unary operator"}
	}
	if arg == nil {
		return nil, &InvalidOperandError{Operator: op, Detail: "nil operand"}
	}
	typ := arg.Type()
	if op == OpNeg {
		if !typesig.IsPrimitive(typ) {
			return nil, &InvalidTypeError{Detail: "neg requires a primitive operand, got " + typ.String()}
		}
	} else if op == OpNot && typ != typesig.Boolean {
		return nil, &InvalidTypeError{Detail: "not requires a boolean operand, got " + typ.String()}
	}

	if arg.Kind() == KindSimplex {
		result, err := evalUnary(op, typ, arg.simplex)
		if err != nil {
			return nil, err
		}
		return c.MakeSimplex(typ, result), nil
	}

	expr := c.wrap(&Value{kind: KindExpression, typ: typ, unary: true, operator: op, left: arg})
	return c.rewrite(expr), nil
}

// ApplyBinary builds an arithmetic/bitwise/shift/comparison node over two
// primitive operands, applying JVM-style type promotion
// (byte/short/char/boolean -> int, except that two boolean operands stay
// boolean) and evaluating eagerly when both operands are Simplex.
func (c *Calculator) ApplyBinary(op Operator, left, right *Value) (*Value, error) {
	if op.IsUnary() {
		return nil, &InvalidOperatorError{Operator: op, Detail: "not a binary operator"}
	}
	if left == nil || right == nil {
		return nil, &InvalidOperandError{Operator: op, Detail: "nil operand"}
	}
	lt, rt := typesig.PromotedType(left.Type()), typesig.PromotedType(right.Type())
	if left.Type() == typesig.Boolean && right.Type() == typesig.Boolean {
		lt, rt = typesig.Boolean, typesig.Boolean
	}

	isShift := op == OpShl || op == OpShr || op == OpUshr
	isCompare := op == OpEq || op == OpNe || op == OpLt || op == OpLe || op == OpGt || op == OpGe || op == OpCmp

	var resultType typesig.Tag
	switch {
	case isShift:
		if rt != typesig.Int {
			return nil, &InvalidTypeError{Detail: "shift distance must be int, got " + rt.String()}
		}
		if !typesig.IsIntegral(lt) {
			return nil, &InvalidTypeError{Detail: "shift requires an integral left operand, got " + lt.String()}
		}
		resultType = lt
	case isCompare:
		if lt != rt {
			return nil, &InvalidTypeError{Detail: "comparison operand type mismatch: " + lt.String() + " vs " + rt.String()}
		}
		if op == OpCmp {
			resultType = typesig.Int
		} else {
			resultType = typesig.Boolean
		}
	default:
		if lt != rt {
			return nil, &InvalidTypeError{Detail: "binary operand type mismatch: " + lt.String() + " vs " + rt.String()}
		}
		resultType = lt
	}

	if left.Kind() == KindSimplex && right.Kind() == KindSimplex {
		result, err := evalBinary(op, lt, left.simplex, right.simplex)
		if err != nil {
			return nil, err
		}
		return c.MakeSimplex(resultType, result), nil
	}

	expr := c.wrap(&Value{kind: KindExpression, typ: resultType, unary: false, operator: op, left: left, right: right})
	return c.rewrite(expr), nil
}

// Widen builds a WideningConversion to dst, evaluating eagerly for
// Simplex operands.
func (c *Calculator) Widen(dst typesig.Tag, arg *Value) (*Value, error) {
	if arg == nil {
		return nil, &InvalidOperandError{Detail: "nil operand"}
	}
	if arg.Kind() == KindSimplex {
		result, err := evalWiden(dst, arg.Type(), arg.simplex)
		if err != nil {
			return nil, err
		}
		return c.MakeSimplex(dst, result), nil
	}
	conv := c.wrap(&Value{kind: KindWideningConversion, typ: dst, convArg: arg})
	return c.rewrite(conv), nil
}

// Narrow builds a NarrowingConversion to dst, evaluating eagerly for
// Simplex operands.
func (c *Calculator) Narrow(dst typesig.Tag, arg *Value) (*Value, error) {
	if arg == nil {
		return nil, &InvalidOperandError{Detail: "nil operand"}
	}
	if arg.Kind() == KindSimplex {
		result, err := evalNarrow(dst, arg.Type(), arg.simplex)
		if err != nil {
			return nil, err
		}
		return c.MakeSimplex(dst, result), nil
	}
	conv := c.wrap(&Value{kind: KindNarrowingConversion, typ: dst, convArg: arg})
	return c.rewrite(conv), nil
}

// ApplyFunction builds an uninterpreted function application over
// primitive arguments; it is never evaluated eagerly since its semantics
// are opaque to the calculator.
func (c *Calculator) ApplyFunction(typ typesig.Tag, name string, args ...*Value) (*Value, error) {
	if name == "" {
		return nil, &InvalidOperandError{Detail: "empty function name"}
	}
	for _, a := range args {
		if a == nil {
			return nil, &InvalidOperandError{Detail: "nil function argument"}
		}
	}
	app := c.wrap(&Value{kind: KindFunctionApplication, typ: typ, funcName: name, funcArgs: args})
	return c.rewrite(app), nil
}

func (c *Calculator) rewrite(v *Value) *Value {
	for _, r := range c.rewriters {
		v = r.Rewrite(c, v)
	}
	return v
}

func asInt32(x interface{}) int32 {
	switch n := x.(type) {
	case int32:
		return n
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func asInt64(x interface{}) int64 { return x.(int64) }
func asFloat32(x interface{}) float32 { return x.(float32) }
func asFloat64(x interface{}) float64 { return x.(float64) }
func asBool(x interface{}) bool       { return x.(bool) }

func evalUnary(op Operator, typ typesig.Tag, arg interface{}) (interface{}, error) {
	switch op {
	case OpNeg:
		switch typ {
		case typesig.Long:
			return -asInt64(arg), nil
		case typesig.Float:
			return -asFloat32(arg), nil
		case typesig.Double:
			return -asFloat64(arg), nil
		default:
			return -asInt32(arg), nil
		}
	case OpNot:
		return !asBool(arg), nil
	}
	return nil, &InvalidOperatorError{Operator: op, Detail: "no eager evaluation defined"}
}

// ArithmeticError models the hosted VM's division/remainder-by-zero
// failure. The calculator returns it to the caller; this
// is surfaced at the bytecode layer as ArithmeticException, not handled
// here.
type ArithmeticError struct {
	Detail string
}

func (e *ArithmeticError) Error() string { return "value: arithmetic error: " + e.Detail }

func evalBinary(op Operator, promoted typesig.Tag, l, r interface{}) (interface{}, error) {
	switch promoted {
	case typesig.Long:
		return evalBinaryInt64(op, asInt64(l), asInt64(r))
	case typesig.Float:
		return evalBinaryFloat32(op, asFloat32(l), asFloat32(r))
	case typesig.Double:
		return evalBinaryFloat64(op, asFloat64(l), asFloat64(r))
	case typesig.Boolean:
		return evalBinaryBool(op, l, r)
	default:
		return evalBinaryInt32(op, asInt32(l), asInt32(r))
	}
}

func evalBinaryBool(op Operator, l, r interface{}) (interface{}, error) {
	lb, rb := asBool(l), asBool(r)
	switch op {
	case OpEq:
		return lb == rb, nil
	case OpNe:
		return lb != rb, nil
	case OpAnd:
		return lb && rb, nil
	case OpOr:
		return lb || rb, nil
	case OpXor:
		return lb != rb, nil
	}
	return nil, &InvalidOperatorError{Operator: op, Detail: "not defined for boolean"}
}

func evalBinaryInt32(op Operator, l, r int32) (interface{}, error) {
	switch op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	case OpDiv:
		if r == 0 {
			return nil, &ArithmeticError{Detail: "/ by zero"}
		}
		return l / r, nil
	case OpRem:
		if r == 0 {
			return nil, &ArithmeticError{Detail: "/ by zero"}
		}
		return l % r, nil
	case OpAnd:
		return l & r, nil
	case OpOr:
		return l | r, nil
	case OpXor:
		return l ^ r, nil
	case OpShl:
		return l << (uint32(r) & 0x1F), nil
	case OpShr:
		return l >> (uint32(r) & 0x1F), nil
	case OpUshr:
		return int32(uint32(l) >> (uint32(r) & 0x1F)), nil
	case OpEq:
		return l == r, nil
	case OpNe:
		return l != r, nil
	case OpLt:
		return l < r, nil
	case OpLe:
		return l <= r, nil
	case OpGt:
		return l > r, nil
	case OpGe:
		return l >= r, nil
	}
	return nil, &InvalidOperatorError{Operator: op, Detail: "not defined for int"}
}

func evalBinaryInt64(op Operator, l, r int64) (interface{}, error) {
	switch op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	case OpDiv:
		if r == 0 {
			return nil, &ArithmeticError{Detail: "/ by zero"}
		}
		return l / r, nil
	case OpRem:
		if r == 0 {
			return nil, &ArithmeticError{Detail: "/ by zero"}
		}
		return l % r, nil
	case OpAnd:
		return l & r, nil
	case OpOr:
		return l | r, nil
	case OpXor:
		return l ^ r, nil
	case OpShl:
		return l << (uint64(r) & 0x3F), nil
	case OpShr:
		return l >> (uint64(r) & 0x3F), nil
	case OpUshr:
		return int64(uint64(l) >> (uint64(r) & 0x3F)), nil
	case OpCmp:
		switch {
		case l < r:
			return int32(-1), nil
		case l > r:
			return int32(1), nil
		default:
			return int32(0), nil
		}
	case OpEq:
		return l == r, nil
	case OpNe:
		return l != r, nil
	case OpLt:
		return l < r, nil
	case OpLe:
		return l <= r, nil
	case OpGt:
		return l > r, nil
	case OpGe:
		return l >= r, nil
	}
	return nil, &InvalidOperatorError{Operator: op, Detail: "not defined for long"}
}

func evalBinaryFloat32(op Operator, l, r float32) (interface{}, error) {
	switch op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	case OpDiv:
		return l / r, nil
	case OpRem:
		return float32(math.Mod(float64(l), float64(r))), nil
	case OpCmp:
		return floatCompare(float64(l), float64(r)), nil
	case OpEq:
		return l == r, nil
	case OpNe:
		return l != r, nil
	case OpLt:
		return l < r, nil
	case OpLe:
		return l <= r, nil
	case OpGt:
		return l > r, nil
	case OpGe:
		return l >= r, nil
	}
	return nil, &InvalidOperatorError{Operator: op, Detail: "not defined for float"}
}

func evalBinaryFloat64(op Operator, l, r float64) (interface{}, error) {
	switch op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	case OpDiv:
		return l / r, nil
	case OpRem:
		return math.Mod(l, r), nil
	case OpCmp:
		return floatCompare(l, r), nil
	case OpEq:
		return l == r, nil
	case OpNe:
		return l != r, nil
	case OpLt:
		return l < r, nil
	case OpLe:
		return l <= r, nil
	case OpGt:
		return l > r, nil
	case OpGe:
		return l >= r, nil
	}
	return nil, &InvalidOperatorError{Operator: op, Detail: "not defined for double"}
}

func floatCompare(l, r float64) int32 {
	if math.IsNaN(l) || math.IsNaN(r) {
		return 1 // hosted fcmpg/dcmpg convention; fcmpl/dcmpl handled by caller if needed
	}
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func evalWiden(dst, src typesig.Tag, arg interface{}) (interface{}, error) {
	switch src {
	case typesig.Byte, typesig.Short, typesig.Char, typesig.Int:
		i := int64(asInt32(arg))
		return convertInt(dst, i)
	case typesig.Long:
		return convertInt(dst, asInt64(arg))
	case typesig.Float:
		return convertFloat(dst, float64(asFloat32(arg)))
	case typesig.Double:
		return convertFloat(dst, asFloat64(arg))
	}
	return nil, &InvalidTypeError{Detail: "cannot widen from " + src.String()}
}

func evalNarrow(dst, src typesig.Tag, arg interface{}) (interface{}, error) {
	switch src {
	case typesig.Byte, typesig.Short, typesig.Char, typesig.Int:
		i := int64(asInt32(arg))
		return convertInt(dst, i)
	case typesig.Long:
		return convertInt(dst, asInt64(arg))
	case typesig.Float:
		return convertFloat(dst, float64(asFloat32(arg)))
	case typesig.Double:
		return convertFloat(dst, asFloat64(arg))
	}
	return nil, &InvalidTypeError{Detail: "cannot narrow from " + src.String()}
}

func convertInt(dst typesig.Tag, v int64) (interface{}, error) {
	switch dst {
	case typesig.Byte:
		return int32(int8(v)), nil
	case typesig.Short:
		return int32(int16(v)), nil
	case typesig.Char:
		return int32(uint16(v)), nil
	case typesig.Int:
		return int32(v), nil
	case typesig.Long:
		return v, nil
	case typesig.Float:
		return float32(v), nil
	case typesig.Double:
		return float64(v), nil
	}
	return nil, &InvalidTypeError{Detail: "invalid conversion destination " + dst.String()}
}

func convertFloat(dst typesig.Tag, v float64) (interface{}, error) {
	switch dst {
	case typesig.Byte:
		return int32(int8(int64(v))), nil
	case typesig.Short:
		return int32(int16(int64(v))), nil
	case typesig.Char:
		return int32(uint16(int64(v))), nil
	case typesig.Int:
		if v > math.MaxInt32 {
			return int32(math.MaxInt32), nil
		}
		if v < math.MinInt32 {
			return int32(math.MinInt32), nil
		}
		if math.IsNaN(v) {
			return int32(0), nil
		}
		return int32(v), nil
	case typesig.Long:
		if v > math.MaxInt64 {
			return int64(math.MaxInt64), nil
		}
		if v < math.MinInt64 {
			return int64(math.MinInt64), nil
		}
		if math.IsNaN(v) {
			return int64(0), nil
		}
		return int64(v), nil
	case typesig.Float:
		return float32(v), nil
	case typesig.Double:
		return v, nil
	}
	return nil, &InvalidTypeError{Detail: "invalid conversion destination " + dst.String()}
}
