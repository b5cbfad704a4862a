// Package value implements the symbolic value algebra of the engine: the
// closed sum type of primitive and reference values, and the calculator
// that is the only constructor able to build them.
package value

import (
	"fmt"

	"github.com/jbse-go/symbex/internal/typesig"
)

// Kind discriminates the Value sum type.
type Kind int

const (
	KindSimplex Kind = iota
	KindTerm
	KindAny
	KindExpression
	KindWideningConversion
	KindNarrowingConversion
	KindFunctionApplication
	KindReferenceConcrete
	KindReferenceSymbolic
	KindNull
	KindConstantPoolString
)

// Operator enumerates the primitive operators the Calculator can build
// Expression nodes for.
type Operator int

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpUshr
	OpNot // boolean complement
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpCmp // three-way long/float/double compare -> int
)

var operatorNames = map[Operator]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpRem: "%", OpNeg: "neg",
	OpAnd: "&", OpOr: "|", OpXor: "^", OpShl: "<<", OpShr: ">>", OpUshr: ">>>",
	OpNot: "!", OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpCmp: "cmp",
}

func (op Operator) String() string {
	if s, ok := operatorNames[op]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// IsUnary reports whether op takes exactly one operand.
func (op Operator) IsUnary() bool {
	return op == OpNeg || op == OpNot
}

// HeapPos identifies an Objekt within a single State's Heap. It is
// monotonically increasing and never reused within that State's lifetime.
type HeapPos int64

// NullHeapPos is the sentinel stored inside a ReferenceConcrete that
// denotes the null reference.
const NullHeapPos HeapPos = -1

// Value is the closed sum type of everything that can sit on an operand
// stack, in a local variable slot, or in a field: concrete and symbolic
// primitives, primitive expression trees, conversions, uninterpreted
// function applications, and concrete/symbolic references.
//
// Every primitive Value carries a back-pointer to the Calculator that
// built it — this lets derived values be built without re-threading a
// context through every call site.
type Value struct {
	kind Kind
	typ  typesig.Tag
	calc *Calculator

	// Simplex
	simplex interface{} // int32, int64, float32, float64, or bool

	// Term
	termID int

	// Expression
	unary    bool
	operator Operator
	left     *Value
	right    *Value

	// Conversion
	convArg *Value

	// FunctionApplication
	funcName string
	funcArgs []*Value

	// ReferenceConcrete
	heapPos HeapPos

	// ReferenceSymbolic
	refOrigin string
	refID     int

	// ConstantPoolString
	literal string
}

// Kind returns the discriminant of the sum type.
func (v *Value) Kind() Kind { return v.kind }

// Type returns the type tag the value was built with. For reference kinds
// this is typesig.Class, typesig.Array, or typesig.NullRef.
func (v *Value) Type() typesig.Tag { return v.typ }

// Calculator returns the back-pointer set at construction time.
func (v *Value) Calculator() *Calculator { return v.calc }

// IsPrimitive reports whether this value occupies a primitive-typed slot.
func (v *Value) IsPrimitive() bool {
	switch v.kind {
	case KindReferenceConcrete, KindReferenceSymbolic, KindNull, KindConstantPoolString:
		return false
	default:
		return true
	}
}

// IsSymbolic reports whether this value's concrete content is not fully
// known: a bare Term, Any, an Expression/Conversion/FunctionApplication
// built over a symbolic operand, or a ReferenceSymbolic.
func (v *Value) IsSymbolic() bool {
	switch v.kind {
	case KindSimplex, KindNull, KindReferenceConcrete, KindConstantPoolString:
		return false
	case KindTerm, KindAny, KindReferenceSymbolic:
		return true
	case KindExpression:
		if v.left != nil && v.left.IsSymbolic() {
			return true
		}
		if !v.unary && v.right != nil && v.right.IsSymbolic() {
			return true
		}
		return false
	case KindWideningConversion, KindNarrowingConversion:
		return v.convArg.IsSymbolic()
	case KindFunctionApplication:
		for _, a := range v.funcArgs {
			if a.IsSymbolic() {
				return true
			}
		}
		return false
	}
	return false
}

// SimplexValue returns the raw Go payload of a Simplex value (int32,
// int64, float32, float64, or bool depending on Type()). Panics if called
// on a non-Simplex value; callers must check Kind() first.
func (v *Value) SimplexValue() interface{} {
	if v.kind != KindSimplex {
		panic("value: SimplexValue called on non-Simplex " + v.String())
	}
	return v.simplex
}

// TermID returns the identifying index of a Term leaf.
func (v *Value) TermID() int {
	if v.kind != KindTerm {
		panic("value: TermID called on non-Term " + v.String())
	}
	return v.termID
}

// Operator, Left, Right, IsUnary expose an Expression's structure.
func (v *Value) Operator() Operator { return v.operator }
func (v *Value) Left() *Value       { return v.left }
func (v *Value) Right() *Value      { return v.right }
func (v *Value) IsUnaryExpr() bool  { return v.unary }

// ConversionArg returns the operand of a Widening/NarrowingConversion.
func (v *Value) ConversionArg() *Value { return v.convArg }

// FunctionName and FunctionArgs expose a FunctionApplication's structure.
func (v *Value) FunctionName() string  { return v.funcName }
func (v *Value) FunctionArgs() []*Value { return v.funcArgs }

// HeapPosition returns the referent of a ReferenceConcrete, or
// NullHeapPos if it denotes null.
func (v *Value) HeapPosition() HeapPos {
	if v.kind != KindReferenceConcrete {
		panic("value: HeapPosition called on non-ReferenceConcrete " + v.String())
	}
	return v.heapPos
}

// IsNullReference reports whether a ReferenceConcrete denotes null.
func (v *Value) IsNullReference() bool {
	return v.kind == KindReferenceConcrete && v.heapPos == NullHeapPos
}

// ReferenceOrigin and ReferenceID expose a ReferenceSymbolic's identity.
func (v *Value) ReferenceOrigin() string { return v.refOrigin }
func (v *Value) ReferenceID() int        { return v.refID }

// StringLiteral returns the placeholder literal of a ConstantPoolString.
func (v *Value) StringLiteral() string { return v.literal }

func (v *Value) String() string {
	switch v.kind {
	case KindSimplex:
		return fmt.Sprintf("%v", v.simplex)
	case KindTerm:
		return fmt.Sprintf("%s$%d", v.typ, v.termID)
	case KindAny:
		return "ANY"
	case KindExpression:
		if v.unary {
			return fmt.Sprintf("(%s %s)", v.operator, v.left)
		}
		return fmt.Sprintf("(%s %s %s)", v.left, v.operator, v.right)
	case KindWideningConversion:
		return fmt.Sprintf("widen(%s, %s)", v.typ, v.convArg)
	case KindNarrowingConversion:
		return fmt.Sprintf("narrow(%s, %s)", v.typ, v.convArg)
	case KindFunctionApplication:
		return fmt.Sprintf("%s(%v)", v.funcName, v.funcArgs)
	case KindReferenceConcrete:
		if v.IsNullReference() {
			return "Reference(null)"
		}
		return fmt.Sprintf("Reference(%d)", v.heapPos)
	case KindReferenceSymbolic:
		return fmt.Sprintf("Reference{%s}$%d", v.refOrigin, v.refID)
	case KindNull:
		return "null"
	case KindConstantPoolString:
		return fmt.Sprintf("cpString(%q)", v.literal)
	}
	return "<invalid value>"
}

// Equal is structural equality by semantic content, not identity: two
// Expressions with structurally equal subtrees compare equal, matching
// the structural equality this package requires.
func Equal(a, b *Value) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.kind != b.kind || a.typ != b.typ {
		return false
	}
	switch a.kind {
	case KindSimplex:
		return a.simplex == b.simplex
	case KindTerm:
		return a.termID == b.termID
	case KindAny, KindNull:
		return true
	case KindExpression:
		if a.unary != b.unary || a.operator != b.operator {
			return false
		}
		if !Equal(a.left, b.left) {
			return false
		}
		if !a.unary && !Equal(a.right, b.right) {
			return false
		}
		return true
	case KindWideningConversion, KindNarrowingConversion:
		return Equal(a.convArg, b.convArg)
	case KindFunctionApplication:
		if a.funcName != b.funcName || len(a.funcArgs) != len(b.funcArgs) {
			return false
		}
		for i := range a.funcArgs {
			if !Equal(a.funcArgs[i], b.funcArgs[i]) {
				return false
			}
		}
		return true
	case KindReferenceConcrete:
		return a.heapPos == b.heapPos
	case KindReferenceSymbolic:
		return a.refID == b.refID
	case KindConstantPoolString:
		return a.literal == b.literal
	}
	return false
}
