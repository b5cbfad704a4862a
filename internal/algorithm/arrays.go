// Schema (d): bounds-checked array element access (spec.md §8 scenario 3).
package algorithm

import (
	"github.com/jbse-go/symbex/internal/heap"
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/typesig"
	"github.com/jbse-go/symbex/internal/value"
)

// UnsupportedArrayReference marks this reference engine's scope limit:
// array element access requires a concrete array reference, already
// resolved by a prior fork elsewhere on the path. A bare symbolic array
// reference reaching iaload/aaload/iastore/aastore is out of scope.
type UnsupportedArrayReference struct {
	Origin string
}

func (e *UnsupportedArrayReference) Error() string {
	return "algorithm: unsupported symbolic array reference " + e.Origin
}

// checkArrayRef validates a popped array reference, throwing
// NullPointerException (and returning value.NullHeapPos to signal "already
// handled") for a null array.
func checkArrayRef(st *state.State, ref *value.Value) (value.HeapPos, error) {
	isNull := ref.Kind() == value.KindNull || (ref.Kind() == value.KindReferenceConcrete && ref.IsNullReference())
	if isNull {
		return value.NullHeapPos, st.CreateThrowableAndThrowIt("java/lang/NullPointerException")
	}
	if ref.Kind() != value.KindReferenceConcrete {
		return value.NullHeapPos, &UnsupportedArrayReference{Origin: ref.ReferenceOrigin()}
	}
	return ref.HeapPosition(), nil
}

func arrayLoad(isInt bool) func(st *state.State, ctx *Context) ([]*state.State, error) {
	op := OpIaload
	if !isInt {
		op = OpAaload
	}
	return func(st *state.State, ctx *Context) ([]*state.State, error) {
		idx, err := st.Pop()
		if err != nil {
			return nil, err
		}
		arrayref, err := st.Pop()
		if err != nil {
			return nil, err
		}
		pos, err := checkArrayRef(st, arrayref)
		if err != nil {
			return nil, err
		}
		if pos == value.NullHeapPos {
			return nil, nil
		}
		return arrayBoundsFork(st, ctx, pos, idx, func(clone *state.State, obj *heap.Objekt, inBounds bool) error {
			if !inBounds {
				return clone.CreateThrowableAndThrowIt("java/lang/ArrayIndexOutOfBoundsException")
			}
			v, ok := obj.GetElement(idx)
			if !ok {
				v = defaultArrayElement(clone, obj.TypeName())
			}
			if err := clone.Push(v); err != nil {
				return err
			}
			return advance(clone, op)
		})
	}
}

func arrayStore(isInt bool) func(st *state.State, ctx *Context) ([]*state.State, error) {
	op := OpIastore
	if !isInt {
		op = OpAastore
	}
	return func(st *state.State, ctx *Context) ([]*state.State, error) {
		v, err := st.Pop()
		if err != nil {
			return nil, err
		}
		idx, err := st.Pop()
		if err != nil {
			return nil, err
		}
		arrayref, err := st.Pop()
		if err != nil {
			return nil, err
		}
		pos, err := checkArrayRef(st, arrayref)
		if err != nil {
			return nil, err
		}
		if pos == value.NullHeapPos {
			return nil, nil
		}
		return arrayBoundsFork(st, ctx, pos, idx, func(clone *state.State, obj *heap.Objekt, inBounds bool) error {
			if !inBounds {
				return clone.CreateThrowableAndThrowIt("java/lang/ArrayIndexOutOfBoundsException")
			}
			obj.PutElement(idx, v)
			return advance(clone, op)
		})
	}
}

// arrayBoundsFork forks {L: in-bounds, R: out-of-bounds} when
// 0 <= idx < length does not collapse to a concrete boolean; otherwise it
// takes the single concrete branch with no fork (schema (b)).
func arrayBoundsFork(st *state.State, ctx *Context, pos value.HeapPos, idx *value.Value, effect func(clone *state.State, obj *heap.Objekt, inBounds bool) error) ([]*state.State, error) {
	obj, ok := st.Heap.Get(pos)
	if !ok {
		return nil, st.CreateThrowableAndThrowIt(state.VerifyErrorClassName)
	}

	calc := st.GetCalculator()
	zero := calc.MakeIntSimplex(0)
	geZero, err := calc.ApplyBinary(value.OpGe, idx, zero)
	if err != nil {
		return nil, err
	}
	ltLen, err := calc.ApplyBinary(value.OpLt, idx, obj.Length())
	if err != nil {
		return nil, err
	}
	inBoundsCond, err := calc.ApplyBinary(value.OpAnd, geZero, ltLen)
	if err != nil {
		return nil, err
	}

	if inBoundsCond.Kind() == value.KindSimplex {
		return nil, effect(st, obj, inBoundsCond.SimplexValue().(bool))
	}

	outOfBoundsCond, err := calc.ApplyUnary(value.OpNot, inBoundsCond)
	if err != nil {
		return nil, err
	}
	inSat, err := ctx.DP.IsSat(st.PC, inBoundsCond)
	if err != nil {
		return nil, err
	}
	outSat, err := ctx.DP.IsSat(st.PC, outOfBoundsCond)
	if err != nil {
		return nil, err
	}

	var alts []Alternative
	if inSat {
		alts = append(alts, Alternative{IdentChar: 'L', Apply: func(clone *state.State) error {
			clone.PC.Push(state.AssumeClause(inBoundsCond))
			cobj, _ := clone.Heap.Get(pos)
			return effect(clone, cobj, true)
		}})
	}
	if outSat {
		alts = append(alts, Alternative{IdentChar: 'R', Apply: func(clone *state.State) error {
			clone.PC.Push(state.AssumeClause(outOfBoundsCond))
			cobj, _ := clone.Heap.Get(pos)
			return effect(clone, cobj, false)
		}})
	}
	return forkAll(ctx, st, alts)
}

// defaultArrayElement returns the default value for an array whose
// element descriptor is elementDescriptor, for an index never explicitly
// written (heap.Objekt.GetElement's "not found" case).
func defaultArrayElement(st *state.State, elementDescriptor string) *value.Value {
	calc := st.GetCalculator()
	if len(elementDescriptor) == 0 {
		return calc.MakeNull()
	}
	tag := typesig.Tag(elementDescriptor[0])
	switch tag {
	case typesig.Long:
		return calc.MakeSimplex(tag, int64(0))
	case typesig.Float:
		return calc.MakeSimplex(tag, float32(0))
	case typesig.Double:
		return calc.MakeSimplex(tag, float64(0))
	case typesig.Boolean:
		return calc.MakeSimplex(tag, false)
	case typesig.Class, typesig.Array:
		return calc.MakeNull()
	default:
		return calc.MakeSimplex(tag, int32(0))
	}
}
