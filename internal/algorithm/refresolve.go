// Schema (d): the shared reference-resolution fork used by getfield,
// putfield and athrow when the operand reference is symbolic
// (spec.md §4.4(d)(2)).
package algorithm

import (
	"sort"

	"github.com/jbse-go/symbex/internal/heap"
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/symerr"
	"github.com/jbse-go/symbex/internal/value"
)

// resolveRef dispatches on ref's kind. A reference already resolved —
// concrete (possibly null) or the bare null literal — runs onResolved
// directly against st with no fork. A symbolic reference not yet bound in
// st's resolution table forks into NULL, ALIASES (ascending heap_pos) and
// EXPANDS (lexicographic class name) alternatives, in that stable order,
// consulting ctx.LICS to prune candidates and ctx.DP to check feasibility
// before forking; onResolved then runs once per feasible alternative
// against its own clone, recording the resolution so a later access of the
// same reference on the same path does not fork again.
func resolveRef(st *state.State, ctx *Context, ref *value.Value, declaredClass string, onResolved func(clone *state.State, pos value.HeapPos, isNull bool) error) ([]*state.State, error) {
	switch ref.Kind() {
	case value.KindNull:
		return nil, onResolved(st, value.NullHeapPos, true)
	case value.KindReferenceConcrete:
		return nil, onResolved(st, ref.HeapPosition(), ref.IsNullReference())
	case value.KindReferenceSymbolic:
		// fall through to the fork below
	default:
		return nil, symerr.UnexpectedInternal("resolveRef: unexpected value kind %v on a reference-typed slot", ref.Kind())
	}

	if pos, ok := st.ResolvedReference(ref.ReferenceID()); ok {
		return nil, onResolved(st, pos, pos == value.NullHeapPos)
	}

	origin := ref.ReferenceOrigin()
	var alts []Alternative

	if ctx.LICS.NullAllowed(origin) {
		sat, err := ctx.DP.IsSatNull(st.PC, ref)
		if err != nil {
			return nil, err
		}
		if sat {
			alts = append(alts, Alternative{IdentChar: 'N', Apply: func(clone *state.State) error {
				clone.PC.Push(state.AssumeNullClause(ref))
				clone.ResolveReference(ref.ReferenceID(), value.NullHeapPos)
				return onResolved(clone, value.NullHeapPos, true)
			}})
		}
	}

	if ctx.LICS.AliasesAllowed(origin) {
		var positions []value.HeapPos
		for _, pos := range st.Heap.Positions() {
			obj, ok := st.Heap.Get(pos)
			if !ok || !obj.IsInstance() {
				continue
			}
			compat, err := ctx.Hierarchy.IsSubclassOrSelf(obj.TypeName(), declaredClass)
			if err != nil {
				return nil, err
			}
			if compat {
				positions = append(positions, pos)
			}
		}
		sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
		for _, pos := range positions {
			pos := pos
			sat, err := ctx.DP.IsSatAliases(st.PC, ref, pos)
			if err != nil {
				return nil, err
			}
			if !sat {
				continue
			}
			alts = append(alts, Alternative{IdentChar: 'A', Apply: func(clone *state.State) error {
				clone.PC.Push(state.AssumeAliasesClause(ref, pos))
				clone.ResolveReference(ref.ReferenceID(), pos)
				return onResolved(clone, pos, false)
			}})
		}
	}

	candidates, err := concreteSubclasses(ctx, declaredClass)
	if err != nil {
		return nil, err
	}
	candidates = ctx.LICS.FilterClasses(origin, candidates)
	sortByClassName(candidates)
	for _, className := range candidates {
		className := className
		sat, err := ctx.DP.IsSatExpands(st.PC, ref, className)
		if err != nil {
			return nil, err
		}
		if !sat {
			continue
		}
		alts = append(alts, Alternative{IdentChar: 'E', Apply: func(clone *state.State) error {
			fieldSigs, err := ctx.Hierarchy.FieldSignatures(className)
			if err != nil {
				return err
			}
			obj := heap.NewInstance(className, fieldSigs, clone.GetCalculator())
			pos := clone.Heap.Allocate(obj)
			clone.PC.Push(state.AssumeExpandsClause(ref, className))
			clone.ResolveReference(ref.ReferenceID(), pos)
			return onResolved(clone, pos, false)
		}})
	}

	return forkAll(ctx, st, alts)
}

// concreteSubclasses is the set of classes a fresh EXPANDS alternative may
// allocate: every registered class assignable to declaredClass that is
// neither abstract nor an interface.
func concreteSubclasses(ctx *Context, declaredClass string) ([]string, error) {
	var out []string
	for _, name := range ctx.Hierarchy.ClassNames() {
		cf, err := ctx.Hierarchy.GetClassFile(name)
		if err != nil {
			return nil, err
		}
		if cf.Abstract || cf.Interface {
			continue
		}
		ok, err := ctx.Hierarchy.IsSubclassOrSelf(name, declaredClass)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, name)
		}
	}
	return out, nil
}
