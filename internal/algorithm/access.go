// Schema (c): field/method access with lazy class initialization
// (spec.md §4.3/§4.4(c)).
package algorithm

import (
	"github.com/jbse-go/symbex/internal/classhier"
	"github.com/jbse-go/symbex/internal/heap"
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/symerr"
	"github.com/jbse-go/symbex/internal/typesig"
	"github.com/jbse-go/symbex/internal/value"
)

// ensureKlass implements spec.md §4.3's lazy class initialization
// protocol. It returns mustExit=true when it pushed a <clinit> frame: the
// caller must return without advancing pc so the current bytecode is
// re-executed once the pushed frame returns (spec.md §8 scenario 2).
//
// Superclasses are initialized first, recursively; interface
// initialization is not modeled, since this reference engine carries no
// default-method support — a pure-marker interface has nothing to
// initialize.
func ensureKlass(st *state.State, ctx *Context, className string) (mustExit bool, err error) {
	if _, ok := st.GetKlass(className); ok {
		return false, nil
	}

	cf, err := ctx.Hierarchy.GetClassFile(className)
	if err != nil {
		return false, err
	}

	if cf.Super != "" {
		if exited, err := ensureKlass(st, ctx, cf.Super); err != nil || exited {
			return exited, err
		}
	}

	st.Static.Put(heap.NewKlass(className, staticFieldSignatures(cf), st.GetCalculator()))
	klass, _ := st.GetKlass(className)

	// A freshly created Klass is NotInitialized by construction; ask
	// whether that holds up rather than whether the complementary
	// "already initialized" fact does, so a decision procedure with no
	// opinion (the common case) takes the concrete "run <clinit> once"
	// path instead of vacuously skipping it.
	notInitialized, err := ctx.DP.IsSatNotInitialized(st.PC, className)
	if err != nil {
		return false, err
	}
	if !notInitialized {
		st.PC.Push(state.AssumeClassInitializedClause(className))
		klass.Status = heap.Initialized
		return false, nil
	}

	st.PC.Push(state.AssumeClassNotInitializedClause(className))
	klass.Status = heap.Initializing

	if m, ok := cf.Clinit(); ok {
		frame := state.NewFrame(m.Signature, m.Code, m.MaxLocals)
		frame.Handlers = m.Handlers
		st.PushFrame(frame)
		return true, nil
	}
	klass.Status = heap.Initialized
	return false, nil
}

func staticFieldSignatures(cf *classhier.ClassFile) []typesig.Signature {
	var sigs []typesig.Signature
	for _, fd := range cf.Fields {
		if fd.Static {
			sigs = append(sigs, fd.Signature)
		}
	}
	return sigs
}

// throwForResolutionError maps a classhier oracle failure onto the
// matching modeled hosted-VM exception per spec.md §4.3/§7, throwing it
// into st rather than propagating the Go error.
func throwForResolutionError(st *state.State, err error) error {
	switch err.(type) {
	case *classhier.ClassFileNotFoundError:
		return st.CreateThrowableAndThrowIt("java/lang/NoClassDefFoundError")
	case *classhier.FieldNotFoundError:
		return st.CreateThrowableAndThrowIt("java/lang/NoSuchFieldError")
	case *classhier.MethodNotFoundError:
		return st.CreateThrowableAndThrowIt("java/lang/NoSuchMethodError")
	case *classhier.FieldNotAccessibleError, *classhier.MethodNotAccessibleError:
		return st.CreateThrowableAndThrowIt("java/lang/IllegalAccessError")
	default:
		return err
	}
}

func execGetStatic(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	idx := decodeIndex2(f.Code, f.PC)
	entry, err := ctx.Pools.entry(f.Signature.ClassName, idx)
	if err != nil {
		return nil, err
	}
	sig := entry.Sig

	decl, err := ctx.Hierarchy.ResolveFieldDecl(sig.ClassName, sig)
	if err != nil {
		return nil, throwForResolutionError(st, err)
	}
	declClass := decl.Signature.ClassName

	// Compile-time-constant carve-out: read directly from the constant
	// pool without forcing <clinit> (spec.md §8 scenario 1).
	if decl.ConstantValue != nil {
		v := decl.ConstantValue
		if v.Kind() == value.KindConstantPoolString {
			v = st.ReferenceToStringLiteral(v.StringLiteral())
		}
		if err := st.Push(v); err != nil {
			return nil, err
		}
		return nil, advance(st, OpGetStatic)
	}

	mustExit, err := ensureKlass(st, ctx, declClass)
	if err != nil {
		return nil, err
	}
	if mustExit {
		return nil, nil // pc unchanged: getstatic re-executes after <clinit> returns
	}

	klass, _ := st.GetKlass(declClass)
	val, ok := klass.GetFieldValue(decl.Signature)
	if !ok {
		return nil, throwForResolutionError(st, &classhier.FieldNotFoundError{ClassName: declClass, Member: sig.MemberName})
	}
	if err := st.Push(val); err != nil {
		return nil, err
	}
	return nil, advance(st, OpGetStatic)
}

func execPutStatic(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	idx := decodeIndex2(f.Code, f.PC)
	entry, err := ctx.Pools.entry(f.Signature.ClassName, idx)
	if err != nil {
		return nil, err
	}
	sig := entry.Sig

	decl, err := ctx.Hierarchy.ResolveFieldDecl(sig.ClassName, sig)
	if err != nil {
		return nil, throwForResolutionError(st, err)
	}
	declClass := decl.Signature.ClassName

	mustExit, err := ensureKlass(st, ctx, declClass)
	if err != nil {
		return nil, err
	}
	if mustExit {
		return nil, nil
	}

	v, err := st.Pop()
	if err != nil {
		return nil, err
	}
	klass, _ := st.GetKlass(declClass)
	if !klass.PutFieldValue(decl.Signature, v) {
		return nil, throwForResolutionError(st, &classhier.FieldNotFoundError{ClassName: declClass, Member: sig.MemberName})
	}
	return nil, advance(st, OpPutStatic)
}

func execGetField(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	idx := decodeIndex2(f.Code, f.PC)
	entry, err := ctx.Pools.entry(f.Signature.ClassName, idx)
	if err != nil {
		return nil, err
	}
	sig := entry.Sig

	objref, err := st.Pop()
	if err != nil {
		return nil, err
	}

	return resolveRef(st, ctx, objref, sig.ClassName, func(clone *state.State, pos value.HeapPos, isNull bool) error {
		if isNull {
			return clone.CreateThrowableAndThrowIt("java/lang/NullPointerException")
		}
		obj, ok := clone.Heap.Get(pos)
		if !ok {
			return clone.CreateThrowableAndThrowIt(state.VerifyErrorClassName)
		}
		resolved, err := ctx.Hierarchy.ResolveField(obj.TypeName(), sig)
		if err != nil {
			return throwForResolutionError(clone, err)
		}
		val, err := obj.GetFieldValue(resolved)
		if err != nil {
			return err
		}
		if err := clone.Push(val); err != nil {
			return err
		}
		return advance(clone, OpGetField)
	})
}

func execPutField(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	idx := decodeIndex2(f.Code, f.PC)
	entry, err := ctx.Pools.entry(f.Signature.ClassName, idx)
	if err != nil {
		return nil, err
	}
	sig := entry.Sig

	v, err := st.Pop()
	if err != nil {
		return nil, err
	}
	objref, err := st.Pop()
	if err != nil {
		return nil, err
	}

	return resolveRef(st, ctx, objref, sig.ClassName, func(clone *state.State, pos value.HeapPos, isNull bool) error {
		if isNull {
			return clone.CreateThrowableAndThrowIt("java/lang/NullPointerException")
		}
		obj, ok := clone.Heap.Get(pos)
		if !ok {
			return clone.CreateThrowableAndThrowIt(state.VerifyErrorClassName)
		}
		resolved, err := ctx.Hierarchy.ResolveField(obj.TypeName(), sig)
		if err != nil {
			return throwForResolutionError(clone, err)
		}
		if err := obj.PutFieldValue(resolved, v); err != nil {
			return err
		}
		return advance(clone, OpPutField)
	})
}

func execNew(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	idx := decodeIndex2(f.Code, f.PC)
	entry, err := ctx.Pools.entry(f.Signature.ClassName, idx)
	if err != nil {
		return nil, err
	}
	className := entry.Class

	mustExit, err := ensureKlass(st, ctx, className)
	if err != nil {
		return nil, err
	}
	if mustExit {
		return nil, nil
	}

	fieldSigs, err := ctx.Hierarchy.FieldSignatures(className)
	if err != nil {
		return nil, throwForResolutionError(st, err)
	}
	obj := heap.NewInstance(className, fieldSigs, st.GetCalculator())
	pos := st.Heap.Allocate(obj)
	if err := st.Push(st.GetCalculator().MakeReferenceConcrete(pos)); err != nil {
		return nil, err
	}
	return nil, advance(st, OpNew)
}

func execInvokeStatic(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	idx := decodeIndex2(f.Code, f.PC)
	entry, err := ctx.Pools.entry(f.Signature.ClassName, idx)
	if err != nil {
		return nil, err
	}
	sig := entry.Sig

	mustExit, err := ensureKlass(st, ctx, sig.ClassName)
	if err != nil {
		return nil, err
	}
	if mustExit {
		return nil, nil
	}

	cf, err := ctx.Hierarchy.GetClassFile(sig.ClassName)
	if err != nil {
		return nil, throwForResolutionError(st, err)
	}
	m, ok := cf.FindMethod(sig.MemberName, sig.Descriptor)
	if !ok {
		return nil, throwForResolutionError(st, &classhier.MethodNotFoundError{ClassName: sig.ClassName, Member: sig.MemberName, Descriptor: sig.Descriptor})
	}
	if m.Native {
		return nil, &symerr.CannotInvokeNative{Signature: sig.String()}
	}

	paramTypes, err := typesig.ParamTypes(sig.Descriptor)
	if err != nil {
		return nil, err
	}

	// Advance the caller's pc past this invoke *before* transferring
	// control, so a normal return continues at the next instruction —
	// contrast with ensureKlass's <clinit> push, which deliberately
	// leaves pc unmoved.
	if err := advance(st, OpInvokeStatic); err != nil {
		return nil, err
	}

	callee := state.NewFrame(m.Signature, m.Code, m.MaxLocals)
	callee.Handlers = m.Handlers
	for i := len(paramTypes) - 1; i >= 0; i-- {
		v, err := st.Pop()
		if err != nil {
			return nil, err
		}
		callee.Locals[i] = v
	}
	st.PushFrame(callee)
	return nil, nil
}

func execLdc(st *state.State, ctx *Context) ([]*state.State, error) {
	f, err := st.CurrentFrame()
	if err != nil {
		return nil, err
	}
	idx := decodeIndex2(f.Code, f.PC)
	entry, err := ctx.Pools.entry(f.Signature.ClassName, idx)
	if err != nil {
		return nil, err
	}
	lit, err := makeSimplexLiteral(st.GetCalculator(), entry)
	if err != nil {
		return nil, err
	}
	if entry.Kind == PoolStringLiteral {
		lit = st.ReferenceToStringLiteral(entry.Literal)
	}
	if err := st.Push(lit); err != nil {
		return nil, err
	}
	return nil, advance(st, OpLdc)
}

func execIReturn(st *state.State, ctx *Context) ([]*state.State, error) {
	return doReturn(st, true)
}

func execAReturn(st *state.State, ctx *Context) ([]*state.State, error) {
	return doReturn(st, true)
}

func execReturnVoid(st *state.State, ctx *Context) ([]*state.State, error) {
	return doReturn(st, false)
}

// doReturn pops the active frame; if no caller remains, it sets the
// terminal Stuck flag instead of pushing a return value nowhere.
func doReturn(st *state.State, hasValue bool) ([]*state.State, error) {
	var rv *value.Value
	if hasValue {
		v, err := st.Pop()
		if err != nil {
			return nil, err
		}
		rv = v
	}
	popped, err := st.PopFrame()
	if err != nil {
		return nil, err
	}
	if popped.Signature.MemberName == "<clinit>" {
		if klass, ok := st.GetKlass(popped.Signature.ClassName); ok {
			klass.Status = heap.Initialized
		}
	}
	if len(st.Frames) == 0 {
		st.StuckFlag = state.Stuck{Kind: state.StuckReturn, ReturnValue: rv}
		return nil, nil
	}
	if rv != nil {
		if err := st.Push(rv); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func execAthrow(st *state.State, ctx *Context) ([]*state.State, error) {
	ref, err := st.Pop()
	if err != nil {
		return nil, err
	}
	return resolveRef(st, ctx, ref, "java/lang/Throwable", func(clone *state.State, pos value.HeapPos, isNull bool) error {
		if isNull {
			return clone.CreateThrowableAndThrowIt("java/lang/NullPointerException")
		}
		obj, ok := clone.Heap.Get(pos)
		if !ok {
			return clone.CreateThrowableAndThrowIt(state.VerifyErrorClassName)
		}
		return clone.CreateThrowableAndThrowIt(obj.TypeName())
	})
}
