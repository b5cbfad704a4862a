package algorithm_test

import (
	"testing"

	"github.com/jbse-go/symbex/internal/algorithm"
	"github.com/jbse-go/symbex/internal/classhier"
	"github.com/jbse-go/symbex/internal/decision"
	"github.com/jbse-go/symbex/internal/heap"
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/typesig"
	"github.com/jbse-go/symbex/internal/value"
)

func newTestContext(cfs ...*classhier.ClassFile) (*algorithm.Context, *classhier.MemHierarchy, *decision.MemProcedure) {
	return newTestContextWithRules(nil, cfs...)
}

// newTestContextWithRules builds a context whose ctx.LICS (consulted
// directly by resolveRef for pre-filtering) and whose decision procedure's
// own Rules (consulted by IsSatExpands/IsSatAliases/IsSatNull) are the
// same RuleSet — the two are independent fields in production, wired
// identically by cmd/symbex, and must be wired identically here too.
func newTestContextWithRules(rules decision.RuleSet, cfs ...*classhier.ClassFile) (*algorithm.Context, *classhier.MemHierarchy, *decision.MemProcedure) {
	h := classhier.NewMemHierarchy()
	h.Register(&classhier.ClassFile{Name: "java/lang/Throwable"})
	for _, name := range []string{
		"java/lang/NullPointerException",
		"java/lang/ArrayIndexOutOfBoundsException",
		"java/lang/ArithmeticException",
	} {
		h.Register(&classhier.ClassFile{Name: name, Super: "java/lang/Throwable"})
	}
	for _, cf := range cfs {
		h.Register(cf)
	}
	dp := decision.NewMemProcedure(rules)
	return &algorithm.Context{Hierarchy: h, DP: dp, LICS: rules, Pools: algorithm.Pools{}}, h, dp
}

func emitIConst(code *[]byte, n int32) {
	*code = append(*code, byte(algorithm.OpIConst),
		byte(uint32(n)>>24), byte(uint32(n)>>16), byte(uint32(n)>>8), byte(uint32(n)))
}

func emitIdx2(code *[]byte, op byte, idx int) {
	*code = append(*code, op, byte(idx>>8), byte(idx))
}

func step(t *testing.T, eng *algorithmEngine, st *state.State) []*state.State {
	t.Helper()
	succ, err := eng.Catalog[opcodeAt(t, st)].Exec(st, eng.Ctx)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(succ) == 0 {
		return []*state.State{st} // as engine.Step: a non-forking Exec mutated st in place
	}
	return succ
}

func opcodeAt(t *testing.T, st *state.State) algorithm.OpCode {
	t.Helper()
	b, err := st.GetInstruction(0)
	if err != nil {
		t.Fatalf("GetInstruction: %v", err)
	}
	return algorithm.OpCode(b)
}

// algorithmEngine is the minimal subset of internal/engine.Engine this
// test file drives directly, to exercise the catalog without importing
// internal/engine (which in turn imports internal/algorithm).
type algorithmEngine struct {
	Catalog algorithm.Catalog
	Ctx     *algorithm.Context
}

func newEngine(ctx *algorithm.Context) *algorithmEngine {
	return &algorithmEngine{Catalog: algorithm.DefaultCatalog(), Ctx: ctx}
}

// runToFixpoint drives non-forking steps (a single successor equal to st)
// until either a fork happens or st becomes stuck, returning the
// successors of the terminating step (nil while st remains the same
// non-stuck state is never observed: this loop keeps stepping through
// those).
func runToFixpoint(t *testing.T, eng *algorithmEngine, st *state.State) []*state.State {
	t.Helper()
	for {
		if st.IsStuck() {
			return []*state.State{st}
		}
		succ := step(t, eng, st)
		if len(succ) == 0 {
			continue // not returned by step, which reports st for a non-forking Exec
		}
		if len(succ) == 1 && succ[0] == st {
			continue
		}
		return succ
	}
}

// --- scenario 1: getstatic on a compile-time-constant field skips <clinit> ---

func TestGetStaticConstantFieldSkipsClinit(t *testing.T) {
	sig := typesig.Signature{ClassName: "Consts", MemberName: "FORTY_TWO", Descriptor: "I"}
	calc := value.DefaultCalculator()

	var code []byte
	emitIdx2(&code, byte(algorithm.OpGetStatic), 0)
	code = append(code, byte(algorithm.OpIReturn))

	root := typesig.Signature{ClassName: "Consts", MemberName: "main", Descriptor: "()I"}
	cf := &classhier.ClassFile{
		Name: "Consts",
		Fields: []classhier.FieldDecl{
			{Signature: sig, Static: true, Final: true, Public: true, ConstantValue: calc.MakeIntSimplex(42)},
		},
		Methods: []classhier.MethodDecl{{Signature: root, Static: true, Code: code}},
	}

	ctx, h, _ := newTestContext(cf)
	ctx.Pools = algorithm.Pools{"Consts": algorithm.Pool{{Kind: algorithm.PoolSignature, Sig: sig}}}
	_ = h

	st := state.NewState(calc, ctx.Hierarchy.(*classhier.MemHierarchy))
	st.PushFrame(state.NewFrame(root, code, 0))

	eng := newEngine(ctx)
	final := runToFixpoint(t, eng, st)
	if len(final) != 1 {
		t.Fatalf("expected a single terminal state, got %d", len(final))
	}
	if _, ok := st.GetKlass("Consts"); ok {
		t.Fatalf("reading a ConstantValue field must not force class initialization")
	}
	rv := final[0].StuckFlag.ReturnValue
	if rv == nil || rv.SimplexValue().(int32) != 42 {
		t.Fatalf("expected return value 42, got %v", rv)
	}
}

// --- scenario 2: getstatic on a non-constant field forces <clinit>, then
// re-executes the same instruction once <clinit> returns ---

func TestGetStaticForcesClinitThenReexecutes(t *testing.T) {
	valueSig := typesig.Signature{ClassName: "Counter", MemberName: "value", Descriptor: "I"}

	var clinitCode []byte
	emitIConst(&clinitCode, 7)
	emitIdx2(&clinitCode, byte(algorithm.OpPutStatic), 0)
	clinitCode = append(clinitCode, byte(algorithm.OpReturnVoid))
	clinitSig := typesig.Signature{ClassName: "Counter", MemberName: "<clinit>", Descriptor: "()V"}

	var mainCode []byte
	emitIdx2(&mainCode, byte(algorithm.OpGetStatic), 0)
	mainCode = append(mainCode, byte(algorithm.OpIReturn))
	root := typesig.Signature{ClassName: "Counter", MemberName: "main", Descriptor: "()I"}

	cf := &classhier.ClassFile{
		Name:   "Counter",
		Fields: []classhier.FieldDecl{{Signature: valueSig, Static: true}},
		Methods: []classhier.MethodDecl{
			{Signature: root, Static: true, Code: mainCode},
			{Signature: clinitSig, Static: true, Code: clinitCode},
		},
	}

	ctx, _, _ := newTestContext(cf)
	ctx.Pools = algorithm.Pools{"Counter": algorithm.Pool{{Kind: algorithm.PoolSignature, Sig: valueSig}}}

	calc := value.DefaultCalculator()
	st := state.NewState(calc, ctx.Hierarchy.(*classhier.MemHierarchy))
	st.PushFrame(state.NewFrame(root, mainCode, 0))

	eng := newEngine(ctx)

	// First getstatic: pc unchanged, a <clinit> frame is pushed.
	succ := step(t, eng, st)
	if len(succ) != 1 || succ[0] != st {
		t.Fatalf("expected getstatic to push <clinit> with no fork, got %d successors", len(succ))
	}
	if len(st.Frames) != 2 {
		t.Fatalf("expected a <clinit> frame pushed, got %d frames", len(st.Frames))
	}
	if got, err := st.CurrentFrame(); err != nil || got.PC != 0 {
		t.Fatalf("expected <clinit> frame at pc 0")
	}

	final := runToFixpoint(t, eng, st)
	if len(final) != 1 {
		t.Fatalf("expected a single terminal state, got %d", len(final))
	}
	rv := final[0].StuckFlag.ReturnValue
	if rv == nil || rv.SimplexValue().(int32) != 7 {
		t.Fatalf("expected return value 7 after <clinit> ran, got %v", rv)
	}
	klass, ok := st.GetKlass("Counter")
	if !ok || klass.Status != heap.Initialized {
		t.Fatalf("expected Counter to be Initialized after <clinit> returns")
	}
}

// --- scenario 3: a bounds check on a symbolic index over a concrete-length
// array forks into exactly {in-bounds, out-of-bounds} ---

func TestArrayLoadSymbolicIndexForks(t *testing.T) {
	ctx, _, _ := newTestContext()
	calc := value.DefaultCalculator()
	st := state.NewState(calc, ctx.Hierarchy.(*classhier.MemHierarchy))

	code := []byte{byte(algorithm.OpIaload)}
	root := typesig.Signature{ClassName: "X", MemberName: "main", Descriptor: "()I"}
	frame := state.NewFrame(root, code, 0)
	st.PushFrame(frame)

	pos := st.Heap.Allocate(heap.NewArray("I", calc.MakeIntSimplex(5)))
	arrRef := calc.MakeReferenceConcrete(pos)
	idx := calc.MakeTerm(typesig.Int)
	st.Push(arrRef)
	st.Push(idx)

	eng := newEngine(ctx)
	succ := step(t, eng, st)
	if len(succ) != 2 {
		t.Fatalf("expected 2 forks (in-bounds, out-of-bounds), got %d", len(succ))
	}
	if succ[0].Identifier != "L" || succ[1].Identifier != "R" {
		t.Fatalf("expected stable fork order L then R, got %q then %q", succ[0].Identifier, succ[1].Identifier)
	}
	if succ[0].StuckFlag.IsStuck() {
		t.Fatalf("in-bounds branch should not be stuck")
	}
	if !succ[1].StuckFlag.IsStuck() || succ[1].StuckFlag.Kind != state.StuckException {
		t.Fatalf("out-of-bounds branch should be stuck with a thrown exception")
	}
	obj, ok := succ[1].Heap.Get(succ[1].StuckFlag.ExceptionRef.HeapPosition())
	if !ok || obj.TypeName() != "java/lang/ArrayIndexOutOfBoundsException" {
		t.Fatalf("expected an ArrayIndexOutOfBoundsException instance")
	}
	if succ[0].PC.Len() != 1 || succ[1].PC.Len() != 1 {
		t.Fatalf("expected exactly one new clause pushed per fork")
	}
}

// --- scenario 4: a symbolic reference forks NULL / ALIASES / EXPANDS in
// stable order, and a LICS rule pinning a single allowed class prunes the
// NULL alternative pre-SMT (IsSatExpands rejects all but the allowed class,
// and the rule's AllowNull=false disables NULL outright) ---

func TestResolveRefLICSPinsExpandsOnly(t *testing.T) {
	root := typesig.Signature{ClassName: "Holder", MemberName: "main", Descriptor: "()I"}
	leaf := typesig.Signature{ClassName: "Leaf", MemberName: "n", Descriptor: "I"}
	var code []byte
	emitIdx2(&code, byte(algorithm.OpGetField), 0)

	leafCF := &classhier.ClassFile{Name: "Leaf", Fields: []classhier.FieldDecl{{Signature: leaf}}}
	otherCF := &classhier.ClassFile{Name: "Other", Fields: []classhier.FieldDecl{{Signature: leaf}}}
	rules := decision.RuleSet{
		{OriginPattern: "ROOT/obj", AllowedClasses: []string{"Leaf"}, AllowAliases: false, AllowNull: false},
	}
	ctx, _, _ := newTestContextWithRules(rules, leafCF, otherCF)
	ctx.Pools = algorithm.Pools{"Holder": algorithm.Pool{{Kind: algorithm.PoolSignature, Sig: leaf}}}

	calc := value.DefaultCalculator()
	st := state.NewState(calc, ctx.Hierarchy.(*classhier.MemHierarchy))
	st.PushFrame(state.NewFrame(root, code, 0))
	ref := calc.MakeReferenceSymbolic("ROOT/obj")
	st.Push(ref)

	eng := newEngine(ctx)
	succ := step(t, eng, st)
	if len(succ) != 1 {
		t.Fatalf("expected exactly one EXPANDS successor, got %d", len(succ))
	}
	if succ[0].Identifier != "E" {
		t.Fatalf("expected the single successor's identifier to be the EXPANDS letter, got %q", succ[0].Identifier)
	}
	clauses := succ[0].PC.Clauses()
	if len(clauses) != 1 || clauses[0].Kind != state.ClauseAssumeExpands || clauses[0].ExpandsClass != "Leaf" {
		t.Fatalf("expected a single AssumeExpands(Leaf) clause, got %+v", clauses)
	}
}

// --- scenario 5: integer division by a concrete zero throws without
// forking and without advancing pc ---

func TestIDivByConcreteZeroThrowsNoFork(t *testing.T) {
	ctx, _, _ := newTestContext()
	calc := value.DefaultCalculator()
	st := state.NewState(calc, ctx.Hierarchy.(*classhier.MemHierarchy))

	code := []byte{byte(algorithm.OpIDiv), byte(algorithm.OpIReturn)}
	root := typesig.Signature{ClassName: "X", MemberName: "main", Descriptor: "()I"}
	st.PushFrame(state.NewFrame(root, code, 0))
	st.Push(calc.MakeIntSimplex(10))
	st.Push(calc.MakeIntSimplex(0))

	frameBefore, _ := st.CurrentFrame()
	pcBefore := frameBefore.PC

	eng := newEngine(ctx)
	succ := step(t, eng, st)
	if len(succ) != 1 || succ[0] != st {
		t.Fatalf("idiv-by-zero must not fork, got %d successors", len(succ))
	}
	// No handler is present, so the throw unwinds every frame; the pc is
	// read from the frame that executed idiv.
	if frameBefore.PC != pcBefore {
		t.Fatalf("idiv-by-zero must not advance pc: before=%d after=%d", pcBefore, frameBefore.PC)
	}
	if !st.StuckFlag.IsStuck() || st.StuckFlag.Kind != state.StuckException {
		t.Fatalf("expected a thrown ArithmeticException")
	}
	obj, ok := st.Heap.Get(st.StuckFlag.ExceptionRef.HeapPosition())
	if !ok || obj.TypeName() != "java/lang/ArithmeticException" {
		t.Fatalf("expected an ArithmeticException instance, got %+v", obj)
	}
}

// --- scenario 6: wide + iload advances pc by 1 (wide) + 3 (widened iload),
// reading a 2-byte local index instead of 1 ---

func TestWideIloadReadsTwoByteIndex(t *testing.T) {
	ctx, _, _ := newTestContext()
	calc := value.DefaultCalculator()
	st := state.NewState(calc, ctx.Hierarchy.(*classhier.MemHierarchy))

	// wide; iload 0x0102; ireturn
	code := []byte{byte(algorithm.OpWide), byte(algorithm.OpILoad), 0x01, 0x02, byte(algorithm.OpIReturn)}
	root := typesig.Signature{ClassName: "X", MemberName: "main", Descriptor: "()I"}
	frame := state.NewFrame(root, code, 0x0103)
	frame.Locals[0x0102] = calc.MakeIntSimplex(99)
	st.PushFrame(frame)

	eng := newEngine(ctx)

	succ := step(t, eng, st) // wide
	if len(succ) != 1 || succ[0] != st {
		t.Fatalf("wide must not fork")
	}
	f, _ := st.CurrentFrame()
	if f.PC != 1 {
		t.Fatalf("expected pc 1 after wide, got %d", f.PC)
	}
	if !f.Wide {
		t.Fatalf("expected the one-shot wide flag to be set")
	}

	succ = step(t, eng, st) // iload (wide)
	if len(succ) != 1 || succ[0] != st {
		t.Fatalf("widened iload must not fork")
	}
	f, _ = st.CurrentFrame()
	if f.PC != 4 {
		t.Fatalf("expected pc 4 (1 + 3) after widened iload, got %d", f.PC)
	}
	if f.Wide {
		t.Fatalf("expected the one-shot wide flag to be cleared after consuming it")
	}
	top, err := st.Top()
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if top.SimplexValue().(int32) != 99 {
		t.Fatalf("expected locals[0x0102] pushed, got %v", top)
	}
}
