package runner

import (
	"testing"
	"time"

	"github.com/jbse-go/symbex/internal/algorithm"
	"github.com/jbse-go/symbex/internal/classhier"
	"github.com/jbse-go/symbex/internal/decision"
	"github.com/jbse-go/symbex/internal/engine"
	"github.com/jbse-go/symbex/internal/heap"
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/symerr"
	"github.com/jbse-go/symbex/internal/typesig"
	"github.com/jbse-go/symbex/internal/value"
)

func newArrayHierarchy() *classhier.MemHierarchy {
	h := classhier.NewMemHierarchy()
	h.Register(&classhier.ClassFile{Name: "java/lang/Throwable"})
	h.Register(&classhier.ClassFile{Name: "java/lang/ArrayIndexOutOfBoundsException", Super: "java/lang/Throwable"})
	return h
}

// arrayBoundsEngine builds the engine+root-state pair spec.md §8 scenario
// 3 names: a symbolic index read against a concrete 5-element array,
// forking into an in-bounds and an out-of-bounds alternative.
func arrayBoundsEngine(t *testing.T) (*engine.Engine, *state.State) {
	t.Helper()
	h := newArrayHierarchy()
	ctx := &algorithm.Context{Hierarchy: h, DP: decision.NewMemProcedure(nil), Pools: algorithm.Pools{}}
	eng := engine.New(ctx, algorithm.DefaultCatalog())

	calc := value.DefaultCalculator()
	st := state.NewState(calc, h)
	sig := typesig.Signature{ClassName: "Main", MemberName: "main", Descriptor: "([II)I"}
	code := []byte{
		byte(algorithm.OpALoad), 0,
		byte(algorithm.OpILoad), 1,
		byte(algorithm.OpIaload),
		byte(algorithm.OpIReturn),
	}
	frame := state.NewFrame(sig, code, 2)
	st.PushFrame(frame)
	pos := st.Heap.Allocate(heap.NewArray("I", calc.MakeIntSimplex(5)))
	frame.Locals[0] = calc.MakeReferenceConcrete(pos)
	frame.Locals[1] = calc.MakeTerm(typesig.Int)
	return eng, st
}

func TestRunDFSOrderingFollowsFirstSuccessorThenWorklist(t *testing.T) {
	eng, root := arrayBoundsEngine(t)
	r := New(eng, Config{})

	report, err := r.Run(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Terminal) != 2 {
		t.Fatalf("expected 2 terminal states, got %d", len(report.Terminal))
	}
	// forkAll presents alternatives in stable order (in-bounds "L" then
	// out-of-bounds "R"); the first becomes cur directly and is driven
	// to completion before the second is ever popped off the worklist.
	if report.Terminal[0].Identifier != "L" {
		t.Fatalf("expected the in-bounds successor explored first, got identifier %q", report.Terminal[0].Identifier)
	}
	if report.Terminal[1].Identifier != "R" {
		t.Fatalf("expected the out-of-bounds successor explored second, got identifier %q", report.Terminal[1].Identifier)
	}
	if report.Terminal[0].StuckFlag.Kind != state.StuckReturn {
		t.Fatalf("expected in-bounds branch to return, got %v", report.Terminal[0].StuckFlag.Kind)
	}
	if report.Terminal[1].StuckFlag.Kind != state.StuckException {
		t.Fatalf("expected out-of-bounds branch to throw, got %v", report.Terminal[1].StuckFlag.Kind)
	}
}

func TestRunDepthScopeAbandonsForkPastLimit(t *testing.T) {
	eng, root := arrayBoundsEngine(t)
	// DepthScope 0 means unbounded, so pin the root's starting depth
	// level with the scope so the very fork that would cross it is
	// abandoned instead of explored.
	root.Depth = 5
	r := New(eng, Config{DepthScope: 5})

	report, err := r.Run(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Terminal) != 0 {
		t.Fatalf("expected the fork to be abandoned at the depth limit, got %d terminal states", len(report.Terminal))
	}
}

func TestRunCountScopeAborts(t *testing.T) {
	eng, root := arrayBoundsEngine(t)
	r := New(eng, Config{CountScope: 1})

	report, err := r.Run(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Aborted {
		t.Fatalf("expected Aborted once CountScope is reached")
	}
	if report.Explored > 1 {
		t.Fatalf("expected at most 1 step explored before aborting, got %d", report.Explored)
	}
}

func TestRunTimeoutStopsExploration(t *testing.T) {
	eng, root := arrayBoundsEngine(t)
	r := New(eng, Config{Timeout: time.Nanosecond})
	time.Sleep(time.Millisecond)

	report, err := r.Run(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.TimedOut {
		t.Fatalf("expected TimedOut with an already-elapsed deadline")
	}
}

func TestRunHooksFireAroundEachStep(t *testing.T) {
	eng, root := arrayBoundsEngine(t)
	var rootSeen, preCount, postCount, stuckCount int
	r := New(eng, Config{Hooks: Hooks{
		AtRoot:  func(st *state.State) { rootSeen++ },
		AtPre:   func(st *state.State) { preCount++ },
		AtPost:  func(st *state.State, succ []*state.State) { postCount++ },
		AtStuck: func(st *state.State) { stuckCount++ },
	}})

	report, err := r.Run(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rootSeen != 1 {
		t.Fatalf("expected AtRoot exactly once, got %d", rootSeen)
	}
	if preCount == 0 || preCount != postCount {
		t.Fatalf("expected AtPre/AtPost to fire in lockstep, got pre=%d post=%d", preCount, postCount)
	}
	if stuckCount != len(report.Terminal) {
		t.Fatalf("expected AtStuck once per terminal state, got %d for %d terminal states", stuckCount, len(report.Terminal))
	}
}

// IdentifierSubregion is checked against cur.Identifier each time a state
// is popped off the outer worklist — including the root itself, on its
// very first pop. A fresh root's Identifier is "", so any non-empty
// subregion fails that very first check and the run explores nothing;
// the filter only ever discriminates among states already carrying a
// matching prefix (e.g. a resumed run reseeded at a non-root Identifier).
func TestRunIdentifierSubregionMismatchedAgainstFreshRootExploresNothing(t *testing.T) {
	eng, root := arrayBoundsEngine(t)
	r := New(eng, Config{IdentifierSubregion: "I"})

	report, err := r.Run(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Explored != 0 || len(report.Terminal) != 0 {
		t.Fatalf("expected nothing explored when root's own Identifier fails the subregion prefix, got explored=%d terminal=%d",
			report.Explored, len(report.Terminal))
	}
}

func TestRunIdentifierSubregionMatchingRootExploresNormally(t *testing.T) {
	eng, root := arrayBoundsEngine(t)
	root.Identifier = "R"
	r := New(eng, Config{IdentifierSubregion: "R"})

	report, err := r.Run(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Terminal) != 2 {
		t.Fatalf("expected both forked descendants of a matching root to be explored, got %d", len(report.Terminal))
	}
}

func TestFilterHeapScopeDropsSuccessorsOverTheLimit(t *testing.T) {
	h := newArrayHierarchy()
	h.Register(&classhier.ClassFile{Name: "Widget"})
	calc := value.DefaultCalculator()
	parent := state.NewState(calc, h)

	r := &Runner{Config: Config{HeapScope: 1}}
	report := &Report{}

	under := parent.Clone()
	under.Heap.Allocate(heap.NewInstance("Widget", nil, calc))

	over := parent.Clone()
	over.Heap.Allocate(heap.NewInstance("Widget", nil, calc))
	over.Heap.Allocate(heap.NewInstance("Widget", nil, calc))

	kept := r.filterHeapScope(parent, []*state.State{under, over}, report)
	if len(kept) != 1 || kept[0] != under {
		t.Fatalf("expected only the under-limit successor kept, got %d", len(kept))
	}
	if report.Pruned != 1 {
		t.Fatalf("expected Pruned incremented for the dropped successor, got %d", report.Pruned)
	}
}

func TestFilterHeapScopeDisabledWhenZero(t *testing.T) {
	h := newArrayHierarchy()
	calc := value.DefaultCalculator()
	parent := state.NewState(calc, h)
	r := &Runner{Config: Config{HeapScope: 0}}
	report := &Report{}

	successors := []*state.State{parent.Clone(), parent.Clone()}
	kept := r.filterHeapScope(parent, successors, report)
	if len(kept) != 2 {
		t.Fatalf("expected HeapScope 0 to keep every successor, got %d", len(kept))
	}
}

func TestClassifyRunErrorContradictionPrunesAndContinues(t *testing.T) {
	var contradictionSeen *state.State
	r := &Runner{Config: Config{Hooks: Hooks{
		AtContradiction: func(parent *state.State, err error) { contradictionSeen = parent },
	}}}
	report := &Report{}
	cur := state.NewState(value.DefaultCalculator(), newArrayHierarchy())

	err := r.classifyRunError(cur, &symerr.Contradiction{Detail: "infeasible"}, report)
	if err != nil {
		t.Fatalf("expected a contradiction to be absorbed, got %v", err)
	}
	if report.Pruned != 1 {
		t.Fatalf("expected Pruned incremented, got %d", report.Pruned)
	}
	if contradictionSeen != cur {
		t.Fatalf("expected AtContradiction to fire with the pruned state")
	}
}

func TestClassifyRunErrorThreadStackEmptyMarksReturnAndTerminal(t *testing.T) {
	r := &Runner{Config: Config{}}
	report := &Report{}
	cur := state.NewState(value.DefaultCalculator(), newArrayHierarchy())

	err := r.classifyRunError(cur, &symerr.ThreadStackEmptyException{}, report)
	if err != nil {
		t.Fatalf("expected recoverable, got %v", err)
	}
	if cur.StuckFlag.Kind != state.StuckReturn {
		t.Fatalf("expected StuckReturn, got %v", cur.StuckFlag.Kind)
	}
	if len(report.Terminal) != 1 || report.Terminal[0] != cur {
		t.Fatalf("expected the state recorded as terminal")
	}
}

func TestClassifyRunErrorDecisionExceptionFatalPropagates(t *testing.T) {
	r := &Runner{Config: Config{}}
	report := &Report{}
	cur := state.NewState(value.DefaultCalculator(), newArrayHierarchy())

	fatal := &symerr.DecisionException{Fatal: true}
	if err := r.classifyRunError(cur, fatal, report); err != fatal {
		t.Fatalf("expected a fatal decision exception to propagate, got %v", err)
	}
	if len(report.FailedStates) != 1 {
		t.Fatalf("expected the failed state recorded even though it propagates")
	}

	nonFatal := &symerr.DecisionException{Fatal: false}
	if err := r.classifyRunError(cur, nonFatal, report); err != nil {
		t.Fatalf("expected a non-fatal decision exception to be absorbed, got %v", err)
	}
}

func TestClassifyRunErrorUnknownPropagatesAsIs(t *testing.T) {
	r := &Runner{Config: Config{}}
	report := &Report{}
	cur := state.NewState(value.DefaultCalculator(), newArrayHierarchy())

	fatal := symerr.WrapFatal(errPlain("boom"), "test")
	if err := r.classifyRunError(cur, fatal, report); err != fatal {
		t.Fatalf("expected an unrecognized error to propagate unchanged, got %v", err)
	}
}

type errPlain string

func (e errPlain) Error() string { return string(e) }
