package engine_test

import (
	"testing"

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

func newContext() *algorithm.Context {
	h := classhier.NewMemHierarchy()
	h.Register(&classhier.ClassFile{Name: "java/lang/Throwable"})
	h.Register(&classhier.ClassFile{Name: "java/lang/ArithmeticException", Super: "java/lang/Throwable"})
	h.Register(&classhier.ClassFile{Name: "java/lang/ArrayIndexOutOfBoundsException", Super: "java/lang/Throwable"})
	return &algorithm.Context{
		Hierarchy: h,
		DP:        decision.NewMemProcedure(nil),
		Pools:     algorithm.Pools{},
	}
}

func newRootState(code []byte, maxLocals int) *state.State {
	calc := value.DefaultCalculator()
	h := classhier.NewMemHierarchy()
	h.Register(&classhier.ClassFile{Name: "java/lang/Throwable"})
	h.Register(&classhier.ClassFile{Name: "java/lang/ArrayIndexOutOfBoundsException", Super: "java/lang/Throwable"})
	st := state.NewState(calc, h)
	sig := typesig.Signature{ClassName: "Main", MemberName: "main", Descriptor: "()I"}
	st.PushFrame(state.NewFrame(sig, code, maxLocals))
	return st
}

func TestStepAlreadyStuckReturnsUnchanged(t *testing.T) {
	ctx := newContext()
	eng := engine.New(ctx, algorithm.DefaultCatalog())

	st := newRootState([]byte{byte(algorithm.OpReturnVoid)}, 0)
	st.StuckFlag = state.Stuck{Kind: state.StuckReturn}

	succ, err := eng.Step(st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(succ) != 1 || succ[0] != st {
		t.Fatalf("expected the stuck state returned unchanged, got %v", succ)
	}
}

func TestStepNonForkingReturnsStateItself(t *testing.T) {
	ctx := newContext()
	eng := engine.New(ctx, algorithm.DefaultCatalog())

	code := []byte{byte(algorithm.OpIConst), 0, 0, 0, 9, byte(algorithm.OpIReturn)}
	st := newRootState(code, 0)

	succ, err := eng.Step(st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(succ) != 1 || succ[0] != st {
		t.Fatalf("expected iconst to report st itself as the sole successor, got %v", succ)
	}
	frame, err := st.CurrentFrame()
	if err != nil || frame.PC != 5 {
		t.Fatalf("expected pc to advance past the 5-byte iconst instruction, got %+v, %v", frame, err)
	}
}

func TestStepUnrecognizedOpcodeMarksUnsupported(t *testing.T) {
	ctx := newContext()
	eng := engine.New(ctx, algorithm.DefaultCatalog())

	st := newRootState([]byte{0xFF}, 0)

	succ, err := eng.Step(st)
	if err != nil {
		t.Fatalf("unrecognized opcode must not be a Go error, got %v", err)
	}
	if len(succ) != 1 || succ[0] != st {
		t.Fatalf("expected st itself as the sole successor, got %v", succ)
	}
	if st.StuckFlag.Kind != state.StuckUnsupported {
		t.Fatalf("expected StuckUnsupported, got %v", st.StuckFlag.Kind)
	}
}

func TestStepForkingReturnsClones(t *testing.T) {
	ctx := newContext()
	eng := engine.New(ctx, algorithm.DefaultCatalog())

	code := []byte{
		byte(algorithm.OpALoad), 0,
		byte(algorithm.OpILoad), 1,
		byte(algorithm.OpIaload),
		byte(algorithm.OpIReturn),
	}
	st := newRootState(code, 2)
	calc := st.GetCalculator()
	frame, _ := st.CurrentFrame()
	pos := st.Heap.Allocate(heap.NewArray("I", calc.MakeIntSimplex(3)))
	frame.Locals[0] = calc.MakeReferenceConcrete(pos)
	frame.Locals[1] = calc.MakeTerm(typesig.Int)

	// aload, iload: non-forking, advance past them first.
	if _, err := eng.Step(st); err != nil {
		t.Fatalf("aload: %v", err)
	}
	if _, err := eng.Step(st); err != nil {
		t.Fatalf("iload: %v", err)
	}

	succ, err := eng.Step(st)
	if err != nil {
		t.Fatalf("unexpected error forking on iaload: %v", err)
	}
	if len(succ) != 2 {
		t.Fatalf("expected iaload on a symbolic index to fork into 2 states, got %d", len(succ))
	}
	if succ[0] == st || succ[1] == st {
		t.Fatalf("expected forked successors to be fresh clones, not st itself")
	}
	if succ[0] == succ[1] {
		t.Fatalf("expected distinct successor states")
	}
}

// classifyError is unexported; these scenarios exercise its effect
// through Step by wiring a catalog entry whose Exec fails in a way that
// pins each branch of the classification switch.
func TestStepClassifiesAlgorithmErrors(t *testing.T) {
	cases := []struct {
		name    string
		failure error
		check   func(t *testing.T, got error)
	}{
		{
			name:    "thread stack empty promotes to symerr type",
			failure: &state.ThreadStackEmpty{},
			check: func(t *testing.T, got error) {
				if _, ok := got.(*symerr.ThreadStackEmptyException); !ok {
					t.Fatalf("expected *symerr.ThreadStackEmptyException, got %T (%v)", got, got)
				}
			},
		},
		{
			name:    "contradiction passes through unchanged",
			failure: &symerr.Contradiction{Detail: "test"},
			check: func(t *testing.T, got error) {
				if got != nil && got.(*symerr.Contradiction).Detail != "test" {
					t.Fatalf("expected the same *symerr.Contradiction to pass through, got %v", got)
				}
				if _, ok := got.(*symerr.Contradiction); !ok {
					t.Fatalf("expected *symerr.Contradiction to pass through unchanged, got %T", got)
				}
			},
		},
		{
			name:    "decision exception passes through unchanged",
			failure: &symerr.DecisionException{Cause: errPlain("boom")},
			check: func(t *testing.T, got error) {
				if _, ok := got.(*symerr.DecisionException); !ok {
					t.Fatalf("expected *symerr.DecisionException to pass through unchanged, got %T", got)
				}
			},
		},
		{
			name:    "an unrecognized error is promoted to fatal",
			failure: errPlain("unexpected"),
			check: func(t *testing.T, got error) {
				if got == nil {
					t.Fatalf("expected a non-nil fatal error")
				}
				if got.Error() == "unexpected" {
					t.Fatalf("expected the error to be wrapped with fatal context, got bare %q", got.Error())
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newContext()
			catalog := algorithm.Catalog{
				algorithm.OpNop: algorithm.AlgorithmFunc(func(st *state.State, ctx *algorithm.Context) ([]*state.State, error) {
					return nil, tc.failure
				}),
			}
			eng := engine.New(ctx, catalog)
			st := newRootState([]byte{byte(algorithm.OpNop)}, 0)

			_, err := eng.Step(st)
			tc.check(t, err)
		})
	}
}

type errPlain string

func (e errPlain) Error() string { return string(e) }
