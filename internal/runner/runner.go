// Package runner implements the DFS driver of spec.md §4.5: it owns the
// worklist of undiscovered states, enforces the scoping knobs
// (depth/count/heap/timeout/identifierSubregion), fires the per-step
// hooks, and classifies the engine's tier-2/tier-3 errors.
//
// Grounded on the teacher's internal/debugger.Debugger: a driver holding
// a target (there, an *vm.EnhancedVM; here, the engine) plus a hook
// interface fired around each step (there, Debugger.step/breakpoint
// checks; here, Hooks.AtPre/AtPost/...), generalized from single-path
// interactive stepping to exhaustive DFS over forking states.
package runner

import (
	"log"
	"strings"
	"time"

	"github.com/jbse-go/symbex/internal/engine"
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/symerr"
	"github.com/jbse-go/symbex/internal/typesig"
	"github.com/jbse-go/symbex/internal/value"
)

// Hooks are the per-step callbacks spec.md §4.5 names. Any method may be
// left nil; Runner checks before calling.
type Hooks struct {
	AtRoot          func(root *state.State)
	AtPre           func(st *state.State)
	AtPost          func(st *state.State, successors []*state.State)
	AtContradiction func(parent *state.State, err error)
	AtStuck         func(st *state.State)
}

// ObservedVariable names one static field the runner notifies a Notifier
// about when its value changes across a step (spec.md §6).
type ObservedVariable struct {
	Class string
	Field string
}

// Notifier receives observed-variable change notifications. A nil
// Notifier disables the feature entirely; internal/observer implements
// this against a websocket broadcaster.
type Notifier interface {
	Notify(class, field string, oldValue, newValue *value.Value)
}

// Config is the runner's consumed configuration (spec.md §6).
type Config struct {
	RootMethod typesig.Signature

	DepthScope int           // 0 = unbounded
	CountScope int           // 0 = unbounded
	HeapScope  int           // 0 = unbounded, per-class object count limit
	Timeout    time.Duration // 0 = unbounded

	IdentifierSubregion string

	Hooks             Hooks
	ObservedVariables []ObservedVariable
	Notifier          Notifier

	Debug  bool
	Logger *log.Logger
}

// Report summarizes one Run.
type Report struct {
	Explored     int
	Terminal     []*state.State // states that ended StuckReturn/StuckException/StuckUnsupported
	Pruned       int            // contradictions: infeasible alternatives dropped
	Unsupported  int            // CannotInvokeNative and catalog misses
	Aborted      bool           // countScope reached
	TimedOut     bool
	FailedStates []FailedState
}

// FailedState records a state.where a DecisionException or other
// non-fatal failure stopped exploration of that one path without
// aborting the whole run (spec.md §7's "runner records a failed state
// and continues with the next worklist entry unless flagged fatal").
type FailedState struct {
	State *state.State
	Err   error
}

// Runner drives a single Engine over its worklist.
type Runner struct {
	Engine *engine.Engine
	Config Config
}

// New builds a Runner over the given Engine and Config.
func New(eng *engine.Engine, cfg Config) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Runner{Engine: eng, Config: cfg}
}

// Run drives root to exhaustion (or until a scope limit stops it),
// exploring depth-first via an explicit LIFO worklist: the engine's first
// successor becomes the new current state directly (no trip through the
// worklist), and the rest are pushed in reverse discovery order so the earliest
// of them is the next one popped once the first successor's own subtree
// is exhausted — spec.md §4.5's "LIFO relative to discovery order".
func (r *Runner) Run(root *state.State) (*Report, error) {
	report := &Report{}
	worklist := []*state.State{root}

	var deadline time.Time
	if r.Config.Timeout > 0 {
		deadline = time.Now().Add(r.Config.Timeout)
	}

	if r.Config.Hooks.AtRoot != nil {
		r.Config.Hooks.AtRoot(root)
	}

	for len(worklist) > 0 {
		if r.Config.CountScope > 0 && report.Explored >= r.Config.CountScope {
			report.Aborted = true
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			report.TimedOut = true
			break
		}

		cur := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if r.Config.IdentifierSubregion != "" && !strings.HasPrefix(cur.Identifier, r.Config.IdentifierSubregion) {
			continue
		}

		if err := r.drive(cur, &worklist, report); err != nil {
			return report, err
		}
	}

	return report, nil
}

// drive steps cur forward in a tight inner loop, staying on the same
// state across every non-forking step (schema (a)/(b)/(c) taking its
// only branch) and only touching the outer worklist when a fork
// actually happens, per spec.md §4.5 step 4.
func (r *Runner) drive(cur *state.State, worklist *[]*state.State, report *Report) error {
	for {
		if cur.IsStuck() {
			if r.Config.Hooks.AtStuck != nil {
				r.Config.Hooks.AtStuck(cur)
			}
			report.Terminal = append(report.Terminal, cur)
			return nil
		}

		if r.Config.CountScope > 0 && report.Explored >= r.Config.CountScope {
			report.Aborted = true
			return nil
		}

		if r.Config.Hooks.AtPre != nil {
			r.Config.Hooks.AtPre(cur)
		}

		observed := r.snapshotObserved(cur)

		report.Explored++
		successors, err := r.Engine.Step(cur)
		if err != nil {
			return r.classifyRunError(cur, err, report)
		}

		if r.Config.Hooks.AtPost != nil {
			r.Config.Hooks.AtPost(cur, successors)
		}

		r.notifyObserved(cur, observed)

		switch {
		case len(successors) == 0:
			return symerr.UnexpectedInternal("engine.Step returned zero successors for a non-stuck state")
		case len(successors) == 1 && successors[0] == cur:
			continue // non-forking: same state, next instruction
		default:
			if r.Config.DepthScope > 0 && cur.Depth+1 > r.Config.DepthScope {
				return nil
			}
			successors = r.filterHeapScope(cur, successors, report)
			if len(successors) == 0 {
				return nil
			}
			if r.Config.Debug {
				r.Config.Logger.Printf("fork id=%s depth=%d alternatives=%d", cur.Identifier, cur.Depth, len(successors))
			}
			for i := len(successors) - 1; i >= 1; i-- {
				*worklist = append(*worklist, successors[i])
			}
			cur = successors[0]
		}
	}
}

// classifyRunError applies spec.md §7's propagation policy at the
// runner boundary: tier-2 conditions prune or mark this one path and let
// the run continue; only a genuinely fatal error stops Run altogether.
func (r *Runner) classifyRunError(cur *state.State, err error, report *Report) error {
	switch e := err.(type) {
	case *symerr.Contradiction:
		if r.Config.Hooks.AtContradiction != nil {
			r.Config.Hooks.AtContradiction(cur, err)
		}
		report.Pruned++
		return nil
	case *symerr.CannotInvokeNative:
		report.Unsupported++
		report.FailedStates = append(report.FailedStates, FailedState{State: cur, Err: e})
		return nil
	case *symerr.ThreadStackEmptyException:
		cur.StuckFlag = state.Stuck{Kind: state.StuckReturn}
		if r.Config.Hooks.AtStuck != nil {
			r.Config.Hooks.AtStuck(cur)
		}
		report.Terminal = append(report.Terminal, cur)
		return nil
	case *symerr.DecisionException:
		report.FailedStates = append(report.FailedStates, FailedState{State: cur, Err: e})
		if e.Fatal {
			return e
		}
		return nil
	default:
		return err // already tier-3 (engine wraps with symerr.WrapFatal)
	}
}

// filterHeapScope drops any successor whose EXPANDS fork would push a
// class's live instance count past Config.HeapScope, per spec.md §4.5.
// Only EXPANDS alternatives grow the heap across a fork (the NULL and
// ALIASES alternatives reuse existing positions), so comparing heap
// length against the parent isolates exactly those successors.
func (r *Runner) filterHeapScope(parent *state.State, successors []*state.State, report *Report) []*state.State {
	if r.Config.HeapScope <= 0 {
		return successors
	}
	kept := successors[:0:0]
	for _, s := range successors {
		if s.Heap.Len() <= parent.Heap.Len() {
			kept = append(kept, s)
			continue
		}
		positions := s.Heap.Positions()
		newest := positions[len(positions)-1]
		obj, ok := s.Heap.Get(newest)
		if !ok || !obj.IsInstance() {
			kept = append(kept, s)
			continue
		}
		if s.Heap.CountOfClass(obj.TypeName()) > r.Config.HeapScope {
			report.Pruned++
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// snapshotObserved reads the current value of every configured observed
// variable, before the step that might change it.
func (r *Runner) snapshotObserved(st *state.State) []*value.Value {
	if len(r.Config.ObservedVariables) == 0 {
		return nil
	}
	out := make([]*value.Value, len(r.Config.ObservedVariables))
	for i, ov := range r.Config.ObservedVariables {
		out[i] = lookupStatic(st, ov.Class, ov.Field)
	}
	return out
}

// notifyObserved compares the pre-step snapshot against st's current
// values and fires Config.Notifier for every changed field.
func (r *Runner) notifyObserved(st *state.State, before []*value.Value) {
	if r.Config.Notifier == nil || len(before) == 0 {
		return
	}
	for i, ov := range r.Config.ObservedVariables {
		after := lookupStatic(st, ov.Class, ov.Field)
		if !value.Equal(before[i], after) {
			r.Config.Notifier.Notify(ov.Class, ov.Field, before[i], after)
		}
	}
}

func lookupStatic(st *state.State, className, field string) *value.Value {
	klass, ok := st.GetKlass(className)
	if !ok {
		return nil
	}
	for _, sig := range klass.FieldSignatures() {
		if sig.MemberName != field {
			continue
		}
		v, _ := klass.GetFieldValue(sig)
		return v
	}
	return nil
}
