// Package decision defines the pluggable decision-procedure boundary
// consumed by the engine's fork-on-decision algorithm schema: given a
// path condition and a candidate clause, decide whether asserting that
// clause keeps the path condition satisfiable.
//
// Grounded on the teacher's internal/security package's Analyzer
// interface (pluggable, side-effect-free analysis over a fixed input),
// generalized here from static source analysis to SMT-style satisfiability
// queries over a PathCondition.
package decision

import (
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/value"
)

// DecisionProcedure is the decision procedure oracle. All
// methods are read-only with respect to the PathCondition passed in —
// callers push the winning clause themselves once a fork alternative is
// chosen.
type DecisionProcedure interface {
	// IsSat reports whether pc, extended with the assumption that expr
	// evaluates to true, remains satisfiable.
	IsSat(pc *state.PathCondition, expr *value.Value) (bool, error)

	// IsSatNull reports whether it is consistent for the symbolic
	// reference ref to resolve to null.
	IsSatNull(pc *state.PathCondition, ref *value.Value) (bool, error)

	// IsSatAliases reports whether it is consistent for the symbolic
	// reference ref to alias the heap object at pos.
	IsSatAliases(pc *state.PathCondition, ref *value.Value, pos value.HeapPos) (bool, error)

	// IsSatExpands reports whether it is consistent for the symbolic
	// reference ref to resolve to a fresh object of className.
	IsSatExpands(pc *state.PathCondition, ref *value.Value, className string) (bool, error)

	// IsSatInitialized reports whether pc is consistent with className
	// already having completed <clinit>.
	IsSatInitialized(pc *state.PathCondition, className string) (bool, error)

	// IsSatNotInitialized reports whether pc is consistent with
	// className not yet having started <clinit>.
	IsSatNotInitialized(pc *state.PathCondition, className string) (bool, error)

	// Simplify rewrites expr using whatever background theory the
	// procedure carries (e.g. previously asserted equalities in pc). A
	// procedure with no simplification theory may return expr unchanged.
	Simplify(pc *state.PathCondition, expr *value.Value) (*value.Value, error)

	// Close releases resources (e.g. a subprocess or socket to an
	// external SMT solver). Safe to call on a procedure that holds none.
	Close() error
}

// FastImpreciseMode toggles goFastAndImprecise/stopFastAndImprecise
// while engaged, the procedure may skip expensive
// checks and default to reporting "satisfiable" rather than proving it,
// trading soundness of pruning for throughput during bulk exploration.
type FastImpreciseMode interface {
	GoFastAndImprecise()
	StopFastAndImprecise()
}
