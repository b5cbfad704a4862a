// Package symerr implements the three error tiers as Go
// types, grounded on the teacher's internal/errors.SentraError but split
// by tier rather than carried as one discriminated struct: hosted-VM
// exceptions are modeled as State data (never a Go error at all),
// engine-recoverable conditions are plain errors the runner reacts to,
// and fatal conditions are wrapped with a stack trace for post-mortem
// inspection.
package symerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Contradiction is raised when the decision procedure rejects every
// alternative of a fork: the state is infeasible and must be pruned
// (tier 2: engine-recoverable).
type Contradiction struct {
	Detail string
}

func (e *Contradiction) Error() string {
	return "symerr: contradiction, state infeasible: " + e.Detail
}

// CannotInvokeNative is raised when a native method cannot be modeled;
// the runner may either stop the path or mark it unsupported (tier 2).
type CannotInvokeNative struct {
	Signature string
}

func (e *CannotInvokeNative) Error() string {
	return "symerr: cannot invoke native method " + e.Signature
}

// ThreadStackEmptyException is the engine-facing classification of a
// state.ThreadStackEmpty: the runner treats it as recoverable by setting
// State.Stuck to a return status rather than aborting the whole run.
type ThreadStackEmptyException struct{}

func (e *ThreadStackEmptyException) Error() string {
	return "symerr: thread stack empty"
}

// DecisionException wraps a failure surfaced by the DecisionProcedure; it
// is bubbled to the runner, which records a failed state and continues
// with the next worklist entry unless flagged fatal.
type DecisionException struct {
	Cause error
	Fatal bool
}

func (e *DecisionException) Error() string {
	return fmt.Sprintf("symerr: decision procedure failed (fatal=%v): %v", e.Fatal, e.Cause)
}

func (e *DecisionException) Unwrap() error { return e.Cause }

// UnexpectedInternal models a violated invariant: e.g. a resolution that
// previously succeeded now raising FieldNotFound. It is fatal — the
// runner aborts and surfaces it with the offending state preserved for
// post-mortem inspection (tier 3: fatal). Wrapped with
// github.com/pkg/errors so the trace survives the abort.
func UnexpectedInternal(format string, args ...interface{}) error {
	return errors.WithStack(fmt.Errorf("symerr: unexpected internal error: "+format, args...))
}

// WrapFatal attaches a stack trace to an arbitrary lower-level error when
// promoting it to tier-3 fatal status.
func WrapFatal(err error, context string) error {
	return errors.Wrapf(err, "symerr: fatal: %s", context)
}
