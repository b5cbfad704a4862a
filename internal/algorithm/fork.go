package algorithm

import (
	"sort"

	"github.com/jbse-go/symbex/internal/decision"
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/symerr"
)

// Alternative is one feasible decision alternative of a fork (spec.md
// §4.4(d)): IdentChar is the single rune appended to a clone's
// Identifier to record the branch choice, and Apply mutates the clone
// (pushing the disambiguating clause and carrying out the alternative's
// effect: writing a value, resolving a reference, jumping to a case
// target, and so on).
type Alternative struct {
	IdentChar byte
	Apply     func(clone *state.State) error
}

// forkAll is the generic fork protocol shared by every schema-(d)
// algorithm: clone st once per feasible alternative, apply each
// alternative's effect on its own clone, append the identifier letter,
// and bump depth. Callers are responsible for presenting alts already in
// the stable order spec.md §4.4 requires (NULL, ALIASES ascending
// heap_pos, EXPANDS lexicographic class_name; branch kinds ascending
// branch_number) — forkAll itself does not reorder.
//
// Per spec.md §5, the bulk of alt.Apply's work is pushAssumption-style
// clause pushes onto each clone's own path condition, not isSat* queries
// (those already ran against the parent's path condition, in the caller,
// to decide which alts are even feasible). ctx.DP is switched into
// goFastAndImprecise for exactly that bulk-push loop and switched back
// before returning, so the next algorithm's isSat* queries run precise
// again.
func forkAll(ctx *Context, st *state.State, alts []Alternative) ([]*state.State, error) {
	if len(alts) == 0 {
		return nil, &symerr.Contradiction{Detail: "decision procedure rejected every alternative"}
	}
	fast, isFast := ctx.DP.(decision.FastImpreciseMode)
	if isFast {
		fast.GoFastAndImprecise()
	}
	out := make([]*state.State, 0, len(alts))
	for _, alt := range alts {
		clone := st.Clone()
		clone.Identifier = clone.Identifier + string(alt.IdentChar)
		clone.Depth++
		if err := alt.Apply(clone); err != nil {
			if isFast {
				fast.StopFastAndImprecise()
			}
			return nil, err
		}
		out = append(out, clone)
	}
	if isFast {
		fast.StopFastAndImprecise()
	}
	return out, nil
}

// sortByClassName stable-sorts class names lexicographically, the EXPANDS
// ordering spec.md §4.4 requires.
func sortByClassName(names []string) {
	sort.Strings(names)
}
