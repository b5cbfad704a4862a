package decision

import (
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/value"
)

// MemProcedure is a reference DecisionProcedure with no external SMT
// backend: concrete clauses are evaluated directly, and a symbolic clause
// is accepted unless a LICS rule or a prior contradictory Assume clause
// rules it out. It trades soundness of pruning for zero external
// dependencies and is adequate for exercising the engine end to end.
//
// Grounded on the teacher's loadBuiltinModule-then-cache-then-file-search
// chain in internal/module.ModuleLoader.LoadModule: several small,
// single-purpose checks tried in order, the first applicable one winning.
type MemProcedure struct {
	Rules RuleSet
	fast  bool
}

// NewMemProcedure returns a MemProcedure governed by rules (nil is fine:
// no restrictions).
func NewMemProcedure(rules RuleSet) *MemProcedure {
	return &MemProcedure{Rules: rules}
}

var _ DecisionProcedure = (*MemProcedure)(nil)
var _ FastImpreciseMode = (*MemProcedure)(nil)

func (p *MemProcedure) GoFastAndImprecise()   { p.fast = true }
func (p *MemProcedure) StopFastAndImprecise() { p.fast = false }

// IsSat evaluates expr directly when it reduces to a concrete boolean
// Simplex; otherwise it checks expr against every existing Assume clause
// for a literal contradiction and accepts it if none is found.
func (p *MemProcedure) IsSat(pc *state.PathCondition, expr *value.Value) (bool, error) {
	if expr == nil {
		return false, &NilQueryError{Query: "IsSat"}
	}
	if expr.Kind() == value.KindSimplex {
		return expr.SimplexValue().(bool), nil
	}
	if p.fast {
		return true, nil
	}
	for _, c := range pc.Clauses() {
		if c.Kind != state.ClauseAssume {
			continue
		}
		if negatesLiteral(c.Expr, expr) {
			return false, nil
		}
	}
	return true, nil
}

// IsSatNull accepts a null resolution unless the governing LICS rule
// forbids it for ref's origin.
func (p *MemProcedure) IsSatNull(pc *state.PathCondition, ref *value.Value) (bool, error) {
	return p.Rules.NullAllowed(ref.ReferenceOrigin()), nil
}

// IsSatAliases accepts aliasing unless the governing LICS rule forbids
// it, or a prior AssumeAliases clause on the same origin already
// committed it to a different heap position. AssumeExpands clauses are
// not consulted.
func (p *MemProcedure) IsSatAliases(pc *state.PathCondition, ref *value.Value, pos value.HeapPos) (bool, error) {
	if !p.Rules.AliasesAllowed(ref.ReferenceOrigin()) {
		return false, nil
	}
	for _, c := range pc.Clauses() {
		if c.Kind == state.ClauseAssumeAliases && sameOrigin(c.Ref, ref) && c.AliasHeapPos != pos {
			return false, nil
		}
	}
	return true, nil
}

// IsSatExpands accepts a fresh-object resolution of className unless the
// governing LICS rule's AllowedClasses excludes it.
func (p *MemProcedure) IsSatExpands(pc *state.PathCondition, ref *value.Value, className string) (bool, error) {
	allowed := p.Rules.FilterClasses(ref.ReferenceOrigin(), []string{className})
	return len(allowed) == 1, nil
}

// IsSatInitialized is conservative: it never rules out className already
// being initialized, absent a stronger theory.
func (p *MemProcedure) IsSatInitialized(pc *state.PathCondition, className string) (bool, error) {
	for _, c := range pc.Clauses() {
		if c.Kind == state.ClauseAssumeClassNotInitialized && c.ClassName == className {
			return false, nil
		}
	}
	return true, nil
}

// IsSatNotInitialized mirrors IsSatInitialized for the complementary
// clause.
func (p *MemProcedure) IsSatNotInitialized(pc *state.PathCondition, className string) (bool, error) {
	for _, c := range pc.Clauses() {
		if c.Kind == state.ClauseAssumeClassInitialized && c.ClassName == className {
			return false, nil
		}
	}
	return true, nil
}

// Simplify returns expr unchanged: MemProcedure carries no background
// theory beyond the calculator's own rewrite chain, which already ran
// during construction.
func (p *MemProcedure) Simplify(pc *state.PathCondition, expr *value.Value) (*value.Value, error) {
	return expr, nil
}

// Close is a no-op: MemProcedure holds no external resources.
func (p *MemProcedure) Close() error { return nil }

// negatesLiteral reports whether a is the unary not(b) of a b that is not
// itself equal to a — a minimal syntactic contradiction check, not a
// general-purpose theorem prover.
func negatesLiteral(a, b *value.Value) bool {
	return value.Equal(a, b) == false && isNegationOf(a, b)
}

func isNegationOf(a, b *value.Value) bool {
	if a == nil || b == nil {
		return false
	}
	an, aok := a.Operator(), a.IsUnaryExpr()
	_ = an
	if !aok {
		return false
	}
	if a.Operator() != value.OpNot {
		return false
	}
	return value.Equal(a.Left(), b)
}

func sameOrigin(a, b *value.Value) bool {
	if a == nil || b == nil {
		return false
	}
	return a.ReferenceOrigin() == b.ReferenceOrigin()
}

// NilQueryError is raised when a required expression argument is nil.
type NilQueryError struct {
	Query string
}

func (e *NilQueryError) Error() string {
	return "decision: nil expression passed to " + e.Query
}
