package state

import (
	"fmt"

	"github.com/jbse-go/symbex/internal/value"
)

// ClauseKind discriminates the six Clause variants the path condition carries.
type ClauseKind int

const (
	ClauseAssume ClauseKind = iota
	ClauseAssumeNull
	ClauseAssumeAliases
	ClauseAssumeExpands
	ClauseAssumeClassInitialized
	ClauseAssumeClassNotInitialized
)

// Clause is one assumption appended to a State's path condition.
type Clause struct {
	Kind ClauseKind

	Expr *value.Value // ClauseAssume

	Ref *value.Value // ClauseAssumeNull / ClauseAssumeAliases / ClauseAssumeExpands

	AliasHeapPos value.HeapPos // ClauseAssumeAliases
	ExpandsClass string        // ClauseAssumeExpands

	ClassName string // ClauseAssumeClassInitialized / ClauseAssumeClassNotInitialized
}

func AssumeClause(expr *value.Value) Clause {
	return Clause{Kind: ClauseAssume, Expr: expr}
}

func AssumeNullClause(ref *value.Value) Clause {
	return Clause{Kind: ClauseAssumeNull, Ref: ref}
}

func AssumeAliasesClause(ref *value.Value, pos value.HeapPos) Clause {
	return Clause{Kind: ClauseAssumeAliases, Ref: ref, AliasHeapPos: pos}
}

func AssumeExpandsClause(ref *value.Value, className string) Clause {
	return Clause{Kind: ClauseAssumeExpands, Ref: ref, ExpandsClass: className}
}

func AssumeClassInitializedClause(className string) Clause {
	return Clause{Kind: ClauseAssumeClassInitialized, ClassName: className}
}

func AssumeClassNotInitializedClause(className string) Clause {
	return Clause{Kind: ClauseAssumeClassNotInitialized, ClassName: className}
}

func (c Clause) String() string {
	switch c.Kind {
	case ClauseAssume:
		return fmt.Sprintf("assume(%s)", c.Expr)
	case ClauseAssumeNull:
		return fmt.Sprintf("assumeNull(%s)", c.Ref)
	case ClauseAssumeAliases:
		return fmt.Sprintf("assumeAliases(%s, %d)", c.Ref, c.AliasHeapPos)
	case ClauseAssumeExpands:
		return fmt.Sprintf("assumeExpands(%s, %s)", c.Ref, c.ExpandsClass)
	case ClauseAssumeClassInitialized:
		return fmt.Sprintf("assumeClassInitialized(%s)", c.ClassName)
	case ClauseAssumeClassNotInitialized:
		return fmt.Sprintf("assumeClassNotInitialized(%s)", c.ClassName)
	}
	return "<invalid clause>"
}

// PathCondition is the append-only ordered sequence of Clauses
// accumulated along one execution path.
type PathCondition struct {
	clauses []Clause
}

func NewPathCondition() *PathCondition {
	return &PathCondition{}
}

// Push appends a clause. Path conditions are append-only within a state;
// only forking ever produces a shorter-prefix sibling, via Clone.
func (p *PathCondition) Push(c Clause) {
	p.clauses = append(p.clauses, c)
}

// Clauses returns the accumulated sequence, in assertion order.
func (p *PathCondition) Clauses() []Clause {
	return append([]Clause(nil), p.clauses...)
}

// Len reports how many clauses have been asserted.
func (p *PathCondition) Len() int { return len(p.clauses) }

// Clone duplicates the clause list eagerly: clones duplicate
// the list eagerly").
func (p *PathCondition) Clone() *PathCondition {
	return &PathCondition{clauses: append([]Clause(nil), p.clauses...)}
}
