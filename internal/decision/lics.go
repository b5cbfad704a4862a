package decision

import (
	"path"
	"strings"
)

// Rule is one LICS (class-name restriction) rule: it constrains which
// concrete resolutions a symbolic reference originating from a matching
// origin pattern may take during fork-on-decision ("LICS
// rules prune reference-resolution alternatives by origin pattern").
//
// OriginPattern matches a reference's Value.ReferenceOrigin() using the
// same glob syntax as path.Match ("*" and "?" wildcards, "/"-separated
// segments), e.g. "root/args/*" or "*/next".
//
// AllowedClasses, when non-empty, is the exhaustive set of concrete
// class names the EXPANDS alternative may use for a reference whose
// origin matches. An empty AllowedClasses imposes no restriction (any
// class the class hierarchy offers is permitted).
//
// AllowAliases and AllowNull gate whether the ALIASES and NULL
// alternatives are even considered for a matching origin.
type Rule struct {
	OriginPattern  string
	AllowedClasses []string
	AllowAliases   bool
	AllowNull      bool
}

// Matches reports whether origin matches the rule's OriginPattern.
func (r Rule) Matches(origin string) bool {
	ok, err := path.Match(r.OriginPattern, origin)
	return err == nil && ok
}

// RuleSet is an ordered collection of LICS rules; the first rule whose
// OriginPattern matches a reference's origin governs it. A reference
// matched by no rule is unrestricted.
type RuleSet []Rule

// ForOrigin returns the first matching rule and true, or the zero Rule
// and false if none match.
func (rs RuleSet) ForOrigin(origin string) (Rule, bool) {
	for _, r := range rs {
		if r.Matches(origin) {
			return r, true
		}
	}
	return Rule{}, false
}

// FilterClasses narrows candidates to those permitted for origin by
// whichever rule governs it (or returns candidates unchanged when no
// rule applies or the rule imposes no class restriction).
func (rs RuleSet) FilterClasses(origin string, candidates []string) []string {
	rule, ok := rs.ForOrigin(origin)
	if !ok || len(rule.AllowedClasses) == 0 {
		return candidates
	}
	allowed := make(map[string]bool, len(rule.AllowedClasses))
	for _, c := range rule.AllowedClasses {
		allowed[c] = true
	}
	out := candidates[:0:0]
	for _, c := range candidates {
		if allowed[c] {
			out = append(out, c)
		}
	}
	return out
}

// AliasesAllowed reports whether origin's governing rule permits the
// ALIASES alternative (true when no rule governs it).
func (rs RuleSet) AliasesAllowed(origin string) bool {
	rule, ok := rs.ForOrigin(origin)
	return !ok || rule.AllowAliases
}

// NullAllowed reports whether origin's governing rule permits the NULL
// alternative (true when no rule governs it).
func (rs RuleSet) NullAllowed(origin string) bool {
	rule, ok := rs.ForOrigin(origin)
	return !ok || rule.AllowNull
}

// OriginSegment extracts the last "/"-separated segment of an origin
// string, useful when a rule wants to match on a field/variable name
// regardless of its enclosing path.
func OriginSegment(origin string) string {
	if i := strings.LastIndexByte(origin, '/'); i >= 0 {
		return origin[i+1:]
	}
	return origin
}
