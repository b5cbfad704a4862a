package state

import "github.com/jbse-go/symbex/internal/value"

// StuckKind discriminates the terminal status of a state.
type StuckKind int

const (
	NotStuck StuckKind = iota
	StuckReturn
	StuckException
	StuckUnsupported
)

// Stuck is the halt flag. A state with Kind == NotStuck is still
// executing; once Kind != NotStuck, no algorithm may mutate the state
// further on this path.
type Stuck struct {
	Kind StuckKind

	ReturnValue *value.Value // StuckReturn, nil for a void return

	ExceptionRef *value.Value // StuckException: reference to the thrown Objekt

	UnsupportedDetail string // StuckUnsupported
}

func (s Stuck) IsStuck() bool { return s.Kind != NotStuck }
