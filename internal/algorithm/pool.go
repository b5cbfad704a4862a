package algorithm

import (
	"fmt"

	"github.com/jbse-go/symbex/internal/typesig"
	"github.com/jbse-go/symbex/internal/value"
)

// PoolEntryKind discriminates the small slice of constant-pool content
// this catalog needs to decode getstatic/putstatic/getfield/putfield/new/
// invokestatic/ldc operands. Full constant-pool modeling (the rest of a
// real class file's UTF8/NameAndType/MethodHandle entries) belongs to the
// out-of-scope class-file parser; this is the minimal oracle surface
// spec.md §4.3/§4.4(c) actually dereferences.
type PoolEntryKind int

const (
	PoolSignature PoolEntryKind = iota
	PoolClassName
	PoolIntLiteral
	PoolStringLiteral
)

// PoolEntry is one constant-pool slot, addressed by a class's pool index.
type PoolEntry struct {
	Kind    PoolEntryKind
	Sig     typesig.Signature // PoolSignature
	Class   string            // PoolClassName
	Int     int32             // PoolIntLiteral
	Literal string            // PoolStringLiteral
}

// Pool is one class's constant pool, indexed positionally.
type Pool []PoolEntry

// Pools maps a class name to its constant pool. Context holds one Pools
// table shared process-wide across every state the engine steps, the
// same borrowing relationship spec.md §3 "Lifecycle and ownership"
// describes for the ClassHierarchy and Calculator.
type Pools map[string]Pool

func (ps Pools) entry(className string, idx int) (PoolEntry, error) {
	pool, ok := ps[className]
	if !ok || idx < 0 || idx >= len(pool) {
		return PoolEntry{}, fmt.Errorf("algorithm: invalid constant pool index %d in %s", idx, className)
	}
	return pool[idx], nil
}

// decodeIndex2 reads the big-endian 2-byte operand that follows the
// opcode at pc in code.
func decodeIndex2(code []byte, pc int) int {
	return int(code[pc+1])<<8 | int(code[pc+2])
}

func decodeInt32(code []byte, pc int) int32 {
	return int32(uint32(code[pc+1])<<24 | uint32(code[pc+2])<<16 | uint32(code[pc+3])<<8 | uint32(code[pc+4]))
}

func decodeOffset2(code []byte, pc int) int {
	return int(int16(uint16(code[pc+1])<<8 | uint16(code[pc+2])))
}

func makeSimplexLiteral(calc *value.Calculator, e PoolEntry) (*value.Value, error) {
	switch e.Kind {
	case PoolIntLiteral:
		return calc.MakeIntSimplex(e.Int), nil
	case PoolStringLiteral:
		return calc.MakeConstantPoolString(e.Literal), nil
	default:
		return nil, fmt.Errorf("algorithm: ldc on non-literal pool entry kind %d", e.Kind)
	}
}
