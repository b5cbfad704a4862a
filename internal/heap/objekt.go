// Package heap models the mutable heap cells of a symbolic state: Objekt
// (instances and arrays), Klass (the static-area counterpart), and the
// Heap itself.
package heap

import (
	"fmt"

	"github.com/jbse-go/symbex/internal/typesig"
	"github.com/jbse-go/symbex/internal/value"
)

// ObjektKind discriminates the two Objekt variants.
type ObjektKind int

const (
	KindInstance ObjektKind = iota
	KindArray
)

// Objekt is a symbolic heap entity: either an Instance (a bag of typed
// fields) or an Array (a length value plus a possibly-symbolic
// index->value mapping).
type Objekt struct {
	kind      ObjektKind
	typeName  string // class name for Instance, element descriptor for Array

	// Instance
	fieldSigs []typesig.Signature
	fields    map[typesig.Signature]*value.Value

	// Array
	length  *value.Value
	entries []arrayEntry // ordered for deterministic clone/iteration
}

type arrayEntry struct {
	index *value.Value
	val   *value.Value
}

// NewInstance builds a default-initialized Instance for the given class
// with the given declared field signatures (including inherited fields,
// already resolved by the caller — the class hierarchy owns that logic).
func NewInstance(className string, fieldSigs []typesig.Signature, calc *value.Calculator) *Objekt {
	o := &Objekt{
		kind:      KindInstance,
		typeName:  className,
		fieldSigs: append([]typesig.Signature(nil), fieldSigs...),
		fields:    make(map[typesig.Signature]*value.Value, len(fieldSigs)),
	}
	for _, sig := range fieldSigs {
		o.fields[sig] = defaultValueFor(sig.FieldType(), calc)
	}
	return o
}

// NewArray builds an array of the given element descriptor and length.
// No entries are initially present; reads of an unset index return the
// type's default value (see GetElement).
func NewArray(elementDescriptor string, length *value.Value) *Objekt {
	return &Objekt{kind: KindArray, typeName: elementDescriptor, length: length}
}

func defaultValueFor(t typesig.Tag, calc *value.Calculator) *value.Value {
	switch t {
	case typesig.Long:
		return calc.MakeSimplex(t, int64(0))
	case typesig.Float:
		return calc.MakeSimplex(t, float32(0))
	case typesig.Double:
		return calc.MakeSimplex(t, float64(0))
	case typesig.Boolean:
		return calc.MakeSimplex(t, false)
	case typesig.Class, typesig.Array:
		return calc.MakeNull()
	default:
		return calc.MakeSimplex(t, int32(0))
	}
}

// Kind, TypeName expose the Objekt's variant and nominal type.
func (o *Objekt) Kind() ObjektKind  { return o.kind }
func (o *Objekt) TypeName() string  { return o.typeName }
func (o *Objekt) IsArray() bool     { return o.kind == KindArray }
func (o *Objekt) IsInstance() bool  { return o.kind == KindInstance }

// FieldSignatures lists the fields an Instance carries, in declaration
// order (supertype fields first, matching the class hierarchy's layout
// convention).
func (o *Objekt) FieldSignatures() []typesig.Signature {
	return append([]typesig.Signature(nil), o.fieldSigs...)
}

// GetFieldValue reads a field by signature. The caller (typically the
// class hierarchy's field resolver) is responsible for matching the
// signature actually stored against the resolved declaring class.
func (o *Objekt) GetFieldValue(sig typesig.Signature) (*value.Value, error) {
	if o.kind != KindInstance {
		return nil, fmt.Errorf("heap: GetFieldValue on a non-Instance Objekt (%s)", o.typeName)
	}
	v, ok := o.fields[sig]
	if !ok {
		return nil, fmt.Errorf("heap: no such field %s on %s", sig, o.typeName)
	}
	return v, nil
}

// PutFieldValue writes a field by signature, enforcing the invariant that
// the stored value's type tag is compatible with the signature's
// descriptor.
func (o *Objekt) PutFieldValue(sig typesig.Signature, v *value.Value) error {
	if o.kind != KindInstance {
		return fmt.Errorf("heap: PutFieldValue on a non-Instance Objekt (%s)", o.typeName)
	}
	if _, ok := o.fields[sig]; !ok {
		return fmt.Errorf("heap: no such field %s on %s", sig, o.typeName)
	}
	if !typeCompatible(sig.FieldType(), v.Type()) {
		return fmt.Errorf("heap: field %s expects type %s, got %s", sig, sig.FieldType(), v.Type())
	}
	o.fields[sig] = v
	return nil
}

func typeCompatible(declared, actual typesig.Tag) bool {
	if typesig.IsReference(declared) {
		return typesig.IsReference(actual)
	}
	return typesig.PromotedType(declared) == typesig.PromotedType(actual) || declared == actual
}

// Length returns an Array's length value (possibly symbolic).
func (o *Objekt) Length() *value.Value {
	return o.length
}

// GetElement reads an Array slot by (possibly symbolic) index. If the
// exact index was never written, it returns nil, false so the caller (the
// array-access algorithm) can supply a fresh default/term as appropriate
// under the current path condition.
func (o *Objekt) GetElement(idx *value.Value) (*value.Value, bool) {
	for _, e := range o.entries {
		if value.Equal(e.index, idx) {
			return e.val, true
		}
	}
	return nil, false
}

// PutElement writes (or overwrites) an Array slot, keyed by structural
// equality of the index value so that repeated writes to the same
// concrete or symbolic index update in place rather than appending.
func (o *Objekt) PutElement(idx, v *value.Value) {
	for i, e := range o.entries {
		if value.Equal(e.index, idx) {
			o.entries[i].val = v
			return
		}
	}
	o.entries = append(o.entries, arrayEntry{index: idx, val: v})
}

// Entries returns all explicitly-written (index, value) pairs of an Array,
// in write order, for cloning and for formatter/debug output.
func (o *Objekt) Entries() []struct {
	Index *value.Value
	Value *value.Value
} {
	out := make([]struct {
		Index *value.Value
		Value *value.Value
	}, len(o.entries))
	for i, e := range o.entries {
		out[i] = struct {
			Index *value.Value
			Value *value.Value
		}{e.index, e.val}
	}
	return out
}

// Clone returns a deep copy suitable for a forked sibling state. Value
// nodes themselves are immutable and are shared by reference across
// clones; only the Objekt's own mutable map/slice cells are copied.
func (o *Objekt) Clone() *Objekt {
	clone := &Objekt{kind: o.kind, typeName: o.typeName, length: o.length}
	if o.fieldSigs != nil {
		clone.fieldSigs = append([]typesig.Signature(nil), o.fieldSigs...)
	}
	if o.fields != nil {
		clone.fields = make(map[typesig.Signature]*value.Value, len(o.fields))
		for k, v := range o.fields {
			clone.fields[k] = v
		}
	}
	if o.entries != nil {
		clone.entries = append([]arrayEntry(nil), o.entries...)
	}
	return clone
}
