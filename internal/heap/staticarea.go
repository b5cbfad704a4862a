package heap

import (
	"github.com/jbse-go/symbex/internal/typesig"
	"github.com/jbse-go/symbex/internal/value"
)

// InitStatus tracks a Klass's progress through lazy initialization.
type InitStatus int

const (
	NotInitialized InitStatus = iota
	Initializing
	Initialized
)

// Klass is the static-area counterpart of an Objekt: it holds a class's
// static fields and its initialization status.
type Klass struct {
	ClassName string
	Status    InitStatus
	fieldSigs []typesig.Signature
	fields    map[typesig.Signature]*value.Value
}

// NewKlass allocates a default-initialized Klass; it starts
// NotInitialized, matching the "allocate a Klass with default-initialized
// static fields" step of ensureKlass.
func NewKlass(className string, fieldSigs []typesig.Signature, calc *value.Calculator) *Klass {
	k := &Klass{
		ClassName: className,
		Status:    NotInitialized,
		fieldSigs: append([]typesig.Signature(nil), fieldSigs...),
		fields:    make(map[typesig.Signature]*value.Value, len(fieldSigs)),
	}
	for _, sig := range fieldSigs {
		k.fields[sig] = defaultValueFor(sig.FieldType(), calc)
	}
	return k
}

func (k *Klass) GetFieldValue(sig typesig.Signature) (*value.Value, bool) {
	v, ok := k.fields[sig]
	return v, ok
}

func (k *Klass) PutFieldValue(sig typesig.Signature, v *value.Value) bool {
	if _, ok := k.fields[sig]; !ok {
		return false
	}
	k.fields[sig] = v
	return true
}

func (k *Klass) FieldSignatures() []typesig.Signature {
	return append([]typesig.Signature(nil), k.fieldSigs...)
}

func (k *Klass) Clone() *Klass {
	clone := &Klass{ClassName: k.ClassName, Status: k.Status, fieldSigs: append([]typesig.Signature(nil), k.fieldSigs...)}
	clone.fields = make(map[typesig.Signature]*value.Value, len(k.fields))
	for sig, v := range k.fields {
		clone.fields[sig] = v
	}
	return clone
}

// StaticArea is the mapping class_name -> Klass.
type StaticArea struct {
	classes map[string]*Klass
}

func NewStaticArea() *StaticArea {
	return &StaticArea{classes: make(map[string]*Klass)}
}

func (s *StaticArea) Get(className string) (*Klass, bool) {
	k, ok := s.classes[className]
	return k, ok
}

func (s *StaticArea) Put(k *Klass) {
	s.classes[k.ClassName] = k
}

func (s *StaticArea) Clone() *StaticArea {
	clone := &StaticArea{classes: make(map[string]*Klass, len(s.classes))}
	for name, k := range s.classes {
		clone.classes[name] = k.Clone()
	}
	return clone
}
