// Package classhier implements the class hierarchy oracle consumed by the
// engine. Class-file *parsing* is out of scope: this package never reads
// a binary class file. Instead it exposes a
// Hierarchy interface matching the oracle's consumed surface, plus an
// in-memory reference implementation (MemHierarchy) that callers populate
// by registering pre-built ClassFile descriptors — the shape a real
// parser would hand it.
//
// Grounded on the teacher's internal/module.ModuleLoader: a
// cache-then-lookup-by-name surface (internal/module/module.go), adapted
// here from loading Sentra source modules to resolving pre-registered
// class descriptors.
package classhier

import (
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/typesig"
	"github.com/jbse-go/symbex/internal/value"
)

// FieldDecl is one field declared directly on a class (not inherited).
type FieldDecl struct {
	Signature typesig.Signature
	Static    bool
	Final     bool
	Public    bool
	Protected bool
	Private   bool

	// ConstantValue holds the ConstantValue attribute's payload for a
	// static final primitive/String field. When non-nil, getstatic may
	// read it directly from the constant pool without forcing class
	// initialization.
	ConstantValue *value.Value
}

// MethodDecl is one method declared directly on a class.
type MethodDecl struct {
	Signature typesig.Signature
	Static    bool
	Public    bool
	Protected bool
	Private   bool
	Abstract  bool
	Native    bool
	Code      []byte
	MaxLocals int
	Handlers  []state.ExceptionHandler
}

// ClassFile is the parsed-class-file oracle surface a real class-file
// reader would hand this package:
// constant pool is represented only as far as the ConstantValue
// attributes on fields need, since full constant-pool modeling belongs to
// the out-of-scope parser.
type ClassFile struct {
	Name       string
	Super      string // "" for java/lang/Object
	Interfaces []string
	Fields     []FieldDecl
	Methods    []MethodDecl
	Interface  bool // true if this class file describes an interface
	Abstract   bool
}

func (c *ClassFile) findMethod(sig typesig.Signature) (*MethodDecl, bool) {
	for i := range c.Methods {
		if c.Methods[i].Signature.MemberName == sig.MemberName && c.Methods[i].Signature.Descriptor == sig.Descriptor {
			return &c.Methods[i], true
		}
	}
	return nil, false
}

func (c *ClassFile) findField(memberName string) (*FieldDecl, bool) {
	for i := range c.Fields {
		if c.Fields[i].Signature.MemberName == memberName {
			return &c.Fields[i], true
		}
	}
	return nil, false
}

// HasClinit reports whether this class declares a <clinit> method.
func (c *ClassFile) HasClinit() bool {
	_, ok := c.findMethod(typesig.Signature{MemberName: "<clinit>", Descriptor: "()V"})
	return ok
}

// Clinit returns this class's own <clinit> method declaration, if any.
func (c *ClassFile) Clinit() (*MethodDecl, bool) {
	return c.findMethod(typesig.Signature{MemberName: "<clinit>", Descriptor: "()V"})
}

// FindMethod looks up a method declared directly on this class by member
// name and descriptor — the declared-methods half of method resolution,
// exposed for the algorithm catalog's invoke schema.
func (c *ClassFile) FindMethod(memberName, descriptor string) (*MethodDecl, bool) {
	return c.findMethod(typesig.Signature{MemberName: memberName, Descriptor: descriptor})
}

// Hierarchy is the class hierarchy oracle consumed by the rest of the
// engine.
type Hierarchy interface {
	GetClassFile(name string) (*ClassFile, error)
	ResolveField(currentClass string, sig typesig.Signature) (typesig.Signature, error)
	ResolveFieldDecl(currentClass string, sig typesig.Signature) (*FieldDecl, error)
	ResolveMethod(currentClass string, sig typesig.Signature, isInterface bool) (typesig.Signature, error)
	IsSubclass(a, b string) (bool, error)
	IsAssignable(arrayTypeA, arrayTypeB string) (bool, error)

	// ClassNames lists every class currently registered, for the
	// algorithm catalog's EXPANDS enumeration (spec.md §4.4(d)(2)).
	ClassNames() []string

	// FieldSignatures and IsSubclassOrSelf additionally satisfy
	// state.ClassHierarchy, the minimal slice State itself needs.
	FieldSignatures(className string) ([]typesig.Signature, error)
	IsSubclassOrSelf(sub, super string) (bool, error)
}

var _ state.ClassHierarchy = Hierarchy(nil)
