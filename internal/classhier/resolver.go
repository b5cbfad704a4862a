package classhier

import (
	"sync"

	"github.com/jbse-go/symbex/internal/typesig"
)

// MemHierarchy is an in-memory reference implementation of Hierarchy: a
// registrable table of ClassFile descriptors with field/method resolution
// and subclass/assignability checks. It stands in for a real class-file
// loader, which is explicitly out of scope here.
//
// Grounded on internal/module.ModuleLoader's cache field (a
// map[string]*vm.Module guarded by a RWMutex), generalized from loading
// Sentra source modules from disk to resolving classes that tests and
// cmd/symbex register directly.
type MemHierarchy struct {
	mu      sync.RWMutex
	classes map[string]*ClassFile
}

// NewMemHierarchy returns an empty hierarchy; populate it with Register
// before running the engine against it.
func NewMemHierarchy() *MemHierarchy {
	return &MemHierarchy{classes: make(map[string]*ClassFile)}
}

// Register adds or replaces a class's descriptor.
func (h *MemHierarchy) Register(cf *ClassFile) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.classes[cf.Name] = cf
}

func (h *MemHierarchy) GetClassFile(name string) (*ClassFile, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cf, ok := h.classes[name]
	if !ok {
		return nil, &ClassFileNotFoundError{ClassName: name}
	}
	return cf, nil
}

// ClassNames lists every class currently registered, in no particular
// order; callers that need a stable order (the EXPANDS alternative
// enumeration) sort it themselves.
func (h *MemHierarchy) ClassNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.classes))
	for name := range h.classes {
		names = append(names, name)
	}
	return names
}

// ResolveField implements the hosted VM's field resolution rules: search
// the declaring class, then its direct superinterfaces recursively, then
// the superclass chain; the resolved signature carries the actually
// declaring class.
func (h *MemHierarchy) ResolveField(currentClass string, sig typesig.Signature) (typesig.Signature, error) {
	decl, err := h.findFieldDecl(currentClass, sig.MemberName, make(map[string]bool))
	if err != nil {
		return typesig.Signature{}, err
	}
	return decl.resolved, nil
}

// ResolveFieldDecl resolves sig the same way ResolveField does but
// returns the full FieldDecl (Static/Final/access flags, ConstantValue)
// instead of just the resolved Signature — schema (c)'s getstatic needs
// FieldDecl.ConstantValue to implement the compile-time-constant carve-out
// of spec.md §4.4(c).
func (h *MemHierarchy) ResolveFieldDecl(currentClass string, sig typesig.Signature) (*FieldDecl, error) {
	decl, err := h.findFieldDecl(currentClass, sig.MemberName, make(map[string]bool))
	if err != nil {
		return nil, err
	}
	return decl.decl, nil
}

type resolvedField struct {
	decl     *FieldDecl
	resolved typesig.Signature
}

func (h *MemHierarchy) findFieldDecl(className, member string, seen map[string]bool) (*resolvedField, error) {
	if seen[className] {
		return nil, &FieldNotFoundError{ClassName: className, Member: member}
	}
	seen[className] = true

	cf, err := h.GetClassFile(className)
	if err != nil {
		return nil, err
	}
	if fd, ok := cf.findField(member); ok {
		return &resolvedField{decl: fd, resolved: fd.Signature}, nil
	}
	for _, iface := range cf.Interfaces {
		if r, err := h.findFieldDecl(iface, member, seen); err == nil {
			return r, nil
		}
	}
	if cf.Super != "" {
		if r, err := h.findFieldDecl(cf.Super, member, seen); err == nil {
			return r, nil
		}
	}
	return nil, &FieldNotFoundError{ClassName: className, Member: member}
}

// ResolveMethod searches the declaring class, then its superclass chain,
// then its superinterfaces, depth-first, returning the first match;
// isInterface is not consulted.
func (h *MemHierarchy) ResolveMethod(currentClass string, sig typesig.Signature, isInterface bool) (typesig.Signature, error) {
	m, err := h.findMethodDecl(currentClass, sig.MemberName, sig.Descriptor, make(map[string]bool))
	if err != nil {
		return typesig.Signature{}, err
	}
	return m.Signature, nil
}

func (h *MemHierarchy) findMethodDecl(className, member, descriptor string, seen map[string]bool) (*MethodDecl, error) {
	if seen[className] {
		return nil, &MethodNotFoundError{ClassName: className, Member: member, Descriptor: descriptor}
	}
	seen[className] = true

	cf, err := h.GetClassFile(className)
	if err != nil {
		return nil, err
	}
	if m, ok := cf.findMethod(typesig.Signature{MemberName: member, Descriptor: descriptor}); ok {
		return m, nil
	}
	if cf.Super != "" {
		if m, err := h.findMethodDecl(cf.Super, member, descriptor, seen); err == nil {
			return m, nil
		}
	}
	for _, iface := range cf.Interfaces {
		if m, err := h.findMethodDecl(iface, member, descriptor, seen); err == nil {
			return m, nil
		}
	}
	return nil, &MethodNotFoundError{ClassName: className, Member: member, Descriptor: descriptor}
}

// IsSubclass reports whether a is a (possibly indirect, proper) subclass
// of b by walking a's superclass chain; it does not consider interfaces
// except when b itself is reached via a superinterface edge.
func (h *MemHierarchy) IsSubclass(a, b string) (bool, error) {
	if a == b {
		return false, nil
	}
	return h.IsSubclassOrSelf(a, b)
}

// IsSubclassOrSelf reports whether sub is super or a (possibly indirect)
// subclass/implementor of super.
func (h *MemHierarchy) IsSubclassOrSelf(sub, super string) (bool, error) {
	return h.reaches(sub, super, make(map[string]bool))
}

func (h *MemHierarchy) reaches(from, target string, seen map[string]bool) (bool, error) {
	if from == target {
		return true, nil
	}
	if seen[from] {
		return false, nil
	}
	seen[from] = true
	cf, err := h.GetClassFile(from)
	if err != nil {
		return false, nil // unknown ancestor: treat as "does not reach" rather than failing resolution
	}
	for _, iface := range cf.Interfaces {
		if ok, _ := h.reaches(iface, target, seen); ok {
			return true, nil
		}
	}
	if cf.Super != "" {
		return h.reaches(cf.Super, target, seen)
	}
	return false, nil
}

// IsAssignable reports whether an array of element type arrayTypeA may be
// assigned where an array of element type arrayTypeB is expected: exact
// match for primitive element types, subclass-or-self for reference
// element types.
func (h *MemHierarchy) IsAssignable(arrayTypeA, arrayTypeB string) (bool, error) {
	if arrayTypeA == arrayTypeB {
		return true, nil
	}
	nameA := typesig.ReferenceTypeName(arrayTypeA)
	nameB := typesig.ReferenceTypeName(arrayTypeB)
	if nameA == "" || nameB == "" {
		return false, nil
	}
	return h.IsSubclassOrSelf(nameA, nameB)
}

// FieldSignatures lists every field an instance of className carries,
// supertype fields first, by walking the superclass chain root-down. It
// satisfies state.ClassHierarchy.
func (h *MemHierarchy) FieldSignatures(className string) ([]typesig.Signature, error) {
	var chain []*ClassFile
	for c := className; c != ""; {
		cf, err := h.GetClassFile(c)
		if err != nil {
			return nil, err
		}
		chain = append(chain, cf)
		c = cf.Super
	}
	var sigs []typesig.Signature
	for i := len(chain) - 1; i >= 0; i-- {
		for _, fd := range chain[i].Fields {
			if !fd.Static {
				sigs = append(sigs, fd.Signature)
			}
		}
	}
	return sigs, nil
}
