package main

import (
	"github.com/jbse-go/symbex/internal/algorithm"
	"github.com/jbse-go/symbex/internal/classhier"
	"github.com/jbse-go/symbex/internal/decision"
	"github.com/jbse-go/symbex/internal/heap"
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/typesig"
	"github.com/jbse-go/symbex/internal/value"
)

// program bundles everything a run needs to build a root state: the
// class table, constant pools, the method to start at, and a function
// that finishes wiring the root frame's locals once the state exists.
type program struct {
	root    typesig.Signature
	pools   algorithm.Pools
	classes []*classhier.ClassFile
	setup   func(st *state.State, calc *value.Calculator)
}

// exceptionClasses registers the hosted exception types this catalog's
// demos can throw, each a bare subclass of java/lang/Throwable with no
// declared fields — enough for CreateThrowableAndThrowIt to allocate an
// instance and for exception-table matching to work.
var exceptionClasses = []string{
	"java/lang/Throwable",
	"java/lang/NullPointerException",
	"java/lang/ArrayIndexOutOfBoundsException",
	"java/lang/ArithmeticException",
}

func registerExceptionClasses(h *classhier.MemHierarchy) {
	for _, name := range exceptionClasses {
		super := "java/lang/Throwable"
		if name == super {
			super = ""
		}
		h.Register(&classhier.ClassFile{Name: name, Super: super})
	}
}

// demos lists the built-in programs cmd/symbex can run. Class-file
// parsing is out of scope for this engine (see internal/classhier), so
// the launcher carries a fixed, hand-assembled bytecode fixture per
// demo rather than reading a source or class file from disk.
var demos = map[string]func() *program{
	"counter": counterDemo,
	"array":   arrayDemo,
}

func demoNames() []string {
	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	return names
}

// counterDemo: a static field set to 41 and then incremented once through
// getstatic/putstatic, exercising lazy class initialization (spec.md §8 scenario
// 2) with straight-line schema (a)/(c) code, no forking.
//
//	static int value;
//	static int main() {
//	    value = 41;
//	    value = value + 1;
//	    return value;
//	}
func counterDemo() *program {
	const class = "Counter"
	sig := typesig.Signature{ClassName: class, MemberName: "value", Descriptor: "I"}
	root := typesig.Signature{ClassName: class, MemberName: "main", Descriptor: "()I"}

	var code []byte
	emitIConst(&code, 41)                            // pc 0
	emitIdx2(&code, byte(algorithm.OpPutStatic), 0)  // pc 5
	emitIdx2(&code, byte(algorithm.OpGetStatic), 0)  // pc 8
	emitIConst(&code, 1)                             // pc 11
	code = append(code, byte(algorithm.OpIAdd))      // pc 16
	emitIdx2(&code, byte(algorithm.OpPutStatic), 0)  // pc 17
	emitIdx2(&code, byte(algorithm.OpGetStatic), 0)  // pc 20
	code = append(code, byte(algorithm.OpIReturn))   // pc 23

	cf := &classhier.ClassFile{
		Name:   class,
		Fields: []classhier.FieldDecl{{Signature: sig, Static: true, Public: true}},
		Methods: []classhier.MethodDecl{
			{Signature: root, Static: true, Public: true, Code: code},
		},
	}

	return &program{
		root:    root,
		pools:   algorithm.Pools{class: algorithm.Pool{{Kind: algorithm.PoolSignature, Sig: sig}}},
		classes: []*classhier.ClassFile{cf},
		setup:   func(st *state.State, calc *value.Calculator) {},
	}
}

// arrayDemo: a bounds-checked symbolic array read (spec.md §8 scenario
// 3), forking into in-bounds and out-of-bounds alternatives.
//
//	static int main(int[] a, int i) {
//	    return a[i];
//	}
//
// The array argument is bound to a concrete 5-element heap array; the
// index argument is a fresh symbolic term, so the fork's in-bounds
// alternative pushes the array's (never written, so concrete 0) element
// and the out-of-bounds alternative throws ArrayIndexOutOfBoundsException.
func arrayDemo() *program {
	const class = "ArrayIndexer"
	root := typesig.Signature{ClassName: class, MemberName: "main", Descriptor: "([II)I"}

	code := []byte{
		byte(algorithm.OpALoad), 0,
		byte(algorithm.OpILoad), 1,
		byte(algorithm.OpIaload),
		byte(algorithm.OpIReturn),
	}

	cf := &classhier.ClassFile{
		Name: class,
		Methods: []classhier.MethodDecl{
			{Signature: root, Static: true, Public: true, Code: code, MaxLocals: 2},
		},
	}

	return &program{
		root:    root,
		pools:   algorithm.Pools{},
		classes: []*classhier.ClassFile{cf},
		setup: func(st *state.State, calc *value.Calculator) {
			frame := st.Frames[len(st.Frames)-1]
			pos := st.Heap.Allocate(heap.NewArray("I", calc.MakeIntSimplex(5)))
			frame.Locals[0] = calc.MakeReferenceConcrete(pos)
			frame.Locals[1] = calc.MakeTerm(typesig.Int)
		},
	}
}

func newHierarchy(p *program) (*classhier.MemHierarchy, *decision.MemProcedure) {
	h := classhier.NewMemHierarchy()
	registerExceptionClasses(h)
	for _, cf := range p.classes {
		h.Register(cf)
	}
	dp := decision.NewMemProcedure(nil)
	return h, dp
}

func emitIConst(code *[]byte, n int32) {
	*code = append(*code, byte(algorithm.OpIConst),
		byte(uint32(n)>>24), byte(uint32(n)>>16), byte(uint32(n)>>8), byte(uint32(n)))
}

func emitIdx2(code *[]byte, op byte, idx int) {
	*code = append(*code, op, byte(idx>>8), byte(idx))
}
