// Package formatter renders a human-readable textual dump of a State for
// logs and post-mortem inspection. The directed-graph form spec.md §6
// also names (heap objects as nodes, fields as labeled edges, null a
// shared sink) is out of scope here — see DESIGN.md.
//
// Grounded on the teacher's internal/errors.SentraError.Error(): a
// strings.Builder assembling a multi-section report (header, location,
// source line, call stack) line by line, applied here to a State's
// frames, operand stacks and heap instead of a parse error.
package formatter

import (
	"fmt"
	"strings"

	"github.com/jbse-go/symbex/internal/heap"
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/value"
)

// State renders st as a multi-section textual report: identifier/depth
// header, stuck status, thread stack (innermost frame first) with
// operand stacks and locals, then a heap summary.
func State(st *state.State) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "state %s  depth=%d  seq=%d\n", identifierOrRoot(st.Identifier), st.Depth, st.SeqNumber)
	writeStuck(&sb, st.StuckFlag)

	sb.WriteString("thread stack:\n")
	for i := len(st.Frames) - 1; i >= 0; i-- {
		writeFrame(&sb, i, st.Frames[i])
	}

	sb.WriteString("heap:\n")
	for _, pos := range st.Heap.Positions() {
		obj, ok := st.Heap.Get(pos)
		if !ok {
			continue
		}
		writeObjekt(&sb, pos, obj)
	}

	sb.WriteString("path condition:\n")
	for _, c := range st.PC.Clauses() {
		fmt.Fprintf(&sb, "  %s\n", c.String())
	}

	return sb.String()
}

func identifierOrRoot(id string) string {
	if id == "" {
		return "ROOT"
	}
	return id
}

func writeStuck(sb *strings.Builder, s state.Stuck) {
	switch s.Kind {
	case state.NotStuck:
		return
	case state.StuckReturn:
		if s.ReturnValue != nil {
			fmt.Fprintf(sb, "stuck: return %s\n", s.ReturnValue.String())
		} else {
			sb.WriteString("stuck: return (void)\n")
		}
	case state.StuckException:
		fmt.Fprintf(sb, "stuck: exception %s\n", s.ExceptionRef.String())
	case state.StuckUnsupported:
		fmt.Fprintf(sb, "stuck: unsupported (%s)\n", s.UnsupportedDetail)
	}
}

func writeFrame(sb *strings.Builder, idx int, f *state.Frame) {
	fmt.Fprintf(sb, "  #%d %s  pc=%d\n", idx, f.Signature.String(), f.PC)
	sb.WriteString("      locals:")
	for i, v := range f.Locals {
		if v == nil {
			continue
		}
		fmt.Fprintf(sb, " [%d]=%s", i, v.String())
	}
	sb.WriteString("\n      operands:")
	for i := 0; i < f.OperandStackDepth(); i++ {
		v, err := f.PeekAt(i)
		if err != nil {
			break
		}
		fmt.Fprintf(sb, " %s", v.String())
	}
	sb.WriteString("\n")
}

func writeObjekt(sb *strings.Builder, pos value.HeapPos, obj *heap.Objekt) {
	if obj.IsArray() {
		fmt.Fprintf(sb, "  %d: %s[%s]\n", pos, obj.TypeName(), obj.Length().String())
		for _, e := range obj.Entries() {
			fmt.Fprintf(sb, "      [%s] = %s\n", e.Index.String(), e.Value.String())
		}
		return
	}
	fmt.Fprintf(sb, "  %d: instance of %s\n", pos, obj.TypeName())
	for _, sig := range obj.FieldSignatures() {
		v, err := obj.GetFieldValue(sig)
		if err != nil {
			continue
		}
		fmt.Fprintf(sb, "      %s = %s\n", sig.MemberName, v.String())
	}
}
