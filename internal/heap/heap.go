package heap

import "github.com/jbse-go/symbex/internal/value"

// Heap is the ordered mapping heap_pos -> Objekt. heap_pos is a
// monotonically increasing 64-bit id, never reused within the lifetime of
// a single State. Forked clones preserve ids so that
// references taken before the fork remain valid in every sibling.
type Heap struct {
	objects map[value.HeapPos]*Objekt
	order   []value.HeapPos // insertion order, for deterministic iteration/formatting
	next    value.HeapPos
}

// NewHeap returns an empty heap whose first allocation receives heap_pos 0.
func NewHeap() *Heap {
	return &Heap{objects: make(map[value.HeapPos]*Objekt)}
}

// Allocate inserts obj at a freshly minted heap_pos and returns it.
func (h *Heap) Allocate(obj *Objekt) value.HeapPos {
	pos := h.next
	h.next++
	h.objects[pos] = obj
	h.order = append(h.order, pos)
	return pos
}

// Get looks up the Objekt at pos.
func (h *Heap) Get(pos value.HeapPos) (*Objekt, bool) {
	o, ok := h.objects[pos]
	return o, ok
}

// Set overwrites the Objekt at an existing heap_pos (used after in-place
// field/array mutation produces a new Objekt value, e.g. via
// copy-on-write policies upstream).
func (h *Heap) Set(pos value.HeapPos, obj *Objekt) {
	if _, ok := h.objects[pos]; !ok {
		h.order = append(h.order, pos)
	}
	h.objects[pos] = obj
}

// Len reports how many objects are currently live in the heap.
func (h *Heap) Len() int { return len(h.objects) }

// Positions returns every live heap_pos in allocation order.
func (h *Heap) Positions() []value.HeapPos {
	return append([]value.HeapPos(nil), h.order...)
}

// CountOfClass reports how many live Instance objects carry the given
// class name — used by the runner's heapScope to bound EXPANDS forks.
func (h *Heap) CountOfClass(className string) int {
	n := 0
	for _, pos := range h.order {
		if o := h.objects[pos]; o != nil && o.IsInstance() && o.TypeName() == className {
			n++
		}
	}
	return n
}

// Clone deep-copies the heap for a forked sibling state: each Objekt is
// cloned, but the
// Value nodes reachable from them are shared by reference since they are
// immutable.
func (h *Heap) Clone() *Heap {
	clone := &Heap{
		objects: make(map[value.HeapPos]*Objekt, len(h.objects)),
		order:   append([]value.HeapPos(nil), h.order...),
		next:    h.next,
	}
	for pos, obj := range h.objects {
		clone.objects[pos] = obj.Clone()
	}
	return clone
}
