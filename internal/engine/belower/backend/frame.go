package backend

import (
	"fmt"
	"sort"

	"github.com/faddat/belower/internal/engine/belower/beapi"
	"github.com/faddat/belower/internal/engine/belower/ir"
)

// FrameEntity is a handle to a stack-resident storage location.
type FrameEntity struct {
	id    int
	size  int64
	owner string
}

// NewFrameEntity returns a FrameEntity. Used by FrameLayout implementations.
func NewFrameEntity(id int, size int64, owner string) *FrameEntity {
	return &FrameEntity{id: id, size: size, owner: owner}
}

// ID returns the identifier of the entity within its frame.
func (e *FrameEntity) ID() int { return e.id }

// Size returns the size of the slot in bytes.
func (e *FrameEntity) Size() int64 { return e.size }

// Owner returns the name of the node the slot was requested for.
func (e *FrameEntity) Owner() string { return e.owner }

// String implements fmt.Stringer.
func (e *FrameEntity) String() string { return fmt.Sprintf("frame_ent%d", e.id) }

// FrameLayout assigns stack slots for one function.
type FrameLayout interface {
	// Slot returns the entity backing the stack operand identified by key,
	// allocating a slot of size bytes on the first request for key.
	Slot(key *ir.Node, size int64) *FrameEntity

	// Offset returns the byte offset of e from the stack pointer. Offsets are
	// only known once every slot is requested, so the first call fixes the layout.
	Offset(e *FrameEntity) beapi.Offset
}

// Frame is the FrameLayout used by the engine. Slots are laid out from the
// stack pointer upwards, largest first so that every slot is naturally aligned.
type Frame struct {
	slots   map[*ir.Node]*FrameEntity
	order   []*FrameEntity
	offsets map[*FrameEntity]beapi.Offset
	size    int64
	frozen  bool
}

var _ FrameLayout = (*Frame)(nil)

// NewFrame returns an empty Frame.
func NewFrame() *Frame {
	return &Frame{slots: make(map[*ir.Node]*FrameEntity), offsets: make(map[*FrameEntity]beapi.Offset)}
}

// Slot implements FrameLayout.
func (f *Frame) Slot(key *ir.Node, size int64) *FrameEntity {
	if e, ok := f.slots[key]; ok {
		return e
	}
	if f.frozen {
		Fatalf(key, "frame_entity", "slot requested after the frame layout was fixed")
	}
	if size <= 0 {
		size = 4
	}
	e := NewFrameEntity(len(f.order), size, key.String())
	f.slots[key] = e
	f.order = append(f.order, e)
	return e
}

// Offset implements FrameLayout.
func (f *Frame) Offset(e *FrameEntity) beapi.Offset {
	f.layout()
	off, ok := f.offsets[e]
	if !ok {
		panic(fmt.Sprintf("BUG: %s does not belong to this frame", e))
	}
	return off
}

func (f *Frame) layout() {
	if f.frozen {
		return
	}
	f.frozen = true
	sorted := make([]*FrameEntity, len(f.order))
	copy(sorted, f.order)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].size > sorted[j].size })
	var off int64
	for _, e := range sorted {
		off = (off + e.size - 1) &^ (e.size - 1)
		f.offsets[e] = beapi.Offset(off)
		off += e.size
	}
	// Keep the stack pointer 16-byte aligned.
	f.size = (off + 15) &^ 15
}

// Size returns the total size of the frame. Fixes the layout.
func (f *Frame) Size() int64 {
	f.layout()
	return f.size
}

// Entities returns the entities in request order.
func (f *Frame) Entities() []*FrameEntity { return f.order }

// Reset clears the frame so it can be reused for the next function.
func (f *Frame) Reset() {
	for k := range f.slots {
		delete(f.slots, k)
	}
	for k := range f.offsets {
		delete(f.offsets, k)
	}
	f.order = f.order[:0]
	f.size = 0
	f.frozen = false
}
