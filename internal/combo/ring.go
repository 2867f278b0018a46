package combo

import (
	"errors"
	"fmt"
	"iter"
)

// MaxCapacity is the largest history a Ring can hold.
const MaxCapacity = 8

// ErrInvalidCapacity is returned for a capacity outside 1..MaxCapacity.
var ErrInvalidCapacity = errors.New("combo: capacity must be between 1 and 8")

// Ring is a stack of combos that turns into a ring buffer once full.
//
// Until the first overflow the valid slots are 0..head. After it all slots
// are valid and the oldest one is the slot after head. The zero Ring has
// capacity 0: it stays empty and drops pushes until SetCapacity. A Ring is
// not safe for concurrent use.
type Ring struct {
	slots      [MaxCapacity]KeyCombo
	capacity   int
	head       int
	overflowed bool
}

// NewRing returns an empty Ring holding up to capacity combos.
func NewRing(capacity int) (*Ring, error) {
	r := &Ring{}
	if err := r.SetCapacity(capacity); err != nil {
		return nil, err
	}
	return r, nil
}

// SetCapacity changes the capacity and empties the history.
func (r *Ring) SetCapacity(capacity int) error {
	if capacity < 1 || capacity > MaxCapacity {
		return fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	r.capacity = capacity
	r.Reset()
	return nil
}

// Capacity returns the configured capacity.
func (r *Ring) Capacity() int {
	return r.capacity
}

// Push stores c as the most recent combo. It reports whether the push
// evicted the oldest entry.
func (r *Ring) Push(c KeyCombo) (evicted bool) {
	if r.capacity == 0 {
		return false
	}
	evicted = r.overflowed
	r.head++
	if r.head == r.capacity {
		r.overflowed = true
		r.head = 0
		evicted = true
	}
	r.slots[r.head] = c
	return evicted
}

// IsEmpty reports whether the history holds no combos.
func (r *Ring) IsEmpty() bool {
	return r.capacity == 0 || r.head == -1
}

// Len returns the number of stored combos.
func (r *Ring) Len() int {
	if r.capacity == 0 {
		return 0
	}
	if r.overflowed {
		return r.capacity
	}
	return r.head + 1
}

// Reset empties the history. Capacity is kept.
func (r *Ring) Reset() {
	r.head = -1
	r.overflowed = false
}

// Cursor is a position in a newest-first walk over a Ring.
type Cursor struct {
	index   int
	wrapped bool
}

// Begin returns a cursor at the most recent combo.
func (r *Ring) Begin() Cursor {
	if r.capacity == 0 {
		return Cursor{index: -1}
	}
	return Cursor{index: r.head}
}

// AtEnd reports whether cur has walked past the oldest combo.
func (r *Ring) AtEnd(cur Cursor) bool {
	if r.overflowed && cur.wrapped {
		return cur.index == r.head
	}
	return cur.index == -1
}

// Next moves cur one step towards older combos.
func (r *Ring) Next(cur Cursor) Cursor {
	cur.index--
	if r.overflowed && cur.index == -1 {
		cur.wrapped = true
		cur.index = r.capacity - 1
	}
	return cur
}

// At returns the combo under cur. cur must not be at the end.
func (r *Ring) At(cur Cursor) KeyCombo {
	if cur.index < 0 || cur.index >= r.capacity {
		panic(fmt.Sprintf("combo: cursor index %d out of range [0,%d)", cur.index, r.capacity))
	}
	return r.slots[cur.index]
}

// All yields the stored combos newest first.
func (r *Ring) All() iter.Seq[KeyCombo] {
	return func(yield func(KeyCombo) bool) {
		for cur := r.Begin(); !r.AtEnd(cur); cur = r.Next(cur) {
			if !yield(r.At(cur)) {
				return
			}
		}
	}
}

// Snapshot copies the stored combos newest first.
func (r *Ring) Snapshot() []KeyCombo {
	out := make([]KeyCombo, 0, r.Len())
	for c := range r.All() {
		out = append(out, c)
	}
	return out
}
