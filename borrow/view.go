package borrow

// A Ref is a shared, read-only view of the value in a Cell, returned
// by [Cell.Borrow] and [Cell.TryBorrow].
//
// Each Ref must be released exactly once; releasing the last
// outstanding view returns its cell to the unborrowed state.
// Releasing is idempotent per view, so it is always safe to defer.
// Using a Ref after releasing it panics.
type Ref[T any] struct {
	_    noCopy
	cell *Cell[T] // nil after release
}

// Get returns a copy of the viewed value.
func (r *Ref[T]) Get() T {
	return *r.live().slot.Ptr()
}

// Value returns the location of the viewed value. The caller must not
// write through the returned pointer, and must not retain it past the
// release of r.
func (r *Ref[T]) Value() *T {
	return r.live().slot.Ptr()
}

// Release returns the view to its cell. Releasing a view that has
// already been released has no effect.
func (r *Ref[T]) Release() {
	if r.cell == nil {
		return
	}
	c := r.cell
	c.owner.Check("borrow.Ref")
	r.cell = nil
	c.releaseShared()
}

// live returns the viewed cell, or panics if r has been released.
func (r *Ref[T]) live() *Cell[T] {
	if r.cell == nil {
		panic("borrow: use of released Ref")
	}
	r.cell.owner.Check("borrow.Ref")
	return r.cell
}

// A RefMut is an exclusive, read-write view of the value in a Cell,
// returned by [Cell.BorrowMut] and [Cell.TryBorrowMut]. While a
// RefMut is outstanding it is the only way to reach the value.
//
// Each RefMut must be released exactly once; releasing it returns its
// cell to the unborrowed state. Releasing is idempotent per view, so
// it is always safe to defer. Using a RefMut after releasing it
// panics.
type RefMut[T any] struct {
	_    noCopy
	cell *Cell[T] // nil after release
}

// Get returns a copy of the viewed value.
func (m *RefMut[T]) Get() T {
	return *m.live().slot.Ptr()
}

// Set replaces the viewed value with value.
func (m *RefMut[T]) Set(value T) {
	*m.live().slot.Ptr() = value
}

// Value returns the location of the viewed value, through which the
// caller may freely read and write. The location must not be retained
// past the release of m.
func (m *RefMut[T]) Value() *T {
	return m.live().slot.Ptr()
}

// Release returns the exclusive view to its cell. Releasing a view
// that has already been released has no effect.
func (m *RefMut[T]) Release() {
	if m.cell == nil {
		return
	}
	c := m.cell
	c.owner.Check("borrow.RefMut")
	m.cell = nil
	c.releaseExclusive()
}

// live returns the viewed cell, or panics if m has been released.
func (m *RefMut[T]) live() *Cell[T] {
	if m.cell == nil {
		panic("borrow: use of released RefMut")
	}
	m.cell.owner.Check("borrow.RefMut")
	return m.cell
}
