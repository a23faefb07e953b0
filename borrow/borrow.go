// Package borrow implements a cell whose value is reached only
// through runtime-checked shared or exclusive views.
package borrow

import (
	"errors"
	"math"

	"github.com/creachadair/mcell"
	"github.com/creachadair/mcell/internal/confine"
)

// Sentinel errors reported by the Try variants when a view cannot be
// granted. The panicking variants panic with these same values, so a
// recover can identify the conflict either way.
var (
	// ErrBorrowed means an exclusive view was requested while any view
	// is outstanding.
	ErrBorrowed = errors.New("cell is already borrowed")

	// ErrMutBorrowed means a shared view was requested while an
	// exclusive view is outstanding.
	ErrMutBorrowed = errors.New("cell is already mutably borrowed")
)

// The view state of a cell is a single counter: 0 means no views are
// outstanding, n > 0 means n shared views, and exclusive means one
// exclusive view.
const exclusive = -1

// A Cell is a container for a single value of type T, reached through
// views that the cell checks at runtime: any number of shared
// (read-only) views may be outstanding at once, or one exclusive
// (read-write) view, never both. This is the discipline of a
// single-writer, multi-reader lock, enforced without any blocking:
// execution is single-goroutine, so a conflicting request can never
// succeed later and fails immediately instead. The check exists to
// catch re-entrant aliasing bugs, such as a second view taken while
// an outer view from the same call stack is still alive.
//
// [Cell.Borrow] and [Cell.BorrowMut] treat a conflict as a programmer
// error and panic; [Cell.TryBorrow] and [Cell.TryBorrowMut] report it
// as an error instead. Each view must be released exactly once, most
// simply with defer; [Cell.With] and [Cell.WithMut] bundle the
// acquire/release pair around a function call for the common scoped
// case.
//
// Unlike an mcell.Cell, a Cell places no constraint on T: values are
// viewed in place, never copied out, so types with reference
// components are welcome.
//
// A zero Cell holds the zero value of T with no views outstanding,
// and is ready for use. A Cell must not be copied after first use,
// and must not be shared across goroutines.
type Cell[T any] struct {
	_     noCopy
	state mcell.Cell[int]
	owner confine.Owner
	slot  mcell.Slot[T]
}

// New creates a new Cell holding value, with no views outstanding.
func New[T any](value T) *Cell[T] {
	c := new(Cell[T])
	c.owner.Check("borrow.Cell")
	*c.slot.Ptr() = value
	return c
}

// Borrow returns a shared, read-only view of the value in c. Any
// number of shared views may be outstanding at once. Borrow panics
// with [ErrMutBorrowed] if an exclusive view is outstanding.
func (c *Cell[T]) Borrow() *Ref[T] {
	r, err := c.TryBorrow()
	if err != nil {
		panic(err)
	}
	return r
}

// TryBorrow returns a shared, read-only view of the value in c, or
// [ErrMutBorrowed] if an exclusive view is outstanding.
func (c *Cell[T]) TryBorrow() (*Ref[T], error) {
	c.owner.Check("borrow.Cell")
	n := c.state.Get()
	if n == exclusive {
		return nil, ErrMutBorrowed
	}
	if n == math.MaxInt {
		panic("borrow: shared view count overflow")
	}
	c.state.Set(n + 1)
	return &Ref[T]{cell: c}, nil
}

// BorrowMut returns an exclusive, read-write view of the value in c.
// BorrowMut panics with [ErrBorrowed] if any view is outstanding.
func (c *Cell[T]) BorrowMut() *RefMut[T] {
	m, err := c.TryBorrowMut()
	if err != nil {
		panic(err)
	}
	return m
}

// TryBorrowMut returns an exclusive, read-write view of the value in
// c, or [ErrBorrowed] if any view is outstanding.
func (c *Cell[T]) TryBorrowMut() (*RefMut[T], error) {
	c.owner.Check("borrow.Cell")
	if c.state.Get() != 0 {
		return nil, ErrBorrowed
	}
	c.state.Set(exclusive)
	return &RefMut[T]{cell: c}, nil
}

// With calls f with a copy of the value in c, holding a shared view
// for the duration of the call. The view is released on every exit
// path, including a panic out of f. If T has reference components, f
// must not modify the value through them.
func (c *Cell[T]) With(f func(T)) {
	r := c.Borrow()
	defer r.Release()
	f(r.Get())
}

// WithMut calls f with the location of the value in c, holding the
// exclusive view for the duration of the call. The view is released
// on every exit path, including a panic out of f. The location is
// valid only until f returns.
func (c *Cell[T]) WithMut(f func(*T)) {
	m := c.BorrowMut()
	defer m.Release()
	f(m.Value())
}

// releaseShared returns one shared view to c.
func (c *Cell[T]) releaseShared() {
	n := c.state.Get()
	if n <= 0 {
		panic("borrow: shared view count underflow")
	}
	c.state.Set(n - 1)
}

// releaseExclusive returns the exclusive view to c.
func (c *Cell[T]) releaseExclusive() {
	if c.state.Get() != exclusive {
		panic("borrow: exclusive view state corrupted")
	}
	c.state.Set(0)
}

// noCopy triggers go vet's copylocks check for any enclosing type, so
// that copying a cell or a view after first use is flagged.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
