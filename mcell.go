// Package mcell defines cell types that permit controlled mutation of
// a value through shared handles within a single goroutine.
//
// A [Slot] is the foundation: a bare storage location whose contents
// can be written through any handle to it, with no checking of any
// kind. A [Cell] layers a copy discipline on a Slot, so that values
// move in and out only by copy and no reference to the interior can
// escape. The subpackages build richer policies on the same
// foundation: package borrow adds runtime-checked shared and
// exclusive views, and package rc adds strong and weak ownership
// handles with reference counts.
//
// None of these types use any synchronization, and none of them are
// safe for concurrent use. Each value must be confined to a single
// goroutine for its whole life. The types cannot be copied after
// first use (go vet's copylocks check enforces this), and the
// module's tests additionally verify confinement at runtime.
package mcell

// noCopy triggers go vet's copylocks check for any enclosing type, so
// that copying a cell after first use is flagged. It has no effect at
// runtime.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// A Slot is a storage location for a single value of type T. Its
// contents can be read and written through the location reported by
// Ptr, by every holder of the Slot alike, whether or not any other
// access is in progress.
//
// A Slot enforces nothing: it is the raw mechanism shared by the
// checked cell types, which each supply a policy (copying, view
// tracking, or reference counting) that keeps the aliased mutation
// safe. Code that is not implementing such a policy should use one of
// those types instead of a bare Slot.
//
// A zero Slot holds the zero value of T and is ready for use. A Slot
// must not be copied after first use, and must not be shared across
// goroutines.
type Slot[T any] struct {
	_ noCopy
	v T
}

// NewSlot creates a new Slot holding value.
func NewSlot[T any](value T) *Slot[T] { return &Slot[T]{v: value} }

// Ptr returns the location of the value stored in s. Every call
// returns the same location, and a write through it is visible to
// every subsequent read through any handle to s.
//
// The caller is responsible for ensuring that no two accesses through
// the location overlap; Slot itself does not check.
func (s *Slot[T]) Ptr() *T { return &s.v }
