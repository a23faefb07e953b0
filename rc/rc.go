// Package rc implements non-atomic reference-counted ownership of a
// heap-allocated value, with strong handles that keep the value alive
// and weak handles that observe whether it still is.
package rc

import (
	"math"

	"github.com/creachadair/mcell"
	"github.com/creachadair/mcell/internal/confine"
)

// A block is the one allocation behind a family of handles: the owned
// value and the two ownership counters. The value lives while the
// strong count is positive. The block itself lives while any handle
// still points to it; once the last handle releases, it is abandoned
// to the garbage collector.
type block[T any] struct {
	slot    mcell.Slot[T]
	strong  mcell.Cell[int]
	weak    mcell.Cell[int]
	cleanup func(T)
	owner   confine.Owner
}

// destroy drops the owned value in place: the slot is zeroed, and the
// cleanup hook (if any) observes the removed value. The counters
// survive for any weak handles still outstanding. destroy runs
// exactly once per block, when the strong count falls to zero.
func (b *block[T]) destroy() {
	v := *b.slot.Ptr()
	var zero T
	*b.slot.Ptr() = zero
	if b.cleanup != nil {
		b.cleanup(v)
	}
}

// A Ref is a strong handle on a shared value of type T. All the
// strong and weak handles descended from one [New] call share a
// single copy of the value; the value lives exactly as long as at
// least one strong handle does.
//
// Each handle must be released exactly once. Releasing is idempotent
// per handle, so it is always safe to defer; a handle that is never
// released keeps the value alive indefinitely. Using a handle after
// releasing it panics. The counts are not atomic: a family of handles
// must be confined to a single goroutine, and a handle must not be
// copied after first use.
//
// The zero Ref is a released handle and is not useful.
type Ref[T any] struct {
	_ noCopy
	b *block[T] // nil after release
}

// New creates a new shared value and returns its first strong handle,
// with a strong count of 1 and a weak count of 0.
func New[T any](value T) *Ref[T] { return NewCleanup[T](value, nil) }

// NewCleanup is like [New], but additionally registers cleanup to
// observe the value's destruction: when the last strong handle is
// released, cleanup is called exactly once with the owned value,
// after the value has been removed from the shared block. A nil
// cleanup is allowed and observes nothing.
func NewCleanup[T any](value T, cleanup func(T)) *Ref[T] {
	b := &block[T]{cleanup: cleanup}
	b.owner.Check("rc.Ref")
	*b.slot.Ptr() = value
	b.strong.Set(1)
	return &Ref[T]{b: b}
}

// Clone returns a new strong handle on the same value, incrementing
// the strong count. The two handles are interchangeable but
// independent: each must still be released on its own.
func (r *Ref[T]) Clone() *Ref[T] {
	b := r.live("Clone")
	n := b.strong.Get()
	if n == math.MaxInt {
		panic("rc: strong count overflow")
	}
	b.strong.Set(n + 1)
	return &Ref[T]{b: b}
}

// Value returns the location of the shared value. The location is
// valid while r is live; retaining it past the release of r is a
// programming error the package cannot detect.
func (r *Ref[T]) Value() *T {
	return r.live("Value").slot.Ptr()
}

// Release gives up this handle's share of ownership, decrementing the
// strong count. When the count falls to zero the value is destroyed
// in place: its slot is zeroed and the cleanup hook, if any, runs
// with the removed value. The counters remain reachable through any
// outstanding weak handles until those too are released.
//
// Releasing a handle that has already been released has no effect.
func (r *Ref[T]) Release() {
	if r.b == nil {
		return
	}
	b := r.b
	b.owner.Check("rc.Ref")
	r.b = nil
	n := b.strong.Get()
	if n <= 0 {
		panic("rc: strong count underflow")
	}
	b.strong.Set(n - 1)
	if n == 1 {
		b.destroy()
	}
}

// Weak returns a new weak handle on the same value, incrementing the
// weak count. A weak handle does not keep the value alive; see
// [Weak.Upgrade].
func (r *Ref[T]) Weak() *Weak[T] {
	b := r.live("Weak")
	n := b.weak.Get()
	if n == math.MaxInt {
		panic("rc: weak count overflow")
	}
	b.weak.Set(n + 1)
	return &Weak[T]{b: b}
}

// StrongCount reports the number of strong handles on the shared
// value, including r itself; it is therefore always at least 1.
func (r *Ref[T]) StrongCount() int { return r.live("StrongCount").strong.Get() }

// WeakCount reports the number of weak handles on the shared value.
func (r *Ref[T]) WeakCount() int { return r.live("WeakCount").weak.Get() }

// Same reports whether a and b are strong handles on the same shared
// value. Both handles must be live.
func Same[T any](a, b *Ref[T]) bool {
	return a.live("Same") == b.live("Same")
}

// live returns the handle's block, or panics if r has been released.
func (r *Ref[T]) live(op string) *block[T] {
	if r.b == nil {
		panic("rc: " + op + " of released Ref")
	}
	r.b.owner.Check("rc.Ref")
	return r.b
}

// noCopy triggers go vet's copylocks check for any enclosing type, so
// that copying a handle after first use is flagged.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
