package rc

import "math"

// A Weak is a weak handle on a shared value of type T. It tracks the
// value without keeping it alive: the value may be destroyed while
// weak handles remain, and the only access path is [Weak.Upgrade],
// which fails once that has happened.
//
// Like a strong handle, a weak handle must be released exactly once,
// is safe to release again, panics if used after release, and must
// not be copied after first use or shared across goroutines.
//
// The zero Weak is a released handle and is not useful.
type Weak[T any] struct {
	_ noCopy
	b *block[T] // nil after release
}

// Upgrade attempts to obtain a new strong handle on the shared value.
// If the value is still alive, Upgrade increments the strong count
// and returns a fresh handle with ok == true. If the last strong
// handle has already been released, the value is gone and Upgrade
// returns nil, false.
func (w *Weak[T]) Upgrade() (ref *Ref[T], ok bool) {
	b := w.live("Upgrade")
	n := b.strong.Get()
	if n == 0 {
		return nil, false
	}
	if n == math.MaxInt {
		panic("rc: strong count overflow")
	}
	b.strong.Set(n + 1)
	return &Ref[T]{b: b}, true
}

// Release gives up this weak handle, decrementing the weak count.
// Releasing a handle that has already been released has no effect.
func (w *Weak[T]) Release() {
	if w.b == nil {
		return
	}
	b := w.b
	b.owner.Check("rc.Weak")
	w.b = nil
	n := b.weak.Get()
	if n <= 0 {
		panic("rc: weak count underflow")
	}
	b.weak.Set(n - 1)
}

// StrongCount reports the number of strong handles on the shared
// value. Unlike [Ref.StrongCount] it may report zero, meaning the
// value has been destroyed and Upgrade can no longer succeed.
func (w *Weak[T]) StrongCount() int { return w.live("StrongCount").strong.Get() }

// WeakCount reports the number of weak handles on the shared value,
// including w itself.
func (w *Weak[T]) WeakCount() int { return w.live("WeakCount").weak.Get() }

// live returns the handle's block, or panics if w has been released.
func (w *Weak[T]) live(op string) *block[T] {
	if w.b == nil {
		panic("rc: " + op + " of released Weak")
	}
	w.b.owner.Check("rc.Weak")
	return w.b
}
