package borrow_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/creachadair/mcell/borrow"
	"github.com/creachadair/mcell/internal/confine"
	"github.com/creachadair/mds/mtest"
	"github.com/fortytw2/leaktest"
)

func TestCell(t *testing.T) {
	c := borrow.New("apple")

	// Any number of shared views may be out at once, and all of them
	// alias the same value.
	r1 := c.Borrow()
	r2 := c.Borrow()
	if got := r1.Get(); got != "apple" {
		t.Errorf("r1.Get: got %q, want apple", got)
	}
	if got := r2.Get(); got != "apple" {
		t.Errorf("r2.Get: got %q, want apple", got)
	}
	if p, q := r1.Value(), r2.Value(); p != q {
		t.Errorf("Value: got distinct locations %p and %p", p, q)
	}

	// While any view is out, the exclusive view is denied.
	if m, err := c.TryBorrowMut(); !errors.Is(err, borrow.ErrBorrowed) {
		t.Errorf("TryBorrowMut: got %v, %v; want nil, %v", m, err, borrow.ErrBorrowed)
	}

	// One release is not enough; every view must come back.
	r1.Release()
	if _, err := c.TryBorrowMut(); !errors.Is(err, borrow.ErrBorrowed) {
		t.Errorf("TryBorrowMut: got %v, want %v", err, borrow.ErrBorrowed)
	}
	r2.Release()

	// All views returned, so the exclusive view is granted.
	m := c.BorrowMut()
	m.Set("pear")
	if got := m.Get(); got != "pear" {
		t.Errorf("m.Get: got %q, want pear", got)
	}

	// While it is out, no other view of either kind is granted.
	if _, err := c.TryBorrow(); !errors.Is(err, borrow.ErrMutBorrowed) {
		t.Errorf("TryBorrow: got %v, want %v", err, borrow.ErrMutBorrowed)
	}
	if _, err := c.TryBorrowMut(); !errors.Is(err, borrow.ErrBorrowed) {
		t.Errorf("TryBorrowMut: got %v, want %v", err, borrow.ErrBorrowed)
	}
	m.Release()

	// The write is visible to subsequent views.
	c.With(func(v string) {
		if v != "pear" {
			t.Errorf("With after write: got %q, want pear", v)
		}
	})
}

func TestCell_Zero(t *testing.T) {
	var c borrow.Cell[int]

	c.WithMut(func(v *int) { *v = 25 })
	c.With(func(v int) {
		if v != 25 {
			t.Errorf("With: got %d, want 25", v)
		}
	})
}

func TestCell_Panics(t *testing.T) {
	c := borrow.New(1)

	// The panicking variants panic with the same sentinel values the
	// Try variants report.
	check := func(t *testing.T, f func(), want error) {
		t.Helper()
		got := mtest.MustPanic(t, f)
		if err, ok := got.(error); !ok || !errors.Is(err, want) {
			t.Errorf("Panic: got %v, want %v", got, want)
		}
	}

	t.Run("SharedBlocksMut", func(t *testing.T) {
		r := c.Borrow()
		defer r.Release()
		check(t, func() { c.BorrowMut() }, borrow.ErrBorrowed)
	})
	t.Run("MutBlocksShared", func(t *testing.T) {
		m := c.BorrowMut()
		defer m.Release()
		check(t, func() { c.Borrow() }, borrow.ErrMutBorrowed)
	})
	t.Run("MutBlocksMut", func(t *testing.T) {
		m := c.BorrowMut()
		defer m.Release()
		check(t, func() { c.BorrowMut() }, borrow.ErrBorrowed)
	})
}

func TestRelease(t *testing.T) {
	c := borrow.New(1)

	r := c.Borrow()
	r.Release()
	r.Release() // safe to do it multiple times

	// A released view no longer reaches the value.
	mtest.MustPanicf(t, func() { r.Get() }, "Get on a released Ref should panic")
	mtest.MustPanicf(t, func() { r.Value() }, "Value on a released Ref should panic")

	// All views were returned, so the exclusive view is free.
	m := c.BorrowMut()
	m.Release()
	m.Release() // safe to do it multiple times
	mtest.MustPanicf(t, func() { m.Set(2) }, "Set on a released RefMut should panic")
	mtest.MustPanicf(t, func() { m.Get() }, "Get on a released RefMut should panic")

	// Releasing views does not disturb the value.
	c.With(func(v int) {
		if v != 1 {
			t.Errorf("With: got %d, want 1", v)
		}
	})
}

func TestWith(t *testing.T) {
	c := borrow.New([]int{1, 2, 3})

	// With holds a shared view for the duration of the call.
	c.With(func(v []int) {
		if _, err := c.TryBorrowMut(); !errors.Is(err, borrow.ErrBorrowed) {
			t.Errorf("TryBorrowMut inside With: got %v, want %v", err, borrow.ErrBorrowed)
		}
		if want := []int{1, 2, 3}; !slices.Equal(v, want) {
			t.Errorf("With: got %v, want %v", v, want)
		}
	})

	// WithMut holds the exclusive view for the duration of the call.
	c.WithMut(func(v *[]int) {
		*v = append(*v, 4)
		if _, err := c.TryBorrow(); !errors.Is(err, borrow.ErrMutBorrowed) {
			t.Errorf("TryBorrow inside WithMut: got %v, want %v", err, borrow.ErrMutBorrowed)
		}
	})

	// Both returned their views on exit, and the write stuck.
	m, err := c.TryBorrowMut()
	if err != nil {
		t.Fatalf("TryBorrowMut: unexpected error: %v", err)
	}
	defer m.Release()
	if got, want := *m.Value(), []int{1, 2, 3, 4}; !slices.Equal(got, want) {
		t.Errorf("Value: got %v, want %v", got, want)
	}
}

func TestWith_PanicRelease(t *testing.T) {
	c := borrow.New(1)

	// A panic out of the callback propagates, but still releases the
	// view on the way out.
	v := mtest.MustPanicf(t, func() {
		c.WithMut(func(*int) { panic("boom") })
	}, "WithMut should propagate the panic")
	if v != "boom" {
		t.Errorf("Panic: got %v, want boom", v)
	}

	m, err := c.TryBorrowMut()
	if err != nil {
		t.Fatalf("TryBorrowMut after panic: unexpected error: %v", err)
	}
	m.Release()
}

func TestCell_Confined(t *testing.T) {
	defer leaktest.Check(t)()
	defer confine.SetEnabled(confine.SetEnabled(true))

	c := borrow.New(1) // adopts the test goroutine
	r := c.Borrow()

	// With checking enabled, neither the cell nor an outstanding view
	// may be used from another goroutine.
	checkElsewhere := func(t *testing.T, f func()) {
		t.Helper()
		got := make(chan any, 1)
		go func() {
			defer func() { got <- recover() }()
			f()
		}()
		if v := <-got; v == nil {
			t.Error("Use from another goroutine unexpectedly succeeded")
		} else if s, ok := v.(string); !ok || !strings.Contains(s, "used from goroutine") {
			t.Errorf("Use from another goroutine: unexpected panic %v", v)
		}
	}

	checkElsewhere(t, func() { c.TryBorrow() })
	checkElsewhere(t, func() { r.Get() })

	// The owning goroutine continues unhindered.
	if got := r.Get(); got != 1 {
		t.Errorf("Get: got %d, want 1", got)
	}
	r.Release()
}
