package mcell_test

import (
	"fmt"

	"github.com/creachadair/mcell"
)

func ExampleCell() {
	hits := mcell.NewCell(0)

	// Share the cell among several closures. Each sees the updates of
	// the others, but none can hold a reference into the cell, so an
	// update is always a read-modify-write of a private copy.
	touch := func() { hits.Set(hits.Get() + 1) }
	touch()
	touch()
	touch()

	fmt.Println("hits:", hits.Get())
	// Output:
	// hits: 3
}

func ExampleSlot() {
	s := mcell.NewSlot([]string{"apple"})

	// Every call to Ptr aliases the same location, so updates through
	// one pointer are seen through all of them.
	*s.Ptr() = append(*s.Ptr(), "pear")

	fmt.Println(*s.Ptr())
	// Output:
	// [apple pear]
}
