package rc_test

import (
	"fmt"

	"github.com/creachadair/mcell/rc"
)

func Example() {
	a := rc.NewCleanup("treasure", func(v string) {
		fmt.Println("dropped:", v)
	})

	// Clones share ownership of a single copy of the value.
	b := a.Clone()
	fmt.Println("strong:", a.StrongCount())

	// A weak handle tracks the value without keeping it alive.
	w := a.Weak()
	defer w.Release()

	a.Release()
	if v, ok := w.Upgrade(); ok {
		fmt.Println("still alive:", *v.Value())
		v.Release()
	}

	// Releasing the last strong handle drops the value.
	b.Release()

	if _, ok := w.Upgrade(); !ok {
		fmt.Println("gone")
	}
	// Output:
	// strong: 2
	// still alive: treasure
	// dropped: treasure
	// gone
}
