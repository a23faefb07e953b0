package mcell

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/creachadair/mcell/internal/confine"
)

// A Cell is a container for a single value of type T that is read and
// written only by copy. Because callers only ever receive copies, no
// reference into the cell's interior can exist outside it, and
// updating the value through a shared *Cell needs no tracking of any
// kind, provided the cell stays on one goroutine.
//
// T must be a copy-safe type: one whose values share no mutable state
// with their copies. Booleans, numbers, strings, and arrays and
// structs built only from such types are copy-safe; pointers, slices,
// maps, channels, functions, interfaces, and types that guard
// themselves against copying (such as the cell types of this module,
// or sync.Mutex) are not. The constraint is verified with reflection
// the first time a cell of a given type is used, and a violation
// panics. Values too rich for a Cell belong in a borrow.Cell, which
// tracks views instead of copying.
//
// A zero Cell holds the zero value of T and is ready for use. A Cell
// must not be copied after first use, and must not be shared across
// goroutines.
type Cell[T any] struct {
	_     noCopy
	ok    bool // value type already validated
	owner confine.Owner
	slot  Slot[T]
}

// NewCell creates a new Cell holding value. NewCell panics if T is
// not a copy-safe type.
func NewCell[T any](value T) *Cell[T] {
	c := new(Cell[T])
	c.check()
	*c.slot.Ptr() = value
	return c
}

// Get returns a copy of the value stored in c.
func (c *Cell[T]) Get() T {
	c.check()
	return *c.slot.Ptr()
}

// Set replaces the value stored in c with its own copy of value.
func (c *Cell[T]) Set(value T) {
	c.check()
	*c.slot.Ptr() = value
}

// check validates the value type on first use, and verifies goroutine
// confinement when checking is enabled.
func (c *Cell[T]) check() {
	if !c.ok {
		requireCopySafe(reflect.TypeFor[T]())
		c.ok = true
	}
	c.owner.Check("mcell.Cell")
}

// copySafe records a verdict for each validated type: the component
// that makes the type unsafe, or nil if the type is copy-safe.
// Unrelated goroutines may validate cells of the same type, so the
// cache is the one piece of process-global state in the package.
var copySafe sync.Map // reflect.Type → reflect.Type (nil when safe)

// requireCopySafe panics if values of type t would share mutable
// state with their copies.
func requireCopySafe(t reflect.Type) {
	bad, ok := copySafe.Load(t)
	if !ok {
		bad, _ = copySafe.LoadOrStore(t, sharedComponent(t))
	}
	if s, _ := bad.(reflect.Type); s != nil {
		if s == t {
			panic(fmt.Sprintf("mcell: %v is not a copy-safe type", t))
		}
		panic(fmt.Sprintf("mcell: %v is not a copy-safe type: contains %v", t, s))
	}
}

// lockerType matches types that guard themselves against copying, by
// the same convention go vet's copylocks check uses: a Lock method on
// the pointer type.
var lockerType = reflect.TypeFor[sync.Locker]()

// sharedComponent returns the component of t whose copies would share
// mutable state, or nil if values of t are safe to copy. Reference
// kinds are shared; booleans, numbers, and strings are safe; arrays
// and structs are as safe as their components.
func sharedComponent(t reflect.Type) reflect.Type {
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(lockerType) {
		return t
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128, reflect.String:
		return nil
	case reflect.Array:
		return sharedComponent(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if s := sharedComponent(t.Field(i).Type); s != nil {
				return s
			}
		}
		return nil
	default:
		// Pointer, UnsafePointer, Slice, Map, Chan, Func, Interface.
		return t
	}
}
