// Package confine verifies that values meant to live on a single
// goroutine are not touched by any other.
//
// The cell types in this module carry no synchronization at all, and
// their contracts require each value to remain confined to one
// goroutine. Ordinarily that contract is enforced only by
// documentation and the race detector. When checking is enabled, a
// guarded value adopts the first goroutine that uses it, and any use
// from a different goroutine panics immediately, naming both
// goroutines.
//
// Checking is disabled by default, and is meant to be switched on only
// by tests within this module. While disabled, a check costs a single
// branch on a package variable.
package confine

import (
	"fmt"
	"runtime"
)

// enabled reports whether confinement checks are active. It is
// deliberately unsynchronized: callers must settle it before any
// goroutine under test starts, and restore it when they finish.
var enabled bool

// Enabled reports whether confinement checking is active.
func Enabled() bool { return enabled }

// SetEnabled sets whether confinement checking is active, and returns
// the previous setting. The conventional use in a test is:
//
//	defer confine.SetEnabled(confine.SetEnabled(true))
func SetEnabled(on bool) bool {
	old := enabled
	enabled = on
	return old
}

// Current returns the ID of the calling goroutine, parsed from the
// header line of its stack trace ("goroutine N [running]:"). This
// costs on the order of a microsecond, so guarded types consult it
// only while checking is enabled.
func Current() int64 {
	// The ID appears within the first few bytes of the header line, so
	// a small fixed buffer is enough.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseID(buf[:n])
}

// parseID extracts the goroutine ID from a stack trace header of the
// form "goroutine N [state]:". It returns 0 if buf does not look like
// a stack header.
func parseID(buf []byte) int64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}
	var id int64
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}

// An Owner records which goroutine a guarded value belongs to. The
// zero Owner is unclaimed; the first checked operation adopts the
// calling goroutine. Owner is embedded as a field by the types it
// guards.
type Owner struct {
	id int64
}

// Check verifies that the calling goroutine owns the guarded value,
// adopting the value if no goroutine has used it yet. If checking is
// enabled and another goroutine already owns the value, Check panics
// with a message naming the guarded type (what) and both goroutines.
// While checking is disabled Check does nothing, and the value remains
// unclaimed until a check runs with checking enabled.
func (o *Owner) Check(what string) {
	if !enabled {
		return
	}
	cur := Current()
	if o.id == 0 {
		o.id = cur
	} else if o.id != cur {
		panic(fmt.Sprintf("%s: used from goroutine %d, owned by goroutine %d", what, cur, o.id))
	}
}
