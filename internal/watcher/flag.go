package watcher

import "sync/atomic"

// Flag is the pending-reload signal: set from the watcher goroutine, taken
// once per cycle by the scheduler. Setting it twice before a Take is the
// same as setting it once.
type Flag struct {
	v atomic.Bool
}

func (f *Flag) Set() { f.v.Store(true) }

// Take reports whether a reload was requested and clears the request.
func (f *Flag) Take() bool { return f.v.Swap(false) }

func (f *Flag) Pending() bool { return f.v.Load() }
