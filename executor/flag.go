package executor

import "sync/atomic"

// atomicFlag is the exclusivity flag guarding exchange operations. Acquire
// never blocks; a caller observing the flag set must fail immediately.
type atomicFlag struct {
	v atomic.Bool
}

func (f *atomicFlag) acquire() bool {
	return f.v.CompareAndSwap(false, true)
}

func (f *atomicFlag) release() {
	f.v.Store(false)
}

func (f *atomicFlag) isSet() bool {
	return f.v.Load()
}
