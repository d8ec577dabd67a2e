//go:build tinygo

package core

import "sync/atomic"

var microTicksValue uint32

// getMicroTicks returns the stored tick count.
func getMicroTicks() uint32 {
	return atomic.LoadUint32(&microTicksValue)
}

// setMicroTicks sets the stored tick count.
func setMicroTicks(us uint32) {
	atomic.StoreUint32(&microTicksValue, us)
}
