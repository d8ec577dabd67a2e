//go:build !tinygo

package core

var microTicks uint32

// getMicroTicks returns the stored tick count (regular Go implementation).
func getMicroTicks() uint32 {
	return microTicks
}

// setMicroTicks sets the stored tick count (regular Go implementation).
func setMicroTicks(us uint32) {
	microTicks = us
}
