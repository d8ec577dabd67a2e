package core

// Monotonic microsecond clock HAL. Targets either install a clock source
// that reads a hardware counter, or push ticks in via SetMicros (the
// simulator does the latter). Tick storage is build-tagged: plain variable
// on host Go, atomic under TinyGo where the interrupt also reads it.

var clockSource func() uint32

// SetClockSource installs a platform clock callback returning microseconds.
// Must be called before polling starts; the source has to be callable from
// an interrupt context.
func SetClockSource(f func() uint32) {
	clockSource = f
}

// Micros returns the current monotonic time in microseconds. The value
// wraps every ~71.6 minutes; use SinceMicros for interval math.
func Micros() uint32 {
	if clockSource != nil {
		return clockSource()
	}
	return getMicroTicks()
}

// SetMicros sets the stored tick count. Used by targets without a readable
// hardware counter and by tests.
func SetMicros(us uint32) {
	setMicroTicks(us)
}

// AdvanceMicros adds to the stored tick count.
func AdvanceMicros(deltaUS uint32) {
	setMicroTicks(getMicroTicks() + deltaUS)
}

// SinceMicros returns the microseconds elapsed since an earlier Micros
// reading. Unsigned subtraction keeps this correct across wraparound as
// long as the interval is under half the counter period.
func SinceMicros(earlier uint32) uint32 {
	return Micros() - earlier
}
