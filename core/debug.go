package core

// DebugWriter is a function type for writing debug messages.
type DebugWriter func(string)

// TimingEvent captures a timing-critical event for post-mortem analysis.
type TimingEvent struct {
	EventType uint8  // Event type code
	Channel   uint8  // Step pin of the channel involved (0 = none)
	Clock     uint32 // Microsecond clock at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtStepPulse = 1 // step pulse emitted
	EvtDirChange = 2 // direction pin flipped
	EvtLimitTrip = 3 // limit switch tripped
	EvtTargetSet = 4 // target command applied
	EvtEnable    = 5 // driver enable changed
)

const (
	// TimingRingSize keeps the last 32 events for post-mortem.
	TimingRingSize = 32
)

var (
	// debugPrintln is the global debug print function, redirected by
	// platform code to UART, USB or a logger. No-op by default.
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether debug output is active. Disabled by
	// default so pulse timing is unaffected.
	debugEnabled bool

	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  = true
)

// SetDebugWriter sets the platform-specific debug output function.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// SetTimingCaptureEnabled enables or disables the timing event ring.
func SetTimingCaptureEnabled(enabled bool) {
	timingEnabled = enabled
}

// DebugPrintln writes a debug message if debug output is enabled.
func DebugPrintln(s string) {
	if debugEnabled {
		debugPrintln(s)
	}
}

// recordTimingEvent appends an event to the ring. Called from both
// contexts; the ring is lossy by design and never blocks.
func recordTimingEvent(eventType, channel uint8, v1, v2 uint32) {
	if !timingEnabled {
		return
	}
	timingRing[timingRingHead] = TimingEvent{
		EventType: eventType,
		Channel:   channel,
		Clock:     Micros(),
		Value1:    v1,
		Value2:    v2,
	}
	timingRingHead = (timingRingHead + 1) % TimingRingSize
}

// TimingSnapshot copies the timing ring in oldest-first order. Interrupts
// are masked during the copy so the foreground sees a consistent ring.
func TimingSnapshot() [TimingRingSize]TimingEvent {
	state := disableInterrupts()
	ring := timingRing
	head := timingRingHead
	restoreInterrupts(state)

	var out [TimingRingSize]TimingEvent
	for i := 0; i < TimingRingSize; i++ {
		out[i] = ring[(int(head)+i)%TimingRingSize]
	}
	return out
}
