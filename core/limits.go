package core

// Limit switch handling. The shield exposes active-low limit inputs for the
// X, Y and Z channels; a tripped switch freezes the matching axis where it
// stands until a new command re-aims it. The A channel has no limit input.

// PollLimits samples the limit inputs from the foreground loop. Targets
// with edge-capable GPIO (the Linux gpiocdev driver) can instead call
// TripLimit straight from their event handlers.
func (m *Machine) PollLimits() {
	if !m.useLimits {
		return
	}
	for i, pin := range m.limitPins {
		pressed := !gpioDriver.ReadPin(pin) // active-low
		if pressed && !m.tripped[i] {
			m.TripLimit(i)
		} else if !pressed {
			m.tripped[i] = false
		}
	}
}

// TripLimit freezes axis i in place: the path model is halted at its
// current position and the stepper target is snapped to wherever the motor
// actually is. Foreground only.
func (m *Machine) TripLimit(i int) {
	if i < 0 || i >= NumLimits {
		return
	}
	m.tripped[i] = true
	a := m.axes[i]
	a.Path.Halt()
	a.Stepper.SetTarget(a.Stepper.CurrentPosition())
	recordTimingEvent(EvtLimitTrip, uint8(a.Stepper.stepPin), uint32(a.Stepper.CurrentPosition()), 0)
	DebugPrintln("limit trip: axis " + string(AxisNames[i]))
}

// LimitTripped reports whether limit input i is currently latched.
func (m *Machine) LimitTripped(i int) bool {
	if i < 0 || i >= NumLimits {
		return false
	}
	return m.tripped[i]
}
