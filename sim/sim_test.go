package sim

import (
	"testing"
	"time"

	"github.com/edaniels/golog"

	"winch/core"
	"winch/protocol"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	s := DefaultSettings()
	s.UseLimits = true
	r, err := NewRunner(s, golog.NewTestLogger(t))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

// An infinite-speed step settles all the way through the pipeline: the
// pulse count on the step pin matches the converged model position.
func TestRunnerStepGesture(t *testing.T) {
	r := newTestRunner(t)

	r.Exec("s 0")
	r.Exec("a 1000")
	r.Run(2 * time.Second)

	pos := r.Machine.StepperPositions()
	if pos[0] < 999 || pos[0] > 1000 {
		t.Errorf("x stepper at %d, want ~1000", pos[0])
	}
	if got := r.GPIO.RisingEdges(core.XAxisStepPin); got != uint64(pos[0]) {
		t.Errorf("pulses = %d, stepper position = %d", got, pos[0])
	}
	if r.GPIO.RisingEdges(core.YAxisStepPin) != 0 {
		t.Errorf("y axis pulsed without a command")
	}
}

// Velocity mode advances at the commanded rate.
func TestRunnerVelocityGesture(t *testing.T) {
	r := newTestRunner(t)

	r.Exec("v 300")
	r.Run(1 * time.Second)
	first := r.Machine.StepperPositions()[0]

	r.Run(1 * time.Second)
	second := r.Machine.StepperPositions()[0]

	// First second includes the spin-up transient; the second one is a
	// clean 300 steps.
	if first < 270 || first > 310 {
		t.Errorf("first second moved %d steps, want ~300", first)
	}
	if delta := second - first; delta < 295 || delta > 305 {
		t.Errorf("steady-state rate = %d steps/s, want ~300", delta)
	}
}

// A ramped move takes distance/speed seconds end to end.
func TestRunnerRampedGesture(t *testing.T) {
	r := newTestRunner(t)

	r.Exec("s 500")
	r.Exec("a 1000")
	r.Run(2500 * time.Millisecond)

	pos := r.Machine.StepperPositions()[0]
	if pos < 999 || pos > 1000 {
		t.Errorf("x stepper at %d after ramp, want ~1000", pos)
	}
}

// A closing limit switch freezes the axis mid-gesture.
func TestRunnerLimitStop(t *testing.T) {
	r := newTestRunner(t)

	r.Exec("v 600")
	r.Run(1 * time.Second)

	// Close the switch, then let the halted model bleed off its momentum
	// before sampling the resting position.
	r.GPIO.SetInput(core.XLimitPin, false)
	r.Run(500 * time.Millisecond)
	frozen := r.Machine.StepperPositions()[0]

	r.Run(1 * time.Second)
	if got := r.Machine.StepperPositions()[0]; got < frozen-2 || got > frozen+2 {
		t.Errorf("axis moved after limit trip: %d -> %d", frozen, got)
	}
	if !r.Machine.LimitTripped(0) {
		t.Errorf("limit not latched")
	}
}

func TestRunnerTelemetry(t *testing.T) {
	r := newTestRunner(t)

	r.Exec("s 0")
	r.Exec("a 100 200")
	r.Run(2 * time.Second)

	reply := r.Exec("p")
	cmd, err := protocol.Parse(reply)
	if err != nil || cmd.Verb != "p" || len(cmd.Args) != core.NumAxes {
		t.Fatalf("telemetry reply = %q (%v)", reply, err)
	}
	for i, want := range []int64{100, 200, 0, 0} {
		if got := cmd.Args[i]; got < want-1 || got > want {
			t.Errorf("axis %d telemetry = %d, want ~%d", i, got, want)
		}
	}
	if reply := r.Exec("ping"); reply != "pong" {
		t.Errorf("ping reply = %q", reply)
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings([]byte(`{"axes": {"x": {"freq": 4.0}}, "use_limits": true}`))
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	if s.Axes["x"].Freq != 4.0 {
		t.Errorf("x freq = %v, want 4.0 from JSON", s.Axes["x"].Freq)
	}
	if s.Axes["x"].StepPin != uint8(core.XAxisStepPin) {
		t.Errorf("x step pin default = %d", s.Axes["x"].StepPin)
	}
	if s.Axes["y"].Freq != core.DefaultFreq {
		t.Errorf("y freq default = %v", s.Axes["y"].Freq)
	}
	if s.ISRIntervalUS != 50 || s.PathIntervalUS != 1000 {
		t.Errorf("cadence defaults = %d/%d", s.ISRIntervalUS, s.PathIntervalUS)
	}
	if !s.UseLimits {
		t.Errorf("use_limits not honored")
	}
}

func TestLoadSettingsRejectsGarbage(t *testing.T) {
	if _, err := LoadSettings([]byte(`{"axes": [`)); err == nil {
		t.Errorf("malformed JSON accepted")
	}
}
