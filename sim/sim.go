// Package sim runs the complete winch pipeline against virtual hardware: a
// mock GPIO driver, a mock microsecond clock and both poll cadences driven
// from a single goroutine. Time is simulated, so a multi-minute gesture
// runs in milliseconds and the result is bit-for-bit repeatable.
package sim

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"

	"winch/core"
)

// Runner owns one simulated machine.
type Runner struct {
	Machine    *core.Machine
	Dispatcher *core.Dispatcher
	GPIO       *MockGPIO

	clk    *clock.Mock
	logger golog.Logger

	isrInterval  time.Duration
	pathInterval time.Duration
	sincePath    time.Duration
}

// NewRunner builds a simulated machine from the settings. It registers the
// mock GPIO driver and clock with the core, so only one Runner can be live
// at a time.
func NewRunner(s *Settings, logger golog.Logger) (*Runner, error) {
	r := &Runner{
		GPIO:         NewMockGPIO(),
		clk:          clock.NewMock(),
		logger:       logger,
		isrInterval:  time.Duration(s.ISRIntervalUS) * time.Microsecond,
		pathInterval: time.Duration(s.PathIntervalUS) * time.Microsecond,
	}

	core.SetGPIODriver(r.GPIO)
	core.SetClockSource(func() uint32 {
		return uint32(r.clk.Now().UnixNano() / 1000)
	})

	r.Machine = core.NewMachine(s.MachineConfig())
	if err := r.Machine.Init(); err != nil {
		return nil, err
	}
	r.Dispatcher = core.NewDispatcher(r.Machine)
	return r, nil
}

// Exec feeds one protocol line to the firmware and returns its reply.
func (r *Runner) Exec(line string) string {
	reply := r.Dispatcher.Dispatch(line)
	r.logger.Debugw("exec", "line", line, "reply", reply)
	return reply
}

// Run advances simulated time. The interrupt cadence drives the step
// generators; every path interval the main loop polls the path generators
// and the limit switches, exactly as a target's event loop would.
func (r *Runner) Run(d time.Duration) {
	isrUS := uint32(r.isrInterval / time.Microsecond)
	pathUS := uint32(r.pathInterval / time.Microsecond)

	for elapsed := time.Duration(0); elapsed < d; elapsed += r.isrInterval {
		r.clk.Add(r.isrInterval)
		r.Machine.PollSteppers(isrUS)

		r.sincePath += r.isrInterval
		if r.sincePath >= r.pathInterval {
			r.sincePath -= r.pathInterval
			r.Machine.PollPaths(pathUS)
			r.Machine.PollLimits()
		}
	}

	pos := r.Machine.StepperPositions()
	r.logger.Debugw("run complete",
		"simulated", d.String(),
		"x", pos[0], "y", pos[1], "z", pos[2], "a", pos[3],
	)
}

// Now returns the current simulated time.
func (r *Runner) Now() time.Time {
	return r.clk.Now()
}
