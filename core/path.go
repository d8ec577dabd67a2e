package core

// Path generator for a single winch channel.
// Simulates a virtual second-order system (unit mass, spring, damper) chasing
// a reference trajectory that ramps toward the user target at a bounded
// speed. The integer model position is handed to the step generator between
// polls, turning sparse serial commands into smooth gestural motion.

import "math"

// Default second-order response and safety limits. The velocity limit is a
// typical physical ceiling for 4x microstepping.
const (
	DefaultFreq    = 2.0 // natural frequency, Hz
	DefaultDamping = 1.0 // critical damping
	DefaultQdMax   = 2400.0
	DefaultQddMax  = 24000.0
)

// Path holds the virtual model state for one channel. All quantities are in
// dimensionless steps; with a microstepping driver these may be smaller than
// a physical motor step. Path is foreground-only: it is polled from the main
// event loop and never touched from an interrupt.
type Path struct {
	q     float64 // model position
	qd    float64 // model velocity, steps/s
	qRef  float64 // reference position fed into the filter
	qdRef float64 // reference velocity, steps/s

	qTarget float64 // user target; +/-Inf means run indefinitely in that direction
	speed   float64 // ramp rate magnitude; +Inf moves the reference in steps, not ramps

	t float64 // accumulated model time, s
	k float64 // proportional gain, 1/s^2
	b float64 // derivative gain, 1/s

	qdMax  float64 // model velocity clamp, steps/s
	qddMax float64 // model acceleration clamp, steps/s^2
}

// NewPath returns a path generator at rest with the default response
// (2 Hz natural frequency, critically damped) and default limits.
func NewPath() *Path {
	p := &Path{
		speed:  math.Inf(1),
		qdMax:  DefaultQdMax,
		qddMax: DefaultQddMax,
	}
	p.SetFreqDamping(DefaultFreq, DefaultDamping)
	return p
}

// SetTarget sets the absolute target position in dimensionless steps.
func (p *Path) SetTarget(position int64) {
	p.qTarget = float64(position)
}

// IncrementTarget adds a signed offset to the target position.
func (p *Path) IncrementTarget(offset int64) {
	p.qTarget += float64(offset)
}

// IncrementReference adds a signed offset to the reference position. This
// applies a triangular impulse: the reference jumps, then ramps back toward
// the target.
func (p *Path) IncrementReference(offset int64) {
	p.qRef += float64(offset)
}

// SetSpeed sets the ramp speed in steps/second. Zero or negative speed is
// treated as unlimited: the reference position snaps to the target in one
// poll instead of ramping.
func (p *Path) SetSpeed(speed int64) {
	if speed <= 0 {
		p.speed = math.Inf(1)
	} else {
		p.speed = float64(speed)
	}
}

// SetVelocity sets a signed ramp velocity in steps/second and aims the
// target at the matching infinity, so the channel keeps moving at that rate
// until retargeted.
func (p *Path) SetVelocity(velocity int64) {
	p.speed = math.Abs(float64(velocity))
	if velocity >= 0 {
		p.qTarget = math.Inf(1)
	} else {
		p.qTarget = math.Inf(-1)
	}
}

// SetPDGains sets the second-order model gains directly.
func (p *Path) SetPDGains(k, b float64) {
	p.k = k
	p.b = b
}

// SetFreqDamping sets the model gains from a natural frequency in Hz and a
// damping ratio (1.0 is critical damping).
func (p *Path) SetFreqDamping(freq, damping float64) {
	// freq = (1/2pi) * sqrt(k/m); k = (freq*2*pi)^2
	k := freq * freq * 4 * math.Pi * math.Pi
	p.k = k
	p.b = 2 * math.Sqrt(k) * damping
}

// SetLimits sets the model velocity and acceleration clamps.
func (p *Path) SetLimits(qdMax, qddMax float64) {
	p.qdMax = qdMax
	p.qddMax = qddMax
}

// Halt stops the channel where it stands: target and reference collapse
// onto the current model position and the reference velocity zeroes. The
// filter then bleeds off whatever model velocity remains.
func (p *Path) Halt() {
	p.qTarget = p.q
	p.qRef = p.q
	p.qdRef = 0
}

// CurrentPosition returns the model position truncated toward zero.
func (p *Path) CurrentPosition() int64 {
	return int64(p.q)
}

// CurrentVelocity returns the model velocity in steps/second, truncated
// toward zero.
func (p *Path) CurrentVelocity() int64 {
	return int64(p.qd)
}

// Time returns the accumulated model time in seconds.
func (p *Path) Time() float64 {
	return p.t
}

// Poll integrates the model over one interval given in microseconds. It is
// called from the main event loop, never from an interrupt. Poll cannot
// fail; out-of-range dynamics saturate at the configured limits.
func (p *Path) Poll(intervalUS uint32) {
	dt := 1e-6 * float64(intervalUS)

	// Virtual spring-damper acceleration toward the reference, clamped for
	// safety before integrating.
	qdd := p.k*(p.qRef-p.q) + p.b*(p.qdRef-p.qd)
	qdd = clamp(qdd, -p.qddMax, p.qddMax)

	// Forward Euler: position first, then velocity.
	p.q += p.qd * dt
	p.qd += qdd * dt
	p.t += dt

	p.qd = clamp(p.qd, -p.qdMax, p.qdMax)

	// Advance the reference trajectory by linear interpolation. This makes
	// steps or ramps; the filter above smooths whatever remains.
	err := p.qTarget - p.qRef

	if err == 0 {
		// On target: zero the reference velocity, leave the position alone.
		p.qdRef = 0
	} else if math.IsInf(p.speed, 1) {
		// Unlimited speed: adjust the reference in a single step.
		p.qRef = p.qTarget
		p.qdRef = 0
	} else {
		// Bound the step to the ramp speed, keeping the sign of motion.
		stepMax := p.speed * dt
		if err > 0 {
			p.qRef += math.Min(stepMax, err)
			p.qdRef = p.speed
		} else {
			p.qRef -= math.Min(stepMax, -err)
			p.qdRef = -p.speed
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
