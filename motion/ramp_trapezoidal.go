package motion

const nsPerSec = 1_000_000_000

// avr446Factor is the largest integer for which 2*factor*factor does not
// overflow a uint64, maximising isqrt's precision without overflowing
// (spec §4.3 "Helpers").
const avr446Factor = 3_037_000_499

// TrapezoidalProfile configures an AVR446 trapezoidal ramp: a target cruise
// interval plus independent acceleration and deceleration rates in
// steps/s^2. Both rates must be non-zero.
type TrapezoidalProfile struct {
	RunIntervalNs    uint64
	AccelerationRate uint32
	DecelerationRate uint32
}

// TrapezoidalRamp is the AVR446 trapezoidal Ramp variant (spec §4.3).
type TrapezoidalRamp struct {
	profile TrapezoidalProfile

	currentInterval        uint64
	runInterval            uint64
	firstAccelInterval     uint64
	lastDecelInterval      uint64
	intervalRemainder      uint64
	accelerationIdx        uint32
	preDecelStepsLeft      uint32
	accelStepsLeft         uint32
	runStepsLeft           uint32
	decelStepsLeft         uint32
}

// NewTrapezoidalRamp constructs a ramp at rest for the given profile.
func NewTrapezoidalRamp(profile TrapezoidalProfile) *TrapezoidalRamp {
	return &TrapezoidalRamp{profile: profile}
}

// CurrentIntervalNs reports the ramp's current "are we moving and how fast"
// state. Zero means at rest. Controller does not consult it; MoveBy picks
// its re-targeting branch from the controller's own progress state.
func (r *TrapezoidalRamp) CurrentIntervalNs() uint64 {
	return r.currentInterval
}

// startInterval computes the nanosecond period for the first acceleration
// step from rest, with the AVR446 0.676 first-interval correction factor.
// Returns 0 if acceleration is zero (caller's responsibility to reject).
func startInterval(acceleration uint32) uint64 {
	if acceleration == 0 {
		return 0
	}

	const factor = avr446Factor
	return nsPerSec * 676 / 1000 * isqrt(2*uint64(factor)*uint64(factor)/uint64(acceleration)) / factor
}

// clampedSub returns a-b, or 0 if that would wrap around (unsigned
// subtraction underflow).
func clampedSub(a, b uint32) uint32 {
	if a >= b {
		return a - b
	}
	return 0
}

// stepsToChange returns the number of steps needed to accelerate from rest
// to, or decelerate to rest from, the velocity represented by intervalNs, at
// the given rate: v^2 / (2*a). Zero interval means zero steps.
func stepsToChange(intervalNs uint64, rate uint32) uint32 {
	if intervalNs == 0 {
		return 0
	}

	hz := nsPerSec / intervalNs
	return uint32(hz * hz / (2 * uint64(rate)))
}

// PrepareMove plans a movement of exactly steps pulses, following the
// AVR446 planning algorithm of spec §4.3 verbatim from the original
// stepper_ramp_trapezoidal.c.
func (r *TrapezoidalRamp) PrepareMove(steps uint32) uint64 {
	profile := r.profile

	r.firstAccelInterval = startInterval(profile.AccelerationRate)
	r.lastDecelInterval = startInterval(profile.DecelerationRate)

	// steps needed to stop from the current velocity
	stopLim := stepsToChange(r.currentInterval, profile.DecelerationRate)
	// steps needed to speed up from zero to the requested velocity
	accelLim := stepsToChange(profile.RunIntervalNs, profile.AccelerationRate)
	// steps needed to decelerate from the requested velocity to zero
	decelLim := stepsToChange(profile.RunIntervalNs, profile.DecelerationRate)

	if r.currentInterval != 0 && r.currentInterval < profile.RunIntervalNs {
		// requested velocity is slower than the current one: slow down.

		// Steps needed to decelerate from the current velocity to the
		// requested one. stop_lim < decel_lim is possible when the motor
		// is already moving close to the cruise speed (spec §9 open
		// question); clamp instead of wrapping around as an unsigned
		// subtraction would.
		r.preDecelStepsLeft = clampedSub(stopLim, decelLim)

		r.accelStepsLeft = 0

		totalDecelSteps := r.preDecelStepsLeft + decelLim
		if totalDecelSteps < steps {
			r.runStepsLeft = steps - totalDecelSteps
		} else {
			r.runStepsLeft = 0
		}

		r.accelerationIdx = accelLim
		r.decelStepsLeft = decelLim
	}

	if r.currentInterval == 0 || r.currentInterval > profile.RunIntervalNs {
		// requested velocity is faster than the current one: speed up.

		r.preDecelStepsLeft = 0

		// steps needed to speed up from the current velocity to the
		// requested one (additional acceleration on top of where the
		// current velocity already sits on the profile)
		r.accelStepsLeft = accelLim - stopLim

		if uint64(r.accelStepsLeft)+uint64(decelLim) >= uint64(steps) {
			// triangular trajectory: no cruise phase, split the
			// available steps so that accel_steps : decel_steps is
			// decel_rate : accel_rate (the faster-changing phase takes
			// fewer steps).
			r.decelStepsLeft = steps * profile.AccelerationRate /
				(profile.DecelerationRate + profile.AccelerationRate)
			r.accelStepsLeft = steps - r.decelStepsLeft
		} else {
			r.decelStepsLeft = decelLim
		}

		r.runStepsLeft = steps - r.accelStepsLeft - r.decelStepsLeft
		r.accelerationIdx = 0
	}

	r.runInterval = profile.RunIntervalNs

	return uint64(r.preDecelStepsLeft) + uint64(r.accelStepsLeft) +
		uint64(r.runStepsLeft) + uint64(r.decelStepsLeft)
}

// PrepareStop rewrites the plan to brake to rest from the current interval.
// Returns the number of pulses in the deceleration tail (0 if at rest).
func (r *TrapezoidalRamp) PrepareStop() uint64 {
	decelSteps := stepsToChange(r.currentInterval, r.profile.DecelerationRate)

	r.preDecelStepsLeft = 0
	r.accelStepsLeft = 0
	r.runStepsLeft = 0
	r.runInterval = 0
	r.decelStepsLeft = decelSteps

	return uint64(decelSteps)
}

// GetNextInterval advances the per-step AVR446 recurrence, phase precedence
// pre-decel -> accel -> run -> decel (spec §4.3).
func (r *TrapezoidalRamp) GetNextInterval() uint64 {
	switch {
	case r.preDecelStepsLeft > 0:
		r.calculateNextPreDecelStep()
	case r.accelStepsLeft > 0:
		r.calculateNextAccelStep()
	case r.runStepsLeft > 0:
		r.runStepsLeft--
		r.currentInterval = r.runInterval
	case r.decelStepsLeft > 0:
		r.calculateNextDecelStep()
	default:
		r.currentInterval = 0
	}

	return r.currentInterval
}

func (r *TrapezoidalRamp) calculateNextAccelStep() {
	r.accelStepsLeft--

	if r.accelerationIdx == 0 {
		r.accelerationIdx++
		r.intervalRemainder = 0
		r.currentInterval = r.firstAccelInterval
		return
	}
	r.accelerationIdx++

	numerator := 2*r.currentInterval + r.intervalRemainder
	denominator := 4 * uint64(r.accelerationIdx)

	r.intervalRemainder = numerator % denominator
	r.currentInterval -= numerator / denominator
}

func (r *TrapezoidalRamp) calculateNextPreDecelStep() {
	numerator := 2*r.currentInterval + r.intervalRemainder
	denominator := 4 * uint64(r.preDecelStepsLeft+r.decelStepsLeft)

	r.intervalRemainder = numerator % denominator
	r.currentInterval += numerator / denominator

	r.preDecelStepsLeft--
}

func (r *TrapezoidalRamp) calculateNextDecelStep() {
	r.decelStepsLeft--
	if r.decelStepsLeft == 0 {
		r.intervalRemainder = 0
		r.currentInterval = r.lastDecelInterval
		return
	}

	numerator := 2*r.currentInterval + r.intervalRemainder
	denominator := 4 * uint64(r.decelStepsLeft)

	r.intervalRemainder = numerator % denominator
	r.currentInterval += numerator / denominator
}
