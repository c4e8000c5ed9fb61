package motion

// continuousChunkSteps is the step count handed to the installed ramp for a
// Run: the ramp interface only knows how to plan a bounded move, so a
// continuous run is planned as a very large one and silently replanned if
// it ever actually runs out (see Controller.onPlanExhaustedLocked). This
// plays the role of the source's INT32_MAX sentinel magnitude, confined to
// the ramp layer instead of leaking into the outstanding-step counter.
const continuousChunkSteps = 1<<31 - 1

// pendingMove is a move queued behind an in-flight deceleration, used only
// for the reversal path of MoveBy/Run: the controller must brake to rest in
// the old direction before it can honour a request in the opposite one.
type pendingMove struct {
	continuous bool
	direction  Direction
	signed     int32 // meaningful only when !continuous
}

// Controller is the motion controller state machine of spec §4.4: it
// consumes ramp intervals, re-arms the timing source, tracks direction and
// position, manages reversal, and emits motion events. One Controller per
// physical axis.
//
// Every exported method takes the package's short critical section for its
// whole body; the timer callback (onTimerFire) does the same, so API calls
// and the callback never observe a torn (ramp, direction, prog) tuple.
type Controller struct {
	ramp   Ramp
	driver StepDriver
	timing TimingSource

	eventCallback         MotionEventCallback
	hardwareEventCallback HardwareEventCallback

	direction Direction
	position  int32
	prog      progress
	pending   *pendingMove
}

// NewController wires a Controller to its step driver and timing source.
// Install a ramp with SetRamp before issuing any move.
func NewController(driver StepDriver, timing TimingSource) *Controller {
	return &Controller{driver: driver, timing: timing, direction: Positive}
}

// SetRamp installs ramp as the active velocity profile generator. Refused
// with ErrBusy while the controller is moving (spec §9 open question,
// resolved conservatively), and with ErrInvalidArgument for a trapezoidal
// ramp whose acceleration or deceleration rate is zero.
func (c *Controller) SetRamp(ramp Ramp) error {
	s := lock()
	defer unlock(s)

	if !c.prog.isZero() {
		return ErrBusy
	}
	if t, ok := ramp.(*TrapezoidalRamp); ok &&
		(t.profile.AccelerationRate == 0 || t.profile.DecelerationRate == 0) {
		return ErrInvalidArgument
	}
	c.ramp = ramp
	return nil
}

// SetMotionEventCallback installs the callback invoked for EventStepsCompleted
// and EventStopped notifications.
func (c *Controller) SetMotionEventCallback(cb MotionEventCallback) {
	s := lock()
	defer unlock(s)
	c.eventCallback = cb
}

// SetHardwareEventCallback installs the callback invoked for asynchronous
// driver-reported events passed through HandleHardwareEvent.
func (c *Controller) SetHardwareEventCallback(cb HardwareEventCallback) {
	s := lock()
	defer unlock(s)
	c.hardwareEventCallback = cb
}

// IsMoving reports whether the controller believes the motor is moving.
func (c *Controller) IsMoving() bool {
	s := lock()
	defer unlock(s)
	return !c.prog.isZero()
}

// GetPosition returns the tracked absolute position.
func (c *Controller) GetPosition() int32 {
	s := lock()
	defer unlock(s)
	return c.position
}

// SetPosition overwrites the tracked absolute position, typically used at
// startup or after a homing sequence.
func (c *Controller) SetPosition(pos int32) {
	s := lock()
	defer unlock(s)
	c.position = pos
}

// MoveBy plans a relative move of signedMicrosteps, whose sign is the
// direction of travel. See spec §4.4 for the reversal decision.
func (c *Controller) MoveBy(signedMicrosteps int32) error {
	s := lock()
	defer unlock(s)
	return c.moveByLocked(signedMicrosteps)
}

// MoveTo computes the delta to absolute from the tracked position and
// defers to MoveBy.
func (c *Controller) MoveTo(absolute int32) error {
	s := lock()
	defer unlock(s)
	return c.moveByLocked(absolute - c.position)
}

// Run starts continuous rotation in dir; it runs until Stop is called.
func (c *Controller) Run(dir Direction) error {
	s := lock()
	defer unlock(s)

	if c.ramp == nil {
		return ErrInvalidArgument
	}

	if !c.prog.isZero() && dir != c.direction {
		decelTail := c.ramp.PrepareStop()
		c.pending = &pendingMove{continuous: true, direction: dir}
		c.prog = finiteProgress(signed(c.direction, decelTail))
		c.advanceLocked()
		return nil
	}

	c.direction = dir
	c.driver.SetDirection(dir)
	c.ramp.PrepareMove(continuousChunkSteps)
	c.prog = continuousProgress(dir)
	c.advanceLocked()
	return nil
}

// Stop requests a decelerated halt. It never tears down an in-flight pulse;
// the current step completes, then deceleration begins.
func (c *Controller) Stop() error {
	s := lock()
	defer unlock(s)

	if c.ramp == nil {
		return ErrInvalidArgument
	}

	c.pending = nil
	wasMoving := !c.prog.isZero()
	decelTail := c.ramp.PrepareStop()
	recordTrace(EvtPlanStop, c.position, uint32(decelTail))
	if decelTail == 0 {
		c.prog = progress{}
		c.timing.Disarm()
		if wasMoving {
			c.emitLocked(EventStepsCompleted)
		}
		return nil
	}

	c.prog = finiteProgress(signed(c.direction, decelTail))
	c.advanceLocked()
	return nil
}

// HandleHardwareEvent passes an asynchronous driver-reported event through
// to the installed hardware callback and raises EventStopped on the motion
// event callback, mirroring the source wrapper's transparent pass-through.
func (c *Controller) HandleHardwareEvent(kind HardwareEventKind) {
	s := lock()
	defer unlock(s)

	if c.hardwareEventCallback != nil {
		c.hardwareEventCallback(kind)
	}
	c.emitLocked(EventStopped)
}

func (c *Controller) moveByLocked(signedMicrosteps int32) error {
	if c.ramp == nil {
		return ErrInvalidArgument
	}
	if signedMicrosteps == 0 {
		c.emitLocked(EventStepsCompleted)
		return nil
	}

	newDir := Sign(signedMicrosteps)
	if !c.prog.isZero() && newDir != c.direction {
		// Re-target after reversal: brake first in the old direction,
		// chain the real move behind the brake. Direction is not flipped
		// yet.
		decelTail := c.ramp.PrepareStop()
		recordTrace(EvtReversal, c.position, uint32(decelTail))
		c.pending = &pendingMove{direction: newDir, signed: signedMicrosteps}
		c.prog = finiteProgress(signed(c.direction, decelTail))
		c.advanceLocked()
		return nil
	}

	c.direction = newDir
	c.driver.SetDirection(newDir)
	total := c.ramp.PrepareMove(absU32(signedMicrosteps))
	recordTrace(EvtPlanMove, c.position, uint32(total))
	debugPrint("[MOTION] move_by " + itoa(int(signedMicrosteps)) + " planned=" + itoa(int(total)))
	c.prog = finiteProgress(signed(newDir, total))
	c.advanceLocked()
	return nil
}

func (c *Controller) launchPendingLocked() {
	pending := c.pending
	c.pending = nil

	c.direction = pending.direction
	c.driver.SetDirection(pending.direction)

	if pending.continuous {
		c.ramp.PrepareMove(continuousChunkSteps)
		c.prog = continuousProgress(pending.direction)
	} else {
		total := c.ramp.PrepareMove(absU32(pending.signed))
		c.prog = finiteProgress(signed(pending.direction, total))
	}
	c.advanceLocked()
}

// onTimerFire is the controller's single entry point from the timing
// source (spec §4.4): emit one pulse, account for it, then schedule (or
// conclude) the plan.
func (c *Controller) onTimerFire() {
	s := lock()
	defer unlock(s)

	c.driver.Step()
	c.position += int32(c.direction)
	c.prog = c.prog.advance()
	recordTrace(EvtTimerFire, c.position, 0)
	c.advanceLocked()
}

// advanceLocked asks the ramp for the next interval and either re-arms the
// timing source or winds down the current plan.
func (c *Controller) advanceLocked() {
	interval := c.ramp.GetNextInterval()
	if interval == 0 {
		c.onPlanExhaustedLocked()
		return
	}
	recordTrace(EvtTimerArm, c.position, uint32(interval))
	c.timing.ArmAfter(interval, c.onTimerFire)
}

func (c *Controller) onPlanExhaustedLocked() {
	c.timing.Disarm()

	if c.pending != nil {
		c.launchPendingLocked()
		return
	}
	if c.prog.continuous {
		// The ramp's internal step budget for this Run chunk ran out;
		// replan the same unbounded run instead of surfacing a spurious
		// completion.
		c.ramp.PrepareMove(continuousChunkSteps)
		c.advanceLocked()
		return
	}

	c.prog = progress{}
	recordTrace(EvtCompleted, c.position, 0)
	debugPrint("[MOTION] steps_completed position=" + itoa(int(c.position)))
	c.emitLocked(EventStepsCompleted)
}

func (c *Controller) emitLocked(event MotionEvent) {
	if c.eventCallback != nil {
		c.eventCallback(event)
	}
}

func signed(dir Direction, mag uint64) int32 {
	return int32(dir) * int32(mag)
}

func absU32(x int32) uint32 {
	if x < 0 {
		return uint32(-x)
	}
	return uint32(x)
}
