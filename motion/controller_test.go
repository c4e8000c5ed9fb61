package motion

import "testing"

type fakeDriver struct {
	dir   Direction
	steps []Direction
}

func (d *fakeDriver) Step() {
	d.steps = append(d.steps, d.dir)
}

func (d *fakeDriver) SetDirection(dir Direction) {
	d.dir = dir
}

func (d *fakeDriver) Stop() {}

// fakeTiming is a synchronous stand-in for a hardware timer: ArmAfter just
// records the pending callback, and runToCompletion drives it until the
// controller disarms.
type fakeTiming struct {
	pending  func()
	interval uint64
	armCount int
}

func (f *fakeTiming) ArmAfter(intervalNs uint64, callback func()) {
	f.interval = intervalNs
	f.pending = callback
	f.armCount++
}

func (f *fakeTiming) Disarm() {
	f.pending = nil
}

// runToCompletion fires the pending callback until the timing source is
// disarmed, guarding against an infinite loop with a generous cap.
func (f *fakeTiming) runToCompletion(t *testing.T) {
	t.Helper()
	for i := 0; i < 2_000_000; i++ {
		cb := f.pending
		if cb == nil {
			return
		}
		cb()
	}
	t.Fatal("timing source never disarmed")
}

// runSteps fires the pending callback exactly n times.
func (f *fakeTiming) runSteps(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		cb := f.pending
		if cb == nil {
			t.Fatalf("timing source disarmed after %d/%d steps", i, n)
		}
		cb()
	}
}

func newTestController() (*Controller, *fakeDriver, *fakeTiming) {
	driver := &fakeDriver{}
	timing := &fakeTiming{}
	c := NewController(driver, timing)
	return c, driver, timing
}

// Scenario 1: constant cruise.
func TestScenarioConstantCruise(t *testing.T) {
	c, driver, timing := newTestController()
	c.SetRamp(NewConstantRamp(ConstantProfile{IntervalNs: 1_000_000}))

	var events []MotionEvent
	c.SetMotionEventCallback(func(e MotionEvent) { events = append(events, e) })

	if err := c.MoveBy(5); err != nil {
		t.Fatalf("MoveBy(5) = %v", err)
	}
	timing.runToCompletion(t)

	if len(driver.steps) != 5 {
		t.Fatalf("got %d steps, want 5", len(driver.steps))
	}
	for i, d := range driver.steps {
		if d != Positive {
			t.Fatalf("step %d direction = %v, want positive", i, d)
		}
	}
	if len(events) != 1 || events[0] != EventStepsCompleted {
		t.Fatalf("events = %v, want [StepsCompleted]", events)
	}
	if c.IsMoving() {
		t.Fatal("IsMoving() = true after completion")
	}
}

// Scenario 3: negative move from rest.
func TestScenarioNegativeMove(t *testing.T) {
	c, driver, timing := newTestController()
	c.SetRamp(NewConstantRamp(ConstantProfile{IntervalNs: 1_000_000}))

	if err := c.MoveBy(-10); err != nil {
		t.Fatalf("MoveBy(-10) = %v", err)
	}
	if driver.dir != Negative {
		t.Fatalf("direction latched before first step = %v, want negative", driver.dir)
	}
	timing.runToCompletion(t)

	if len(driver.steps) != 10 {
		t.Fatalf("got %d steps, want 10", len(driver.steps))
	}
	for i, d := range driver.steps {
		if d != Negative {
			t.Fatalf("step %d direction = %v, want negative", i, d)
		}
	}
}

// Scenario 6: continuous run never decrements and keeps is_moving() true.
func TestScenarioContinuousRun(t *testing.T) {
	c, driver, timing := newTestController()
	c.SetRamp(NewConstantRamp(ConstantProfile{IntervalNs: 1_000}))

	var events []MotionEvent
	c.SetMotionEventCallback(func(e MotionEvent) { events = append(events, e) })

	if err := c.Run(Positive); err != nil {
		t.Fatalf("Run(Positive) = %v", err)
	}
	timing.runSteps(t, 10_000)

	if !c.IsMoving() {
		t.Fatal("IsMoving() = false after 10000 pulses of a continuous run")
	}
	if len(driver.steps) != 10_000 {
		t.Fatalf("got %d steps, want 10000", len(driver.steps))
	}
	if len(events) != 0 {
		t.Fatalf("events fired during continuous run: %v", events)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	timing.runToCompletion(t)

	if c.IsMoving() {
		t.Fatal("IsMoving() = true after Stop() completed")
	}
	if len(events) != 1 || events[0] != EventStepsCompleted {
		t.Fatalf("events after stop = %v, want [StepsCompleted]", events)
	}
}

// P1 (step conservation) + P2 (direction discipline).
func TestStepConservationAndDirectionDiscipline(t *testing.T) {
	c, driver, timing := newTestController()
	c.SetRamp(NewTrapezoidalRamp(TrapezoidalProfile{
		RunIntervalNs: 1_000_000, AccelerationRate: 500, DecelerationRate: 500,
	}))

	const n = 1000
	if err := c.MoveBy(n); err != nil {
		t.Fatalf("MoveBy(%d) = %v", n, err)
	}
	timing.runToCompletion(t)

	if len(driver.steps) != n {
		t.Fatalf("got %d steps, want %d", len(driver.steps), n)
	}
	for i, d := range driver.steps {
		if d != Positive {
			t.Fatalf("step %d direction = %v, want positive", i, d)
		}
	}
}

// Scenario 4 / P9: reversal mid-flight brakes first, flips direction
// exactly once, and emits exactly one steps_completed.
func TestReversalMidFlight(t *testing.T) {
	c, driver, timing := newTestController()
	c.SetRamp(NewTrapezoidalRamp(TrapezoidalProfile{
		RunIntervalNs: 1_000_000, AccelerationRate: 500, DecelerationRate: 500,
	}))

	var events []MotionEvent
	c.SetMotionEventCallback(func(e MotionEvent) { events = append(events, e) })

	if err := c.MoveBy(200); err != nil {
		t.Fatalf("MoveBy(200) = %v", err)
	}
	timing.runSteps(t, 20)

	if err := c.MoveBy(-100); err != nil {
		t.Fatalf("MoveBy(-100) = %v", err)
	}

	// No pulse before the reversal may have fired in the wrong direction;
	// in particular the 20 already-emitted pulses stay positive.
	for i := 0; i < 20; i++ {
		if driver.steps[i] != Positive {
			t.Fatalf("pre-reversal step %d = %v, want positive", i, driver.steps[i])
		}
	}

	timing.runToCompletion(t)

	flips := 0
	for i := 1; i < len(driver.steps); i++ {
		if driver.steps[i] != driver.steps[i-1] {
			flips++
		}
	}
	if flips != 1 {
		t.Fatalf("direction flipped %d times, want exactly 1 (steps=%v)", flips, driver.steps)
	}

	negCount := 0
	for _, d := range driver.steps {
		if d == Negative {
			negCount++
		}
	}
	if negCount != 100 {
		t.Fatalf("negative-direction steps = %d, want 100", negCount)
	}

	completions := 0
	for _, e := range events {
		if e == EventStepsCompleted {
			completions++
		}
	}
	if completions != 1 {
		t.Fatalf("steps_completed fired %d times, want exactly once", completions)
	}
}

// Scenario 5: stopping mid-cruise decelerates for exactly the deceleration
// tail's worth of steps.
func TestStopDuringCruise(t *testing.T) {
	profile := TrapezoidalProfile{RunIntervalNs: 1_000_000, AccelerationRate: 200, DecelerationRate: 200}
	c, driver, timing := newTestController()
	ramp := NewTrapezoidalRamp(profile)
	c.SetRamp(ramp)

	if err := c.MoveBy(10_000); err != nil {
		t.Fatalf("MoveBy(10000) = %v", err)
	}
	timing.runSteps(t, 5000)

	wantTail := stepsToChange(profile.RunIntervalNs, profile.DecelerationRate)

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	timing.runToCompletion(t)

	got := uint32(len(driver.steps)) - 5000
	if got != wantTail {
		t.Fatalf("steps emitted after Stop() = %d, want %d", got, wantTail)
	}
}

func TestSetRampRejectedWhileMoving(t *testing.T) {
	c, _, _ := newTestController()
	c.SetRamp(NewConstantRamp(ConstantProfile{IntervalNs: 1_000_000}))
	if err := c.MoveBy(100); err != nil {
		t.Fatalf("MoveBy(100) = %v", err)
	}

	err := c.SetRamp(NewConstantRamp(ConstantProfile{IntervalNs: 500_000}))
	if err != ErrBusy {
		t.Fatalf("SetRamp while moving = %v, want ErrBusy", err)
	}
}

func TestMoveByZeroCompletesSynchronously(t *testing.T) {
	c, driver, _ := newTestController()
	c.SetRamp(NewConstantRamp(ConstantProfile{IntervalNs: 1_000_000}))

	var events []MotionEvent
	c.SetMotionEventCallback(func(e MotionEvent) { events = append(events, e) })

	if err := c.MoveBy(0); err != nil {
		t.Fatalf("MoveBy(0) = %v", err)
	}
	if len(driver.steps) != 0 {
		t.Fatalf("MoveBy(0) emitted %d steps, want 0", len(driver.steps))
	}
	if len(events) != 1 || events[0] != EventStepsCompleted {
		t.Fatalf("events = %v, want [StepsCompleted]", events)
	}
}

func TestMoveToUsesTrackedPosition(t *testing.T) {
	c, driver, timing := newTestController()
	c.SetRamp(NewConstantRamp(ConstantProfile{IntervalNs: 1_000_000}))
	c.SetPosition(10)

	if err := c.MoveTo(15); err != nil {
		t.Fatalf("MoveTo(15) = %v", err)
	}
	timing.runToCompletion(t)

	if len(driver.steps) != 5 {
		t.Fatalf("got %d steps, want 5", len(driver.steps))
	}
	if pos := c.GetPosition(); pos != 15 {
		t.Fatalf("GetPosition() = %d, want 15", pos)
	}
}

func TestHandleHardwareEventPassesThrough(t *testing.T) {
	c, _, _ := newTestController()

	var seen HardwareEventKind
	var hwFired bool
	c.SetHardwareEventCallback(func(kind HardwareEventKind) { seen = kind; hwFired = true })

	var motionEvents []MotionEvent
	c.SetMotionEventCallback(func(e MotionEvent) { motionEvents = append(motionEvents, e) })

	c.HandleHardwareEvent(EventStallDetected)

	if !hwFired || seen != EventStallDetected {
		t.Fatalf("hardware callback fired=%v kind=%v, want stall_detected", hwFired, seen)
	}
	if len(motionEvents) != 1 || motionEvents[0] != EventStopped {
		t.Fatalf("motion events = %v, want [Stopped]", motionEvents)
	}
}
