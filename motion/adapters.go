package motion

// StepDriver is the hardware seam the controller drives: one pulse, one
// direction change, one emergency halt. Grounded on the source wrapper's
// three-callback surface (step, set_direction, event) and on the teacher's
// core.StepperBackend interface shape.
type StepDriver interface {
	// Step emits a single step pulse on the currently configured direction.
	Step()

	// SetDirection sets the direction line ahead of the next Step call.
	SetDirection(dir Direction)

	// Stop asks the driver to cut power or otherwise come to an immediate,
	// uncontrolled halt. Controller never calls it: Controller.Stop always
	// plans a deceleration (PrepareStop), and when that tail is empty it only
	// disarms the timing source and clears its progress.
	Stop()
}

// MicroStepSetter is an optional capability: drivers backed by a chip like
// the TMC2209 can change micro-step resolution at runtime. Controller.Stop
// and friends never require it; callers type-assert for it.
type MicroStepSetter interface {
	SetMicroStepResolution(resolution uint16) error
}

// TimingSource arms and disarms the single hardware timer the controller
// schedules its next step against. ArmAfter schedules a callback to fire
// once, intervalNs nanoseconds from now; Disarm cancels a pending callback.
// Grounded on the teacher's core.Timer/core.ScheduleTimer pairing.
type TimingSource interface {
	ArmAfter(intervalNs uint64, callback func())
	Disarm()
}

// HardwareEventKind enumerates the asynchronous faults and limits a step
// driver can report outside of the step/interval protocol, passed through
// to MotionEventCallback untouched (spec §6).
type HardwareEventKind int

const (
	EventStallDetected HardwareEventKind = iota
	EventLeftEndstopDetected
	EventRightEndstopDetected
	EventFaultDetected
)

func (k HardwareEventKind) String() string {
	switch k {
	case EventStallDetected:
		return "stall_detected"
	case EventLeftEndstopDetected:
		return "left_end_stop_detected"
	case EventRightEndstopDetected:
		return "right_end_stop_detected"
	case EventFaultDetected:
		return "fault_detected"
	default:
		return "unknown_hardware_event"
	}
}
