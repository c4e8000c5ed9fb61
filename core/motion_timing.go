package core

// MotionTimer adapts the scheduler's Timer to motion.TimingSource: ArmAfter
// converts a nanosecond interval to ticks and schedules a one-shot callback;
// Disarm cancels it. Grounded on core/timer.go's tick domain and
// core/scheduler.go's Timer/ScheduleTimer pairing.
type MotionTimer struct {
	timer Timer
	armed bool
}

// NewMotionTimer constructs a disarmed MotionTimer.
func NewMotionTimer() *MotionTimer {
	return &MotionTimer{}
}

// ArmAfter schedules callback to run once intervalNs nanoseconds from now.
func (m *MotionTimer) ArmAfter(intervalNs uint64, callback func()) {
	m.armed = true
	m.timer.WakeTime = GetTime() + nsToTicks(intervalNs)
	m.timer.Handler = func(t *Timer) uint8 {
		if m.armed {
			m.armed = false
			callback()
		}
		return SF_DONE
	}
	ScheduleTimer(&m.timer)
}

// Disarm cancels a pending callback, if any. The in-flight Timer entry (if
// already due) is neutralised by the armed flag rather than unlinked from
// the scheduler's list, matching the scheduler's forward-only design.
func (m *MotionTimer) Disarm() {
	m.armed = false
}

// nsToTicks converts a nanosecond interval to timer ticks via the
// microsecond helpers core/timer.go already exposes; sub-microsecond
// precision is not representable on this tick domain.
func nsToTicks(ns uint64) uint32 {
	us := ns / 1000
	if us > 0xFFFFFFFF {
		us = 0xFFFFFFFF
	}
	return TimerFromUS(uint32(us))
}
