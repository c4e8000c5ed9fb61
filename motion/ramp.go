package motion

// Ramp is the common contract implemented by every velocity-profile
// generator. All three operations are total, synchronous and non-blocking:
// no allocation, no I/O, safe to call from a real-time critical section.
//
// This replaces the source's function-pointer-table "inheritance" (a
// struct-prefix-aliasing downcast) with a plain Go interface, per spec §9.
type Ramp interface {
	// PrepareMove plans a movement of exactly steps pulses starting from
	// the ramp's current state, and returns the total number of pulses the
	// plan will emit (see each variant for how that total is derived).
	PrepareMove(steps uint32) uint64

	// PrepareStop rewrites the plan so the motor decelerates to rest from
	// its current interval, returning the number of pulses in the
	// deceleration tail (0 if already at rest).
	PrepareStop() uint64

	// GetNextInterval returns the interval in nanoseconds until the next
	// pulse and advances internal state by one step. Returns 0 to signal
	// that the plan is complete.
	GetNextInterval() uint64
}
