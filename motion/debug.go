package motion

// DebugWriter is a function type for writing debug messages, platform
// supplied so the package stays free of any concrete logging dependency.
type DebugWriter func(string)

// Trace event type codes, captured in the timing ring for post-mortem
// inspection after a stall or unexpected stop.
const (
	EvtPlanMove    = 1 // PrepareMove planned a new trajectory
	EvtPlanStop    = 2 // PrepareStop planned a deceleration
	EvtTimerArm    = 3 // timing source armed with a new interval
	EvtTimerFire   = 4 // timing source fired, a pulse was emitted
	EvtReversal    = 5 // reversal detected, braking before the real move
	EvtCompleted   = 6 // a plan completed and steps_completed was raised
)

// TraceEvent captures one motion-controller event for post-mortem analysis.
type TraceEvent struct {
	EventType uint8
	Position  int32
	Value     uint32
}

const traceRingSize = 32

var (
	debugPrintln DebugWriter = func(string) {}
	debugEnabled bool

	traceRing     [traceRingSize]TraceEvent
	traceRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function, letting
// a target redirect trace output to UART, USB, or a log sink.
func SetDebugWriter(w DebugWriter) {
	debugPrintln = w
}

// SetDebugEnabled enables or disables debug output. Tracing into the ring
// buffer always happens regardless of this flag; this only gates the
// human-readable dump.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled reports whether debug output is active.
func IsDebugEnabled() bool {
	return debugEnabled
}

// recordTrace appends one event to the ring buffer. Always non-blocking,
// safe to call from inside the controller's critical section.
func recordTrace(eventType uint8, position int32, value uint32) {
	idx := traceRingHead
	traceRing[idx] = TraceEvent{EventType: eventType, Position: position, Value: value}
	traceRingHead = (idx + 1) % traceRingSize
}

// debugPrint writes msg through the installed writer if debug output is
// enabled.
func debugPrint(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// itoa converts an integer to a string without the fmt package, a
// lightweight alternative for embedded targets.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	digits := 0
	for temp := n; temp > 0; temp /= 10 {
		digits++
	}
	if negative {
		digits++
	}

	buf := make([]byte, digits)
	pos := digits - 1
	for n > 0 {
		buf[pos] = byte('0' + n%10)
		n /= 10
		pos--
	}
	if negative {
		buf[0] = '-'
	}
	return string(buf)
}
