package motion

// progress tracks the outstanding work of the current move without
// overloading a signed counter's sentinel magnitudes the way the source
// does (INT32_MAX/INT32_MIN meaning "run forever"). See spec §9.
type progress struct {
	continuous bool
	direction  Direction
	// remaining is the signed outstanding-step count; its sign encodes the
	// direction of intent, its magnitude the pulses still to emit. Only
	// meaningful when !continuous.
	remaining int32
}

func finiteProgress(signedSteps int32) progress {
	return progress{remaining: signedSteps}
}

func continuousProgress(dir Direction) progress {
	return progress{continuous: true, direction: dir}
}

// isZero reports whether the move has nothing left to do.
func (p progress) isZero() bool {
	return !p.continuous && p.remaining == 0
}

// direction of the in-flight or pending move.
func (p progress) dir() Direction {
	if p.continuous {
		return p.direction
	}
	return Sign(p.remaining)
}

// magnitude is the number of outstanding pulses for a finite move; callers
// must not call this for a continuous run.
func (p progress) magnitude() uint32 {
	if p.remaining < 0 {
		return uint32(-p.remaining)
	}
	return uint32(p.remaining)
}

// advance subtracts one pulse in the progress's own direction, a no-op for
// a continuous run (spec §4.4 step 2).
func (p progress) advance() progress {
	if p.continuous {
		return p
	}
	p.remaining -= int32(p.dir())
	return p
}
