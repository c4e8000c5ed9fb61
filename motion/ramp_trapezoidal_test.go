package motion

import "testing"

// P7 (start-interval calibration). For a = 1,000,000 steps/s^2,
// start_interval(a) lies within +-1% of 0.676 * 1e9 * sqrt(2/a) ~= 955907ns.
func TestStartIntervalCalibration(t *testing.T) {
	const want uint64 = 955907
	got := startInterval(1_000_000)

	low := want * 99 / 100
	high := want * 101 / 100
	if got < low || got > high {
		t.Fatalf("startInterval(1_000_000) = %d, want within 1%% of %d", got, want)
	}
}

// P8 (triangular split) + scenario 2 of spec §8: equal accel/decel rates,
// a move too short to reach cruise splits into two equal halves.
func TestTrapezoidalTriangularSplit(t *testing.T) {
	profile := TrapezoidalProfile{RunIntervalNs: 1_000_000, AccelerationRate: 500, DecelerationRate: 500}
	r := NewTrapezoidalRamp(profile)

	total := r.PrepareMove(1000)
	if total != 1000 {
		t.Fatalf("PrepareMove(1000) = %d, want 1000", total)
	}
	if r.accelStepsLeft != 500 || r.decelStepsLeft != 500 || r.runStepsLeft != 0 {
		t.Fatalf("got accel=%d decel=%d run=%d, want accel=500 decel=500 run=0",
			r.accelStepsLeft, r.decelStepsLeft, r.runStepsLeft)
	}

	// P3: non-increasing through acceleration, non-decreasing through
	// deceleration.
	prev := uint64(0)
	for i := 0; i < 500; i++ {
		cur := r.GetNextInterval()
		if cur == 0 {
			t.Fatalf("accel step %d: unexpected 0 interval", i)
		}
		if i > 0 && cur > prev {
			t.Fatalf("accel step %d: interval increased %d -> %d", i, prev, cur)
		}
		prev = cur
	}

	prev = 0
	for i := 0; i < 500; i++ {
		cur := r.GetNextInterval()
		if cur == 0 {
			t.Fatalf("decel step %d: unexpected 0 interval", i)
		}
		if i > 0 && cur < prev {
			t.Fatalf("decel step %d: interval decreased %d -> %d", i, prev, cur)
		}
		prev = cur
	}

	if got := r.GetNextInterval(); got != 0 {
		t.Fatalf("GetNextInterval() after plan exhausted = %d, want 0", got)
	}
}

// P5 (round-trip stop). After PrepareStop mid-cruise, remaining intervals
// are non-decreasing, finite, and the final one equals last_decel_interval.
func TestTrapezoidalPrepareStopRoundTrip(t *testing.T) {
	profile := TrapezoidalProfile{RunIntervalNs: 1_000_000, AccelerationRate: 200, DecelerationRate: 200}
	r := NewTrapezoidalRamp(profile)

	total := r.PrepareMove(10_000)
	if total != 10_000 {
		t.Fatalf("PrepareMove(10000) = %d, want 10000", total)
	}

	// Drive the ramp into its cruise phase.
	for r.accelStepsLeft > 0 || r.preDecelStepsLeft > 0 {
		r.GetNextInterval()
	}
	r.GetNextInterval() // first run-phase step snaps current_interval to run_interval exactly
	if r.currentInterval != profile.RunIntervalNs {
		t.Fatalf("expected to reach cruise interval %d, got %d", profile.RunIntervalNs, r.currentInterval)
	}

	tail := r.PrepareStop()
	if tail == 0 {
		t.Fatal("PrepareStop() returned 0 while cruising, want a positive deceleration tail")
	}

	prev := uint64(0)
	count := uint64(0)
	var last uint64
	for {
		cur := r.GetNextInterval()
		if cur == 0 {
			break
		}
		if count > 0 && cur < prev {
			t.Fatalf("decel step %d: interval decreased %d -> %d", count, prev, cur)
		}
		prev, last = cur, cur
		count++
		if count > tail+1 {
			t.Fatalf("deceleration did not terminate after %d steps (tail=%d)", count, tail)
		}
	}

	if count != tail {
		t.Fatalf("emitted %d deceleration steps, want %d", count, tail)
	}
	if last != r.lastDecelInterval {
		t.Fatalf("final interval = %d, want last_decel_interval = %d", last, r.lastDecelInterval)
	}
}

// Boundary manifestation of the stop_lim < decel_lim edge case flagged in
// spec §9: with integer truncation, a current interval only fractionally
// faster than cruise can compute an equal stop_lim/decel_lim. The clamp
// must not underflow, and PrepareMove must not panic.
func TestTrapezoidalPrepareMoveSlowDownClamp(t *testing.T) {
	// clampedSub itself, exercised directly for the strict stop_lim <
	// decel_lim case that prepare_move's branch guard otherwise prevents
	// from arising through currentInterval/runInterval alone.
	if got := clampedSub(499, 500); got != 0 {
		t.Fatalf("clampedSub(499, 500) = %d, want 0", got)
	}
	if got := clampedSub(500, 500); got != 0 {
		t.Fatalf("clampedSub(500, 500) = %d, want 0", got)
	}
	if got := clampedSub(501, 500); got != 1 {
		t.Fatalf("clampedSub(501, 500) = %d, want 1", got)
	}

	profile := TrapezoidalProfile{RunIntervalNs: 1_000_000, DecelerationRate: 1000, AccelerationRate: 1000}
	r := NewTrapezoidalRamp(profile)
	r.currentInterval = 999_999 // fractionally faster than cruise (same truncated hz)

	total := r.PrepareMove(2000)
	if r.preDecelStepsLeft != 0 {
		t.Fatalf("preDecelStepsLeft = %d, want 0 at the stop_lim == decel_lim boundary", r.preDecelStepsLeft)
	}
	if total == 0 {
		t.Fatal("PrepareMove returned 0 total steps unexpectedly")
	}
}
