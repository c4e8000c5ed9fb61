package motion

import "testing"

func TestIsqrtSmallValues(t *testing.T) {
	cases := map[uint64]uint64{
		0: 0, 1: 1, 2: 1, 3: 1, 4: 2, 8: 2, 9: 3, 15: 3, 16: 4, 1000000: 1000,
	}
	for n, want := range cases {
		if got := isqrt(n); got != want {
			t.Errorf("isqrt(%d) = %d, want %d", n, got, want)
		}
	}
}

// P6: isqrt(n)^2 <= n < (isqrt(n)+1)^2 for all 64-bit inputs.
func TestIsqrtLaw(t *testing.T) {
	samples := []uint64{
		0, 1, 2, 3, 4, 5, 10, 99, 100, 101,
		1 << 16, 1<<16 + 1, 1 << 32, 1<<32 - 1,
		1 << 62, 1<<64 - 1, 3_037_000_499, 2 * 3_037_000_499 * 3_037_000_499,
	}
	for _, n := range samples {
		r := isqrt(n)
		if r*r > n {
			t.Errorf("isqrt(%d) = %d violates r*r <= n (r*r=%d)", n, r, r*r)
		}
		upper := r + 1
		if upper < 1<<32 && upper*upper <= n {
			// upper*upper would overflow uint64 for upper >= 2^32, at
			// which point n < 2^64 <= upper^2 holds trivially.
			t.Errorf("isqrt(%d) = %d violates n < (r+1)*(r+1) (upper^2=%d)", n, r, upper*upper)
		}
	}
}
