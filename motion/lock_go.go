//go:build !tinygo

package motion

import "sync"

// mu stands in for the interrupt-disable primitive off-target (host tests,
// simulation): there is no interrupt controller to mask, so a plain mutex
// gives the same mutual-exclusion contract for concurrent callers.
var mu sync.Mutex

// lockState carries nothing on this build; it exists so lock/unlock have
// the same signature as the tinygo build's interrupt.State pairing.
type lockState struct{}

func lock() lockState {
	mu.Lock()
	return lockState{}
}

func unlock(lockState) {
	mu.Unlock()
}
