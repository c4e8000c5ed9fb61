//go:build tinygo

package motion

import "runtime/interrupt"

// lockState is the saved interrupt mask returned by lock.
type lockState interrupt.State

func lock() lockState    { return lockState(interrupt.Disable()) }
func unlock(s lockState) { interrupt.Restore(interrupt.State(s)) }
