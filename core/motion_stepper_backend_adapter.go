package core

import "gopper/motion"

// StepperBackendDriver adapts an existing StepperBackend (GPIO, PIO, or any
// other hardware backend registered through SetStepperBackendFactory) to
// motion.StepDriver, so the PIO/PIO-both-edge backends built for the old
// queue-based Stepper can drive a motion.Controller unchanged.
type StepperBackendDriver struct {
	backend StepperBackend
}

// NewStepperBackendDriver wraps backend, which must already be initialized
// (Init called) by the caller.
func NewStepperBackendDriver(backend StepperBackend) *StepperBackendDriver {
	return &StepperBackendDriver{backend: backend}
}

func (d *StepperBackendDriver) Step() {
	d.backend.Step()
}

// SetDirection translates motion.Direction to the backend's bool
// convention (true = reverse/negative, false = forward/positive).
func (d *StepperBackendDriver) SetDirection(dir motion.Direction) {
	d.backend.SetDirection(dir == motion.Negative)
}

func (d *StepperBackendDriver) Stop() {
	d.backend.Stop()
}

// Name exposes the wrapped backend's identity for diagnostics.
func (d *StepperBackendDriver) Name() string {
	return d.backend.GetName()
}
