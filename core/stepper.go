package core

// Stepper motor control implementation
// Inspired by Klipper's stepper.c, rebuilt on top of the motion package's
// ramp-driven Controller instead of a host-filled move queue.

import (
	"errors"

	"gopper/motion"
)

// Stepper is the per-axis registry entry created by config_stepper. It owns
// the hardware backend and exposes the legacy Klipper-style position query
// surface, but defers all move planning and pulse generation to a
// motion.Controller, also reachable through GetMotionController under the
// same oid for the richer motion_* command set.
type Stepper struct {
	OID             uint8  // Object ID
	StepPin         uint8  // Step pulse output pin
	DirPin          uint8  // Direction output pin
	InvertStep      bool   // Invert step signal polarity
	MinStopInterval uint32 // Minimum interval between steps (safety limit)

	Backend    StepperBackend
	Controller *motion.Controller
}

// Global stepper registry
var (
	steppers     [16]*Stepper // Max 16 steppers
	stepperCount uint8

	// Backend factory function (set by platform-specific code)
	stepperBackendFactory func() StepperBackend
)

// GetStepper returns a stepper by OID
func GetStepper(oid uint8) *Stepper {
	if oid >= stepperCount {
		return nil
	}
	return steppers[oid]
}

// NewStepper creates a new stepper instance
func NewStepper(oid uint8, stepPin, dirPin uint8, invertStep bool, minStopInterval uint32) (*Stepper, error) {
	DebugPrintln("[STEPPER] NewStepper: oid=" + itoa(int(oid)) + " stepPin=" + itoa(int(stepPin)) + " dirPin=" + itoa(int(dirPin)))

	if oid >= 16 {
		DebugPrintln("[STEPPER] ERROR: OID exceeds maximum")
		return nil, errors.New("stepper OID exceeds maximum")
	}

	s := &Stepper{
		OID:             oid,
		StepPin:         stepPin,
		DirPin:          dirPin,
		InvertStep:      invertStep,
		MinStopInterval: minStopInterval,
	}

	if stepperBackendFactory != nil {
		backend := stepperBackendFactory()
		if backend != nil {
			DebugPrintln("[STEPPER] Backend created: " + backend.GetName())
			if err := s.InitBackend(backend); err != nil {
				DebugPrintln("[STEPPER] ERROR: InitBackend failed: " + err.Error())
				return nil, err
			}
		} else {
			DebugPrintln("[STEPPER] WARNING: Backend factory returned nil")
		}
	} else {
		DebugPrintln("[STEPPER] WARNING: No backend factory set!")
	}

	steppers[oid] = s
	if oid >= stepperCount {
		stepperCount = oid + 1
	}

	DebugPrintln("[STEPPER] NewStepper complete")
	return s, nil
}

// SetStepperBackendFactory sets the factory function for creating stepper backends
// This should be called by platform-specific initialization code
func SetStepperBackendFactory(factory func() StepperBackend) {
	stepperBackendFactory = factory
}

// InitBackend wires backend as the hardware driver for both the raw
// StepperBackend surface and a fresh motion.Controller, registered under
// the oid the motion_* commands address. A stepper configured this way has
// no ramp yet; a motion_set_ramp_* command must follow before any move.
func (s *Stepper) InitBackend(backend StepperBackend) error {
	if err := backend.Init(s.StepPin, s.DirPin, s.InvertStep, false); err != nil {
		return err
	}
	s.Backend = backend
	s.Controller = motion.NewController(NewStepperBackendDriver(backend), NewMotionTimer())
	RegisterMotionController(s.OID, s.Controller)
	return nil
}

// GetPosition returns the current position in microsteps, delegating to
// the motion controller.
func (s *Stepper) GetPosition() int32 {
	if s.Controller == nil {
		return 0
	}
	return s.Controller.GetPosition()
}

// IsActive returns true if the stepper has an in-flight move.
func (s *Stepper) IsActive() bool {
	return s.Controller != nil && s.Controller.IsMoving()
}

// Stop halts any in-flight move via the motion controller's own
// deceleration plan rather than an abrupt cut.
func (s *Stepper) Stop() error {
	if s.Controller == nil {
		return errors.New("stepper has no motion controller")
	}
	return s.Controller.Stop()
}
