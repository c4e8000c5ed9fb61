package core

import "gopper/motion"

// GPIOStepDriver is a plain-GPIO implementation of motion.StepDriver: it
// toggles a step pin and a direction pin through the registered
// GPIODriver. config_motion installs it; steppers set up through
// config_stepper use StepperBackendDriver over a target's backend instead.
// Neither implements motion.MicroStepSetter (see TMC2209MicroStepSetter).
type GPIOStepDriver struct {
	stepPin    GPIOPin
	dirPin     GPIOPin
	invertStep bool
	invertDir  bool
}

// NewGPIOStepDriver configures stepPin and dirPin as outputs and returns a
// driver ready to install on a motion.Controller.
func NewGPIOStepDriver(stepPin, dirPin GPIOPin, invertStep, invertDir bool) (*GPIOStepDriver, error) {
	gpio := MustGPIO()
	if err := gpio.ConfigureOutput(stepPin); err != nil {
		return nil, err
	}
	if err := gpio.ConfigureOutput(dirPin); err != nil {
		return nil, err
	}
	return &GPIOStepDriver{stepPin: stepPin, dirPin: dirPin, invertStep: invertStep, invertDir: invertDir}, nil
}

// Step emits one pulse on the step pin.
func (d *GPIOStepDriver) Step() {
	gpio := MustGPIO()
	high := !d.invertStep
	gpio.SetPin(d.stepPin, high)
	gpio.SetPin(d.stepPin, !high)
}

// SetDirection latches dir onto the direction pin.
func (d *GPIOStepDriver) SetDirection(dir motion.Direction) {
	gpio := MustGPIO()
	want := dir == motion.Positive
	if d.invertDir {
		want = !want
	}
	gpio.SetPin(d.dirPin, want)
}

// Stop is a no-op for a plain GPIO driver: it has no enable line of its own.
func (d *GPIOStepDriver) Stop() {}
