package stepgen

import (
	"strconv"
	"strings"

	"gopper/core"
	"gopper/motion"
	"gopper/standalone"
)

// Stepper drives a single axis for the standalone (non-Klipper-protocol)
// firmware mode. It translates millimetre positions and feedrates into the
// motion package's microstep domain and delegates all step generation to a
// motion.Controller running a TrapezoidalRamp, instead of the
// constant-velocity-only step loop this used to hand-roll.
type Stepper struct {
	name   string
	config standalone.AxisConfig

	gpio         core.GPIODriver
	enablePin    core.GPIOPin
	hasEnable    bool
	invertEnable bool

	controller *motion.Controller
}

// gpioStepDriver adapts an explicitly-passed core.GPIODriver (rather than
// the package-global one core.GPIOStepDriver relies on) to motion.StepDriver,
// since the standalone mode threads its driver through Manager/Planner
// instead of calling core.SetGPIODriver.
type gpioStepDriver struct {
	gpio       core.GPIODriver
	stepPin    core.GPIOPin
	dirPin     core.GPIOPin
	invertStep bool
	invertDir  bool
}

func (d *gpioStepDriver) Step() {
	high := !d.invertStep
	d.gpio.SetPin(d.stepPin, high)
	d.gpio.SetPin(d.stepPin, !high)
}

func (d *gpioStepDriver) SetDirection(dir motion.Direction) {
	want := dir == motion.Positive
	if d.invertDir {
		want = !want
	}
	d.gpio.SetPin(d.dirPin, want)
}

func (d *gpioStepDriver) Stop() {}

// NewStepper creates a new stepper motor controller for the named axis.
func NewStepper(name string, config standalone.AxisConfig) (*Stepper, error) {
	return &Stepper{
		name:         name,
		config:       config,
		invertEnable: config.InvertEnable,
	}, nil
}

// InitPins resolves this axis's configured pins against gpioDriver and
// installs a motion.Controller with a trapezoidal ramp sized from the
// axis's configured acceleration.
func (s *Stepper) InitPins(gpioDriver core.GPIODriver) error {
	s.gpio = gpioDriver

	stepPin, err := parseGPIOPin(s.config.StepPin)
	if err != nil {
		return err
	}
	dirPin, err := parseGPIOPin(s.config.DirPin)
	if err != nil {
		return err
	}
	if err := gpioDriver.ConfigureOutput(stepPin); err != nil {
		return err
	}
	if err := gpioDriver.ConfigureOutput(dirPin); err != nil {
		return err
	}

	if s.config.EnablePin != "" {
		enPin, err := parseGPIOPin(s.config.EnablePin)
		if err != nil {
			return err
		}
		if err := gpioDriver.ConfigureOutput(enPin); err != nil {
			return err
		}
		s.enablePin = enPin
		s.hasEnable = true
		s.Disable()
	}

	driver := &gpioStepDriver{gpio: gpioDriver, stepPin: stepPin, dirPin: dirPin, invertDir: s.config.InvertDir}
	s.controller = motion.NewController(driver, core.NewMotionTimer())
	return nil
}

func parseGPIOPin(name string) (core.GPIOPin, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "gpio"))
	if err != nil {
		return 0, err
	}
	return core.GPIOPin(n), nil
}

// Enable enables the stepper motor.
func (s *Stepper) Enable() {
	if !s.hasEnable {
		return
	}
	s.gpio.SetPin(s.enablePin, !s.invertEnable)
}

// Disable disables the stepper motor.
func (s *Stepper) Disable() {
	if !s.hasEnable {
		return
	}
	s.gpio.SetPin(s.enablePin, s.invertEnable)
}

// stepsPerSecondToRunInterval converts a feedrate in mm/s to the ramp's
// nanosecond run interval.
func (s *Stepper) stepsPerSecondToRunInterval(mmPerSecond float64) uint64 {
	stepsPerSecond := mmPerSecond * s.config.StepsPerMM
	if stepsPerSecond <= 0 {
		return 1_000_000_000
	}
	return uint64(1e9 / stepsPerSecond)
}

// mmAccelToStepRate converts an mm/s^2 acceleration to the ramp's
// steps/s^2 rate parameter.
func (s *Stepper) mmAccelToStepRate(mmPerSecondSquared float64) uint32 {
	rate := mmPerSecondSquared * s.config.StepsPerMM
	if rate <= 0 {
		rate = 1
	}
	return uint32(rate)
}

// MoveTo schedules a move to targetMM at the given cruise velocity and
// acceleration (both in mm/s, mm/s^2).
func (s *Stepper) MoveTo(targetMM float64, velocity float64, accel float64) error {
	targetSteps := int32(targetMM * s.config.StepsPerMM)

	ramp := motion.NewTrapezoidalRamp(motion.TrapezoidalProfile{
		RunIntervalNs:    s.stepsPerSecondToRunInterval(velocity),
		AccelerationRate: s.mmAccelToStepRate(accel),
		DecelerationRate: s.mmAccelToStepRate(accel),
	})
	if err := s.controller.SetRamp(ramp); err != nil {
		return err
	}

	s.Enable()
	return s.controller.MoveTo(targetSteps)
}

// GetPosition returns the current position in millimetres.
func (s *Stepper) GetPosition() float64 {
	return float64(s.controller.GetPosition()) / s.config.StepsPerMM
}

// SetPosition sets the current position (for homing, etc.), in millimetres.
func (s *Stepper) SetPosition(posMM float64) {
	s.controller.SetPosition(int32(posMM * s.config.StepsPerMM))
}

// IsActive returns whether the stepper is currently moving.
func (s *Stepper) IsActive() bool {
	return s.controller.IsMoving()
}

// Stop immediately decelerates and stops the stepper.
func (s *Stepper) Stop() error {
	return s.controller.Stop()
}
