//go:build tinygo

package core

import (
	"errors"

	"tinygo.org/x/drivers/tmc2209"
)

// TMC2209MicroStepSetter adapts a TMC2209 driver chip to
// motion.MicroStepSetter, writing the CHOPCONF.MRES field over UART.
// Composes with any motion.StepDriver (GPIOStepDriver, StepperBackendDriver)
// that drives the same axis through the chip's STEP/DIR pins.
type TMC2209MicroStepSetter struct {
	driver *tmc2209.TMC2209
}

// NewTMC2209MicroStepSetter wraps an already-configured TMC2209 driver.
func NewTMC2209MicroStepSetter(driver *tmc2209.TMC2209) *TMC2209MicroStepSetter {
	return &TMC2209MicroStepSetter{driver: driver}
}

// microstepResolutionToMres maps a microstep count (1, 2, 4, ..., 256) to
// the chip's MRES encoding, where MRES=0 means 256 microsteps and MRES=8
// means full step; each increment of MRES halves the resolution.
func microstepResolutionToMres(resolution uint16) (uint32, bool) {
	switch resolution {
	case 256:
		return 0, true
	case 128:
		return 1, true
	case 64:
		return 2, true
	case 32:
		return 3, true
	case 16:
		return 4, true
	case 8:
		return 5, true
	case 4:
		return 6, true
	case 2:
		return 7, true
	case 1:
		return 8, true
	default:
		return 0, false
	}
}

// SetMicroStepResolution reads CHOPCONF, updates MRES, and writes it back.
func (s *TMC2209MicroStepSetter) SetMicroStepResolution(resolution uint16) error {
	mres, ok := microstepResolutionToMres(resolution)
	if !ok {
		return errors.New("unsupported microstep resolution")
	}

	raw, err := s.driver.ReadRegister(tmc2209.CHOPCONF)
	if err != nil {
		return err
	}
	chopconf := tmc2209.NewChopconf()
	chopconf.Bytes = raw
	chopconf.Unpack(raw)
	chopconf.Mres = mres
	return s.driver.WriteRegister(tmc2209.CHOPCONF, chopconf.Pack())
}

// GetMicroStepResolution reads CHOPCONF and decodes MRES back to a
// microstep count.
func (s *TMC2209MicroStepSetter) GetMicroStepResolution() (uint16, error) {
	raw, err := s.driver.ReadRegister(tmc2209.CHOPCONF)
	if err != nil {
		return 0, err
	}
	chopconf := tmc2209.NewChopconf()
	chopconf.Bytes = raw
	chopconf.Unpack(raw)
	return uint16(256 >> chopconf.Mres), nil
}
