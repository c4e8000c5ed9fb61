package core

import (
	"errors"

	"gopper/motion"
	"gopper/protocol"
)

// Motion controller command handlers for Klipper protocol.
// Implements: config_motion, motion_set_ramp_constant,
// motion_set_ramp_trapezoidal, motion_move_by, motion_move_to, motion_run,
// motion_stop, motion_set_position, motion_get_position.

// InitMotionCommands registers all motion-controller-related commands.
func InitMotionCommands() {
	RegisterCommand("config_motion",
		"oid=%c step_pin=%c dir_pin=%c invert_step=%c invert_dir=%c",
		cmdConfigMotion)

	RegisterCommand("motion_set_ramp_constant",
		"oid=%c interval_ns=%u",
		cmdMotionSetRampConstant)

	RegisterCommand("motion_set_ramp_trapezoidal",
		"oid=%c run_interval_ns=%u accel_rate=%u decel_rate=%u",
		cmdMotionSetRampTrapezoidal)

	RegisterCommand("motion_move_by",
		"oid=%c steps=%i",
		cmdMotionMoveBy)

	RegisterCommand("motion_move_to",
		"oid=%c position=%i",
		cmdMotionMoveTo)

	RegisterCommand("motion_run",
		"oid=%c direction=%c",
		cmdMotionRun)

	RegisterCommand("motion_stop",
		"oid=%c",
		cmdMotionStop)

	RegisterCommand("motion_set_position",
		"oid=%c position=%i",
		cmdMotionSetPosition)

	RegisterCommand("motion_get_position",
		"oid=%c",
		cmdMotionGetPosition)

	RegisterResponse("motion_position", "oid=%c pos=%i")
	RegisterResponse("motion_event", "oid=%c event=%c")
}

// cmdConfigMotion handles config_motion: creates a GPIO-backed step driver
// and a MotionTimer, and installs a fresh motion.Controller under oid. The
// controller has no ramp installed yet; a motion_set_ramp_* command must
// follow before any move command.
func cmdConfigMotion(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	stepPin, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	dirPin, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	invertStep, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	invertDir, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	driver, err := NewGPIOStepDriver(GPIOPin(stepPin), GPIOPin(dirPin), invertStep != 0, invertDir != 0)
	if err != nil {
		return err
	}

	oidByte := uint8(oid)
	controller := motion.NewController(driver, NewMotionTimer())
	controller.SetMotionEventCallback(func(event motion.MotionEvent) {
		sendMotionEvent(oidByte, event)
	})

	RegisterMotionController(oidByte, controller)
	return nil
}

func sendMotionEvent(oid uint8, event motion.MotionEvent) {
	code := uint8(0)
	if event == motion.EventStopped {
		code = 1
	}
	SendResponse("motion_event", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(oid))
		protocol.EncodeVLQUint(output, uint32(code))
	})
}

func cmdMotionSetRampConstant(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	intervalNs, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	controller := GetMotionController(uint8(oid))
	if controller == nil {
		return errors.New("motion controller not found")
	}

	return controller.SetRamp(motion.NewConstantRamp(motion.ConstantProfile{
		IntervalNs: uint64(intervalNs),
	}))
}

func cmdMotionSetRampTrapezoidal(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	runIntervalNs, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	accelRate, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	decelRate, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	controller := GetMotionController(uint8(oid))
	if controller == nil {
		return errors.New("motion controller not found")
	}

	return controller.SetRamp(motion.NewTrapezoidalRamp(motion.TrapezoidalProfile{
		RunIntervalNs:    uint64(runIntervalNs),
		AccelerationRate: accelRate,
		DecelerationRate: decelRate,
	}))
}

func cmdMotionMoveBy(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	steps, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}

	controller := GetMotionController(uint8(oid))
	if controller == nil {
		return errors.New("motion controller not found")
	}
	return controller.MoveBy(steps)
}

func cmdMotionMoveTo(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	position, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}

	controller := GetMotionController(uint8(oid))
	if controller == nil {
		return errors.New("motion controller not found")
	}
	return controller.MoveTo(position)
}

func cmdMotionRun(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	direction, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	controller := GetMotionController(uint8(oid))
	if controller == nil {
		return errors.New("motion controller not found")
	}

	dir := motion.Negative
	if direction != 0 {
		dir = motion.Positive
	}
	return controller.Run(dir)
}

func cmdMotionStop(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	controller := GetMotionController(uint8(oid))
	if controller == nil {
		return errors.New("motion controller not found")
	}
	return controller.Stop()
}

func cmdMotionSetPosition(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	position, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}

	controller := GetMotionController(uint8(oid))
	if controller == nil {
		return errors.New("motion controller not found")
	}
	controller.SetPosition(position)
	return nil
}

func cmdMotionGetPosition(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	controller := GetMotionController(uint8(oid))
	if controller == nil {
		return errors.New("motion controller not found")
	}

	position := controller.GetPosition()
	oidByte := uint8(oid)
	SendResponse("motion_position", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(oidByte))
		protocol.EncodeVLQInt(output, position)
	})
	return nil
}
