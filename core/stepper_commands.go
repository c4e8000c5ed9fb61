package core

import (
	"errors"

	"gopper/protocol"
)

// Stepper command handlers for Klipper protocol.
// Implements: config_stepper, stepper_get_position, stepper_get_info.
//
// queue_step, set_next_step_dir and reset_step_clock belonged to the old
// host-filled look-ahead move queue this stepper used to run; that queue is
// a Non-goal of the motion controller it now delegates to (see
// gopper/motion), so those three commands are retired along with it. Moves
// against a configured stepper go through the motion_* commands in
// motion_commands.go, addressing the same oid.

// RegisterStepperCommands registers all stepper-related commands
func RegisterStepperCommands() {
	// config_stepper: Initialize a stepper motor
	RegisterCommand("config_stepper",
		"oid=%c step_pin=%c dir_pin=%c invert_step=%c min_stop_interval=%u",
		cmdConfigStepper)

	// stepper_get_position: Query current position
	RegisterCommand("stepper_get_position",
		"oid=%c",
		cmdStepperGetPosition)

	// Debug command to get stepper info
	RegisterCommand("stepper_get_info",
		"oid=%c",
		cmdStepperGetInfo)

	RegisterResponse("stepper_position", "oid=%c pos=%i")
}

// cmdConfigStepper handles config_stepper command
// Format: oid=%c step_pin=%c dir_pin=%c invert_step=%c min_stop_interval=%u
func cmdConfigStepper(data *[]byte) error {
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

	minStopInterval, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	_, err = NewStepper(uint8(oid), uint8(stepPin), uint8(dirPin), invertStep != 0, minStopInterval)
	if err != nil {
		return err
	}

	return nil
}

// cmdStepperGetPosition handles stepper_get_position command
// Format: oid=%c
// Response: stepper_position oid=%c pos=%i
func cmdStepperGetPosition(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	stepper := GetStepper(uint8(oid))
	if stepper == nil {
		return errors.New("stepper not found")
	}

	position := stepper.GetPosition()
	oidByte := uint8(oid)
	SendResponse("stepper_position", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(oidByte))
		protocol.EncodeVLQInt(output, position)
	})

	return nil
}

// cmdStepperGetInfo handles stepper_get_info debug command
// Format: oid=%c
func cmdStepperGetInfo(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	stepper := GetStepper(uint8(oid))
	if stepper == nil {
		return errors.New("stepper not found")
	}

	DebugPrintln("[STEPPER] stepper_get_info oid=" + itoa(int(oid)) + " active=" + itoa(boolToInt(stepper.IsActive())))

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
