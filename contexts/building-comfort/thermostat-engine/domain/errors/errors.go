package errors

import "errors"

var (
	ErrZoneNotFound        = errors.New("zone not found")
	ErrInvalidVoteInput    = errors.New("invalid vote input")
	ErrInvalidZoneInput    = errors.New("invalid zone input")
	ErrInvalidPolicy       = errors.New("invalid recommendation policy")
	ErrActuatorUnavailable = errors.New("actuator unavailable")
	ErrConflict            = errors.New("thermostat state conflict")
)
