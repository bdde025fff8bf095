package license

import (
	"errors"
	"fmt"
)

var (
	ErrPlanNotFound     = errors.New("plan not found")
	ErrInvalidKey       = errors.New("invalid license key")
	ErrNotFound         = errors.New("license not found")
	ErrBlocked          = errors.New("license blocked")
	ErrAlreadyActivated = errors.New("license already activated on another machine")
	ErrExpired          = errors.New("license expired")
	ErrWrongHardware    = errors.New("license is activated on another machine")
	ErrInvalidStatus    = errors.New("invalid license status")
)

// BlockedError carries the stored block reason.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	if e.Reason == "" {
		return ErrBlocked.Error() + ": contact support"
	}
	return ErrBlocked.Error() + ": " + e.Reason
}

func (e *BlockedError) Is(target error) bool { return target == ErrBlocked }

// AlreadyActivatedError carries the machine name of the existing binding.
type AlreadyActivatedError struct {
	MachineName string
}

func (e *AlreadyActivatedError) Error() string { return ErrAlreadyActivated.Error() }

func (e *AlreadyActivatedError) Is(target error) bool { return target == ErrAlreadyActivated }

// WrongHardwareError carries the bound and the supplied fingerprints.
type WrongHardwareError struct {
	Expected string
	Received string
}

func (e *WrongHardwareError) Error() string {
	return fmt.Sprintf("%s (received %s)", ErrWrongHardware, e.Received)
}

func (e *WrongHardwareError) Is(target error) bool { return target == ErrWrongHardware }

// Error codes returned to API clients.
const (
	CodeInvalidKey       = "INVALID_KEY"
	CodeNotFound         = "NOT_FOUND"
	CodeBlocked          = "BLOCKED"
	CodeAlreadyActivated = "ALREADY_ACTIVATED"
	CodeExpired          = "EXPIRED"
	CodeWrongHardware    = "WRONG_HARDWARE"
	CodePlanNotFound     = "PLAN_NOT_FOUND"
	CodeInvalidStatus    = "INVALID_STATUS"
)

// Code maps an engine error to its client code, or "" for internal failures.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidKey):
		return CodeInvalidKey
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrBlocked):
		return CodeBlocked
	case errors.Is(err, ErrAlreadyActivated):
		return CodeAlreadyActivated
	case errors.Is(err, ErrExpired):
		return CodeExpired
	case errors.Is(err, ErrWrongHardware):
		return CodeWrongHardware
	case errors.Is(err, ErrPlanNotFound):
		return CodePlanNotFound
	case errors.Is(err, ErrInvalidStatus):
		return CodeInvalidStatus
	}
	return ""
}

// IsClientError reports whether err is a correctable request or business-rule
// failure rather than a system fault.
func IsClientError(err error) bool {
	return Code(err) != ""
}
