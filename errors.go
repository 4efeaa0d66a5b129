package seqtune

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error is a wrapper for specific types of errors for which there is no additional information
// necessary. These errors are defined as global variables.
type Error struct{ string }

func (err Error) Error() string {
	return err.string
}

// These are the global errors that may be returned.
var (
	ErrRegisterNilReturn = Error{"Function return is nil"}
	ErrDeviceUnavailable = Error{"Requested device is not available"}
	ErrNoBatches         = Error{"Dataset is smaller than a single batch"}
	ErrEmptyDataset      = Error{"Dataset has no windows"}
)

// ConfigError documents an invalid configuration value. ConfigErrors are always returned before
// any training begins.
type ConfigError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (err *ConfigError) Error() string {
	return fmt.Sprintf("Invalid configuration for %q (%v): %s", err.Field, err.Value, err.Reason)
}

// ErrUnknownModel returns the ConfigError given for an unrecognized model architecture name.
func ErrUnknownModel(name string) *ConfigError {
	return &ConfigError{Field: "model", Value: name, Reason: "In-valid model choice"}
}

// ShapeError documents a mismatch between the dimensions that an operation expected and those
// that it was given. It is fatal: nothing is coerced.
type ShapeError struct {
	Op       string
	Expected []int
	Actual   []int
}

func (err *ShapeError) Error() string {
	return fmt.Sprintf("Shape mismatch in %s: expected %v, got %v", err.Op, err.Expected, err.Actual)
}

// IsConfigError returns whether or not the cause of err is a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsShapeError returns whether or not the cause of err is a *ShapeError.
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}
