package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinels for errors.Is checks at transport boundaries.
var (
	ErrInvalidInterval   = errors.New("invalid interval")
	ErrEmptyAvailability = errors.New("empty availability")
	ErrInvalidRequest    = errors.New("invalid request")
)

// InvalidIntervalError reports an interval whose end is not after its start.
type InvalidIntervalError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval: end %s is not after start %s",
		e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

// Is matches ErrInvalidInterval.
func (e *InvalidIntervalError) Is(target error) bool { return target == ErrInvalidInterval }

// EmptyAvailabilityError is returned when participants are required but none were supplied.
type EmptyAvailabilityError struct{}

func (e *EmptyAvailabilityError) Error() string {
	return "empty availability: no participant data supplied"
}

// Is matches ErrEmptyAvailability.
func (e *EmptyAvailabilityError) Is(target error) bool { return target == ErrEmptyAvailability }

// InvalidRequestError reports a malformed meeting request field.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// Is matches ErrInvalidRequest.
func (e *InvalidRequestError) Is(target error) bool { return target == ErrInvalidRequest }
