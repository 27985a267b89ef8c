package policy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownPolicyKey matches *UnknownPolicyKeyError.
	ErrUnknownPolicyKey = errors.New("unknown policy key")
	// ErrInvalidPolicyValue matches *InvalidPolicyValueError.
	ErrInvalidPolicyValue = errors.New("invalid policy value")
)

// UnknownPolicyKeyError lists override keys the policy does not recognise.
type UnknownPolicyKeyError struct {
	Keys []string
}

func (e *UnknownPolicyKeyError) Error() string {
	return fmt.Sprintf("unknown policy key(s): %s", strings.Join(e.Keys, ", "))
}

// Is matches ErrUnknownPolicyKey.
func (e *UnknownPolicyKeyError) Is(target error) bool { return target == ErrUnknownPolicyKey }

// InvalidPolicyValueError reports a recognised key with an unusable value.
type InvalidPolicyValueError struct {
	Key    string
	Value  any
	Reason string
}

func (e *InvalidPolicyValueError) Error() string {
	return fmt.Sprintf("invalid policy value for %s (%v): %s", e.Key, e.Value, e.Reason)
}

// Is matches ErrInvalidPolicyValue.
func (e *InvalidPolicyValueError) Is(target error) bool { return target == ErrInvalidPolicyValue }
