package models

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalTransition = errors.New("illegal state transition")
	ErrInvalidField      = errors.New("invalid field value")
	ErrInvalidState      = errors.New("invalid state for operation")
)

// IllegalTransitionError reports an edge missing from the transition table.
type IllegalTransitionError struct {
	From JobState
	To   JobState
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s: from %s to %s", ErrIllegalTransition, e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }

// InvalidFieldError reports a field whose value breaks a model rule.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidField, e.Field, e.Reason)
}

func (e *InvalidFieldError) Unwrap() error { return ErrInvalidField }
