package tasks

import "errors"

var (
	// ErrValidation rejects a mutation that would break a task invariant (empty label, unknown priority).
	ErrValidation = errors.New("validation failed")
	// ErrPersistence wraps store failures. It is logged, never fatal to the in-memory state.
	ErrPersistence = errors.New("persistence failed")
	// ErrCorruptSnapshot is returned by DecodeSnapshot for unreadable or invariant-violating data.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)
