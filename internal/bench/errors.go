package bench

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid benchmark configuration")
	ErrAlreadyRunning       = errors.New("benchmark already running")
	ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")
)

// WorkerFailure aborts the run it happened in. No result is reported for
// that run.
type WorkerFailure struct {
	Worker int
	Err    error
}

func (e *WorkerFailure) Error() string {
	return fmt.Sprintf("worker %d failed: %v", e.Worker, e.Err)
}

func (e *WorkerFailure) Unwrap() error {
	return e.Err
}
