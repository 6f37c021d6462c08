package sandbox

import (
	"errors"
	"fmt"
)

var errTimeout = errors.New("execution timed out")

// ExecutionError reports that submitted code failed to compile, threw
// during top-level execution, or ran past its deadline.
type ExecutionError struct {
	Message string
	Timeout bool
}

func (e *ExecutionError) Error() string {
	return "execution failed: " + e.Message
}

// EntryPointError reports that the submission does not define a callable
// under the expected name.
type EntryPointError struct {
	EntryPoint string
}

func (e *EntryPointError) Error() string {
	return fmt.Sprintf("entry point %q is not defined as a function", e.EntryPoint)
}

// IsExecution reports whether err is an *ExecutionError.
func IsExecution(err error) bool {
	var target *ExecutionError
	return errors.As(err, &target)
}

// IsEntryPoint reports whether err is an *EntryPointError.
func IsEntryPoint(err error) bool {
	var target *EntryPointError
	return errors.As(err, &target)
}
