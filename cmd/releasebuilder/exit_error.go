// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

const (
	// ExitSuccess is returned when the release was built or nothing was to be done.
	ExitSuccess = 0
	// ExitFailure is returned for invalid options and fatal build errors.
	// The process exits with 255.
	ExitFailure = -1
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
	// Detail replaces Err's message when set.
	Detail string
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Err != nil:
		return e.Err.Error()
	default:
		return fmt.Sprintf("exit status %d", e.Code)
	}
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
