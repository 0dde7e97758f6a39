package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes shared by every command.
const (
	ExitSuccess      = 0 // Command succeeded
	ExitFailure      = 1 // The algorithm failed, a scenario failed or a replay did not verify
	ExitCommandError = 2 // Bad input: missing file, invalid catalog, unknown recording
)

// ExitError carries the process exit code for a command error.
type ExitError struct {
	Code    int
	Message string
	Err     error // Cause, may be nil
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError creates an ExitError around err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code carried by err, or ExitFailure when err
// is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the envelope of every --format json result.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
	RunID  string    `json:"run_id,omitempty"` // run the data describes
}

// CLIError describes why a command failed.
type CLIError struct {
	Code    string   `json:"code"` // E_CATALOG, E_REPLAY, E_TEST_FAILED
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

const (
	statusOK    = "ok"
	statusError = "error"
)

// Output writes command results either as text, which each command formats
// itself, or as one indented CLIResponse.
type Output struct {
	Format string
	W      io.Writer
}

// IsJSON reports whether results are written as JSON.
func (o *Output) IsJSON() bool {
	return o.Format == "json"
}

// Result writes data as a successful response. runID is the recorded run
// the data describes, or empty.
func (o *Output) Result(data any, runID string) error {
	return o.encode(CLIResponse{Status: statusOK, Data: data, RunID: runID})
}

// Failure reports a failed command. As JSON, data travels next to the error
// so partial results stay visible. As text, the code and message are
// followed by one indented line per detail.
func (o *Output) Failure(code, message string, data any, details []string) error {
	if o.IsJSON() {
		return o.encode(CLIResponse{
			Status: statusError,
			Data:   data,
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(o.W, "Error [%s]: %s\n", code, message)
	for _, d := range details {
		fmt.Fprintf(o.W, "  %s\n", d)
	}
	return nil
}

func (o *Output) encode(response CLIResponse) error {
	encoder := json.NewEncoder(o.W)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}
