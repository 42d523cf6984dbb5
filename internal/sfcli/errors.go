package sfcli

import "fmt"

// Failure reasons reported by AuthResolutionError.
const (
	ReasonExec         = "exec"
	ReasonParse        = "parse"
	ReasonMissingField = "missing-field"
	ReasonStatus       = "status"
)

// AuthResolutionError reports that the CLI could not produce usable credentials.
type AuthResolutionError struct {
	Reason string
	// Diagnostic is the CLI's own text (stderr or JSON message), verbatim.
	Diagnostic string
	Err        error
}

func (e *AuthResolutionError) Error() string {
	if e.Diagnostic == "" && e.Err != nil {
		return fmt.Sprintf("credential resolution failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("credential resolution failed (%s): %s", e.Reason, e.Diagnostic)
}

func (e *AuthResolutionError) Unwrap() error {
	return e.Err
}
