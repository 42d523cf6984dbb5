package sforce

import (
	"fmt"
	"strings"
)

// Operations reported by MetadataFetchError.
const (
	OpDescribeGlobal = "describe global"
	OpDescribeObject = "describe object"
)

// MetadataFetchError reports a failed describe call.
type MetadataFetchError struct {
	Op     string
	Object string
	// StatusCode is zero when the request never got a response.
	StatusCode int
	ErrorCode  string
	Message    string
	Err        error
}

func (e *MetadataFetchError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Object != "" {
		fmt.Fprintf(&b, " %s", e.Object)
	}
	b.WriteString(" failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d", e.StatusCode)
		if e.ErrorCode != "" {
			fmt.Fprintf(&b, " %s", e.ErrorCode)
		}
		b.WriteString(")")
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *MetadataFetchError) Unwrap() error {
	return e.Err
}
