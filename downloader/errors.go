package downloader

import (
	"errors"
	"fmt"
)

// ErrorType categorises download failures.
type ErrorType int

const (
	ErrorNetworkFailure ErrorType = iota
	ErrorBadStatus
	ErrorMissingLength
	ErrorLengthMismatch
	ErrorFileSystem
	ErrorCancelled
)

func (et ErrorType) String() string {
	switch et {
	case ErrorNetworkFailure:
		return "network_failure"
	case ErrorBadStatus:
		return "bad_status"
	case ErrorMissingLength:
		return "missing_content_length"
	case ErrorLengthMismatch:
		return "length_mismatch"
	case ErrorFileSystem:
		return "filesystem_error"
	case ErrorCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// DownloadError is returned for every failed transfer. No destination file
// exists after a DownloadError.
type DownloadError struct {
	Type     ErrorType
	URL      string
	Message  string
	Expected int64
	Received int64
	Cause    error
}

func (de *DownloadError) Error() string {
	msg := fmt.Sprintf("%s: %s (%s)", de.Type, de.Message, de.URL)
	if de.Cause != nil {
		msg += fmt.Sprintf(": %v", de.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause error
func (de *DownloadError) Unwrap() error {
	return de.Cause
}

func newError(t ErrorType, url, message string, cause error) *DownloadError {
	return &DownloadError{Type: t, URL: url, Message: message, Cause: cause}
}

// IsDownloadError reports whether err is a DownloadError, optionally of one
// of the given types.
func IsDownloadError(err error, types ...ErrorType) bool {
	var de *DownloadError
	if !errors.As(err, &de) {
		return false
	}
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if de.Type == t {
			return true
		}
	}
	return false
}
