package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidScope indicates a scope value outside {local, shared}.
	ErrInvalidScope = errors.New("invalid scope")

	// ErrEmptyDocument indicates an upload with no readable content.
	ErrEmptyDocument = errors.New("empty document")

	// ErrUnsupportedType indicates a file extension outside the allowed set.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates an upload over the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrIngestInProgress indicates a concurrent ingestion of the same
	// document identifier. Re-upload of an in-flight identifier is rejected
	// rather than interleaved.
	ErrIngestInProgress = errors.New("ingestion already in progress")

	// ErrExtractionFailed indicates the text-extraction capability failed.
	// Terminal for the affected document.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrIngestorClosed indicates the ingestion pipeline has shut down.
	ErrIngestorClosed = errors.New("ingestor closed")
)

// RemoteErrorKind distinguishes the two remote failure classes the broker
// must treat differently.
type RemoteErrorKind string

const (
	// RemoteUnavailable is a pure transport failure: peer unreachable,
	// DNS failure, timeout. The peer never saw the request.
	RemoteUnavailable RemoteErrorKind = "unavailable"

	// RemoteRejected means the peer responded with an error status. The
	// request reached it and was refused; the status and body are preserved.
	RemoteRejected RemoteErrorKind = "rejected"
)

// RemoteError describes a failed call to the shared peer. The Kind drives
// user-facing messaging: "peer is offline" versus "peer rejected the request".
type RemoteError struct {
	Kind       RemoteErrorKind
	Op         string
	StatusCode int
	Message    string
	Cause      error
}

// Error renders the failure with its operation and classification.
func (e *RemoteError) Error() string {
	switch {
	case e == nil:
		return "remote peer error"
	case e.Kind == RemoteRejected:
		return fmt.Sprintf("remote peer rejected %s (status %d): %s", e.Op, e.StatusCode, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("remote peer unreachable during %s: %v", e.Op, e.Cause)
	default:
		return fmt.Sprintf("remote peer unreachable during %s: %s", e.Op, e.Message)
	}
}

// Unwrap exposes the underlying transport error, if any.
func (e *RemoteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsRemoteUnavailable reports whether err is a transport-level peer failure.
func IsRemoteUnavailable(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == RemoteUnavailable
}

// IsRemoteRejected reports whether err is a peer-returned error status.
func IsRemoteRejected(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == RemoteRejected
}
