// Package fault defines the error kinds surfaced by the authoring core:
// validation failures caught before a remote call, rejections by the
// persistence collaborator, transient connectivity failures, and
// inconsistent authoritative reads. All kinds interoperate with
// errors.As/errors.Is so callers can branch without string matching.
package fault

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ValidationError reports a required field that is missing or malformed.
// It is raised before any remote call; nothing has been submitted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether any error in the chain is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RemoteRejection means the persistence collaborator refused the operation
// (duplicate position, unknown reference, constraint violation). Local
// state is unchanged; the operator must correct input and resubmit. For a
// compound operation the rejection covers the whole unit.
type RemoteRejection struct {
	Op  string
	Err error
}

func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("%s rejected: %v", e.Op, e.Err)
}

func (e *RemoteRejection) Unwrap() error { return e.Err }

// NewRejection wraps a collaborator refusal for the named operation.
func NewRejection(op string, err error) *RemoteRejection {
	return &RemoteRejection{Op: op, Err: err}
}

// IsRejection reports whether any error in the chain is a RemoteRejection.
func IsRejection(err error) bool {
	var rr *RemoteRejection
	return errors.As(err, &rr)
}

// TransientFailure wraps a connectivity-level failure. No local or remote
// state is assumed changed; the identical request is safe to resubmit.
type TransientFailure struct {
	Err        error
	StatusCode int
}

func (e *TransientFailure) Error() string { return e.Err.Error() }

func (e *TransientFailure) Unwrap() error { return e.Err }

// NewTransient wraps an error as transient with an optional HTTP status.
func NewTransient(err error, statusCode int) *TransientFailure {
	return &TransientFailure{Err: err, StatusCode: statusCode}
}

// IsTransient reports whether the error chain contains a TransientFailure
// or matches common network-level transient patterns (timeouts, connection
// resets, DNS failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var tf *TransientFailure
	if errors.As(err, &tf) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String heuristics for errors already flattened by HTTP clients.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus reports whether an HTTP status indicates a
// server-side condition that is safe to resubmit against.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// InconsistentRead flags an authoritative reload whose tree violates a
// structural invariant (duplicate positions, dangling references). The
// data is still served through read projections; this error exists for
// operator awareness, never as a reason to crash or repair.
type InconsistentRead struct {
	TestID   string
	Findings []string
}

func (e *InconsistentRead) Error() string {
	return fmt.Sprintf("structure for test %s is inconsistent: %s",
		e.TestID, strings.Join(e.Findings, "; "))
}

// IsInconsistentRead reports whether the chain contains an InconsistentRead.
func IsInconsistentRead(err error) bool {
	var ir *InconsistentRead
	return errors.As(err, &ir)
}
