package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed call to an external provider.
type ErrorKind int

const (
	KindNetwork   ErrorKind = iota + 1 // transport failure, no usable response
	KindTimeout                        // request deadline exceeded
	KindRejected                       // provider answered with an error status
	KindMalformed                      // response could not be decoded
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindRejected:
		return "rejected"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// ProviderError is returned by the schedule provider and SMS gateway clients.
type ProviderError struct {
	Op      string    // provider operation, e.g. "create-record"
	Kind    ErrorKind // failure class
	Message string    // provider supplied reason for rejections
	Err     error     // underlying error, if any
}

func (e *ProviderError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ProviderErrorKind extracts the kind of a ProviderError in err's chain.
// It returns false if err does not wrap a ProviderError.
func ProviderErrorKind(err error) (ErrorKind, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

// IsTimeout reports whether err is a provider timeout.
func IsTimeout(err error) bool {
	kind, ok := ProviderErrorKind(err)
	return ok && kind == KindTimeout
}

// IsRejected reports whether the provider explicitly rejected the request.
func IsRejected(err error) bool {
	kind, ok := ProviderErrorKind(err)
	return ok && kind == KindRejected
}

// RejectionMessage returns the provider's reason for a rejection, if any.
func RejectionMessage(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Kind == KindRejected {
		return pe.Message
	}
	return ""
}

// Store level errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)
