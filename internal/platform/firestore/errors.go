package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies a repository failure for callers that map errors to HTTP
// responses.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindUnavailable Kind = "unavailable"
	KindInternal    Kind = "internal"
)

// Error wraps a Firestore failure with its operation and classification.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("firestore %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a missing-document failure.
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

// IsConflict reports whether err is a contention or precondition failure.
func IsConflict(err error) bool { return kindOf(err) == KindConflict }

// IsUnavailable reports whether err is a transient backend failure worth
// retrying.
func IsUnavailable(err error) bool { return kindOf(err) == KindUnavailable }

func kindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// WrapError classifies err by its gRPC status code. Context cancellations
// pass through untouched so callers can still match them with errors.Is.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	kind := KindInternal
	switch status.Code(err) {
	case codes.NotFound:
		kind = KindNotFound
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted, codes.OutOfRange:
		kind = KindConflict
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		kind = KindUnavailable
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// NotFoundError builds a classified missing-document error without a gRPC
// status, for repositories that detect absence themselves.
func NotFoundError(op string, err error) error {
	if err == nil {
		err = errors.New("document not found")
	}
	return &Error{Op: op, Kind: KindNotFound, Err: err}
}

// ConflictError builds a classified conflict error for guards enforced in
// application code rather than by the backend.
func ConflictError(op string, err error) error {
	if err == nil {
		err = errors.New("conflicting write")
	}
	return &Error{Op: op, Kind: KindConflict, Err: err}
}
