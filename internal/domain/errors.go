package domain

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Resource string
	ID       string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// DocumentRejectReason tells why an identity document was refused.
type DocumentRejectReason string

const (
	InvalidFileKind DocumentRejectReason = "invalid_file_kind"
	FileTooLarge    DocumentRejectReason = "file_too_large"
)

// DocumentRejectedError is returned by the identity document store before any
// byte is written.
type DocumentRejectedError struct {
	Reason DocumentRejectReason
	Msg    string
}

func (e DocumentRejectedError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	switch e.Reason {
	case FileTooLarge:
		return "file identitas terlalu besar"
	case InvalidFileKind:
		return "file identitas harus berupa gambar (jpg, png, gif)"
	default:
		return "file identitas ditolak"
	}
}

// PersistenceError wraps storage failures. It is the only fatal pipeline error.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("persistence: %v", e.Err)
	}
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// NotificationError is a failed customer or operator mail. It is logged and
// counted, never returned to the HTTP caller.
type NotificationError struct {
	Recipient string
	Err       error
}

func (e NotificationError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Recipient, e.Err)
}

func (e NotificationError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsDocumentRejected(err error) bool {
	var target DocumentRejectedError
	return errors.As(err, &target)
}

// DocumentRejectReasonOf returns the reject reason, or "" when err is not a
// DocumentRejectedError.
func DocumentRejectReasonOf(err error) DocumentRejectReason {
	var target DocumentRejectedError
	if errors.As(err, &target) {
		return target.Reason
	}
	return ""
}

func IsPersistence(err error) bool {
	var target PersistenceError
	return errors.As(err, &target)
}

func IsNotification(err error) bool {
	var target NotificationError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
