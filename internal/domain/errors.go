package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrInvalidSource      = errors.New("invalid source image")
	ErrInsufficientCredit = errors.New("insufficient credit")
	ErrUpstreamFailure    = errors.New("upstream generation failure")
	ErrStorageFailure     = errors.New("storage failure")
)

// ErrorKind is the stable error taxonomy exposed on the caller-facing
// surface. The string values are part of the API contract and must not change.
type ErrorKind string

const (
	KindInputInvalid        ErrorKind = "InputInvalid"
	KindUnauthorized        ErrorKind = "Unauthorized"
	KindNotFound            ErrorKind = "NotFound"
	KindInsufficientCredit  ErrorKind = "InsufficientCredit"
	KindUpstreamUnavailable ErrorKind = "UpstreamUnavailable"
	KindStorageFailure      ErrorKind = "StorageFailure"
	KindInternalError       ErrorKind = "InternalError"
)

// Classify maps any error produced by the engine onto the taxonomy.
// Unrecognised errors fall through to InternalError.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSelection), errors.Is(err, ErrInvalidSource):
		return KindInputInvalid
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientCredit):
		return KindInsufficientCredit
	case errors.Is(err, ErrUpstreamFailure), errors.Is(err, context.DeadlineExceeded):
		return KindUpstreamUnavailable
	case errors.Is(err, ErrStorageFailure):
		return KindStorageFailure
	default:
		return KindInternalError
	}
}
