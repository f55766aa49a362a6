package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownCity   = errors.New("unknown city")
	ErrMissingAPIKey = errors.New("api key not configured")
)

// ErrorKind classifies failures at the service boundary.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindLLM        ErrorKind = "upstream_llm"
	KindPlaces     ErrorKind = "upstream_places"
	KindWeather    ErrorKind = "upstream_weather"
	KindDatabase   ErrorKind = "database"
	KindInternal   ErrorKind = "internal"
)

type ServiceError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func NewServiceError(kind ErrorKind, op string, err error) *ServiceError {
	return &ServiceError{Kind: kind, Op: op, Err: err}
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IsClientError is true when the caller, not the system, caused the failure.
func (e *ServiceError) IsClientError() bool {
	return e.Kind == KindValidation || e.Kind == KindNotFound
}

// KindOf returns the kind of the first ServiceError in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return KindInternal
}
