package usecase

import "errors"

const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeFunnelSuspended = "FUNNEL_SUSPENDED"
	CodeConflict        = "CONFLICT"
	CodeDatabase        = "DATABASE_ERROR"
	CodeGateway         = "GATEWAY_ERROR"
)

// DomainError é uma falha visível para quem chamou (payload inválido, funil inexistente).
type DomainError struct {
	Code    string
	Message string
	Detail  string
}

func (e *DomainError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return e.Message + ": " + e.Detail
}

func IsDomainError(err error) bool {
	var d *DomainError
	return errors.As(err, &d)
}

// TechnicalError wraps infrastructure failures (database, queue, cache).
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var t *TechnicalError
	return errors.As(err, &t)
}

func notFound(message string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: message}
}

func invalidBody(detail string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: "Invalid request body", Detail: detail}
}

func databaseError(message string, err error) *TechnicalError {
	return &TechnicalError{Code: CodeDatabase, Message: message, Err: err}
}
