package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrPlanNotFound      = errors.New("workout plan not found")
	ErrStudentNotFound   = errors.New("student not found")
	ErrNothingToSave     = errors.New("Nenhuma alteração detectada.")
	ErrEmptyAvatar       = errors.New("avatar image is empty")
	ErrUnsupportedAvatar = errors.New("avatar must be an image")
)

// ValidationError is a user input problem caught before any backend call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
