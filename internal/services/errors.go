package services

import "errors"

var (
	ErrUnauthorized       = errors.New("Unauthorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const msgMissingFields = "Missing required fields"

// ValidationError rejects a request before anything is persisted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StorageError carries a failed datastore call. Its message is the
// datastore's own, unchanged.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsStorageError(err error) bool {
	var s *StorageError
	return errors.As(err, &s)
}
