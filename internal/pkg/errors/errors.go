package errors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalid             = errors.New("invalid")
	ErrInternal            = errors.New("internal")
	ErrConfiguration       = errors.New("bad configuration")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrCredential          = errors.New("credential refresh failed")
	ErrDimensionMismatch   = errors.New("embedding dimension mismatch")
	ErrRetrieval           = errors.New("retrieval failed")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrUnsupportedProvider)
}

func IsDimensionMismatch(err error) bool {
	return errors.Is(err, ErrDimensionMismatch)
}
