package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidDataType    = errors.New("invalid data type")
	ErrEmptyEnvelope      = errors.New("envelope is required")
	ErrMalformedEnvelope  = errors.New("envelope is not in salt$blob form")
	ErrInvalidBaseVersion = errors.New("invalid base version")
	ErrInvalidHash        = errors.New("invalid transport hash")
	ErrEmptyEmail         = errors.New("email is required")
	ErrEmptyPassword      = errors.New("password is required")
)
