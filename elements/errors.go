package elements

import "errors"

var (
	ErrExpressionInvalid    = errors.New("expression invalid")
	ErrColumnNotFound       = errors.New("column not found")
	ErrColumnTypeNotString  = errors.New("column type is not string")
	ErrOutputLengthMismatch = errors.New("output length differs from input length")
)
