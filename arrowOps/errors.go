package arrowops

import "errors"

var (
	ErrUnsupportedDataType = errors.New("unsupported data type")
	ErrColumnNotFound      = errors.New("column not found")
	ErrNoDataSupplied      = errors.New("no data supplied")
	ErrDataTypesNotEqual   = errors.New("data types not equal")
	ErrLengthMismatch      = errors.New("length mismatch")
)
