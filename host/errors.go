package host

import (
	"errors"
	"fmt"
)

var (
	ErrCallbackNotFoundInRegistry = errors.New("callback not found in registry")
	ErrUnsupportedValueType       = errors.New("unsupported value type")
	ErrMalformedMessage           = errors.New("malformed host message")
	ErrResponseIdMismatch         = errors.New("response id does not match request")
)

// HostError is a failure reported by the host side of the boundary. Index
// points at the input that failed, or is -1 when the whole call failed.
type HostError struct {
	Index   int
	Message string
}

func (obj *HostError) Error() string {
	if obj.Index < 0 {
		return fmt.Sprintf("host error: %s", obj.Message)
	}
	return fmt.Sprintf("host error at input %d: %s", obj.Index, obj.Message)
}
