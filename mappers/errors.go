package mappers

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLookupMiss      = errors.New("lookup miss")
	ErrCallbackThrew   = errors.New("callback threw")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrBoundaryTimeout = errors.New("boundary timeout")
	ErrCancelled       = errors.New("cancelled")

	ErrInvalidMapperOptions = errors.New("invalid mapper options")
	ErrValidation           = errors.New("validation error")
	ErrUnknownMappingFormat = errors.New("unknown mapping format")
)

// MapError is returned by a failing Apply. Kind is one of the sentinel
// errors above so callers can match with errors.Is.
type MapError struct {
	Kind    error
	Mapper  string
	Index   int // position in the chunk, -1 when not tied to an element
	Value   *string
	Message string
	Err     error
}

func (obj *MapError) Error() string {
	var sb strings.Builder
	sb.WriteString(obj.Kind.Error())
	sb.WriteString("| mapper ")
	sb.WriteString(obj.Mapper)
	if obj.Index >= 0 {
		fmt.Fprintf(&sb, ", index %d", obj.Index)
	}
	if obj.Value != nil {
		fmt.Fprintf(&sb, ", input value %q", *obj.Value)
	}
	if obj.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(obj.Message)
	}
	return sb.String()
}

func (obj *MapError) Unwrap() []error {
	if obj.Err == nil {
		return []error{obj.Kind}
	}
	return []error{obj.Kind, obj.Err}
}

func newMapError(kind error, mapper string, index int, value *string, message string, err error) *MapError {
	return &MapError{
		Kind:    kind,
		Mapper:  mapper,
		Index:   index,
		Value:   value,
		Message: message,
		Err:     err,
	}
}
