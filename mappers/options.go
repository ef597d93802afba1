package mappers

import (
	"fmt"
)

type MissingKeyPolicy string

const (
	MissingKeyPassThrough MissingKeyPolicy = "pass-through"
	MissingKeyNull        MissingKeyPolicy = "null"
	MissingKeyFail        MissingKeyPolicy = "fail"
)

type InvocationMode string

const (
	InvocationPerElement InvocationMode = "per-element"
	InvocationPerChunk   InvocationMode = "per-chunk"
)

const (
	DictionaryMapperType = "dictionary"
	CallbackMapperType   = "callback"
)

type DictionaryMapOptions struct {
	OnMissing MissingKeyPolicy
}

func (obj *DictionaryMapOptions) MapperType() string {
	return DictionaryMapperType
}

func (obj *DictionaryMapOptions) Validate() error {
	switch obj.OnMissing {
	case "":
		obj.OnMissing = MissingKeyPassThrough
	case MissingKeyPassThrough, MissingKeyNull, MissingKeyFail:
	default:
		return fmt.Errorf("%w: missing key policy %q not implemented", ErrValidation, obj.OnMissing)
	}
	return nil
}

type CallbackMapOptions struct {
	Mode InvocationMode
}

func (obj *CallbackMapOptions) MapperType() string {
	return CallbackMapperType
}

func (obj *CallbackMapOptions) Validate() error {
	switch obj.Mode {
	case "":
		obj.Mode = InvocationPerChunk
	case InvocationPerChunk, InvocationPerElement:
	default:
		return fmt.Errorf("%w: invocation mode %q not implemented", ErrValidation, obj.Mode)
	}
	return nil
}
