package elements

import (
	"context"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// ColumnTransform is the shape the engine calls once per physical chunk.
// The input is borrowed, the returned array is owned by the caller.
type ColumnTransform func(ctx context.Context, mem memory.Allocator, column *array.String) (*array.String, error)

type IColumnMapper interface {
	Name() string
	OutputType() arrow.DataType
	Apply(ctx context.Context, mem memory.Allocator, column *array.String) (*array.String, error)
}

// MapperFunc adapts a plain ColumnTransform to IColumnMapper.
type MapperFunc struct {
	name      string
	transform ColumnTransform
}

func NewMapperFunc(name string, transform ColumnTransform) *MapperFunc {
	return &MapperFunc{
		name:      name,
		transform: transform,
	}
}

func (obj *MapperFunc) Name() string {
	return obj.name
}

func (obj *MapperFunc) OutputType() arrow.DataType {
	return arrow.BinaryTypes.String
}

func (obj *MapperFunc) Apply(ctx context.Context, mem memory.Allocator, column *array.String) (*array.String, error) {
	return obj.transform(ctx, mem, column)
}

// Transform returns the mapper as a bare function value for engines
// that only accept functions.
func Transform(mapper IColumnMapper) ColumnTransform {
	return mapper.Apply
}
