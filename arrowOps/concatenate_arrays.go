package arrowops

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

/*
* Returns a concatenated array from the provided homogeneous arrays.
* If only one array is provided the resulting array will still be a
* net new array. Null slots are preserved.
 */
func ConcatenateArrays(mem memory.Allocator, arrays ...arrow.Array) (arrow.Array, error) {
	// reference couting
	for _, arr := range arrays {
		arr.Retain()
	}
	defer func() {
		for _, arr := range arrays {
			arr.Release()
		}
	}()

	// validate the arrays
	if len(arrays) == 0 {
		return nil, fmt.Errorf("%w: expected at least one array but received 0", ErrNoDataSupplied)
	}
	arrayDataType := arrays[0].DataType()
	if len(arrays) > 1 {
		for _, arr := range arrays[1:] {
			if arrayDataType.ID() != arr.DataType().ID() {
				return nil, fmt.Errorf("%w: %s and %s", ErrDataTypesNotEqual, arrayDataType, arr.DataType())
			}
		}
	}

	switch arrayDataType.ID() {
	case arrow.STRING:
		castArrays, err := CastArraysToBaseDataType[*array.String](arrays...)
		if err != nil {
			return nil, err
		}
		return concatNativeArray[string](array.NewStringBuilder(mem), castArrays), nil
	case arrow.BINARY:
		castArrays, err := CastArraysToBaseDataType[*array.Binary](arrays...)
		if err != nil {
			return nil, err
		}
		return concatNativeArray[string](binaryStringBuilder{array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)}, wrapBinaryArrays(castArrays)), nil
	case arrow.BOOL:
		castArrays, err := CastArraysToBaseDataType[*array.Boolean](arrays...)
		if err != nil {
			return nil, err
		}
		return concatNativeArray[bool](array.NewBooleanBuilder(mem), castArrays), nil
	case arrow.INT32:
		castArrays, err := CastArraysToBaseDataType[*array.Int32](arrays...)
		if err != nil {
			return nil, err
		}
		return concatNativeArray[int32](array.NewInt32Builder(mem), castArrays), nil
	case arrow.INT64:
		castArrays, err := CastArraysToBaseDataType[*array.Int64](arrays...)
		if err != nil {
			return nil, err
		}
		return concatNativeArray[int64](array.NewInt64Builder(mem), castArrays), nil
	case arrow.FLOAT64:
		castArrays, err := CastArraysToBaseDataType[*array.Float64](arrays...)
		if err != nil {
			return nil, err
		}
		return concatNativeArray[float64](array.NewFloat64Builder(mem), castArrays), nil
	default:
		return nil, fmt.Errorf("%w: unsupported data type %s", ErrUnsupportedDataType, arrayDataType.Name())
	}
}

// ConcatenateStringChunks flattens a chunked string column into one array.
func ConcatenateStringChunks(mem memory.Allocator, column *arrow.Chunked) (*array.String, error) {
	if column.DataType().ID() != arrow.STRING {
		return nil, fmt.Errorf("%w| expected string column but received %s", ErrUnsupportedDataType, column.DataType())
	}
	if len(column.Chunks()) == 0 {
		b := array.NewStringBuilder(mem)
		defer b.Release()
		return b.NewStringArray(), nil
	}
	arr, err := ConcatenateArrays(mem, column.Chunks()...)
	if err != nil {
		return nil, err
	}
	return arr.(*array.String), nil
}

type newArrayBuilder[T comparable] interface {
	arrayBuilder[T]
	NewArray() arrow.Array
}

func concatNativeArray[T comparable, E valueArray[T]](builder newArrayBuilder[T], arrays []E) arrow.Array {
	defer builder.Release()

	// get the total number of rows in the concatenated array
	var numRows int
	for _, arr := range arrays {
		numRows += arr.Len()
	}
	builder.Reserve(numRows)

	for _, arr := range arrays {
		for idx := 0; idx < arr.Len(); idx++ {
			if arr.IsNull(idx) {
				builder.AppendNull()
			} else {
				builder.Append(arr.Value(idx))
			}
		}
	}
	return builder.NewArray()
}

// binary values are appended through their string form so that the
// generic path can be shared with the string type
type binaryStringBuilder struct {
	*array.BinaryBuilder
}

func (obj binaryStringBuilder) Append(v string) {
	obj.BinaryBuilder.AppendString(v)
}

type binaryStringArray struct {
	*array.Binary
}

func (obj binaryStringArray) Value(i int) string {
	return obj.Binary.ValueString(i)
}

func wrapBinaryArrays(arrays []*array.Binary) []binaryStringArray {
	wrapped := make([]binaryStringArray, len(arrays))
	for i, arr := range arrays {
		wrapped[i] = binaryStringArray{arr}
	}
	return wrapped
}
