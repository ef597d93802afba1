package arrowops

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

func CastArraysToBaseDataType[T arrow.Array](arrays ...arrow.Array) ([]T, error) {
	castArrays := make([]T, len(arrays))
	for i, arr := range arrays {
		castArr, ok := arr.(T)
		if !ok {
			return nil, fmt.Errorf("%w| array %d has type %s", ErrUnsupportedDataType, i, arr.DataType())
		}
		castArrays[i] = castArr
	}
	return castArrays, nil
}

// StringChunks returns the chunks of a string column. The chunks are
// borrowed from the chunked array.
func StringChunks(column *arrow.Chunked) ([]*array.String, error) {
	if column.DataType().ID() != arrow.STRING {
		return nil, fmt.Errorf("%w| expected string column but received %s", ErrUnsupportedDataType, column.DataType())
	}
	return CastArraysToBaseDataType[*array.String](column.Chunks()...)
}
