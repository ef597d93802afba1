package runners

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/alekLukanen/columnmap/elements"
)

// IRunner drives a mapper over every chunk of a column. The input column
// is borrowed, the returned column is owned by the caller.
type IRunner interface {
	Run(ctx context.Context, mem memory.Allocator, mapper elements.IColumnMapper, column *arrow.Chunked) (*arrow.Chunked, error)
}

func applyChunk(ctx context.Context, mem memory.Allocator, mapper elements.IColumnMapper, chunk *array.String) (*array.String, error) {
	out, err := mapper.Apply(ctx, mem, chunk)
	if err != nil {
		return nil, err
	}
	if outLen := out.Len(); outLen != chunk.Len() {
		out.Release()
		return nil, fmt.Errorf(
			"%w| mapper %s returned %d rows for %d", elements.ErrOutputLengthMismatch, mapper.Name(), outLen, chunk.Len(),
		)
	}
	return out, nil
}

// newChunked takes ownership of the chunks.
func newChunked(dtype arrow.DataType, chunks []*array.String) *arrow.Chunked {
	arrs := make([]arrow.Array, len(chunks))
	for i, c := range chunks {
		arrs[i] = c
	}
	column := arrow.NewChunked(dtype, arrs)
	releaseChunks(chunks)
	return column
}

func releaseChunks(chunks []*array.String) {
	for _, c := range chunks {
		if c != nil {
			c.Release()
		}
	}
}
