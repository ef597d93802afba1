package runners

import (
	"context"
	"log/slog"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	arrowops "github.com/alekLukanen/columnmap/arrowOps"
	"github.com/alekLukanen/columnmap/elements"
)

// WholeColumnRunner flattens the column into a single chunk and applies
// the mapper once. Useful for callback mappers where every chunk costs a
// boundary crossing.
type WholeColumnRunner struct {
	logger *slog.Logger
}

func NewWholeColumnRunner(logger *slog.Logger) *WholeColumnRunner {
	return &WholeColumnRunner{logger: logger}
}

func (obj *WholeColumnRunner) Run(ctx context.Context, mem memory.Allocator, mapper elements.IColumnMapper, column *arrow.Chunked) (*arrow.Chunked, error) {
	flat, err := arrowops.ConcatenateStringChunks(mem, column)
	if err != nil {
		return nil, err
	}
	defer flat.Release()

	out, err := applyChunk(ctx, mem, mapper, flat)
	if err != nil {
		return nil, err
	}

	obj.logger.Debug(
		"applied mapper to whole column",
		slog.String("mapper", mapper.Name()),
		slog.Int("chunks", len(column.Chunks())),
		slog.Int("rows", column.Len()),
	)
	return newChunked(mapper.OutputType(), []*array.String{out}), nil
}
