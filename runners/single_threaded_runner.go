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

// SingleThreadedRunner applies the mapper to one chunk at a time in
// chunk order.
type SingleThreadedRunner struct {
	logger *slog.Logger
}

func NewSingleThreadedRunner(logger *slog.Logger) *SingleThreadedRunner {
	return &SingleThreadedRunner{logger: logger}
}

func (obj *SingleThreadedRunner) Run(ctx context.Context, mem memory.Allocator, mapper elements.IColumnMapper, column *arrow.Chunked) (*arrow.Chunked, error) {
	chunks, err := arrowops.StringChunks(column)
	if err != nil {
		return nil, err
	}

	outputs := make([]*array.String, 0, len(chunks))
	for idx, chunk := range chunks {
		out, err := applyChunk(ctx, mem, mapper, chunk)
		if err != nil {
			obj.logger.Debug(
				"chunk failed",
				slog.String("mapper", mapper.Name()),
				slog.Int("chunk", idx),
			)
			releaseChunks(outputs)
			return nil, err
		}
		outputs = append(outputs, out)
	}

	return newChunked(mapper.OutputType(), outputs), nil
}
