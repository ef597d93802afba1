package runners

import (
	"context"
	"log/slog"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"golang.org/x/sync/errgroup"

	arrowops "github.com/alekLukanen/columnmap/arrowOps"
	"github.com/alekLukanen/columnmap/elements"
)

type ParallelRunnerOptions struct {
	Workers int
}

/*
* ParallelRunner hands chunks to a bounded pool of workers. Output chunks
* keep the order of the input chunks. The first failing chunk cancels the
* chunks that have not started yet and every chunk already produced is
* released.
 */
type ParallelRunner struct {
	logger  *slog.Logger
	options ParallelRunnerOptions
}

func NewParallelRunner(logger *slog.Logger, options ParallelRunnerOptions) *ParallelRunner {
	if options.Workers <= 0 {
		options.Workers = 1
	}
	return &ParallelRunner{logger: logger, options: options}
}

func (obj *ParallelRunner) Run(ctx context.Context, mem memory.Allocator, mapper elements.IColumnMapper, column *arrow.Chunked) (*arrow.Chunked, error) {
	chunks, err := arrowops.StringChunks(column)
	if err != nil {
		return nil, err
	}

	outputs := make([]*array.String, len(chunks))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(obj.options.Workers)
	for idx, chunk := range chunks {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			out, err := applyChunk(gCtx, mem, mapper, chunk)
			if err != nil {
				return err
			}
			outputs[idx] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		obj.logger.Debug(
			"parallel run failed",
			slog.String("mapper", mapper.Name()),
			slog.Int("chunks", len(chunks)),
			slog.String("error", err.Error()),
		)
		releaseChunks(outputs)
		return nil, err
	}
	// an already cancelled ctx can stop the loop before any chunk fails
	if err := ctx.Err(); err != nil {
		releaseChunks(outputs)
		return nil, err
	}

	return newChunked(mapper.OutputType(), outputs), nil
}
