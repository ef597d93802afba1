package operations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	arrowops "github.com/alekLukanen/columnmap/arrowOps"
	"github.com/alekLukanen/columnmap/elements"
	"github.com/alekLukanen/columnmap/runners"
)

/*
* Evaluator applies column expressions in order. Each expression sees the
* output of the ones before it, so a later expression may read a column
* an earlier one produced. A failing expression fails the whole
* evaluation and nothing partial is returned.
 */
type Evaluator struct {
	logger *slog.Logger
	runner runners.IRunner
}

func NewEvaluator(logger *slog.Logger, runner runners.IRunner) *Evaluator {
	return &Evaluator{
		logger: logger,
		runner: runner,
	}
}

func (obj *Evaluator) EvaluateTable(ctx context.Context, mem memory.Allocator, tbl arrow.Table, exprs ...elements.ColumnExpression) (arrow.Table, error) {
	if err := validateExpressions(exprs); err != nil {
		return nil, err
	}

	current := tbl
	current.Retain()
	for idx, expr := range exprs {
		colIdx, err := expr.ValidateInput(current.Schema())
		if err != nil {
			current.Release()
			return nil, expressionError(idx, expr, err)
		}

		result, err := obj.runner.Run(ctx, mem, expr.Mapper, current.Column(colIdx).Data())
		if err != nil {
			current.Release()
			return nil, expressionError(idx, expr, err)
		}

		next, err := arrowops.SetTableColumn(current, expr.OutputField(), result)
		result.Release()
		current.Release()
		if err != nil {
			return nil, expressionError(idx, expr, err)
		}
		current = next

		obj.logger.Debug(
			"evaluated expression",
			slog.String("mapper", expr.Mapper.Name()),
			slog.String("input", expr.InputColumn),
			slog.String("output", expr.OutputName()),
			slog.Int64("rows", current.NumRows()),
		)
	}
	return current, nil
}

func (obj *Evaluator) EvaluateRecord(ctx context.Context, mem memory.Allocator, rec arrow.Record, exprs ...elements.ColumnExpression) (arrow.Record, error) {
	if err := validateExpressions(exprs); err != nil {
		return nil, err
	}

	current := rec
	current.Retain()
	for idx, expr := range exprs {
		colIdx, err := expr.ValidateInput(current.Schema())
		if err != nil {
			current.Release()
			return nil, expressionError(idx, expr, err)
		}

		column := arrow.NewChunked(current.Column(colIdx).DataType(), []arrow.Array{current.Column(colIdx)})
		result, err := obj.runner.Run(ctx, mem, expr.Mapper, column)
		column.Release()
		if err != nil {
			current.Release()
			return nil, expressionError(idx, expr, err)
		}

		arr, err := singleArray(mem, result)
		result.Release()
		if err != nil {
			current.Release()
			return nil, expressionError(idx, expr, err)
		}

		next, err := arrowops.SetColumn(current, expr.OutputField(), arr)
		arr.Release()
		current.Release()
		if err != nil {
			return nil, expressionError(idx, expr, err)
		}
		current = next
	}
	return current, nil
}

// EvaluateRecord runs the expressions over a record with a single
// threaded runner.
func EvaluateRecord(ctx context.Context, logger *slog.Logger, mem memory.Allocator, rec arrow.Record, exprs ...elements.ColumnExpression) (arrow.Record, error) {
	return NewEvaluator(logger, runners.NewSingleThreadedRunner(logger)).EvaluateRecord(ctx, mem, rec, exprs...)
}

// EvaluateTable runs the expressions over a table with a single threaded
// runner.
func EvaluateTable(ctx context.Context, logger *slog.Logger, mem memory.Allocator, tbl arrow.Table, exprs ...elements.ColumnExpression) (arrow.Table, error) {
	return NewEvaluator(logger, runners.NewSingleThreadedRunner(logger)).EvaluateTable(ctx, mem, tbl, exprs...)
}

func validateExpressions(exprs []elements.ColumnExpression) error {
	for idx, expr := range exprs {
		if err := expr.Validate(); err != nil {
			return expressionError(idx, expr, err)
		}
	}
	return nil
}

// a runner may hand back several chunks, a record column needs one array
func singleArray(mem memory.Allocator, column *arrow.Chunked) (*array.String, error) {
	if len(column.Chunks()) == 1 {
		arr, ok := column.Chunk(0).(*array.String)
		if !ok {
			return nil, fmt.Errorf("%w| expected string output but received %s", arrowops.ErrUnsupportedDataType, column.DataType())
		}
		arr.Retain()
		return arr, nil
	}
	return arrowops.ConcatenateStringChunks(mem, column)
}

func expressionError(idx int, expr elements.ColumnExpression, err error) error {
	mapperName := ""
	if expr.Mapper != nil {
		mapperName = expr.Mapper.Name()
	}
	return fmt.Errorf(
		"%w| expression %d (%s -> %s using %s): %w",
		ErrExpressionFailed, idx, expr.InputColumn, expr.OutputName(), mapperName, err,
	)
}
