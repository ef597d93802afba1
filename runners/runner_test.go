package runners

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arrowops "github.com/alekLukanen/columnmap/arrowOps"
	"github.com/alekLukanen/columnmap/elements"
)

var errChunkFailed = errors.New("chunk failed")

func strPtr(s string) *string {
	return &s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func buildChunked(mem memory.Allocator, chunks ...[]*string) *arrow.Chunked {
	arrs := make([]arrow.Array, len(chunks))
	for i, c := range chunks {
		arrs[i] = arrowops.NewNullableStringArray(mem, c)
	}
	column := arrow.NewChunked(arrow.BinaryTypes.String, arrs)
	for _, a := range arrs {
		a.Release()
	}
	return column
}

func chunkedValues(t *testing.T, column *arrow.Chunked) [][]*string {
	chunks, err := arrowops.StringChunks(column)
	require.NoError(t, err)
	values := make([][]*string, len(chunks))
	for i, c := range chunks {
		values[i] = arrowops.StringValues(c)
	}
	return values
}

func upperMapper() elements.IColumnMapper {
	return elements.NewMapperFunc("upper", func(ctx context.Context, mem memory.Allocator, column *array.String) (*array.String, error) {
		values := arrowops.StringValues(column)
		for i, v := range values {
			if v != nil {
				values[i] = strPtr(strings.ToUpper(*v))
			}
		}
		return arrowops.NewNullableStringArray(mem, values), nil
	})
}

// fails on any chunk containing the value "bad"
func failingMapper(calls *atomic.Int32) elements.IColumnMapper {
	return elements.NewMapperFunc("failing", func(ctx context.Context, mem memory.Allocator, column *array.String) (*array.String, error) {
		calls.Add(1)
		for _, v := range arrowops.StringValues(column) {
			if v != nil && *v == "bad" {
				return nil, errChunkFailed
			}
		}
		return arrowops.NewNullableStringArray(mem, arrowops.StringValues(column)), nil
	})
}

func truncatingMapper() elements.IColumnMapper {
	return elements.NewMapperFunc("truncating", func(ctx context.Context, mem memory.Allocator, column *array.String) (*array.String, error) {
		return arrowops.NewNullableStringArray(mem, []*string{strPtr("only")}), nil
	})
}

func TestRunners(t *testing.T) {

	type testCase struct {
		caseName string
		runner   IRunner
		input    [][]*string
		expected [][]*string
	}

	input := [][]*string{
		{strPtr("a"), nil},
		{},
		{strPtr("b"), strPtr("c"), nil},
		{nil},
		{strPtr("d")},
	}
	perChunk := [][]*string{
		{strPtr("A"), nil},
		{},
		{strPtr("B"), strPtr("C"), nil},
		{nil},
		{strPtr("D")},
	}

	testCases := []testCase{
		{
			caseName: "single threaded",
			runner:   NewSingleThreadedRunner(testLogger()),
			input:    input,
			expected: perChunk,
		},
		{
			caseName: "parallel keeps chunk order",
			runner:   NewParallelRunner(testLogger(), ParallelRunnerOptions{Workers: 3}),
			input:    input,
			expected: perChunk,
		},
		{
			caseName: "parallel with more workers than chunks",
			runner:   NewParallelRunner(testLogger(), ParallelRunnerOptions{Workers: 32}),
			input:    input,
			expected: perChunk,
		},
		{
			caseName: "whole column",
			runner:   NewWholeColumnRunner(testLogger()),
			input:    input,
			expected: [][]*string{{strPtr("A"), nil, strPtr("B"), strPtr("C"), nil, nil, strPtr("D")}},
		},
		{
			caseName: "no chunks",
			runner:   NewParallelRunner(testLogger(), ParallelRunnerOptions{Workers: 2}),
			input:    [][]*string{},
			expected: [][]*string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.caseName, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			column := buildChunked(mem, tc.input...)
			defer column.Release()

			result, err := tc.runner.Run(context.Background(), mem, upperMapper(), column)
			require.NoError(t, err)
			defer result.Release()

			assert.Equal(t, column.Len(), result.Len())
			assert.Equal(t, tc.expected, chunkedValues(t, result))
		})
	}
}

func TestRunnersFailFast(t *testing.T) {

	type testCase struct {
		caseName    string
		runner      IRunner
		mapper      func(calls *atomic.Int32) elements.IColumnMapper
		expectedErr error
	}

	testCases := []testCase{
		{
			caseName:    "single threaded stops at the failing chunk",
			runner:      NewSingleThreadedRunner(testLogger()),
			mapper:      failingMapper,
			expectedErr: errChunkFailed,
		},
		{
			caseName:    "parallel releases produced chunks",
			runner:      NewParallelRunner(testLogger(), ParallelRunnerOptions{Workers: 2}),
			mapper:      failingMapper,
			expectedErr: errChunkFailed,
		},
		{
			caseName:    "whole column",
			runner:      NewWholeColumnRunner(testLogger()),
			mapper:      failingMapper,
			expectedErr: errChunkFailed,
		},
		{
			caseName: "mapper changing the length is rejected",
			runner:   NewSingleThreadedRunner(testLogger()),
			mapper: func(calls *atomic.Int32) elements.IColumnMapper {
				return truncatingMapper()
			},
			expectedErr: elements.ErrOutputLengthMismatch,
		},
		{
			caseName: "parallel length check",
			runner:   NewParallelRunner(testLogger(), ParallelRunnerOptions{Workers: 4}),
			mapper: func(calls *atomic.Int32) elements.IColumnMapper {
				return truncatingMapper()
			},
			expectedErr: elements.ErrOutputLengthMismatch,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.caseName, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			column := buildChunked(mem,
				[]*string{strPtr("a"), strPtr("b")},
				[]*string{strPtr("bad")},
				[]*string{strPtr("c"), nil},
				[]*string{strPtr("d")},
			)
			defer column.Release()

			var calls atomic.Int32
			result, err := tc.runner.Run(context.Background(), mem, tc.mapper(&calls), column)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestSingleThreadedRunnerStopsAfterFailure(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	column := buildChunked(mem,
		[]*string{strPtr("a")},
		[]*string{strPtr("bad")},
		[]*string{strPtr("c")},
	)
	defer column.Release()

	var calls atomic.Int32
	_, err := NewSingleThreadedRunner(testLogger()).Run(context.Background(), mem, failingMapper(&calls), column)
	assert.ErrorIs(t, err, errChunkFailed)
	assert.Equal(t, int32(2), calls.Load())
}

func TestParallelRunnerCancelledContext(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	column := buildChunked(mem, []*string{strPtr("a")}, []*string{strPtr("b")})
	defer column.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, err := NewParallelRunner(testLogger(), ParallelRunnerOptions{Workers: 2}).Run(ctx, mem, failingMapper(&calls), column)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}

func TestRunnerRejectsNonStringColumn(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewInt64Builder(mem)
	b.AppendValues([]int64{1, 2}, nil)
	arr := b.NewArray()
	b.Release()
	column := arrow.NewChunked(arrow.PrimitiveTypes.Int64, []arrow.Array{arr})
	arr.Release()
	defer column.Release()

	_, err := NewSingleThreadedRunner(testLogger()).Run(context.Background(), mem, upperMapper(), column)
	assert.ErrorIs(t, err, arrowops.ErrUnsupportedDataType)

	_, err = NewWholeColumnRunner(testLogger()).Run(context.Background(), mem, upperMapper(), column)
	assert.ErrorIs(t, err, arrowops.ErrUnsupportedDataType)
}

func TestApplyChunkLengthMismatch(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	chunk := arrowops.NewNullableStringArray(mem, []*string{strPtr("a"), nil, strPtr("b")})
	defer chunk.Release()

	out, err := applyChunk(context.Background(), mem, truncatingMapper(), chunk)
	assert.Nil(t, out)
	require.ErrorIs(t, err, elements.ErrOutputLengthMismatch)
	assert.Contains(t, err.Error(), "mapper truncating returned 1 rows for 3")
}
