package mappers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arrowops "github.com/alekLukanen/columnmap/arrowOps"
)

func TestDictionaryMapper(t *testing.T) {

	type testCase struct {
		caseName    string
		mapping     map[string]string
		options     DictionaryMapOptions
		input       []*string
		expected    []*string
		expectedErr error
	}

	testCases := []testCase{
		{
			caseName: "present keys map, missing keys pass through, nulls stay",
			mapping:  map[string]string{"a": "x", "b": "y"},
			input:    []*string{strPtr("a"), nil, strPtr("c"), strPtr("b")},
			expected: []*string{strPtr("x"), nil, strPtr("c"), strPtr("y")},
		},
		{
			caseName: "empty mapping is a pass through",
			mapping:  map[string]string{},
			input:    []*string{strPtr("a"), strPtr("b")},
			expected: []*string{strPtr("a"), strPtr("b")},
		},
		{
			caseName: "empty chunk",
			mapping:  map[string]string{"a": "x"},
			input:    []*string{},
			expected: []*string{},
		},
		{
			caseName: "all nulls",
			mapping:  map[string]string{"a": "x"},
			input:    []*string{nil, nil},
			expected: []*string{nil, nil},
		},
		{
			caseName: "empty string is an ordinary key",
			mapping:  map[string]string{"": "blank"},
			input:    []*string{strPtr(""), nil},
			expected: []*string{strPtr("blank"), nil},
		},
		{
			caseName: "null policy nulls missing keys",
			mapping:  map[string]string{"a": "x"},
			options:  DictionaryMapOptions{OnMissing: MissingKeyNull},
			input:    []*string{strPtr("a"), strPtr("c"), nil},
			expected: []*string{strPtr("x"), nil, nil},
		},
		{
			caseName:    "fail policy reports the missing key",
			mapping:     map[string]string{"a": "x"},
			options:     DictionaryMapOptions{OnMissing: MissingKeyFail},
			input:       []*string{strPtr("a"), nil, strPtr("c")},
			expectedErr: ErrLookupMiss,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.caseName, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			mapper, err := NewDictionaryMapper(testLogger(), "dict", tc.mapping, tc.options)
			require.NoError(t, err)

			input := buildColumn(mem, tc.input...)
			defer input.Release()

			result, err := mapper.Apply(context.Background(), mem, input)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			defer result.Release()

			assert.Equal(t, input.Len(), result.Len())
			assert.Equal(t, tc.expected, arrowops.StringValues(result))
		})
	}
}

func TestDictionaryMapperFailNamesValue(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	mapper, err := NewDictionaryMapper(testLogger(), "dict", map[string]string{}, DictionaryMapOptions{OnMissing: MissingKeyFail})
	require.NoError(t, err)

	input := buildColumn(mem, nil, strPtr("zz"))
	defer input.Release()

	_, err = mapper.Apply(context.Background(), mem, input)
	var mapErr *MapError
	require.True(t, errors.As(err, &mapErr))
	assert.Equal(t, 1, mapErr.Index)
	assert.Equal(t, "zz", *mapErr.Value)
	assert.Contains(t, err.Error(), `"zz"`)
}

func TestDictionaryMapperCopiesMapping(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	mapping := map[string]string{"a": "x"}
	mapper, err := NewDictionaryMapper(testLogger(), "dict", mapping, DictionaryMapOptions{})
	require.NoError(t, err)
	mapping["a"] = "changed"
	mapping["b"] = "added"

	input := buildColumn(mem, strPtr("a"), strPtr("b"))
	defer input.Release()

	result, err := mapper.Apply(context.Background(), mem, input)
	require.NoError(t, err)
	defer result.Release()

	assert.Equal(t, []*string{strPtr("x"), strPtr("b")}, arrowops.StringValues(result))
	assert.Equal(t, 1, mapper.Size())
}

func TestDictionaryMapperIdempotentOnDisjointImage(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	// the image {x, y} shares nothing with the domain {a, b}
	mapper, err := NewDictionaryMapper(testLogger(), "dict", map[string]string{"a": "x", "b": "y"}, DictionaryMapOptions{})
	require.NoError(t, err)

	input := buildColumn(mem, strPtr("a"), nil, strPtr("q"), strPtr("b"), strPtr("x"))
	defer input.Release()

	once, err := mapper.Apply(context.Background(), mem, input)
	require.NoError(t, err)
	defer once.Release()

	twice, err := mapper.Apply(context.Background(), mem, once)
	require.NoError(t, err)
	defer twice.Release()

	assert.Equal(t, arrowops.StringValues(once), arrowops.StringValues(twice))
}

func TestDictionaryMapperConcurrentChunks(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	mapper, err := NewDictionaryMapper(testLogger(), "dict", map[string]string{"a": "x"}, DictionaryMapOptions{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			input := buildColumn(mem, strPtr("a"), nil, strPtr("b"))
			defer input.Release()

			result, err := mapper.Apply(context.Background(), mem, input)
			if !assert.NoError(t, err) {
				return
			}
			defer result.Release()
			assert.Equal(t, []*string{strPtr("x"), nil, strPtr("b")}, arrowops.StringValues(result))
		}()
	}
	wg.Wait()
}

func TestMapperOptionsValidate(t *testing.T) {
	dictOpts := DictionaryMapOptions{}
	require.NoError(t, dictOpts.Validate())
	assert.Equal(t, MissingKeyPassThrough, dictOpts.OnMissing)
	assert.Equal(t, DictionaryMapperType, dictOpts.MapperType())

	callbackOpts := CallbackMapOptions{}
	require.NoError(t, callbackOpts.Validate())
	assert.Equal(t, InvocationPerChunk, callbackOpts.Mode)
	assert.Equal(t, CallbackMapperType, callbackOpts.MapperType())

	badDict := DictionaryMapOptions{OnMissing: "drop"}
	assert.ErrorIs(t, badDict.Validate(), ErrValidation)

	badCallback := CallbackMapOptions{Mode: "per-row"}
	assert.ErrorIs(t, badCallback.Validate(), ErrValidation)
}
