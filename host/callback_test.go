package host

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementFunc(t *testing.T) {
	calls := 0
	upper := ElementFunc(func(ctx context.Context, value string) (any, error) {
		calls++
		if value == "bad" {
			return nil, errors.New("cannot map bad")
		}
		return strings.ToUpper(value), nil
	})

	t.Run("nulls are skipped", func(t *testing.T) {
		calls = 0
		out, err := upper.Invoke(context.Background(), []*string{strPtr("a"), nil, strPtr("b")})
		require.NoError(t, err)
		assert.Equal(t, []any{"A", nil, "B"}, out)
		assert.Equal(t, 2, calls)
	})

	t.Run("failure reports the index", func(t *testing.T) {
		calls = 0
		_, err := upper.Invoke(context.Background(), []*string{strPtr("a"), strPtr("bad"), strPtr("c")})

		var hostErr *HostError
		require.ErrorAs(t, err, &hostErr)
		assert.Equal(t, 1, hostErr.Index)
		assert.Equal(t, "cannot map bad", hostErr.Message)
		assert.Equal(t, 2, calls)
	})
}

func TestHostErrorMessage(t *testing.T) {
	assert.Equal(t, "host error at input 3: boom", (&HostError{Index: 3, Message: "boom"}).Error())
	assert.Equal(t, "host error: boom", (&HostError{Index: -1, Message: "boom"}).Error())
}

func TestBuiltinCallbacks(t *testing.T) {
	type testCase struct {
		handle   string
		input    []*string
		expected []any
	}

	testCases := []testCase{
		{handle: "uppercase", input: []*string{strPtr("ab"), nil}, expected: []any{"AB", nil}},
		{handle: "lowercase", input: []*string{strPtr("AB")}, expected: []any{"ab"}},
		{handle: "trim-space", input: []*string{strPtr("  ab ")}, expected: []any{"ab"}},
		{handle: "reverse", input: []*string{strPtr("héllo"), strPtr("")}, expected: []any{"olléh", ""}},
	}

	callbacks := BuiltinCallbacks()
	for _, tc := range testCases {
		t.Run(tc.handle, func(t *testing.T) {
			callback, ok := callbacks[tc.handle]
			require.True(t, ok)
			out, err := callback.Invoke(context.Background(), tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}
