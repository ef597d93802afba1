package host

import (
	"context"
)

// ICallback is a handle to a function living outside the engine. Invoke
// must return exactly one value per input, in input order. Returned values
// are nil for null, or whatever the host produced (string, []byte, int64,
// float64, bool, ...). The engine decides what it can convert.
type ICallback interface {
	Invoke(ctx context.Context, values []*string) ([]any, error)
}

// CallbackFunc is a batch callback implemented in-process.
type CallbackFunc func(ctx context.Context, values []*string) ([]any, error)

func (obj CallbackFunc) Invoke(ctx context.Context, values []*string) ([]any, error) {
	return obj(ctx, values)
}

// ElementFunc lifts a per-value function to a batch callback. The first
// failing value stops the batch and is reported with its index.
type ElementFunc func(ctx context.Context, value string) (any, error)

func (obj ElementFunc) Invoke(ctx context.Context, values []*string) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		result, err := obj(ctx, *v)
		if err != nil {
			return nil, &HostError{Index: i, Message: err.Error()}
		}
		out[i] = result
	}
	return out, nil
}
