package mappers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	arrowops "github.com/alekLukanen/columnmap/arrowOps"
	"github.com/alekLukanen/columnmap/dispatch"
	"github.com/alekLukanen/columnmap/host"
)

// IDispatcher is the serialized path to one host callback handle.
type IDispatcher interface {
	Name() string
	Invoke(ctx context.Context, values []*string) ([]any, error)
}

// CallbackMapper sends the non-null values of a chunk across the host
// boundary and scatters the answers back to their positions. Nulls never
// cross the boundary.
type CallbackMapper struct {
	logger *slog.Logger

	name       string
	dispatcher IDispatcher
	options    CallbackMapOptions
}

func NewCallbackMapper(
	logger *slog.Logger,
	name string,
	dispatcher IDispatcher,
	options CallbackMapOptions,
) (*CallbackMapper, error) {
	if dispatcher == nil {
		return nil, errs.NewStackError(fmt.Errorf("%w: dispatcher is required", ErrInvalidMapperOptions))
	}
	if err := options.Validate(); err != nil {
		return nil, errs.Wrap(err)
	}
	return &CallbackMapper{
		logger:     logger,
		name:       name,
		dispatcher: dispatcher,
		options:    options,
	}, nil
}

func (obj *CallbackMapper) Name() string {
	return obj.name
}

func (obj *CallbackMapper) OutputType() arrow.DataType {
	return arrow.BinaryTypes.String
}

/*
* Cancellation is only observed before the chunk starts. Once the first
* crossing for a chunk has begun the remaining crossings of that chunk run
* to completion (or to the boundary timeout) so the host never sees half
* of a chunk.
 */
func (obj *CallbackMapper) Apply(ctx context.Context, mem memory.Allocator, column *array.String) (*array.String, error) {
	if err := ctx.Err(); err != nil {
		return nil, newMapError(ErrCancelled, obj.name, -1, nil, "cancelled before chunk", err)
	}

	values, positions := arrowops.GatherValidStrings(column)
	results := make([]*string, len(values))

	if len(values) > 0 {
		var err error
		switch obj.options.Mode {
		case InvocationPerElement:
			err = obj.invokePerElement(ctx, values, positions, results)
		default:
			err = obj.invokeBatch(ctx, values, positions, results, 0)
		}
		if err != nil {
			return nil, err
		}
	}

	obj.logger.Debug(
		"callback mapped chunk",
		slog.String("mapper", obj.name),
		slog.String("mode", string(obj.options.Mode)),
		slog.Int("rows", column.Len()),
		slog.Int("sent", len(values)),
	)

	out, err := arrowops.ScatterStrings(mem, column.Len(), positions, results)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return out, nil
}

func (obj *CallbackMapper) invokePerElement(ctx context.Context, values []*string, positions []int, results []*string) error {
	// the first crossing may still be abandoned while it waits in the
	// dispatch queue, later ones belong to a chunk already in progress
	callCtx := ctx
	for k := range values {
		if err := obj.invokeBatch(callCtx, values[k:k+1], positions[k:k+1], results[k:k+1], k); err != nil {
			return err
		}
		callCtx = context.WithoutCancel(ctx)
	}
	return nil
}

func (obj *CallbackMapper) invokeBatch(ctx context.Context, values []*string, positions []int, results []*string, offset int) error {
	returned, err := obj.dispatcher.Invoke(ctx, values)
	if err != nil {
		return obj.classify(ctx, err, values, positions)
	}

	if len(returned) != len(values) {
		return newMapError(
			ErrTypeMismatch, obj.name, -1, nil,
			fmt.Sprintf("host returned %d values for %d inputs starting at input %d", len(returned), len(values), offset),
			nil,
		)
	}

	for k, v := range returned {
		converted, ok := toOptionalString(v)
		if !ok {
			return newMapError(
				ErrTypeMismatch, obj.name, positions[k], values[k],
				fmt.Sprintf("host returned %T (%v), expected string", v, v),
				nil,
			)
		}
		results[k] = converted
	}
	return nil
}

func (obj *CallbackMapper) classify(ctx context.Context, err error, values []*string, positions []int) error {
	var hostErr *host.HostError
	switch {
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return newMapError(ErrCancelled, obj.name, -1, nil, "cancelled while waiting for dispatch", err)
	case errors.Is(err, dispatch.ErrCallTimeout), errors.Is(err, context.DeadlineExceeded):
		return newMapError(ErrBoundaryTimeout, obj.name, -1, nil, err.Error(), err)
	case errors.As(err, &hostErr):
		if hostErr.Index >= 0 && hostErr.Index < len(values) {
			return newMapError(ErrCallbackThrew, obj.name, positions[hostErr.Index], values[hostErr.Index], hostErr.Message, err)
		}
		return newMapError(ErrCallbackThrew, obj.name, -1, nil, hostErr.Message, err)
	default:
		if len(values) == 1 {
			return newMapError(ErrCallbackThrew, obj.name, positions[0], values[0], err.Error(), err)
		}
		return newMapError(ErrCallbackThrew, obj.name, -1, nil, err.Error(), err)
	}
}

func toOptionalString(v any) (*string, bool) {
	switch value := v.(type) {
	case nil:
		return nil, true
	case string:
		return &value, true
	case *string:
		return value, true
	case []byte:
		if !utf8.Valid(value) {
			return nil, false
		}
		s := string(value)
		return &s, true
	default:
		return nil, false
	}
}
