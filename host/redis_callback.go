package host

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/google/uuid"

	"github.com/alekLukanen/columnmap/storage"
)

// IHostQueue is the engine side of a remote host handle.
type IHostQueue interface {
	PushHostRequest(ctx context.Context, handle string, data []byte) error
	PopHostResponse(ctx context.Context, handle, requestId string, timeout time.Duration) ([]byte, error)

	ClaimHandle(ctx context.Context, handle string, expiry time.Duration) (storage.ILock, error)
	ReleaseHandle(ctx context.Context, lock storage.ILock) (bool, error)
}

type RedisCallbackOptions struct {
	Handle string

	// ResponseTimeout is used when the call context has no deadline.
	ResponseTimeout time.Duration

	// Exclusive holds a lock on the handle for the whole crossing so only
	// one engine process talks to the host at a time.
	Exclusive  bool
	LockExpiry time.Duration
}

// RedisCallback forwards batches to a host process listening on the
// handle's request list and waits for the matching response.
type RedisCallback struct {
	logger *slog.Logger

	queue   IHostQueue
	codec   *BatchCodec
	options RedisCallbackOptions
}

func NewRedisCallback(
	logger *slog.Logger,
	queue IHostQueue,
	options RedisCallbackOptions,
) (*RedisCallback, error) {
	if options.Handle == "" {
		return nil, errs.NewStackError(fmt.Errorf("%w| handle is required", ErrMalformedMessage))
	}
	if options.ResponseTimeout == 0 {
		options.ResponseTimeout = 30 * time.Second
	}
	if options.LockExpiry == 0 {
		options.LockExpiry = 2 * options.ResponseTimeout
	}

	codec, err := NewBatchCodec()
	if err != nil {
		return nil, errs.Wrap(err)
	}

	return &RedisCallback{
		logger:  logger,
		queue:   queue,
		codec:   codec,
		options: options,
	}, nil
}

func (obj *RedisCallback) Invoke(ctx context.Context, values []*string) ([]any, error) {
	req := Request{
		Id:     uuid.New().String(),
		Handle: obj.options.Handle,
		Values: values,
	}
	data, err := obj.codec.EncodeRequest(req)
	if err != nil {
		return nil, errs.NewStackError(err)
	}

	if obj.options.Exclusive {
		lock, err := obj.queue.ClaimHandle(ctx, obj.options.Handle, obj.options.LockExpiry)
		if err != nil {
			return nil, errs.Wrap(err)
		}
		defer func() {
			if _, err := obj.queue.ReleaseHandle(context.WithoutCancel(ctx), lock); err != nil {
				obj.logger.Warn(
					"failed to release host handle",
					slog.String("handle", obj.options.Handle),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	err = obj.queue.PushHostRequest(ctx, obj.options.Handle, data)
	if err != nil {
		return nil, errs.Wrap(err)
	}

	// keep the chain intact so an expired wait still reads as a deadline
	respData, err := obj.queue.PopHostResponse(ctx, obj.options.Handle, req.Id, obj.responseTimeout(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w| handle %s", err, obj.options.Handle)
	}

	resp, err := obj.codec.DecodeResponse(respData)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	if resp.Id != req.Id {
		return nil, fmt.Errorf("%w| expected %s but received %s", ErrResponseIdMismatch, req.Id, resp.Id)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	obj.logger.Debug(
		"host call returned",
		slog.String("handle", obj.options.Handle),
		slog.String("requestId", req.Id),
		slog.Int("values", len(values)),
	)
	return resp.Values, nil
}

// blocking pops work in whole seconds
func (obj *RedisCallback) responseTimeout(ctx context.Context) time.Duration {
	timeout := obj.options.ResponseTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout < time.Second {
		return time.Second
	}
	return timeout.Truncate(time.Second)
}
