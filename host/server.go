package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alekLukanen/errs"

	"github.com/alekLukanen/columnmap/storage"
)

// IHostRequestQueue is the host side of a remote handle.
type IHostRequestQueue interface {
	PopHostRequest(ctx context.Context, handle string, timeout time.Duration) ([]byte, error)
	PushHostResponse(ctx context.Context, handle, requestId string, data []byte) error
}

type ServerOptions struct {
	PollTimeout time.Duration
}

// Server answers engine requests for the callbacks registered on it. Each
// handle is served by one goroutine so a handle never runs two calls at
// once.
type Server struct {
	logger *slog.Logger

	queue    IHostRequestQueue
	codec    *BatchCodec
	registry *callbackRegistry
	options  ServerOptions
}

func NewServer(
	logger *slog.Logger,
	queue IHostRequestQueue,
	options ServerOptions,
) (*Server, error) {
	if options.PollTimeout == 0 {
		options.PollTimeout = 5 * time.Second
	}
	codec, err := NewBatchCodec()
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &Server{
		logger:   logger,
		queue:    queue,
		codec:    codec,
		registry: newCallbackRegistry(),
		options:  options,
	}, nil
}

func (obj *Server) RegisterCallback(handle string, callback ICallback) *Server {
	obj.registry.addCallback(handle, callback)
	return obj
}

func (obj *Server) Handles() []string {
	return obj.registry.handles()
}

// ServeAll serves every registered handle until ctx is done.
func (obj *Server) ServeAll(ctx context.Context) error {
	handles := obj.registry.handles()
	errCh := make(chan error, len(handles))

	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func(handle string) {
			defer wg.Done()
			errCh <- obj.Serve(ctx, handle)
		}(h)
	}
	wg.Wait()
	close(errCh)

	var result error
	for err := range errCh {
		if err != nil {
			result = errors.Join(result, err)
		}
	}
	return result
}

func (obj *Server) Serve(ctx context.Context, handle string) error {
	if _, err := obj.registry.findCallback(handle); err != nil {
		return errs.Wrap(err)
	}

	obj.logger.Info("serving host handle", slog.String("handle", handle))
	defer obj.logger.Info("stopped serving host handle", slog.String("handle", handle))

	for {
		if ctx.Err() != nil {
			return nil
		}

		data, err := obj.queue.PopHostRequest(ctx, handle, obj.options.PollTimeout)
		if errors.Is(err, storage.ErrNoHostRequest) {
			continue
		} else if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errs.Wrap(err)
		}

		resp, err := obj.handle(ctx, handle, data)
		if err != nil {
			obj.logger.Error(
				"dropping host request",
				slog.String("handle", handle),
				slog.String("error", err.Error()),
			)
			continue
		}

		respData, err := obj.codec.EncodeResponse(resp)
		if err != nil {
			obj.logger.Warn(
				"failed to encode host response",
				slog.String("handle", handle),
				slog.String("requestId", resp.Id),
				slog.String("error", err.Error()),
			)
			respData, err = obj.codec.EncodeResponse(Response{
				Id:    resp.Id,
				Error: &HostError{Index: -1, Message: err.Error()},
			})
			if err != nil {
				return errs.NewStackError(err)
			}
		}

		err = obj.queue.PushHostResponse(context.WithoutCancel(ctx), handle, resp.Id, respData)
		if err != nil {
			return errs.Wrap(err)
		}
	}
}

// handle only fails when the request cannot be answered at all.
func (obj *Server) handle(ctx context.Context, handle string, data []byte) (Response, error) {
	req, err := obj.codec.DecodeRequest(data)
	if err != nil {
		return Response{}, err
	}
	if req.Handle != handle {
		return Response{}, fmt.Errorf("%w| request for %s received on %s", ErrMalformedMessage, req.Handle, handle)
	}

	callback, err := obj.registry.findCallback(handle)
	if err != nil {
		return Response{Id: req.Id, Error: &HostError{Index: -1, Message: err.Error()}}, nil
	}

	values, err := invokeRecovered(ctx, callback, req.Values)
	if err != nil {
		var hostErr *HostError
		if errors.As(err, &hostErr) {
			return Response{Id: req.Id, Error: hostErr}, nil
		}
		return Response{Id: req.Id, Error: &HostError{Index: -1, Message: err.Error()}}, nil
	}
	return Response{Id: req.Id, Values: values}, nil
}

func invokeRecovered(ctx context.Context, callback ICallback, values []*string) (result []any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &HostError{Index: -1, Message: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return callback.Invoke(ctx, values)
}
