package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alekLukanen/columnmap/host"
)

type Options struct {
	// Timeout bounds the time a caller waits for a crossing, queueing
	// included. Zero waits indefinitely.
	Timeout time.Duration

	// LockOSThread pins every crossing to the dispatch goroutine's OS
	// thread for hosts that designate a single thread.
	LockOSThread bool
}

const (
	stateQueued int32 = iota
	stateStarted
	stateAbandoned
)

type response struct {
	values []any
	err    error
}

type request struct {
	ctx      context.Context
	deadline time.Time
	values   []*string

	state   atomic.Int32
	started chan struct{}
	done    chan response
}

// Dispatcher owns one host callback handle. Every crossing runs on a
// single goroutine, one at a time, in the order callers arrived.
type Dispatcher struct {
	logger *slog.Logger

	name     string
	callback host.ICallback
	options  Options
	metrics  *Metrics

	requests  chan *request
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewDispatcher(
	logger *slog.Logger,
	name string,
	callback host.ICallback,
	options Options,
	metrics *Metrics,
) *Dispatcher {
	obj := &Dispatcher{
		logger:   logger,
		name:     name,
		callback: callback,
		options:  options,
		metrics:  metrics,
		requests: make(chan *request),
		closed:   make(chan struct{}),
	}
	obj.wg.Add(1)
	go obj.loop()
	return obj
}

func (obj *Dispatcher) Name() string {
	return obj.name
}

/*
* Invoke blocks until the host answers, the timeout expires or the
* dispatcher is closed. A cancelled ctx only aborts the call while it is
* still waiting for its turn. After the crossing has started the call is
* allowed to finish so the host is never interrupted mid-call.
 */
func (obj *Dispatcher) Invoke(ctx context.Context, values []*string) ([]any, error) {
	req := &request{
		ctx:     ctx,
		values:  values,
		started: make(chan struct{}),
		done:    make(chan response, 1),
	}

	var timeout <-chan struct{}
	if obj.options.Timeout > 0 {
		timeoutCtx, cancel := context.WithTimeout(context.Background(), obj.options.Timeout)
		defer cancel()
		req.deadline, _ = timeoutCtx.Deadline()
		timeout = timeoutCtx.Done()
	}

	select {
	case obj.requests <- req:
	case <-ctx.Done():
		obj.metrics.observeDrop(obj.name)
		return nil, ctx.Err()
	case <-timeout:
		return nil, obj.timeoutError(len(values))
	case <-obj.closed:
		return nil, fmt.Errorf("%w| handle %s", ErrDispatcherClosed, obj.name)
	}

	select {
	case <-req.started:
	case <-ctx.Done():
		if req.state.CompareAndSwap(stateQueued, stateAbandoned) {
			obj.metrics.observeDrop(obj.name)
			return nil, ctx.Err()
		}
	case <-timeout:
		if req.state.CompareAndSwap(stateQueued, stateAbandoned) {
			return nil, obj.timeoutError(len(values))
		}
	}

	select {
	case resp := <-req.done:
		return resp.values, resp.err
	case <-timeout:
		return nil, obj.timeoutError(len(values))
	}
}

// Close stops accepting calls and waits for the in-flight crossing.
func (obj *Dispatcher) Close() {
	obj.closeOnce.Do(func() {
		close(obj.closed)
	})
	obj.wg.Wait()
}

func (obj *Dispatcher) loop() {
	defer obj.wg.Done()

	if obj.options.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	for {
		select {
		case <-obj.closed:
			return
		case req := <-obj.requests:
			obj.serve(req)
		}
	}
}

func (obj *Dispatcher) serve(req *request) {
	if req.ctx.Err() != nil || !req.state.CompareAndSwap(stateQueued, stateStarted) {
		return
	}
	close(req.started)

	callCtx := context.WithoutCancel(req.ctx)
	cancel := func() {}
	if !req.deadline.IsZero() {
		callCtx, cancel = context.WithDeadline(callCtx, req.deadline)
	}
	defer cancel()

	start := time.Now()
	values, err := obj.invoke(callCtx, req.values)
	elapsed := time.Since(start)
	obj.metrics.observeCall(obj.name, len(req.values), elapsed, err)

	if err != nil {
		obj.logger.Warn(
			"host callback failed",
			slog.String("handle", obj.name),
			slog.Int("values", len(req.values)),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	}

	req.done <- response{values: values, err: err}
}

func (obj *Dispatcher) invoke(ctx context.Context, values []*string) (result []any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &host.HostError{Index: -1, Message: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return obj.callback.Invoke(ctx, values)
}

func (obj *Dispatcher) timeoutError(numValues int) error {
	obj.metrics.observeFailure(obj.name, "timeout")
	return fmt.Errorf(
		"%w| handle %s, %d values, timeout %s",
		ErrCallTimeout, obj.name, numValues, obj.options.Timeout,
	)
}
