package dispatch

import "errors"

var (
	ErrCallTimeout      = errors.New("call across host boundary timed out")
	ErrDispatcherClosed = errors.New("dispatcher closed")
)
