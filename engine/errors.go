package engine

import "errors"

var (
	ErrCallbackNotRegistered      = errors.New("callback handle not registered")
	ErrObjectStorageNotConfigured = errors.New("object storage not configured")
	ErrUnknownRunner              = errors.New("unknown runner")
)
