package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoHostRequest = errors.New("no host request available")

	// wraps context.DeadlineExceeded so callers can treat it like any
	// other expired deadline
	ErrHostResponseTimeout = fmt.Errorf("host response timeout: %w", context.DeadlineExceeded)
)
