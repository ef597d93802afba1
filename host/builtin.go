package host

import (
	"context"
	"strings"
)

// BuiltinCallbacks are small string functions that can be served without
// an external host, mostly useful for trying out a configuration.
func BuiltinCallbacks() map[string]ICallback {
	return map[string]ICallback{
		"uppercase": ElementFunc(func(ctx context.Context, value string) (any, error) {
			return strings.ToUpper(value), nil
		}),
		"lowercase": ElementFunc(func(ctx context.Context, value string) (any, error) {
			return strings.ToLower(value), nil
		}),
		"trim-space": ElementFunc(func(ctx context.Context, value string) (any, error) {
			return strings.TrimSpace(value), nil
		}),
		"reverse": ElementFunc(func(ctx context.Context, value string) (any, error) {
			runes := []rune(value)
			for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
				runes[i], runes[j] = runes[j], runes[i]
			}
			return string(runes), nil
		}),
	}
}
