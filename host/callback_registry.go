package host

import (
	"fmt"
	"sort"

	"github.com/alekLukanen/errs"
)

type callbackRegistry struct {
	callbacks map[string]ICallback
}

func newCallbackRegistry() *callbackRegistry {
	return &callbackRegistry{
		callbacks: make(map[string]ICallback),
	}
}

func (obj *callbackRegistry) addCallback(handle string, callback ICallback) {
	obj.callbacks[handle] = callback
}

func (obj *callbackRegistry) findCallback(handle string) (ICallback, error) {
	callback, ok := obj.callbacks[handle]
	if !ok {
		return nil, errs.NewStackError(fmt.Errorf("%w| handle %s", ErrCallbackNotFoundInRegistry, handle))
	}
	return callback, nil
}

func (obj *callbackRegistry) handles() []string {
	handles := make([]string, 0, len(obj.callbacks))
	for h := range obj.callbacks {
		handles = append(handles, h)
	}
	sort.Strings(handles)
	return handles
}
