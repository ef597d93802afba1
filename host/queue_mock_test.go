package host

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/alekLukanen/columnmap/storage"
)

type MockHostQueue struct {
	mock.Mock
}

func (obj *MockHostQueue) PushHostRequest(ctx context.Context, handle string, data []byte) error {
	ret := obj.Called(ctx, handle, data)
	return ret.Error(0)
}

func (obj *MockHostQueue) PopHostResponse(ctx context.Context, handle, requestId string, timeout time.Duration) ([]byte, error) {
	ret := obj.Called(ctx, handle, requestId, timeout)
	data, _ := ret.Get(0).([]byte)
	return data, ret.Error(1)
}

func (obj *MockHostQueue) ClaimHandle(ctx context.Context, handle string, expiry time.Duration) (storage.ILock, error) {
	ret := obj.Called(ctx, handle, expiry)
	lock, _ := ret.Get(0).(storage.ILock)
	return lock, ret.Error(1)
}

func (obj *MockHostQueue) ReleaseHandle(ctx context.Context, lock storage.ILock) (bool, error) {
	ret := obj.Called(ctx, lock)
	return ret.Bool(0), ret.Error(1)
}

func (obj *MockHostQueue) PopHostRequest(ctx context.Context, handle string, timeout time.Duration) ([]byte, error) {
	ret := obj.Called(ctx, handle, timeout)
	data, _ := ret.Get(0).([]byte)
	return data, ret.Error(1)
}

func (obj *MockHostQueue) PushHostResponse(ctx context.Context, handle, requestId string, data []byte) error {
	ret := obj.Called(ctx, handle, requestId, data)
	return ret.Error(0)
}

type mockLock struct {
	name string
}

func (obj *mockLock) UnlockContext(ctx context.Context) (bool, error) {
	return true, nil
}

func (obj *mockLock) Name() string {
	return obj.name
}
