package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	redsyncredis "github.com/go-redsync/redsync/v4/redis"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

type ILock interface {
	UnlockContext(context.Context) (bool, error)
	Name() string
}

type IKeyStorage interface {
	PushHostRequest(context.Context, string, []byte) error
	PopHostRequest(context.Context, string, time.Duration) ([]byte, error)
	PushHostResponse(context.Context, string, string, []byte) error
	PopHostResponse(context.Context, string, string, time.Duration) ([]byte, error)

	ClaimHandle(context.Context, string, time.Duration) (ILock, error)
	ReleaseHandle(context.Context, ILock) (bool, error)

	Close() error
}

type KeyStorageOptions struct {
	Address   string
	Password  string
	KeyPrefix string

	// how long an unread response is kept before redis drops it
	ResponseTTL time.Duration
}

type KeyStorage struct {
	logger *slog.Logger
	client *goredislib.Client
	pool   redsyncredis.Pool
	sync   *redsync.Redsync

	KeyPrefix   string
	responseTTL time.Duration
}

func NewKeyStorage(
	ctx context.Context,
	logger *slog.Logger,
	options KeyStorageOptions,
) (*KeyStorage, error) {
	client := goredislib.NewClient(&goredislib.Options{
		Addr:     options.Address,
		Password: options.Password,
		DB:       0, // use default DB
	})

	redisPool := goredis.NewPool(client)
	mutexSync := redsync.New(redisPool)

	responseTTL := options.ResponseTTL
	if responseTTL == 0 {
		responseTTL = time.Minute
	}

	keyStorage := KeyStorage{
		logger:      logger,
		client:      client,
		pool:        redisPool,
		sync:        mutexSync,
		KeyPrefix:   options.KeyPrefix,
		responseTTL: responseTTL,
	}
	return &keyStorage, nil
}

func (obj *KeyStorage) Close() error {
	return obj.client.Close()
}

func (obj *KeyStorage) Key(key string) string {
	return fmt.Sprintf("%s/%s", obj.KeyPrefix, key)
}

func (obj *KeyStorage) RequestKey(handle string) string {
	return obj.Key(fmt.Sprintf("host-calls/requests/%s", handle))
}

func (obj *KeyStorage) ResponseKey(handle, requestId string) string {
	return obj.Key(fmt.Sprintf("host-calls/responses/%s/%s", handle, requestId))
}

func (obj *KeyStorage) HandleLockKey(handle string) string {
	return obj.Key(fmt.Sprintf("host-calls/handle-lock/%s", handle))
}

func (obj *KeyStorage) DerCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	derivedCtx, cancelFunc := context.WithTimeout(ctx, time.Second*15)
	return derivedCtx, cancelFunc
}

// ClaimHandle waits until this process is the only owner of the handle.
func (obj *KeyStorage) ClaimHandle(ctx context.Context, handle string, duration time.Duration) (ILock, error) {
	mutex := obj.sync.NewMutex(
		obj.HandleLockKey(handle),
		redsync.WithExpiry(duration),
		redsync.WithTries(64),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, err
	}
	return mutex, nil
}

func (obj *KeyStorage) ReleaseHandle(ctx context.Context, lock ILock) (bool, error) {
	return lock.UnlockContext(ctx)
}

func (obj *KeyStorage) PushHostRequest(ctx context.Context, handle string, data []byte) error {
	ctx, cancelFunc := obj.DerCtx(ctx)
	defer cancelFunc()
	return obj.client.LPush(ctx, obj.RequestKey(handle), data).Err()
}

func (obj *KeyStorage) PopHostRequest(ctx context.Context, handle string, timeout time.Duration) ([]byte, error) {
	result := obj.client.BRPop(ctx, timeout, obj.RequestKey(handle))
	if errors.Is(result.Err(), goredislib.Nil) {
		return nil, ErrNoHostRequest
	} else if result.Err() != nil {
		return nil, result.Err()
	}
	return popValue(result.Val())
}

func (obj *KeyStorage) PushHostResponse(ctx context.Context, handle, requestId string, data []byte) error {
	ctx, cancelFunc := obj.DerCtx(ctx)
	defer cancelFunc()

	key := obj.ResponseKey(handle, requestId)
	pipe := obj.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.Expire(ctx, key, obj.responseTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (obj *KeyStorage) PopHostResponse(ctx context.Context, handle, requestId string, timeout time.Duration) ([]byte, error) {
	result := obj.client.BRPop(ctx, timeout, obj.ResponseKey(handle, requestId))
	if errors.Is(result.Err(), goredislib.Nil) {
		return nil, fmt.Errorf("%w| handle %s, request %s", ErrHostResponseTimeout, handle, requestId)
	} else if result.Err() != nil {
		return nil, result.Err()
	}
	return popValue(result.Val())
}

// BRPOP answers with [key, value]
func popValue(reply []string) ([]byte, error) {
	if len(reply) != 2 {
		return nil, fmt.Errorf("unexpected pop reply with %d elements", len(reply))
	}
	return []byte(reply[1]), nil
}
