// Package redis provides a storage backend on top of a Redis server,
// suitable for sharing quota state between processes.
package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// Backend stores values as plain Redis strings with PX expiry.
type Backend struct {
	client *redis.Client
}

// casScript compares the current value of a key against an expected one and
// swaps in the new value atomically. An empty expected value means the key
// must not exist. ARGV[3] is the TTL in milliseconds, 0 for none.
var casScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])

if ARGV[1] == '' then
	if current ~= false then
		return 0
	end
elseif current ~= ARGV[1] then
	return 0
end

if ARGV[3] == '0' then
	redis.call('SET', KEYS[1], ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
end
return 1
`)

// New connects to Redis and verifies the connection with a ping.
func New(config Config) (*Backend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, newConnectionFailedError(config.Addr, err)
	}

	return &Backend{client: client}, nil
}

// Client exposes the underlying go-redis client, mainly for test cleanup.
func (r *Backend) Client() *redis.Client {
	return r.client
}

func (r *Backend) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", newGetFailedError(key, err)
	}
	return val, nil
}

func (r *Backend) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	if err := r.client.Set(ctx, key, value, expiration).Err(); err != nil {
		return newSetFailedError(key, err)
	}
	return nil
}

// CheckAndSet atomically sets key to newValue only if the current value
// matches oldValue. oldValue == "" means "only set if the key is absent".
// Runs as a Lua script so the compare and the write cannot interleave with
// other clients.
func (r *Backend) CheckAndSet(ctx context.Context, key, oldValue, newValue string, expiration time.Duration) (bool, error) {
	expMs := "0"
	if expiration > 0 {
		expMs = strconv.FormatInt(expiration.Milliseconds(), 10)
	}

	result, err := casScript.Run(ctx, r.client, []string{key}, oldValue, newValue, expMs).Result()
	if err != nil {
		return false, newEvalFailedError(key, err)
	}

	n, ok := result.(int64)
	return ok && n == 1, nil
}

func (r *Backend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return newDeleteFailedError(key, err)
	}
	return nil
}

func (r *Backend) Close() error {
	if err := r.client.Close(); err != nil {
		return newCloseFailedError(err)
	}
	return nil
}
