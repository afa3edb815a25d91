package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SonghaiFan/metroflow/pkg/cache"
)

// RedisStore keeps each snapshot in a string key and indexes names in a
// sorted set scored by update time.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures [NewRedisStore].
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key, "metroflow:map:" when empty.
	Prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	err := cache.RetryWithBackoff(ctx, 3, 200*time.Millisecond, func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			return cache.Retryable(err)
		}
		return nil
	})
	if err != nil {
		client.Close()
		return nil, storeErr(BackendRedis, "connect", fmt.Errorf("%s: %w", opts.Addr, err))
	}
	return NewRedisStoreFromClient(client, opts.Prefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "metroflow:map:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string { return s.prefix + "data:" + name }
func (s *RedisStore) index() string          { return s.prefix + "index" }

func (s *RedisStore) Put(ctx context.Context, name string, data []byte) (err error) {
	defer observe(ctx, BackendRedis, "put", time.Now(), &err)
	if err := checkPut(name, data); err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(name), data, 0)
		pipe.ZAdd(ctx, s.index(), redis.Z{Score: float64(time.Now().UnixMilli()), Member: name})
		return nil
	})
	return storeErr(BackendRedis, "put", err)
}

func (s *RedisStore) Get(ctx context.Context, name string) (data []byte, err error) {
	defer observe(ctx, BackendRedis, "get", time.Now(), &err)
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err = s.client.Get(ctx, s.key(name)).Bytes()
	if err == redis.Nil {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, storeErr(BackendRedis, "get", err)
	}
	return data, nil
}

func (s *RedisStore) List(ctx context.Context) (infos []Info, err error) {
	defer observe(ctx, BackendRedis, "list", time.Now(), &err)

	members, err := s.client.ZRangeWithScores(ctx, s.index(), 0, -1).Result()
	if err != nil {
		return nil, storeErr(BackendRedis, "list", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	sizes := make([]*redis.IntCmd, len(members))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, z := range members {
			sizes[i] = pipe.StrLen(ctx, s.key(z.Member.(string)))
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(BackendRedis, "list", err)
	}

	for i, z := range members {
		infos = append(infos, Info{
			Name:    z.Member.(string),
			Size:    sizes[i].Val(),
			Updated: time.UnixMilli(int64(z.Score)),
		})
	}
	sortInfos(infos)
	return infos, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) (err error) {
	defer observe(ctx, BackendRedis, "delete", time.Now(), &err)
	if err := validName(name); err != nil {
		return err
	}
	var del *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.key(name))
		pipe.ZRem(ctx, s.index(), name)
		return nil
	})
	if err != nil {
		return storeErr(BackendRedis, "delete", err)
	}
	if del.Val() == 0 {
		return notFound(name)
	}
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
