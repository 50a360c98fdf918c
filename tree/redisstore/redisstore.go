package redisstore

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/viettran-edgeAI/MCU-sub008/tree"
	"gopkg.in/redis.v5"
)

type redisStore struct {
	rc     *redis.Client
	prefix string
}

// New builds a tree.Store backed by a redis DB that keeps
// every blob under the given prefix
func New(rc *redis.Client, prefix string) tree.Store {
	return &redisStore{rc, prefix}
}

func (rs *redisStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	redisKey := rs.keyFor(key)
	_, err := rs.rc.Set(redisKey, data, 0).Result()
	if err != nil {
		return errors.Wrapf(err, "storing blob %q in redis", redisKey)
	}
	return nil
}

func (rs *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	redisKey := rs.keyFor(key)
	data, err := rs.rc.Get(redisKey).Bytes()
	if err == redis.Nil {
		return nil, tree.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "retrieving blob %q from redis", redisKey)
	}
	return data, nil
}

func (rs *redisStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	redisKey := rs.keyFor(key)
	_, err := rs.rc.Del(redisKey).Result()
	if err != nil {
		return errors.Wrapf(err, "deleting blob %q from redis", redisKey)
	}
	return nil
}

func (rs *redisStore) Close() error {
	return rs.rc.Close()
}

func (rs *redisStore) keyFor(key string) string {
	return fmt.Sprintf("%s:%s", rs.prefix, key)
}
