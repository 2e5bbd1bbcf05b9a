// Package redis wraps go-redis with the subset of commands the services use,
// served by a single node or by a crc16 sharded cluster.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const Nil = redis.Nil

type Client interface {
	Close() error
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, interface{}, time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	HGetAll(context.Context, string) *redis.StringStringMapCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
}

func Dial(ctx context.Context, url string) (_ Client, err error) {
	ropt, err := redis.ParseURL(url)
	if err != nil {
		return
	}
	rdb := redis.NewClient(ropt)
	if err = rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return
	}
	return rdb, nil
}

// DialAny dials a single node for one url and a cluster for more.
func DialAny(
	ctx context.Context, urls []string, opts ...ClusterOption) (Client, error) {
	switch len(urls) {
	case 0:
		return nil, fmt.Errorf("no redis url")
	case 1:
		return Dial(ctx, urls[0])
	default:
		return DialCluster(ctx, urls, opts...)
	}
}
